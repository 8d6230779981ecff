package infobox

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}

func TestRecordJSON(t *testing.T) {
	_, rec, _ := parseSample(t)

	data := mustJSON(t, rec)
	assert.Contains(t, data, `{"templateType":"Item","name":"Carlin Sword","article":"a","actualname":"carlin sword"`)

	var got map[string]any
	require.NoError(t, json.Unmarshal([]byte(data), &got))
	assert.Equal(t, []any{float64(3283)}, got["itemid"])
	assert.Equal(t, []any{"Grorlam", "Stone Golem"}, got["droppedby"])
	assert.Equal(t, "40.00", got["weight"])
	assert.Equal(t, "yes", got["marketable"])
	assert.Equal(t, float64(13), got["defense"])
	assert.Equal(t, "If you have one of these", got["notes"])
}

func TestDecodeRecordRoundTrip(t *testing.T) {
	schema, rec, b := parseSample(t)

	decoded, err := schema.DecodeRecord([]byte(mustJSON(t, rec)))
	require.NoError(t, err)
	assert.Equal(t, rec.Keys(), decoded.Keys())

	out, err := schema.Serialize(carlinSword, b, decoded)
	require.NoError(t, err)
	assert.Equal(t, carlinSword, out)
}

func TestDecodeRecordClientPayload(t *testing.T) {
	schema, _, b := parseSample(t)
	payload := `{
		"templateType": "Item",
		"name": "Carlin Sword",
		"article": "a",
		"actualname": "carlin sword",
		"plural": "?",
		"itemid": [3283],
		"marketable": "yes",
		"usable": "yes",
		"sprites": "{{Frames|{{Frame Sprite|55266}}}}",
		"flavortext": "Foobar",
		"itemclass": "Weapons",
		"primarytype": "Sword Weapons",
		"levelrequired": 0,
		"hands": "One",
		"type": "Sword",
		"attack": "15",
		"defense": "13",
		"defensemod": "+1",
		"enchantable": "no",
		"weight": 40.00,
		"droppedby": ["Grorlam", "Stone Golem"],
		"value": "118",
		"npcvalue": "118",
		"npcprice": "473",
		"npcvaluerook": "0",
		"npcpricerook": "0",
		"buyfrom": "Baltim, Brengus, Cedrik,",
		"sellto": "Baltim, Brengus, Cedrik, Esrik,",
		"notes": "If you have one of these ",
		"unknown": {"dropped": true}
	}`

	rec, err := schema.DecodeRecord([]byte(payload))
	require.NoError(t, err)
	weight, _ := rec.Get("weight")
	assert.Equal(t, "40.00", weight.(Decimal).String())
	_, ok := rec.Get("unknown")
	assert.False(t, ok)

	out, err := schema.Serialize(carlinSword, b, rec)
	require.NoError(t, err)
	assert.Equal(t, carlinSword, out)
}

func TestDecodeRecordErrors(t *testing.T) {
	schema := itemSchema(t)
	tests := []struct {
		name    string
		payload string
		want    error
		field   string
	}{
		{name: "not json", payload: `{`, want: ErrInvalidValue},
		{name: "wrong template", payload: `{"templateType":"Creature","name":"X"}`, want: ErrTemplateMismatch, field: "templateType"},
		{name: "missing name", payload: `{"plural":"?"}`, want: ErrMissingField, field: "name"},
		{name: "null name", payload: `{"name":null}`, want: ErrMissingField, field: "name"},
		{name: "bad enum", payload: `{"name":"X","hands":"Three"}`, want: ErrUnknownEnumValue, field: "hands"},
		{name: "bad int", payload: `{"name":"X","defense":"high"}`, want: ErrInvalidNumber, field: "defense"},
		{name: "fractional int", payload: `{"name":"X","defense":1.5}`, want: ErrInvalidNumber, field: "defense"},
		{name: "bad list", payload: `{"name":"X","droppedby":"Rat"}`, want: ErrInvalidValue, field: "droppedby"},
		{name: "bad int list", payload: `{"name":"X","itemid":[1,"x"]}`, want: ErrInvalidNumber, field: "itemid"},
		{name: "pipe in text", payload: `{"name":"X","notes":"fine|itemid=9999"}`, want: ErrInvalidValue, field: "notes"},
		{name: "braces in text", payload: `{"name":"X}}"}`, want: ErrInvalidValue, field: "name"},
		{name: "pipe in list item", payload: `{"name":"X","droppedby":["Rat|Orc"]}`, want: ErrInvalidValue, field: "droppedby"},
		{name: "empty list item", payload: `{"name":"X","droppedby":["Rat",""]}`, want: ErrInvalidValue, field: "droppedby"},
		{name: "string as object", payload: `{"name":{"a":1}}`, want: ErrInvalidValue, field: "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := schema.DecodeRecord([]byte(tt.payload))
			require.ErrorIs(t, err, tt.want)
			if tt.field != "" {
				var fe *FieldError
				require.ErrorAs(t, err, &fe)
				assert.Equal(t, tt.field, fe.Field)
			}
		})
	}
}
