package infobox

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const carlinSword = "{{Infobox Item|List={{{1|}}}|GetValue={{{GetValue|}}}\n" +
	"| name          = Carlin Sword\n" +
	"| article       = a\n" +
	"| actualname    = carlin sword\n" +
	"| plural        = ?\n" +
	"| itemid        = 3283\n" +
	"| marketable    = yes\n" +
	"| usable        = yes\n" +
	"| sprites       = {{Frames|{{Frame Sprite|55266}}}}\n" +
	"| flavortext    = Foobar\n" +
	"| itemclass     = Weapons\n" +
	"| primarytype   = Sword Weapons\n" +
	"| levelrequired = 0\n" +
	"| hands         = One\n" +
	"| type          = Sword\n" +
	"| attack        = 15\n" +
	"| defense       = 13\n" +
	"| defensemod    = +1\n" +
	"| enchantable   = no\n" +
	"| weight        = 40.00\n" +
	"| droppedby     = {{Dropped By|Grorlam|Stone Golem}}\n" +
	"| value         = 118\n" +
	"| npcvalue      = 118\n" +
	"| npcprice      = 473\n" +
	"| npcvaluerook  = 0\n" +
	"| npcpricerook  = 0\n" +
	"| buyfrom       = Baltim, Brengus, Cedrik,\n" +
	"| sellto        = Baltim, Brengus, Cedrik, Esrik,\n" +
	"| notes         = If you have one of these \n" +
	"}}\n"

func TestLocateSample(t *testing.T) {
	b, err := Locate(carlinSword, "Item")
	require.NoError(t, err)

	assert.Equal(t, "Infobox Item", b.Name)
	assert.Equal(t, 0, b.Start)
	assert.Equal(t, len(carlinSword)-1, b.End)
	require.Len(t, b.Tokens, 30)

	assert.Equal(t, "List", b.Tokens[0].Key)
	assert.Equal(t, "{{{1|}}}", b.Tokens[0].Value)
	assert.Equal(t, "GetValue", b.Tokens[1].Key)
	assert.Equal(t, "{{{GetValue|}}}", b.Tokens[1].Value)

	sprites, ok := b.Lookup("sprites")
	require.True(t, ok)
	assert.Equal(t, "{{Frames|{{Frame Sprite|55266}}}}", sprites.Value)

	notes, ok := b.Lookup("notes")
	require.True(t, ok)
	assert.Equal(t, "If you have one of these", notes.Value)
	assert.Equal(t, notes.Value, carlinSword[notes.ValueStart:notes.ValueEnd])

	dropped, ok := b.Lookup("droppedby")
	require.True(t, ok)
	assert.Equal(t, "{{Dropped By|Grorlam|Stone Golem}}", dropped.Value)
	assert.Equal(t, "| droppedby     = {{Dropped By|Grorlam|Stone Golem}}\n", carlinSword[dropped.Start:dropped.End])
}

func TestLocateErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		want error
	}{
		{name: "no template", text: "Just some prose about a sword.", want: ErrTemplateNotFound},
		{name: "other type", text: "{{Infobox Creature|name = Rat}}", want: ErrTemplateNotFound},
		{name: "prefix only", text: "{{Infobox Items|name = X}}", want: ErrTemplateNotFound},
		{name: "never closed", text: "{{Infobox Item|name = X\n| droppedby = {{Dropped By|A}}\n", want: ErrMalformedTemplate},
		{name: "unclosed comment", text: "{{Infobox Item|name = X <!-- oops }}", want: ErrMalformedTemplate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Locate(tt.text, "Item")
			require.ErrorIs(t, err, tt.want)
			assert.Nil(t, b)
		})
	}
}

func TestLocateNesting(t *testing.T) {
	text := "Intro {{Quote|x}}\n" +
		"{{Infobox Item|name = Sword\n" +
		"| notes = See [[Sword|swords]] and {{Link|a|b=c}} <!-- | ignored = 1 -->\n" +
		"| words = \n" +
		"}} outro"

	b, err := Locate(text, "Item")
	require.NoError(t, err)
	require.Len(t, b.Tokens, 3)

	assert.Equal(t, "name", b.Tokens[0].Key)
	assert.Equal(t, "Sword", b.Tokens[0].Value)
	assert.Equal(t, "notes", b.Tokens[1].Key)
	assert.Equal(t, "See [[Sword|swords]] and {{Link|a|b=c}} <!-- | ignored = 1 -->", b.Tokens[1].Value)

	words := b.Tokens[2]
	assert.Equal(t, "words", words.Key)
	assert.Equal(t, "", words.Value)
	assert.Equal(t, words.ValueStart, words.ValueEnd)
	assert.Equal(t, "| words = ", text[words.Start:words.ValueStart])
	assert.Equal(t, " outro", text[b.End:])
}

func TestLocateNameFolding(t *testing.T) {
	for _, text := range []string{
		"{{infobox Item|name=A}}",
		"{{Infobox_Item|name=A}}",
		"{{ Infobox  Item \n|name=A}}",
	} {
		b, err := Locate(text, "Item")
		require.NoError(t, err, text)
		v, ok := b.Lookup("name")
		require.True(t, ok)
		assert.Equal(t, "A", v.Value)
	}
}

func TestLocateAll(t *testing.T) {
	text := "{{Infobox Item|name=A}}\ntext\n{{Infobox Item|name=B}}{{Infobox Creature|name=C}}"

	blocks, err := LocateAll(text, "Item")
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	a, _ := blocks[0].Lookup("name")
	b, _ := blocks[1].Lookup("name")
	assert.Equal(t, "A", a.Value)
	assert.Equal(t, "B", b.Value)
}

func TestPositionalArguments(t *testing.T) {
	b, ok := parseNested("{{Dropped By| Grorlam |Stone Golem|note=x|}}")
	require.True(t, ok)
	assert.Equal(t, "Dropped By", b.Name)
	assert.Equal(t, []string{"Grorlam", "Stone Golem", ""}, b.Positional())

	_, ok = parseNested("{{Dropped By|A}} and more")
	assert.False(t, ok)
	_, ok = parseNested("plain")
	assert.False(t, ok)
}

func TestLookupLastDuplicateWins(t *testing.T) {
	b, err := Locate("{{Infobox Item|name=A|name=B}}", "Item")
	require.NoError(t, err)
	tok, ok := b.Lookup("name")
	require.True(t, ok)
	assert.Equal(t, "B", tok.Value)
	assert.Len(t, b.occurrences("name"), 2)
}

func TestUnclosedLinkKeepsLaterArguments(t *testing.T) {
	for _, text := range []string{
		"{{Infobox Item|name=X\n| notes = see [[Foo\n| weight = 1.50\n}}",
		"{{Infobox Item|name=X|notes=see [[Foo|weight=1.50}}",
	} {
		b, err := Locate(text, "Item")
		require.NoError(t, err, text)
		weight, ok := b.Lookup("weight")
		require.True(t, ok, text)
		assert.Equal(t, "1.50", weight.Value)
		notes, _ := b.Lookup("notes")
		assert.Equal(t, "see [[Foo", notes.Value)
		assert.Equal(t, len(text), b.End)
	}
}

func TestSingleBracesAreText(t *testing.T) {
	text := "{{Infobox Item|name=X|notes=a } b { c|weight=1.50}} after"
	b, err := Locate(text, "Item")
	require.NoError(t, err)
	assert.Equal(t, len(text)-len(" after"), b.End)
	notes, _ := b.Lookup("notes")
	assert.Equal(t, "a } b { c", notes.Value)
	weight, ok := b.Lookup("weight")
	require.True(t, ok)
	assert.Equal(t, "1.50", weight.Value)
}

func TestWellFormed(t *testing.T) {
	tests := []struct {
		value string
		args  int
		named bool
		ok    bool
	}{
		{value: "plain", args: 1, ok: true},
		{value: "a=b", args: 1, named: true, ok: true},
		{value: "[[Sword|swords]] and {{Link|a|b=c}}", args: 1, ok: true},
		{value: "{{Frames|{{Frame Sprite|1}}}}", args: 1, ok: true},
		{value: "fine|itemid=9999", args: 2, ok: true},
		{value: "[[Foo|bar", args: 2, ok: true},
		{value: "Troll}}", ok: false},
		{value: "{{Open", ok: false},
		{value: "<!-- open", ok: false},
	}
	for _, tt := range tests {
		args, named, ok := wellFormed(tt.value)
		assert.Equal(t, tt.ok, ok, tt.value)
		if tt.ok {
			assert.Equal(t, tt.args, args, tt.value)
			assert.Equal(t, tt.named, named, tt.value)
		}
	}
}
