package infobox

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	reg := testRegistry(t)

	for _, name := range []string{"Item", "Creature", "Spell", "Building", "Book", "Key", "Mount", "Outfit", "NPC", "Quest"} {
		s, ok := reg.Schema(name)
		require.True(t, ok, name)
		byResource, ok := reg.ByResource(s.Resource)
		require.True(t, ok, s.Resource)
		assert.Same(t, s, byResource)
		assert.NotEmpty(t, s.Category)
	}

	item, _ := reg.ByResource("items")
	assert.Equal(t, "Item", item.Template)
	assert.Equal(t, "name", item.TitleField)

	yesno, ok := reg.Domain("yesno")
	require.True(t, ok)
	v, ok := yesno.Value("yes")
	require.True(t, ok)
	assert.Equal(t, Enum{Meaning: "yes", Spelling: "yes"}, v)
	_, ok = yesno.Lookup("YES")
	assert.False(t, ok)
}

func TestLoadRegistryValidation(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{
			name: "unknown domain",
			doc:  "schemas:\n  - template: A\n    fields:\n      - {key: x, type: enum, domain: nope}\n",
			want: "unknown domain",
		},
		{
			name: "duplicate field",
			doc:  "schemas:\n  - template: A\n    fields:\n      - {key: x, type: string}\n      - {key: x, type: int}\n",
			want: "duplicate field",
		},
		{
			name: "unknown type",
			doc:  "schemas:\n  - template: A\n    fields:\n      - {key: x, type: date}\n",
			want: "unknown type",
		},
		{
			name: "list without rule",
			doc:  "schemas:\n  - template: A\n    fields:\n      - {key: x, type: list}\n",
			want: "without list rule",
		},
		{
			name: "bad default",
			doc:  "schemas:\n  - template: A\n    fields:\n      - {key: x, type: int, default: many}\n",
			want: "default",
		},
		{
			name: "duplicate spelling",
			doc:  "domains:\n  - name: d\n    values:\n      - {meaning: a, spellings: [x]}\n      - {meaning: b, spellings: [x]}\n",
			want: "listed twice",
		},
		{
			name: "duplicate schema",
			doc:  "schemas:\n  - template: A\n    resource: a1\n  - template: a\n    resource: a2\n",
			want: "duplicate schema",
		},
		{
			name: "bad key",
			doc:  "schemas:\n  - template: A\n    fields:\n      - {key: \"a|b\", type: string}\n",
			want: "invalid field key",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadRegistry([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadRegistryDefaultsAndFile(t *testing.T) {
	doc := "schemas:\n  - template: Hunting Place\n    fields:\n      - {key: name, type: string, required: true}\n"
	path := filepath.Join(t.TempDir(), "schemas.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	reg, err := LoadRegistryFile(path)
	require.NoError(t, err)
	s, ok := reg.Schema("hunting_Place")
	require.True(t, ok)
	assert.Equal(t, "huntingplaces", s.Resource)
	assert.Equal(t, "Hunting Places", s.Category)

	rec, _, err := s.Parse("{{Infobox Hunting Place|name=Rat Cave}}")
	require.NoError(t, err)
	assert.Equal(t, "Rat Cave", s.Title(rec))

	_, err = LoadRegistryFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
