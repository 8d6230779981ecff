package infobox

import (
	"fmt"
	"sort"
	"strings"
)

type edit struct {
	start, end int
	text       string
}

// Serialize writes rec back into text, which must be the text b was located
// in. Unchanged fields keep their original bytes, changed fields are
// re-rendered in place, optional schema fields missing from rec are removed and schema
// fields new to the block are appended before its closing braces. Arguments
// the schema does not know and everything outside the block are copied
// through untouched.
func (s *Schema) Serialize(text string, b *Block, rec *Record) (string, error) {
	if normalizeName(rec.Template()) != normalizeName(s.Template) {
		return "", fmt.Errorf("%w: record is %q, schema is %q", ErrTemplateMismatch, rec.Template(), s.Template)
	}
	var edits []edit
	var added []string
	for i := range s.Fields {
		f := &s.Fields[i]
		v, has := rec.Get(f.Key)
		tok, present := b.Lookup(f.Key)

		if !has {
			if f.Required {
				return "", fieldError(f.Key, "", ErrMissingField)
			}
			for _, occ := range b.occurrences(f.Key) {
				if occ.Value == "" && f.NullOnEmpty {
					continue
				}
				edits = append(edits, edit{start: occ.Start, end: occ.End})
			}
			continue
		}

		if !present {
			if f.Default != nil {
				if def, err := f.Parse(*f.Default); err == nil && Equal(def, v) {
					continue
				}
			}
			rendered, err := f.Render(v, "")
			if err != nil {
				return "", err
			}
			added = append(added, s.layout(text, b, f.Key, rendered))
			continue
		}

		if old, err := f.Parse(tok.Value); err == nil && Equal(old, v) {
			continue
		}
		rendered, err := f.Render(v, tok.Value)
		if err != nil {
			return "", err
		}
		if rendered != tok.Value {
			edits = append(edits, edit{start: tok.ValueStart, end: tok.ValueEnd, text: rendered})
		}
	}
	if len(added) > 0 {
		at := b.End - 2
		insert := strings.Join(added, "")
		if isMultiline(text, b) && at > 0 && text[at-1] != '\n' {
			insert = "\n" + insert
		}
		edits = append(edits, edit{start: at, end: at, text: insert})
	}
	return apply(text, edits), nil
}

// Edit locates the infobox in text and serializes rec into it.
func (s *Schema) Edit(text string, rec *Record) (string, error) {
	b, err := Locate(text, s.Template)
	if err != nil {
		return "", err
	}
	return s.Serialize(text, b, rec)
}

func apply(text string, edits []edit) string {
	if len(edits) == 0 {
		return text
	}
	sort.SliceStable(edits, func(i, j int) bool { return edits[i].start < edits[j].start })
	var sb strings.Builder
	sb.Grow(len(text))
	last := 0
	for _, e := range edits {
		sb.WriteString(text[last:e.start])
		sb.WriteString(e.text)
		last = e.end
	}
	sb.WriteString(text[last:])
	return sb.String()
}

func isMultiline(text string, b *Block) bool {
	return strings.Contains(text[b.Start:b.End], "\n")
}

// layout renders a new argument in the style of the block's last named
// argument: same prefix, key column width and spacing around '='.
func (s *Schema) layout(text string, b *Block, key, value string) string {
	var ref *Token
	for i := len(b.Tokens) - 1; i >= 0; i-- {
		if b.Tokens[i].Sep >= 0 {
			ref = &b.Tokens[i]
			break
		}
	}
	newline := ""
	if isMultiline(text, b) {
		newline = "\n"
	}
	if ref == nil {
		return "|" + key + "=" + value + newline
	}
	column := text[ref.KeyStart:ref.Sep]
	lead := column[:len(column)-len(strings.TrimLeft(column, " \t"))]
	keyCol := strings.TrimLeft(column, " \t")
	width := len(keyCol)
	padded := key
	switch {
	case len(key) < width:
		padded = key + strings.Repeat(" ", width-len(key))
	case strings.HasSuffix(keyCol, " "):
		padded = key + " "
	}
	gap := text[ref.Sep+1 : ref.ValueStart]
	if strings.Contains(gap, "\n") || gap == "" && strings.HasSuffix(keyCol, " ") {
		gap = " "
	}
	return "|" + lead + padded + "=" + gap + value + newline
}
