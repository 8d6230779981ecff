package infobox

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// DecodeRecord builds a record from its JSON form as produced by
// Record.MarshalJSON. Values are validated against the schema the same way
// parsed markup is; null and missing keys mean absent, unknown keys are
// dropped. Numbers may also be given as strings.
func (s *Schema) DecodeRecord(data []byte) (*Record, error) {
	var obj map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&obj); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidValue, err)
	}
	if raw, ok := obj["templateType"]; ok {
		var name string
		if err := json.Unmarshal(raw, &name); err != nil || normalizeName(name) != normalizeName(s.Template) {
			return nil, fieldError("templateType", string(raw), ErrTemplateMismatch)
		}
	}
	rec := NewRecord(s.Template)
	for i := range s.Fields {
		f := &s.Fields[i]
		raw, ok := obj[f.Key]
		if !ok || string(bytes.TrimSpace(raw)) == "null" {
			if f.Required {
				return nil, fieldError(f.Key, "", ErrMissingField)
			}
			continue
		}
		v, err := f.decode(raw)
		if err != nil {
			return nil, err
		}
		if err := f.Check(v); err != nil {
			return nil, err
		}
		rec.set(f.Key, v)
	}
	return rec, nil
}

func (f *Field) decode(raw json.RawMessage) (Value, error) {
	switch f.Kind {
	case KindString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fieldError(f.Key, string(raw), ErrInvalidValue)
		}
		return Text(s), nil
	case KindEnum:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fieldError(f.Key, string(raw), ErrInvalidValue)
		}
		return f.Parse(s)
	case KindInt, KindDecimal:
		text, err := scalarText(raw)
		if err != nil {
			return nil, fieldError(f.Key, string(raw), ErrInvalidNumber)
		}
		return f.Parse(text)
	case KindList:
		var items []string
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fieldError(f.Key, string(raw), ErrInvalidValue)
		}
		if items == nil {
			items = []string{}
		}
		return Strings(items), nil
	case KindIntList:
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, fieldError(f.Key, string(raw), ErrInvalidValue)
		}
		out := make(Ints, 0, len(items))
		for _, item := range items {
			text, err := scalarText(item)
			if err != nil {
				return nil, fieldError(f.Key, string(item), ErrInvalidNumber)
			}
			n, err := parseInt(text)
			if err != nil {
				return nil, fieldError(f.Key, text, err)
			}
			out = append(out, n)
		}
		return out, nil
	}
	return nil, fieldError(f.Key, string(raw), ErrInvalidValue)
}

// scalarText returns the literal text of a JSON number, or the content of a
// JSON string, keeping every digit as written.
func scalarText(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}
