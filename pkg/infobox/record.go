package infobox

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Record is a typed infobox. It is immutable: With and Without return
// modified copies and leave the receiver untouched.
type Record struct {
	template string
	keys     []string
	values   map[string]Value
}

func NewRecord(template string) *Record {
	return &Record{template: template, values: map[string]Value{}}
}

func (r *Record) Template() string { return r.template }

func (r *Record) Get(key string) (Value, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Keys returns the field keys in record order.
func (r *Record) Keys() []string {
	return append([]string(nil), r.keys...)
}

func (r *Record) Len() int { return len(r.keys) }

func (r *Record) With(key string, v Value) *Record {
	out := r.clone()
	out.set(key, v)
	return out
}

func (r *Record) Without(key string) *Record {
	out := r.clone()
	if _, ok := out.values[key]; !ok {
		return out
	}
	delete(out.values, key)
	for i, k := range out.keys {
		if k == key {
			out.keys = append(out.keys[:i], out.keys[i+1:]...)
			break
		}
	}
	return out
}

func (r *Record) set(key string, v Value) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = v
}

func (r *Record) clone() *Record {
	out := &Record{
		template: r.template,
		keys:     append([]string(nil), r.keys...),
		values:   make(map[string]Value, len(r.values)),
	}
	for k, v := range r.values {
		out.values[k] = v
	}
	return out
}

// Text returns the value of a string field, or "" when absent.
func (r *Record) Text(key string) string {
	if v, ok := r.values[key].(Text); ok {
		return string(v)
	}
	return ""
}

// MarshalJSON writes templateType followed by the fields in record order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"templateType":`)
	name, _ := json.Marshal(r.template)
	buf.Write(name)
	for _, key := range r.keys {
		encoded, err := marshalValue(r.values[key])
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", key, err)
		}
		k, _ := json.Marshal(key)
		buf.WriteByte(',')
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(encoded)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalValue(v Value) ([]byte, error) {
	switch x := v.(type) {
	case Text:
		return json.Marshal(string(x))
	case Int:
		return json.Marshal(int64(x))
	case Enum:
		return json.Marshal(x.Spelling)
	case Decimal:
		return json.Marshal(x.String())
	case Strings:
		if x == nil {
			x = Strings{}
		}
		return json.Marshal([]string(x))
	case Ints:
		if x == nil {
			x = Ints{}
		}
		return json.Marshal([]int64(x))
	}
	return nil, fmt.Errorf("%w: %s", ErrInvalidValue, describe(v))
}
