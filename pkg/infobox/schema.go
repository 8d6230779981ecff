package infobox

import (
	"fmt"
	"strings"
)

type ListStyle string

const (
	// ListTemplate lists are written as a nested template whose positional
	// arguments are the elements, e.g. {{Dropped By|Grorlam|Stone Golem}}.
	ListTemplate ListStyle = "template"
	// ListDelimited lists are a flat value split on Delimiter.
	ListDelimited ListStyle = "delimited"
)

// ListRule describes how a list field is written. A template-style rule with
// a Delimiter also accepts flat delimited values when reading.
type ListRule struct {
	Style     ListStyle `yaml:"style" json:"style"`
	Template  string    `yaml:"template,omitempty" json:"template,omitempty"`
	Delimiter string    `yaml:"delimiter,omitempty" json:"delimiter,omitempty"`
	Joiner    string    `yaml:"joiner,omitempty" json:"joiner,omitempty"`
}

func (l *ListRule) joiner() string {
	if l.Joiner != "" {
		return l.Joiner
	}
	if strings.TrimSpace(l.Delimiter) == "" {
		return l.Delimiter
	}
	return l.Delimiter + " "
}

// Field is one entry of a template schema.
type Field struct {
	Key         string    `yaml:"key" json:"key"`
	Kind        Kind      `yaml:"type" json:"type"`
	Required    bool      `yaml:"required,omitempty" json:"required,omitempty"`
	NullOnEmpty bool      `yaml:"null_on_empty,omitempty" json:"nullOnEmpty,omitempty"`
	Domain      string    `yaml:"domain,omitempty" json:"domain,omitempty"`
	List        *ListRule `yaml:"list,omitempty" json:"list,omitempty"`
	Default     *string   `yaml:"default,omitempty" json:"default,omitempty"`

	domain *Domain
}

// Schema is the field set of one infobox template. Fields are kept in
// declaration order, which is also the order of parsed records.
type Schema struct {
	Template   string  `yaml:"template" json:"template"`
	Resource   string  `yaml:"resource" json:"resource"`
	Category   string  `yaml:"category" json:"category"`
	TitleField string  `yaml:"title_field,omitempty" json:"titleField,omitempty"`
	Fields     []Field `yaml:"fields" json:"fields"`

	index map[string]int
}

func (s *Schema) Field(key string) (*Field, bool) {
	i, ok := s.index[key]
	if !ok {
		return nil, false
	}
	return &s.Fields[i], true
}

// Title returns the article title a record belongs to.
func (s *Schema) Title(rec *Record) string {
	return rec.Text(s.TitleField)
}

func (s *Schema) prepare(domains map[string]*Domain) error {
	if strings.TrimSpace(s.Template) == "" {
		return fmt.Errorf("schema without template name")
	}
	if s.Resource == "" {
		s.Resource = strings.ToLower(strings.ReplaceAll(s.Template, " ", "")) + "s"
	}
	if s.Category == "" {
		s.Category = s.Template + "s"
	}
	if s.TitleField == "" {
		s.TitleField = "name"
	}
	s.index = make(map[string]int, len(s.Fields))
	for i := range s.Fields {
		f := &s.Fields[i]
		if f.Key == "" || strings.ContainsAny(f.Key, "|={}") {
			return fmt.Errorf("%s: invalid field key %q", s.Template, f.Key)
		}
		if _, dup := s.index[f.Key]; dup {
			return fmt.Errorf("%s: duplicate field %q", s.Template, f.Key)
		}
		s.index[f.Key] = i
		if err := f.prepare(domains); err != nil {
			return fmt.Errorf("%s.%s: %w", s.Template, f.Key, err)
		}
	}
	return nil
}

func (f *Field) prepare(domains map[string]*Domain) error {
	if !f.Kind.valid() {
		return fmt.Errorf("unknown type %q", f.Kind)
	}
	switch f.Kind {
	case KindEnum:
		d, ok := domains[f.Domain]
		if !ok {
			return fmt.Errorf("unknown domain %q", f.Domain)
		}
		f.domain = d
	case KindList, KindIntList:
		if f.List == nil {
			return fmt.Errorf("list field without list rule")
		}
		switch f.List.Style {
		case ListTemplate:
			if f.List.Template == "" {
				return fmt.Errorf("template list without template name")
			}
		case ListDelimited:
			if f.List.Delimiter == "" {
				return fmt.Errorf("delimited list without delimiter")
			}
		default:
			return fmt.Errorf("unknown list style %q", f.List.Style)
		}
	}
	if f.Default != nil {
		if _, err := f.Parse(*f.Default); err != nil {
			return fmt.Errorf("default: %w", err)
		}
	}
	return nil
}

// Domain is a closed set of accepted spellings grouped by meaning.
type Domain struct {
	Name   string        `yaml:"name" json:"name"`
	Values []DomainValue `yaml:"values" json:"values"`

	bySpelling map[string]string
}

type DomainValue struct {
	Meaning   string   `yaml:"meaning" json:"meaning"`
	Spellings []string `yaml:"spellings" json:"spellings"`
}

func (d *Domain) prepare() error {
	d.bySpelling = map[string]string{}
	for _, v := range d.Values {
		if v.Meaning == "" {
			return fmt.Errorf("domain %s: value without meaning", d.Name)
		}
		if len(v.Spellings) == 0 {
			return fmt.Errorf("domain %s: %s has no spellings", d.Name, v.Meaning)
		}
		for _, s := range v.Spellings {
			if _, dup := d.bySpelling[s]; dup {
				return fmt.Errorf("domain %s: spelling %q listed twice", d.Name, s)
			}
			d.bySpelling[s] = v.Meaning
		}
	}
	return nil
}

// Lookup resolves an exact spelling.
func (d *Domain) Lookup(spelling string) (Enum, bool) {
	meaning, ok := d.bySpelling[spelling]
	if !ok {
		return Enum{}, false
	}
	return Enum{Meaning: meaning, Spelling: spelling}, true
}

// Value returns meaning with its first listed spelling.
func (d *Domain) Value(meaning string) (Enum, bool) {
	for _, v := range d.Values {
		if v.Meaning == meaning {
			return Enum{Meaning: meaning, Spelling: v.Spellings[0]}, true
		}
	}
	return Enum{}, false
}

// Spellings lists every accepted spelling of an enum field in domain order.
func (f *Field) Spellings() []string {
	if f.domain == nil {
		return nil
	}
	var out []string
	for _, v := range f.domain.Values {
		out = append(out, v.Spellings...)
	}
	return out
}

// Parse converts the trimmed raw text of the field into its typed value.
func (f *Field) Parse(raw string) (Value, error) {
	switch f.Kind {
	case KindString:
		return Text(raw), nil
	case KindEnum:
		e, ok := f.domain.Lookup(raw)
		if !ok {
			return nil, fieldError(f.Key, raw, ErrUnknownEnumValue)
		}
		return e, nil
	case KindInt:
		n, err := parseInt(raw)
		if err != nil {
			return nil, fieldError(f.Key, raw, err)
		}
		return Int(n), nil
	case KindDecimal:
		d, err := ParseDecimal(raw)
		if err != nil {
			return nil, fieldError(f.Key, raw, err)
		}
		return d, nil
	case KindList:
		return Strings(f.items(raw)), nil
	case KindIntList:
		items := f.items(raw)
		out := make(Ints, 0, len(items))
		for _, item := range items {
			n, err := parseInt(item)
			if err != nil {
				return nil, fieldError(f.Key, item, err)
			}
			out = append(out, n)
		}
		return out, nil
	}
	return nil, fieldError(f.Key, raw, ErrInvalidValue)
}

// items splits a list value. The nested-template form goes through the same
// tokenizer as the enclosing infobox.
func (f *Field) items(raw string) []string {
	out := []string{}
	if raw == "" {
		return out
	}
	if nested, ok := parseNested(raw); ok && normalizeName(nested.Name) == normalizeName(f.List.Template) {
		for _, v := range nested.Positional() {
			if v != "" {
				out = append(out, v)
			}
		}
		return out
	}
	if f.List.Delimiter == "" {
		return append(out, raw)
	}
	for _, part := range strings.Split(raw, f.List.Delimiter) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Render is the inverse of Parse. original is the field's current raw text,
// used to keep the nested template name as it was written.
func (f *Field) Render(v Value, original string) (string, error) {
	if err := f.Check(v); err != nil {
		return "", err
	}
	switch x := v.(type) {
	case Text:
		return string(x), nil
	case Enum:
		return x.Spelling, nil
	case Int:
		return fmt.Sprint(int64(x)), nil
	case Decimal:
		return x.String(), nil
	case Strings:
		return f.renderList(x, original), nil
	case Ints:
		items := make([]string, len(x))
		for i, n := range x {
			items[i] = fmt.Sprint(n)
		}
		return f.renderList(items, original), nil
	}
	return "", fieldError(f.Key, describe(v), ErrInvalidValue)
}

// Check reports whether v can be written into the field and read back as the
// same value. Text must not split the argument or close the template, and
// list items must be non-blank single arguments free of the delimiter.
func (f *Field) Check(v Value) error {
	if v == nil || v.Kind() != f.Kind {
		return fieldError(f.Key, describe(v), ErrInvalidValue)
	}
	switch x := v.(type) {
	case Text:
		if args, _, ok := wellFormed(string(x)); !ok || args != 1 {
			return fieldError(f.Key, string(x), ErrInvalidValue)
		}
	case Enum:
		if e, ok := f.domain.Lookup(x.Spelling); !ok || e.Meaning != x.Meaning {
			return fieldError(f.Key, x.Spelling, ErrUnknownEnumValue)
		}
	case Strings:
		for _, item := range x {
			if !f.validItem(item) {
				return fieldError(f.Key, item, ErrInvalidValue)
			}
		}
	}
	return nil
}

func (f *Field) validItem(item string) bool {
	if strings.TrimSpace(item) == "" {
		return false
	}
	if f.List.Style == ListDelimited && strings.Contains(item, f.List.Delimiter) {
		return false
	}
	args, named, ok := wellFormed(item)
	if !ok || args != 1 {
		return false
	}
	return f.List.Style == ListDelimited || !named
}

func (f *Field) renderList(items []string, original string) string {
	if len(items) == 0 {
		return ""
	}
	if f.List.Style == ListDelimited {
		return strings.Join(items, f.List.joiner())
	}
	name := f.List.Template
	if nested, ok := parseNested(original); ok && normalizeName(nested.Name) == normalizeName(name) {
		name = nested.Name
	}
	return "{{" + name + "|" + strings.Join(items, "|") + "}}"
}
