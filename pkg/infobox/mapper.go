package infobox

// Map builds a record from a located block. Fields are visited in schema
// order; arguments the schema does not know are ignored.
func (s *Schema) Map(b *Block) (*Record, error) {
	rec := NewRecord(s.Template)
	for i := range s.Fields {
		f := &s.Fields[i]
		tok, ok := b.Lookup(f.Key)
		if ok && tok.Value == "" && f.NullOnEmpty {
			ok = false
		}
		if !ok {
			if f.Required {
				return nil, fieldError(f.Key, "", ErrMissingField)
			}
			if f.Default != nil {
				v, err := f.Parse(*f.Default)
				if err != nil {
					return nil, err
				}
				rec.set(f.Key, v)
			}
			continue
		}
		v, err := f.Parse(tok.Value)
		if err != nil {
			return nil, err
		}
		rec.set(f.Key, v)
	}
	return rec, nil
}

// Parse locates the first infobox of this schema in text and maps it. The
// block is returned for a later Serialize.
func (s *Schema) Parse(text string) (*Record, *Block, error) {
	b, err := Locate(text, s.Template)
	if err != nil {
		return nil, nil, err
	}
	rec, err := s.Map(b)
	if err != nil {
		return nil, nil, err
	}
	return rec, b, nil
}

// ParseAll maps every infobox of this schema in text.
func (s *Schema) ParseAll(text string) ([]*Record, []*Block, error) {
	blocks, err := LocateAll(text, s.Template)
	if err != nil {
		return nil, nil, err
	}
	recs := make([]*Record, 0, len(blocks))
	for _, b := range blocks {
		rec, err := s.Map(b)
		if err != nil {
			return nil, nil, err
		}
		recs = append(recs, rec)
	}
	return recs, blocks, nil
}
