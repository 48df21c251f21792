package jsonschema

import "github.com/mitchellh/copystructure"

// Clone returns a deep copy of s. Nothing reachable from the copy is shared
// with s, including opaque keyword values.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	out := *s
	out.Properties = s.Properties.Clone()
	out.Definitions = s.Definitions.Clone()
	out.Items = s.Items.Clone()
	if s.Required != nil {
		out.Required = append([]string{}, s.Required...)
	}
	out.Keywords = cloneKeywords(s.Keywords)
	return &out
}

// CloneNode returns a deep copy of the node's own attributes without its
// children (properties, items, definitions), for callers rebuilding them.
func (s *Schema) CloneNode() *Schema {
	out := *s
	out.Properties = nil
	out.Items = nil
	out.Definitions = nil
	if s.Required != nil {
		out.Required = append([]string{}, s.Required...)
	}
	out.Keywords = cloneKeywords(s.Keywords)
	return &out
}

// Clone returns a deep copy of p.
func (p *Properties) Clone() *Properties {
	if p == nil {
		return nil
	}
	out := &Properties{
		keys: append([]string(nil), p.keys...),
		m:    make(map[string]*Schema, len(p.m)),
	}
	for k, v := range p.m {
		out.m[k] = v.Clone()
	}
	return out
}

func cloneKeywords(kws []Keyword) []Keyword {
	if kws == nil {
		return nil
	}
	out := make([]Keyword, len(kws))
	for i, kw := range kws {
		out[i] = Keyword{Name: kw.Name, Value: copystructure.Must(copystructure.Copy(kw.Value))}
	}
	return out
}
