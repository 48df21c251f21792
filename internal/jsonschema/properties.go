package jsonschema

import "iter"

// Properties is a name -> schema mapping that remembers declaration order.
// The zero value is not usable; a nil *Properties behaves as empty for reads.
type Properties struct {
	keys []string
	m    map[string]*Schema
}

func NewProperties() *Properties {
	return &Properties{m: make(map[string]*Schema)}
}

// Len returns the number of entries.
func (p *Properties) Len() int {
	if p == nil {
		return 0
	}
	return len(p.keys)
}

// Get returns the schema declared under name.
func (p *Properties) Get(name string) (*Schema, bool) {
	if p == nil {
		return nil, false
	}
	s, ok := p.m[name]
	return s, ok
}

// Set assigns name. New names are appended; existing names keep their position.
func (p *Properties) Set(name string, s *Schema) {
	if _, ok := p.m[name]; !ok {
		p.keys = append(p.keys, name)
	}
	p.m[name] = s
}

// Keys returns the names in declaration order.
func (p *Properties) Keys() []string {
	if p == nil {
		return nil
	}
	return append([]string(nil), p.keys...)
}

// All iterates entries in declaration order.
func (p *Properties) All() iter.Seq2[string, *Schema] {
	return func(yield func(string, *Schema) bool) {
		if p == nil {
			return
		}
		for _, k := range p.keys {
			if !yield(k, p.m[k]) {
				return
			}
		}
	}
}
