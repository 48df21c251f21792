// Package jsonschema models the subset of JSON Schema (draft-07) that form
// derivation works with.
//
// A node's Kind is decided once, when the node is decoded or constructed, so
// the resolver and visitor switch on Kind rather than re-inspecting type
// strings and pointer fields at every step. Keywords the model does not give
// a field to (pattern, enum, minLength, title, ...) are kept verbatim, in
// declaration order, and are written back out on encode.
package jsonschema

import "strings"

// Kind discriminates schema nodes.
type Kind int

const (
	// KindEmpty is a node without any constraint ({}).
	KindEmpty Kind = iota
	// KindRef is a node holding a reference pointer into the definitions table.
	KindRef
	// KindObject is a node declaring type "object" or nested properties.
	KindObject
	// KindArray is a node declaring type "array" or items.
	KindArray
	// KindScalar is any other constrained node (string, number, enum, ...).
	KindScalar
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindRef:
		return "ref"
	case KindObject:
		return "object"
	case KindArray:
		return "array"
	case KindScalar:
		return "scalar"
	}
	return "unknown"
}

// Draft07 is the meta-schema URI written into root documents.
const Draft07 = "http://json-schema.org/draft-07/schema#"

// Schema is a single schema node.
type Schema struct {
	Kind Kind

	Type       string
	Ref        string
	Format     string
	Properties *Properties
	Items      *Schema
	// Required is nil when the node does not declare "required".
	Required []string
	// Definitions is only populated on root documents.
	Definitions *Properties
	Keywords    []Keyword
}

// Keyword is a schema keyword without a dedicated field.
type Keyword struct {
	Name  string
	Value any
}

// Empty returns the {} schema. Extraction uses it as the "no form" sentinel.
func Empty() *Schema { return &Schema{Kind: KindEmpty} }

// NewObject returns an object node with no properties.
func NewObject() *Schema {
	return &Schema{Kind: KindObject, Type: "object", Properties: NewProperties()}
}

// NewArray returns an array node of items.
func NewArray(items *Schema) *Schema {
	return &Schema{Kind: KindArray, Type: "array", Items: items}
}

// NewScalar returns a leaf node of the given JSON type.
func NewScalar(typ string) *Schema {
	return &Schema{Kind: KindScalar, Type: typ}
}

// NewRef returns a reference to the named definition.
func NewRef(name string) *Schema {
	return &Schema{Kind: KindRef, Ref: definitionsPrefix + name}
}

const definitionsPrefix = "#/definitions/"

// RefName returns the definition name addressed by the node's pointer.
// Both "#/definitions/<name>" and "definitions/<name>" are accepted.
func (s *Schema) RefName() (string, bool) {
	if s == nil || s.Ref == "" {
		return "", false
	}
	ref := strings.TrimPrefix(s.Ref, "#")
	ref = strings.TrimPrefix(ref, "/")
	name, ok := strings.CutPrefix(ref, "definitions/")
	if !ok || name == "" {
		return "", false
	}
	return unescapePointer(name), true
}

// HasProperties reports whether the node declares a properties mapping.
func (s *Schema) HasProperties() bool {
	return s != nil && s.Properties != nil
}

// Keyword returns the value of an extra keyword.
func (s *Schema) Keyword(name string) (any, bool) {
	if s == nil {
		return nil, false
	}
	for _, kw := range s.Keywords {
		if kw.Name == name {
			return kw.Value, true
		}
	}
	return nil, false
}

// SetKeyword sets an extra keyword, keeping its position when it already exists.
func (s *Schema) SetKeyword(name string, value any) *Schema {
	for i := range s.Keywords {
		if s.Keywords[i].Name == name {
			s.Keywords[i].Value = value
			return s
		}
	}
	s.Keywords = append(s.Keywords, Keyword{Name: name, Value: value})
	if s.Kind == KindEmpty {
		s.Kind = KindScalar
	}
	return s
}

// SetRequired replaces the required list.
func (s *Schema) SetRequired(names ...string) *Schema {
	s.Required = append([]string{}, names...)
	return s
}

// SetFormat sets the format annotation.
func (s *Schema) SetFormat(format string) *Schema {
	s.Format = format
	if s.Kind == KindEmpty {
		s.Kind = KindScalar
	}
	return s
}

// Property adds a property to an object node and returns the node.
func (s *Schema) Property(name string, prop *Schema) *Schema {
	if s.Properties == nil {
		s.Properties = NewProperties()
	}
	s.Properties.Set(name, prop)
	return s
}

// Definition adds an entry to the root definitions table and returns the node.
func (s *Schema) Definition(name string, def *Schema) *Schema {
	if s.Definitions == nil {
		s.Definitions = NewProperties()
	}
	s.Definitions.Set(name, def)
	return s
}

// IsRequired reports whether name is listed in the node's required set.
func (s *Schema) IsRequired(name string) bool {
	if s == nil {
		return false
	}
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

func unescapePointer(s string) string {
	if !strings.Contains(s, "~") {
		return s
	}
	return strings.NewReplacer("~1", "/", "~0", "~").Replace(s)
}
