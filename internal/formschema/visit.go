package formschema

import (
	"iter"

	"github.com/hanpama/frontier/internal/jsonschema"
)

// FieldDescriptor describes one leaf field of a form schema.
type FieldDescriptor struct {
	// Path is the dot-joined property path, e.g. "todo.name".
	Path       string
	Definition *jsonschema.Schema
	// Required reports membership of the field's name in the required list of
	// its nearest enclosing object.
	Required bool
}

// Fields iterates the leaf fields of s depth-first in declaration order.
// Properties declaring type "object" are descended into and are not yielded
// themselves; any other property, including one with nested properties but
// no type, is a leaf.
// The sequence holds no state and can be ranged over any number of times.
func Fields(s *jsonschema.Schema) iter.Seq[FieldDescriptor] {
	return func(yield func(FieldDescriptor) bool) {
		walk(s, "", yield)
	}
}

// Walk calls fn for every leaf field of s, in the order of Fields.
func Walk(s *jsonschema.Schema, fn func(path string, def *jsonschema.Schema, required bool)) {
	for f := range Fields(s) {
		fn(f.Path, f.Definition, f.Required)
	}
}

func walk(s *jsonschema.Schema, prefix string, yield func(FieldDescriptor) bool) bool {
	if s == nil {
		return true
	}
	for key, prop := range s.Properties.All() {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if prop != nil && prop.Type == "object" {
			if !walk(prop, path, yield) {
				return false
			}
			continue
		}
		if !yield(FieldDescriptor{Path: path, Definition: prop, Required: s.IsRequired(key)}) {
			return false
		}
	}
	return true
}
