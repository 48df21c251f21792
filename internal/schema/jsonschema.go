package schema

import (
	"sort"

	"github.com/hanpama/frontier/internal/json"
	"github.com/hanpama/frontier/internal/jsonschema"
)

// ToJSONSchema converts s into a root JSON Schema document:
//
//	{
//	  "properties": {
//	    "<RootType>": {"type": "object", "properties": {
//	      "<field>": {"type": "object", "properties": {"return": ..., "arguments": ...}}
//	    }}
//	  },
//	  "definitions": {"<TypeName>": ...},
//	  "$schema": "http://json-schema.org/draft-07/schema#"
//	}
//
// Enums, input objects, objects, interfaces and unions are emitted as
// definitions and addressed through "#/definitions/<TypeName>". Built-in
// scalars are inlined with their JSON type; custom scalars accept any value.
// Non-null arguments and input fields are listed in "required".
func ToJSONSchema(s *Schema) *jsonschema.Schema {
	root := &jsonschema.Schema{Kind: jsonschema.KindObject}
	root.SetKeyword("$schema", jsonschema.Draft07)

	for _, name := range []string{s.QueryType, s.MutationType, s.SubscriptionType} {
		t, ok := s.Types[name]
		if name == "" || !ok {
			continue
		}
		root.Property(name, s.operations(t))
	}

	names := make([]string, 0, len(s.Types))
	for name, t := range s.Types {
		if t.Kind != TypeKindScalar {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	root.Definitions = jsonschema.NewProperties()
	for _, name := range names {
		root.Definition(name, s.definition(s.Types[name]))
	}
	return root
}

// operations describes every field of a root type with its return type and
// arguments.
func (s *Schema) operations(t *Type) *jsonschema.Schema {
	out := jsonschema.NewObject().SetRequired()
	for _, f := range t.Fields {
		op := jsonschema.NewObject().SetRequired()
		describe(op, f.Description)
		op.Property("return", s.typeRef(f.Type))
		op.Property("arguments", s.inputObject(f.Arguments))
		out.Property(f.Name, op)
	}
	return out
}

func (s *Schema) definition(t *Type) *jsonschema.Schema {
	var out *jsonschema.Schema
	switch t.Kind {
	case TypeKindEnum:
		values := make([]any, 0, len(t.EnumValues))
		for _, v := range t.EnumValues {
			values = append(values, v.Name)
		}
		out = jsonschema.NewScalar("string").SetKeyword("enum", values)
	case TypeKindInputObject:
		out = s.inputObject(t.InputFields)
		if t.OneOf {
			out.SetKeyword("minProperties", 1).SetKeyword("maxProperties", 1)
		}
	case TypeKindObject, TypeKindInterface:
		out = jsonschema.NewObject().SetRequired()
		for _, f := range t.Fields {
			out.Property(f.Name, s.typeRef(f.Type))
			if f.Type.IsNonNull() {
				out.Required = append(out.Required, f.Name)
			}
		}
	case TypeKindUnion:
		refs := make([]any, 0, len(t.PossibleTypes))
		for _, name := range t.PossibleTypes {
			refs = append(refs, map[string]any{"$ref": jsonschema.NewRef(name).Ref})
		}
		out = jsonschema.Empty().SetKeyword("anyOf", refs)
	default:
		out = jsonschema.Empty()
	}
	return describe(out, t.Description)
}

// inputObject describes a list of input values as an object whose required
// list holds the non-null ones.
func (s *Schema) inputObject(values []*InputValue) *jsonschema.Schema {
	out := jsonschema.NewObject().SetRequired()
	for _, v := range values {
		prop := s.typeRef(v.Type)
		if prop.Kind != jsonschema.KindRef {
			describe(prop, v.Description)
			if v.DefaultValue != nil {
				prop.SetKeyword("default", jsonValue(v.DefaultValue))
			}
		}
		out.Property(v.Name, prop)
		if v.Type.IsNonNull() {
			out.Required = append(out.Required, v.Name)
		}
	}
	return out
}

func (s *Schema) typeRef(ref *TypeRef) *jsonschema.Schema {
	if ref == nil {
		return jsonschema.Empty()
	}
	switch ref.Kind {
	case TypeRefKindNonNull:
		return s.typeRef(ref.OfType)
	case TypeRefKindList:
		return jsonschema.NewArray(s.typeRef(ref.OfType))
	}
	if typ, ok := builtinScalars[ref.Named]; ok {
		return jsonschema.NewScalar(typ)
	}
	t, ok := s.Types[ref.Named]
	if !ok || t.Kind == TypeKindScalar {
		return jsonschema.Empty()
	}
	return jsonschema.NewRef(ref.Named)
}

func describe(s *jsonschema.Schema, description string) *jsonschema.Schema {
	if description != "" {
		s.SetKeyword("description", description)
	}
	return s
}

// jsonValue converts a default value to its JSON form. Literals that are not
// JSON (enum names) are kept as strings.
func jsonValue(v any) any {
	switch v := v.(type) {
	case Literal:
		var decoded any
		if err := json.Unmarshal([]byte(v), &decoded); err == nil {
			return decoded
		}
		return string(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = jsonValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = jsonValue(item)
		}
		return out
	}
	return v
}
