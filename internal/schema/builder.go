package schema

import (
	"slices"

	language "github.com/hanpama/frontier/internal/language"
)

const sdlSourceName = "schema.graphql"

// BuildFromSDL parses SDL and returns the corresponding Schema. Type
// extensions are merged into their base definitions. Without a schema
// definition the root types default to Query, Mutation and Subscription when
// types of those names exist.
func BuildFromSDL(sdl string) (*Schema, error) {
	return BuildFromSources(Source{Name: sdlSourceName, Content: sdl})
}

func buildFromDocument(doc *language.SchemaDocument) (*Schema, error) {
	var violations ValidationError

	defs := make(map[string]*language.Definition, len(doc.Definitions))
	order := make([]string, 0, len(doc.Definitions))
	for _, def := range doc.Definitions {
		if _, dup := defs[def.Name]; dup {
			violations = append(violations, violationDuplicateType(def.Name, def.Position))
			continue
		}
		// Merging extensions must not write into the parsed document.
		merged := *def
		merged.Fields = slices.Clone(def.Fields)
		merged.Interfaces = slices.Clone(def.Interfaces)
		merged.Types = slices.Clone(def.Types)
		merged.EnumValues = slices.Clone(def.EnumValues)
		merged.Directives = slices.Clone(def.Directives)
		defs[def.Name] = &merged
		order = append(order, def.Name)
	}
	for _, ext := range doc.Extensions {
		base, ok := defs[ext.Name]
		if !ok {
			violations = append(violations, violationUnknownExtension(ext.Name, ext.Position))
			continue
		}
		if base.Kind != ext.Kind {
			violations = append(violations, violationExtensionKind(ext.Name, ext.Kind, base.Kind, ext.Position))
			continue
		}
		base.Fields = append(base.Fields, ext.Fields...)
		base.Interfaces = append(base.Interfaces, ext.Interfaces...)
		base.Types = append(base.Types, ext.Types...)
		base.EnumValues = append(base.EnumValues, ext.EnumValues...)
		base.Directives = append(base.Directives, ext.Directives...)
	}

	s := NewSchema("")
	addBuiltins(s)
	for _, name := range order {
		def := defs[name]
		switch def.Kind {
		case language.Object:
			s.AddType(buildObject(def, TypeKindObject, &violations))
		case language.Interface:
			s.AddType(buildObject(def, TypeKindInterface, &violations))
		case language.Enum:
			s.AddType(buildEnum(def))
		case language.InputObject:
			s.AddType(buildInput(def, &violations))
		case language.Union:
			s.AddType(buildUnion(def))
		case language.Scalar:
			s.AddType(buildScalar(def))
		}
	}
	for _, dir := range doc.Directives {
		s.AddDirective(buildDirective(dir))
	}

	setRootTypes(s, doc)
	violations = append(violations, validate(s)...)
	if len(violations) > 0 {
		return nil, violations
	}
	return s, nil
}

func setRootTypes(s *Schema, doc *language.SchemaDocument) {
	defined := false
	for _, list := range []language.SchemaDefinitionList{doc.Schema, doc.SchemaExtension} {
		for _, def := range list {
			if def.Description != "" {
				s.Description = def.Description
			}
			for _, op := range def.OperationTypes {
				defined = true
				switch op.Operation {
				case language.Query:
					s.SetQueryType(op.Type)
				case language.Mutation:
					s.SetMutationType(op.Type)
				case language.Subscription:
					s.SetSubscriptionType(op.Type)
				}
			}
		}
	}
	if defined {
		return
	}
	for name, set := range map[string]func(string) *Schema{
		"Query":        s.SetQueryType,
		"Mutation":     s.SetMutationType,
		"Subscription": s.SetSubscriptionType,
	} {
		if t, ok := s.Types[name]; ok && t.Kind == TypeKindObject {
			set(name)
		}
	}
}

func buildObject(def *language.Definition, kind TypeKind, violations *ValidationError) *Type {
	t := NewType(def.Name, kind, def.Description)
	for _, name := range def.Interfaces {
		if !slices.Contains(t.Interfaces, name) {
			t.AddInterface(name)
		}
	}
	seen := make(map[string]bool, len(def.Fields))
	for _, fd := range def.Fields {
		if seen[fd.Name] {
			*violations = append(*violations, violationDuplicateField(string(kind), fd.Name, def.Name, fd.Position))
			continue
		}
		seen[fd.Name] = true
		t.AddField(buildField(fd))
	}
	return t
}

func buildField(def *language.FieldDefinition) *Field {
	f := NewField(def.Name, def.Description, buildTypeRef(def.Type))
	if reason, ok := directiveDeprecation(def.Directives); ok {
		f.Deprecate(reason)
	}
	for _, arg := range def.Arguments {
		in := NewInputValue(arg.Name, arg.Description, buildTypeRef(arg.Type)).
			SetDefault(buildValue(arg.DefaultValue))
		if reason, ok := directiveDeprecation(arg.Directives); ok {
			in.Deprecate(reason)
		}
		f.AddArgument(in)
	}
	return f
}

func buildEnum(def *language.Definition) *Type {
	t := NewType(def.Name, TypeKindEnum, def.Description)
	for _, v := range def.EnumValues {
		e := NewEnumValue(v.Name, v.Description)
		if reason, ok := directiveDeprecation(v.Directives); ok {
			e.Deprecate(reason)
		}
		t.AddEnumValue(e)
	}
	return t
}

func buildInput(def *language.Definition, violations *ValidationError) *Type {
	t := NewType(def.Name, TypeKindInputObject, def.Description).
		SetOneOf(def.Directives.ForName("oneOf") != nil)
	seen := make(map[string]bool, len(def.Fields))
	for _, fd := range def.Fields {
		if seen[fd.Name] {
			*violations = append(*violations, violationDuplicateField("input", fd.Name, def.Name, fd.Position))
			continue
		}
		seen[fd.Name] = true
		in := NewInputValue(fd.Name, fd.Description, buildTypeRef(fd.Type)).
			SetDefault(buildValue(fd.DefaultValue))
		if reason, ok := directiveDeprecation(fd.Directives); ok {
			in.Deprecate(reason)
		}
		t.AddInputField(in)
	}
	return t
}

func buildUnion(def *language.Definition) *Type {
	t := NewType(def.Name, TypeKindUnion, def.Description)
	for _, name := range def.Types {
		if !slices.Contains(t.PossibleTypes, name) {
			t.AddPossibleType(name)
		}
	}
	return t
}

func buildScalar(def *language.Definition) *Type {
	t := NewType(def.Name, TypeKindScalar, def.Description)
	if d := def.Directives.ForName("specifiedBy"); d != nil {
		if arg := d.Arguments.ForName("url"); arg != nil && arg.Value != nil {
			t.SetSpecifiedByURL(arg.Value.Raw)
		}
	}
	return t
}

func buildDirective(def *language.DirectiveDefinition) *Directive {
	d := NewDirective(def.Name, def.Description).SetRepeatable(def.IsRepeatable)
	for _, loc := range def.Locations {
		d.AddLocation(string(loc))
	}
	for _, arg := range def.Arguments {
		d.AddArgument(NewInputValue(arg.Name, arg.Description, buildTypeRef(arg.Type)).
			SetDefault(buildValue(arg.DefaultValue)))
	}
	return d
}

func buildTypeRef(t *language.Type) *TypeRef {
	if t == nil {
		return nil
	}
	var ref *TypeRef
	if t.Elem != nil {
		ref = ListType(buildTypeRef(t.Elem))
	} else {
		ref = NamedType(t.NamedType)
	}
	if t.NonNull {
		ref = NonNullType(ref)
	}
	return ref
}

// buildValue converts a constant literal. Enum values are kept as Literal
// so they render unquoted.
func buildValue(v *language.Value) any {
	if v == nil {
		return nil
	}
	switch v.Kind {
	case language.EnumValue:
		return Literal(v.Raw)
	case language.ListValue:
		out := make([]any, 0, len(v.Children))
		for _, c := range v.Children {
			out = append(out, buildValue(c.Value))
		}
		return out
	case language.ObjectValue:
		out := make(map[string]any, len(v.Children))
		for _, c := range v.Children {
			out[c.Name] = buildValue(c.Value)
		}
		return out
	}
	val, err := v.Value(nil)
	if err != nil {
		return v.Raw
	}
	return val
}

func directiveDeprecation(directives language.DirectiveList) (string, bool) {
	d := directives.ForName("deprecated")
	if d == nil {
		return "", false
	}
	if arg := d.Arguments.ForName("reason"); arg != nil && arg.Value != nil {
		return arg.Value.Raw, true
	}
	return DefaultDeprecationReason, true
}
