package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hanpama/frontier/internal/json"
)

// Literal is a default value in GraphQL literal syntax, as reported by
// introspection.
type Literal string

type introspectionResult struct {
	Data *struct {
		Schema *introspectionSchema `json:"__schema"`
	} `json:"data"`
	Schema *introspectionSchema `json:"__schema"`
}

type introspectionName struct {
	Name string `json:"name"`
}

type introspectionSchema struct {
	Description      string                   `json:"description"`
	QueryType        *introspectionName       `json:"queryType"`
	MutationType     *introspectionName       `json:"mutationType"`
	SubscriptionType *introspectionName       `json:"subscriptionType"`
	Types            []introspectionType      `json:"types"`
	Directives       []introspectionDirective `json:"directives"`
}

type introspectionType struct {
	Kind           TypeKind                  `json:"kind"`
	Name           string                    `json:"name"`
	Description    string                    `json:"description"`
	SpecifiedByURL *string                   `json:"specifiedByURL"`
	Fields         []introspectionField      `json:"fields"`
	InputFields    []introspectionInputValue `json:"inputFields"`
	Interfaces     []introspectionTypeRef    `json:"interfaces"`
	EnumValues     []introspectionEnumValue  `json:"enumValues"`
	PossibleTypes  []introspectionTypeRef    `json:"possibleTypes"`
	IsOneOf        bool                      `json:"isOneOf"`
}

type introspectionField struct {
	Name              string                    `json:"name"`
	Description       string                    `json:"description"`
	Args              []introspectionInputValue `json:"args"`
	Type              *introspectionTypeRef     `json:"type"`
	IsDeprecated      bool                      `json:"isDeprecated"`
	DeprecationReason *string                   `json:"deprecationReason"`
}

type introspectionInputValue struct {
	Name              string                `json:"name"`
	Description       string                `json:"description"`
	Type              *introspectionTypeRef `json:"type"`
	DefaultValue      *string               `json:"defaultValue"`
	IsDeprecated      bool                  `json:"isDeprecated"`
	DeprecationReason *string               `json:"deprecationReason"`
}

type introspectionEnumValue struct {
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	IsDeprecated      bool    `json:"isDeprecated"`
	DeprecationReason *string `json:"deprecationReason"`
}

type introspectionTypeRef struct {
	Kind   TypeKind              `json:"kind"`
	Name   *string               `json:"name"`
	OfType *introspectionTypeRef `json:"ofType"`
}

type introspectionDirective struct {
	Name         string                    `json:"name"`
	Description  string                    `json:"description"`
	Locations    []string                  `json:"locations"`
	Args         []introspectionInputValue `json:"args"`
	IsRepeatable bool                      `json:"isRepeatable"`
}

// BuildFromIntrospection builds a Schema from the JSON result of the standard
// introspection query. Both the bare {"__schema": ...} object and a full
// {"data": {"__schema": ...}} response are accepted. Introspection types and
// built-in scalars and directives are replaced by their built-in definitions.
func BuildFromIntrospection(data []byte) (*Schema, error) {
	var res introspectionResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decode introspection result: %w", err)
	}
	in := res.Schema
	if in == nil && res.Data != nil {
		in = res.Data.Schema
	}
	if in == nil {
		return nil, errors.New("decode introspection result: missing __schema")
	}

	s := NewSchema(in.Description)
	addBuiltins(s)
	if in.QueryType != nil {
		s.SetQueryType(in.QueryType.Name)
	}
	if in.MutationType != nil {
		s.SetMutationType(in.MutationType.Name)
	}
	if in.SubscriptionType != nil {
		s.SetSubscriptionType(in.SubscriptionType.Name)
	}

	for _, it := range in.Types {
		if strings.HasPrefix(it.Name, "__") {
			continue
		}
		if _, ok := builtinScalars[it.Name]; ok && it.Kind == TypeKindScalar {
			continue
		}
		s.AddType(it.build())
	}
	for _, d := range in.Directives {
		if existing, ok := s.Directives[d.Name]; ok && isBuiltinDirective(existing) {
			continue
		}
		dir := NewDirective(d.Name, d.Description).SetRepeatable(d.IsRepeatable)
		for _, loc := range d.Locations {
			dir.AddLocation(loc)
		}
		for _, arg := range d.Args {
			dir.AddArgument(arg.build())
		}
		s.AddDirective(dir)
	}

	if violations := validate(s); len(violations) > 0 {
		return nil, violations
	}
	return s, nil
}

func (it introspectionType) build() *Type {
	t := NewType(it.Name, it.Kind, it.Description).SetOneOf(it.IsOneOf)
	if it.SpecifiedByURL != nil {
		t.SetSpecifiedByURL(*it.SpecifiedByURL)
	}
	for _, f := range it.Fields {
		field := NewField(f.Name, f.Description, f.Type.build())
		for _, arg := range f.Args {
			field.AddArgument(arg.build())
		}
		if f.IsDeprecated {
			field.Deprecate(reason(f.DeprecationReason))
		}
		t.AddField(field)
	}
	for _, v := range it.InputFields {
		t.AddInputField(v.build())
	}
	for _, ref := range it.Interfaces {
		t.AddInterface(ref.build().GetNamedType())
	}
	for _, ref := range it.PossibleTypes {
		t.AddPossibleType(ref.build().GetNamedType())
	}
	for _, v := range it.EnumValues {
		e := NewEnumValue(v.Name, v.Description)
		if v.IsDeprecated {
			e.Deprecate(reason(v.DeprecationReason))
		}
		t.AddEnumValue(e)
	}
	return t
}

func (v introspectionInputValue) build() *InputValue {
	in := NewInputValue(v.Name, v.Description, v.Type.build())
	if v.DefaultValue != nil {
		in.SetDefault(Literal(*v.DefaultValue))
	}
	if v.IsDeprecated {
		in.Deprecate(reason(v.DeprecationReason))
	}
	return in
}

func (r *introspectionTypeRef) build() *TypeRef {
	if r == nil {
		return nil
	}
	switch r.Kind {
	case "NON_NULL":
		return NonNullType(r.OfType.build())
	case "LIST":
		return ListType(r.OfType.build())
	}
	if r.Name == nil {
		return nil
	}
	return NamedType(*r.Name)
}

func reason(r *string) string {
	if r == nil {
		return DefaultDeprecationReason
	}
	return *r
}
