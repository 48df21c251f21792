package schema

import (
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Render produces SDL from s. Types and directives are sorted by name and
// built-ins are omitted. A schema block is written only when a root type
// deviates from its default name.
func Render(s *Schema) string {
	if s == nil {
		return ""
	}
	r := &renderer{}
	r.schemaBlock(s)
	for _, name := range sortedKeys(s.Types) {
		if t := s.Types[name]; !isBuiltinType(t) {
			r.typeDefinition(t)
		}
	}
	for _, name := range sortedKeys(s.Directives) {
		if d := s.Directives[name]; !isBuiltinDirective(d) {
			r.directive(d)
		}
	}
	return strings.TrimRight(r.String(), "\n") + "\n"
}

type renderer struct {
	strings.Builder
}

func (r *renderer) printf(format string, args ...any) {
	fmt.Fprintf(r, format, args...)
}

func (r *renderer) schemaBlock(s *Schema) {
	roots := []struct{ op, name string }{
		{"query", s.QueryType},
		{"mutation", s.MutationType},
		{"subscription", s.SubscriptionType},
	}
	if !slices.ContainsFunc(roots, func(root struct{ op, name string }) bool {
		return root.name != "" && !strings.EqualFold(root.op, root.name)
	}) {
		return
	}
	r.description(s.Description)
	r.WriteString("schema {\n")
	for _, root := range roots {
		if root.name != "" {
			r.printf("  %s: %s\n", root.op, root.name)
		}
	}
	r.WriteString("}\n\n")
}

func (r *renderer) typeDefinition(t *Type) {
	r.description(t.Description)
	switch t.Kind {
	case TypeKindScalar:
		r.printf("scalar %s", t.Name)
		if t.SpecifiedByURL != nil {
			r.printf(" @specifiedBy(url: %s)", strconv.Quote(*t.SpecifiedByURL))
		}
		r.WriteString("\n\n")

	case TypeKindUnion:
		r.printf("union %s = %s\n\n", t.Name, strings.Join(t.PossibleTypes, " | "))

	case TypeKindEnum:
		r.printf("enum %s {\n", t.Name)
		for _, v := range t.EnumValues {
			r.description(v.Description)
			r.printf("  %s%s\n", v.Name, deprecation(v.IsDeprecated, v.DeprecationReason))
		}
		r.WriteString("}\n\n")

	case TypeKindInputObject:
		r.printf("input %s", t.Name)
		if t.OneOf {
			r.WriteString(" @oneOf")
		}
		r.WriteString(" {\n")
		for _, f := range t.InputFields {
			r.description(f.Description)
			r.printf("  %s\n", inputValue(f))
		}
		r.WriteString("}\n\n")

	case TypeKindObject, TypeKindInterface:
		keyword := "type"
		if t.Kind == TypeKindInterface {
			keyword = "interface"
		}
		r.printf("%s %s", keyword, t.Name)
		if len(t.Interfaces) > 0 {
			r.printf(" implements %s", strings.Join(t.Interfaces, " & "))
		}
		r.WriteString(" {\n")
		for _, f := range t.Fields {
			r.description(f.Description)
			r.printf("  %s%s: %s%s\n", f.Name, arguments(f.Arguments), typeRefString(f.Type),
				deprecation(f.IsDeprecated, f.DeprecationReason))
		}
		r.WriteString("}\n\n")
	}
}

func (r *renderer) directive(d *Directive) {
	r.description(d.Description)
	r.printf("directive @%s%s", d.Name, arguments(d.Arguments))
	if d.IsRepeatable {
		r.WriteString(" repeatable")
	}
	r.printf(" on %s\n\n", strings.Join(d.Locations, " | "))
}

func (r *renderer) description(desc string) {
	if desc == "" {
		return
	}
	r.printf("\"\"\"\n%s\n\"\"\"\n", strings.ReplaceAll(desc, `"""`, `\"""`))
}

func deprecation(deprecated bool, reason string) string {
	switch {
	case !deprecated:
		return ""
	case reason == "" || reason == DefaultDeprecationReason:
		return " @deprecated"
	}
	return " @deprecated(reason: " + strconv.Quote(reason) + ")"
}

func arguments(args []*InputValue) string {
	if len(args) == 0 {
		return ""
	}
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = inputValue(arg)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func inputValue(v *InputValue) string {
	s := v.Name + ": " + typeRefString(v.Type)
	if v.DefaultValue != nil {
		s += " = " + valueString(v.DefaultValue)
	}
	return s + deprecation(v.IsDeprecated, v.DeprecationReason)
}

func typeRefString(ref *TypeRef) string {
	if ref == nil {
		return ""
	}
	switch ref.Kind {
	case TypeRefKindNamed:
		return ref.Named
	case TypeRefKindList:
		return "[" + typeRefString(ref.OfType) + "]"
	case TypeRefKindNonNull:
		return typeRefString(ref.OfType) + "!"
	}
	return ""
}

// valueString writes a default value in GraphQL syntax. Literals are raw
// source text (enum names) and map keys are sorted.
func valueString(value any) string {
	switch v := value.(type) {
	case nil:
		return "null"
	case Literal:
		return string(v)
	case string:
		return strconv.Quote(v)
	case []any:
		parts := make([]string, len(v))
		for i, item := range v {
			parts[i] = valueString(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		parts := make([]string, 0, len(v))
		for _, k := range sortedKeys(v) {
			parts = append(parts, k+": "+valueString(v[k]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return fmt.Sprint(value)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
