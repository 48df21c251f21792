package schema

import "sort"

// validate checks references between types. It runs after every type is
// added, so its order does not depend on declaration order.
func validate(s *Schema) ValidationError {
	var violations ValidationError

	names := make([]string, 0, len(s.Types))
	for name := range s.Types {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		t := s.Types[name]
		for _, f := range t.Fields {
			where := "field " + name + "." + f.Name
			violations = append(violations, s.checkRef(f.Type, where, false)...)
			for _, arg := range f.Arguments {
				violations = append(violations, s.checkRef(arg.Type, "argument "+name+"."+f.Name+"("+arg.Name+")", true)...)
			}
		}
		for _, in := range t.InputFields {
			violations = append(violations, s.checkRef(in.Type, "input field "+name+"."+in.Name, true)...)
		}
		for _, iface := range t.Interfaces {
			if it, ok := s.Types[iface]; !ok || it.Kind != TypeKindInterface {
				violations = append(violations, violationUnknownType(iface, "interfaces of "+name, nil))
			}
		}
		for _, member := range t.PossibleTypes {
			if mt, ok := s.Types[member]; !ok || mt.Kind != TypeKindObject {
				violations = append(violations, violationUnknownType(member, "union "+name, nil))
			}
		}
	}

	roots := []struct{ operation, name string }{
		{"query", s.QueryType},
		{"mutation", s.MutationType},
		{"subscription", s.SubscriptionType},
	}
	for _, root := range roots {
		if root.name == "" {
			continue
		}
		if t, ok := s.Types[root.name]; !ok || t.Kind != TypeKindObject {
			violations = append(violations, violationRootType(root.operation, root.name))
		}
	}
	return violations
}

func (s *Schema) checkRef(ref *TypeRef, where string, input bool) ValidationError {
	name := ref.GetNamedType()
	t, ok := s.Types[name]
	if !ok {
		return ValidationError{violationUnknownType(name, where, nil)}
	}
	if input && !IsInputType(t) {
		return ValidationError{violationNotInputType(name, t.Kind, where, nil)}
	}
	return nil
}

// IsInputType reports whether values of t can be passed as arguments.
func IsInputType(t *Type) bool {
	switch t.Kind {
	case TypeKindScalar, TypeKindEnum, TypeKindInputObject:
		return true
	}
	return false
}
