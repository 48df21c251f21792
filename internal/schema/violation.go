package schema

import (
	"errors"
	"fmt"

	language "github.com/hanpama/frontier/internal/language"
)

type Violation struct {
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
}

// ValidationError lists every problem found while building a schema.
type ValidationError []*Violation

func (e ValidationError) Error() string {
	msg := "violations found:\n"
	for _, v := range e {
		line := "- " + v.Message
		if v.File != "" || v.Line > 0 {
			line += fmt.Sprintf(" %s:%d:%d", v.File, v.Line, v.Column)
		}
		msg += line + "\n"
	}
	return msg
}

func violationWithPosition(message string, pos *language.Position) *Violation {
	v := &Violation{Message: message}
	if pos != nil {
		v.Line = pos.Line
		v.Column = pos.Column
		if pos.Src != nil {
			v.File = pos.Src.Name
		}
	}
	return v
}

func violationf(pos *language.Position, format string, args ...any) *Violation {
	return violationWithPosition(fmt.Sprintf(format, args...), pos)
}

// violationFromParseError keeps the location reported by the parser.
func violationFromParseError(name string, err error) *Violation {
	var gqlErr *language.Error
	if !errors.As(err, &gqlErr) {
		return &Violation{Message: err.Error(), File: name}
	}
	v := &Violation{Message: gqlErr.Message, File: name}
	if len(gqlErr.Locations) > 0 {
		v.Line = gqlErr.Locations[0].Line
		v.Column = gqlErr.Locations[0].Column
	}
	return v
}

func violationDuplicateType(name string, pos *language.Position) *Violation {
	return violationf(pos, "Duplicate type %q", name)
}

func violationUnknownExtension(name string, pos *language.Position) *Violation {
	return violationf(pos, "Cannot extend unknown type %q", name)
}

func violationExtensionKind(name string, kind, base language.DefinitionKind, pos *language.Position) *Violation {
	return violationf(pos, "Cannot extend %s %q with a %s extension", base, name, kind)
}

func violationUnknownType(name, where string, pos *language.Position) *Violation {
	return violationf(pos, "Unknown type %q referenced by %s", name, where)
}

func violationNotInputType(name string, kind TypeKind, where string, pos *language.Position) *Violation {
	return violationf(pos, "%s must be an input type, got %s %q", where, kind, name)
}

func violationRootType(operation, name string) *Violation {
	return violationf(nil, "%s root type %q must be a defined object type", operation, name)
}

func violationDuplicateField(kind, fieldName, typeName string, pos *language.Position) *Violation {
	return violationf(pos, "Duplicate field %q found in %s %q", fieldName, kind, typeName)
}
