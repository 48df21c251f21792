// Package operation extracts the addressed mutation field from a GraphQL
// operation document.
package operation

import (
	"fmt"

	"github.com/hanpama/frontier/internal/diag"
	language "github.com/hanpama/frontier/internal/language"
)

const (
	msgOneDocument     = "please provide 1 mutation document"
	msgWrongKind       = "please provide a mutation document, received a %s document"
	msgInvalidMutation = "please provide a valid mutation definition"
	msgUnnamedMutation = "please provide a named mutation"
)

// MutationName returns the name of the single root field selected by the
// single mutation in doc. Any other document shape yields ("", false) and
// exactly one warning on sink.
func MutationName(doc *language.QueryDocument, sink diag.Sink) (string, bool) {
	sink = diag.OrDefault(sink)
	if doc == nil || len(doc.Operations)+len(doc.Fragments) != 1 {
		sink.Warn(msgOneDocument)
		return "", false
	}
	if len(doc.Fragments) == 1 {
		sink.Warn(fmt.Sprintf(msgWrongKind, "fragment"))
		return "", false
	}

	op := doc.Operations[0]
	if op.Operation != language.Mutation {
		sink.Warn(fmt.Sprintf(msgWrongKind, op.Operation))
		return "", false
	}
	if len(op.SelectionSet) != 1 {
		sink.Warn(msgInvalidMutation)
		return "", false
	}
	field, ok := op.SelectionSet[0].(*language.Field)
	if !ok || field == nil {
		sink.Warn(msgInvalidMutation)
		return "", false
	}
	if field.Name == "" {
		sink.Warn(msgUnnamedMutation)
		return "", false
	}
	return field.Name, true
}

// MutationNameFromSource parses src and resolves its mutation name. Syntax
// errors are returned; shape problems are reported like MutationName.
func MutationNameFromSource(src string, sink diag.Sink) (string, bool, error) {
	doc, err := language.ParseQuery(src)
	if err != nil {
		return "", false, fmt.Errorf("parse operation: %w", err)
	}
	name, ok := MutationName(doc, sink)
	return name, ok, nil
}
