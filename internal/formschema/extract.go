// Package formschema derives the reference-free schema of a single mutation's
// arguments from a root schema document, and walks the resulting form fields.
package formschema

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/hanpama/frontier/internal/diag"
	"github.com/hanpama/frontier/internal/jsonschema"
)

// DefaultMutationType is the root property holding mutation fields.
const DefaultMutationType = "Mutation"

// ErrCyclicSchema is returned when a definition refers back to itself,
// directly or through other definitions, on the path being expanded.
var ErrCyclicSchema = errors.New("cyclic schema")

type options struct {
	mutationType string
	sink         diag.Sink
}

// Option configures Extract.
type Option func(*options)

// WithMutationType overrides the name of the root property holding mutations.
func WithMutationType(name string) Option {
	return func(o *options) {
		if name != "" {
			o.mutationType = name
		}
	}
}

// WithSink sets where warnings go. The default logs through logrus.
func WithSink(s diag.Sink) Option { return func(o *options) { o.sink = s } }

// Extract returns the form schema of mutation's arguments in root:
//
//	{type: object, properties: <arguments, references inlined>, required: <arguments.required>}
//
// An unknown mutation, or one without arguments, is not an error: a warning
// is emitted and the empty schema returned (see IsEmpty). A nil root holds
// no mutations. Unknown references
// become empty schemas for the affected property only. The only error is
// ErrCyclicSchema.
func Extract(root *jsonschema.Schema, mutation string, opts ...Option) (*jsonschema.Schema, error) {
	o := options{mutationType: DefaultMutationType}
	for _, f := range opts {
		f(&o)
	}
	sink := diag.OrDefault(o.sink)

	var mutationSchema *jsonschema.Schema
	if root != nil {
		if container, ok := root.Properties.Get(o.mutationType); ok && container != nil {
			mutationSchema, _ = container.Properties.Get(mutation)
		}
	}
	if mutationSchema == nil {
		sink.Warn(fmt.Sprintf("Unknown mutation %s provided", mutation))
		return jsonschema.Empty(), nil
	}

	args, _ := mutationSchema.Properties.Get("arguments")
	if args == nil || args.Properties.Len() == 0 {
		sink.Warn(fmt.Sprintf("mutation %s has no arguments", mutation))
		return jsonschema.Empty(), nil
	}

	r := &resolver{definitions: root.Definitions, sink: sink}
	props, err := r.properties(args.Properties, nil)
	if err != nil {
		return nil, err
	}
	out := jsonschema.NewObject()
	out.Properties = props
	out.Required = cloneStrings(args.Required)
	return out, nil
}

// IsEmpty reports whether s is the "no form" result of Extract.
func IsEmpty(s *jsonschema.Schema) bool {
	return s == nil || (s.Kind == jsonschema.KindEmpty && s.Properties == nil && len(s.Keywords) == 0)
}

type resolver struct {
	definitions *jsonschema.Properties
	sink        diag.Sink
}

// properties resolves every entry of props. stack holds the definition names
// being expanded on the current path.
func (r *resolver) properties(props *jsonschema.Properties, stack []string) (*jsonschema.Properties, error) {
	out := jsonschema.NewProperties()
	for key, prop := range props.All() {
		resolved, err := r.property(key, prop, stack)
		if err != nil {
			return nil, err
		}
		out.Set(key, resolved)
	}
	return out, nil
}

// property returns a freshly built node for prop; nothing in the result is
// shared with the input or with other results.
func (r *resolver) property(key string, prop *jsonschema.Schema, stack []string) (*jsonschema.Schema, error) {
	if prop == nil {
		return jsonschema.Empty(), nil
	}
	switch prop.Kind {
	case jsonschema.KindRef:
		return r.reference(key, prop, stack)

	case jsonschema.KindArray:
		if prop.Items == nil {
			return prop.Clone(), nil
		}
		var items *jsonschema.Schema
		if prop.Items.Kind == jsonschema.KindRef {
			expanded, ok, err := r.expand(key, prop.Items, stack)
			if err != nil {
				return nil, err
			}
			if !ok {
				// Unresolvable item type: the whole property degrades.
				return jsonschema.Empty(), nil
			}
			items = expanded
		} else {
			var err error
			if items, err = r.property(key, prop.Items, stack); err != nil {
				return nil, err
			}
		}
		out := rebuild(prop)
		out.Kind = jsonschema.KindArray
		out.Type = "array"
		out.Items = items
		return out, nil

	case jsonschema.KindObject:
		if !prop.HasProperties() {
			return prop.Clone(), nil
		}
		props, err := r.properties(prop.Properties, stack)
		if err != nil {
			return nil, err
		}
		out := rebuild(prop)
		out.Properties = props
		return out, nil
	}
	return prop.Clone(), nil
}

func (r *resolver) reference(key string, ref *jsonschema.Schema, stack []string) (*jsonschema.Schema, error) {
	expanded, ok, err := r.expand(key, ref, stack)
	if err != nil {
		return nil, err
	}
	if !ok {
		return jsonschema.Empty(), nil
	}
	return expanded, nil
}

// expand resolves ref against the definitions table and expands the target.
// ok is false, after a warning, when the target does not exist.
func (r *resolver) expand(key string, ref *jsonschema.Schema, stack []string) (*jsonschema.Schema, bool, error) {
	name, ok := ref.RefName()
	if !ok {
		name = ref.Ref
	}
	def, found := r.definitions.Get(name)
	if !ok || !found || def == nil {
		r.sink.Warn(fmt.Sprintf("unknown $ref %q for %s", name, key))
		return nil, false, nil
	}
	if slices.Contains(stack, name) {
		chain := append(slices.Clone(stack), name)
		return nil, false, fmt.Errorf("%w: %s", ErrCyclicSchema, strings.Join(chain, " -> "))
	}
	expanded, err := r.property(key, def, append(slices.Clip(stack), name))
	if err != nil {
		return nil, false, err
	}
	return expanded, true, nil
}

// rebuild copies node's own attributes for in-place resolution; the caller
// supplies the resolved children.
func rebuild(node *jsonschema.Schema) *jsonschema.Schema {
	out := node.CloneNode()
	out.Ref = ""
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append([]string{}, s...)
}
