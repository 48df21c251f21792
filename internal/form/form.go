// Package form builds a validated, submittable form for one mutation. It ties
// together operation resolution, argument schema extraction, format
// overrides and validator compilation, and publishes an event for each step
// on the eventbus.
package form

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	"github.com/hanpama/frontier/internal/diag"
	eventbus "github.com/hanpama/frontier/internal/eventbus"
	events "github.com/hanpama/frontier/internal/events"
	"github.com/hanpama/frontier/internal/formschema"
	"github.com/hanpama/frontier/internal/jsonschema"
	language "github.com/hanpama/frontier/internal/language"
	"github.com/hanpama/frontier/internal/operation"
	reqid "github.com/hanpama/frontier/internal/reqid"
	"github.com/hanpama/frontier/internal/schema"
	"github.com/hanpama/frontier/internal/validator"
)

var (
	// ErrNoSaver is returned by Submit when the form has no Saver.
	ErrNoSaver = errors.New("form: no saver configured")
	// ErrNoSchema is returned by Build when Props names no schema source.
	ErrNoSchema = errors.New("form: no schema provided")
)

const msgNoSaver = "Trying to save data with a mutation without providing a saver!"

// Saver persists submitted values for a mutation.
type Saver interface {
	Save(ctx context.Context, mutation string, values any) (any, error)
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(ctx context.Context, mutation string, values any) (any, error)

func (f SaverFunc) Save(ctx context.Context, mutation string, values any) (any, error) {
	return f(ctx, mutation, values)
}

// Props are the inputs of Build. One operation input (Document, else
// Mutation) and one schema input (the first set of Schema, SDL, Sources and
// Introspection) are read.
type Props struct {
	Mutation string
	Document *language.QueryDocument

	Schema        *jsonschema.Schema
	SDL           string
	Sources       []schema.Source
	Introspection []byte
	// MutationType names the root property holding mutations. It defaults to
	// the GraphQL schema's mutation type, or "Mutation".
	MutationType string

	// Formats maps dot paths of the form to format names.
	Formats        map[string]string
	FormatRegistry *validator.FormatRegistry

	Saver Saver
	Sink  diag.Sink
}

// InvalidError is returned by Submit when values do not validate.
type InvalidError struct {
	Errors validator.ErrorTree
}

func (e *InvalidError) Error() string {
	return "form: invalid values: " + e.Errors.String()
}

// Form is the compiled form of one mutation.
type Form struct {
	MutationName string
	Schema       *jsonschema.Schema

	validator *validator.Validator
	saver     Saver
	sink      diag.Sink
}

// Build derives the form described by p. It returns (nil, nil) when no form
// is needed: the operation is not a single named mutation, the mutation is
// unknown or it takes no arguments. Each of those emits a warning.
func Build(ctx context.Context, p Props) (f *Form, err error) {
	ctx, _ = reqid.Ensure(ctx)
	sink := withEvents(ctx, p.Sink)

	start := time.Now()
	eventbus.Publish(ctx, events.FormBuildStart{Source: p.source()})
	var name string
	defer func() {
		finish := events.FormBuildFinish{Mutation: name, Empty: f == nil, Err: err, Duration: time.Since(start)}
		if f != nil {
			for range f.Fields() {
				finish.Fields++
			}
		}
		eventbus.Publish(ctx, finish)
	}()

	var ok bool
	if p.Document != nil {
		name, ok = operation.MutationName(p.Document, sink)
	} else {
		name, ok, err = operation.MutationNameFromSource(p.Mutation, sink)
		if err != nil {
			return nil, err
		}
	}
	if !ok {
		return nil, nil
	}

	root, mutationType, err := p.rootSchema()
	if err != nil {
		return nil, err
	}
	args, err := formschema.Extract(root, name,
		formschema.WithMutationType(mutationType),
		formschema.WithSink(sink))
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", name, err)
	}
	if formschema.IsEmpty(args) {
		return nil, nil
	}
	if len(p.Formats) > 0 {
		args = formschema.WithFormats(args, p.Formats)
	}

	v, err := validator.Compile(args, p.FormatRegistry)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", name, err)
	}
	return &Form{
		MutationName: name,
		Schema:       args,
		validator:    v,
		saver:        p.Saver,
		sink:         diag.OrDefault(p.Sink),
	}, nil
}

func (p Props) source() string {
	switch {
	case p.Schema != nil:
		return "schema"
	case p.SDL != "":
		return "sdl"
	case len(p.Sources) > 0:
		return "sources"
	case len(p.Introspection) > 0:
		return "introspection"
	}
	return ""
}

// rootSchema returns the root schema document and the name of its mutation
// container.
func (p Props) rootSchema() (*jsonschema.Schema, string, error) {
	if p.Schema != nil {
		return p.Schema, p.MutationType, nil
	}

	var s *schema.Schema
	var err error
	switch {
	case p.SDL != "":
		s, err = schema.BuildFromSDL(p.SDL)
	case len(p.Sources) > 0:
		s, err = schema.BuildFromSources(p.Sources...)
	case len(p.Introspection) > 0:
		s, err = schema.BuildFromIntrospection(p.Introspection)
	default:
		return nil, "", ErrNoSchema
	}
	if err != nil {
		return nil, "", fmt.Errorf("build schema: %w", err)
	}
	mutationType := p.MutationType
	if mutationType == "" {
		mutationType = s.MutationType
	}
	return schema.ToJSONSchema(s), mutationType, nil
}

// Fields iterates the leaf fields of the form.
func (f *Form) Fields() iter.Seq[formschema.FieldDescriptor] {
	return formschema.Fields(f.Schema)
}

// Validate checks values against the form schema.
func (f *Form) Validate(ctx context.Context, values any) (validator.ErrorTree, error) {
	ctx, _ = reqid.Ensure(ctx)
	start := time.Now()
	eventbus.Publish(ctx, events.ValidateStart{Mutation: f.MutationName})
	tree, err := f.validator.Validate(values)
	eventbus.Publish(ctx, events.ValidateFinish{
		Mutation: f.MutationName,
		Errors:   len(tree.Flatten()),
		Err:      err,
		Duration: time.Since(start),
	})
	return tree, err
}

// Submit validates values and hands them to the Saver. Invalid values yield
// an *InvalidError and are not saved. Without a Saver, Submit warns and
// returns ErrNoSaver.
func (f *Form) Submit(ctx context.Context, values any) (result any, err error) {
	ctx, _ = reqid.Ensure(ctx)
	start := time.Now()
	eventbus.Publish(ctx, events.SubmitStart{Mutation: f.MutationName})
	defer func() {
		eventbus.Publish(ctx, events.SubmitFinish{Mutation: f.MutationName, Err: err, Duration: time.Since(start)})
	}()

	if f.saver == nil {
		withEvents(ctx, f.sink).Warn(msgNoSaver)
		return nil, ErrNoSaver
	}
	tree, err := f.Validate(ctx, values)
	if err != nil {
		return nil, err
	}
	if !tree.Empty() {
		return nil, &InvalidError{Errors: tree}
	}
	return f.saver.Save(ctx, f.MutationName, values)
}

// withEvents mirrors warnings onto the eventbus.
func withEvents(ctx context.Context, sink diag.Sink) diag.Sink {
	return diag.Multi(diag.OrDefault(sink), diag.SinkFunc(func(msg string) {
		eventbus.Publish(ctx, events.Warning{Message: msg})
	}))
}
