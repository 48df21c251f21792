package form

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/frontier/internal/diag"
	eventbus "github.com/hanpama/frontier/internal/eventbus"
	events "github.com/hanpama/frontier/internal/events"
	"github.com/hanpama/frontier/internal/jsonschema"
	"github.com/hanpama/frontier/internal/schema"
	"github.com/hanpama/frontier/internal/validator"
)

const createTodo = `mutation CreateTodo($todo: TodoInputType!) {
  create_todo(todo: $todo) { id name }
}`

func todoSDL(t *testing.T) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", "todo.graphql"))
	require.NoError(t, err)
	return string(b)
}

func marshal(t *testing.T, s *jsonschema.Schema) string {
	t.Helper()
	b, err := s.MarshalJSON()
	require.NoError(t, err)
	return string(b)
}

func TestBuild_FromSDL(t *testing.T) {
	rec := &diag.Recorder{}
	f, err := Build(context.Background(), Props{Mutation: createTodo, SDL: todoSDL(t), Sink: rec})
	require.NoError(t, err)
	require.NotNil(t, f)
	require.Empty(t, rec.Messages())

	require.Equal(t, "create_todo", f.MutationName)
	require.Equal(t,
		`{"type":"object","properties":{"todo":{"type":"object","properties":{"name":{"type":"string"},"completed":{"type":"boolean"}},"required":["name"]}},"required":["todo"]}`,
		marshal(t, f.Schema))

	var fields []string
	for fd := range f.Fields() {
		fields = append(fields, fmt.Sprintf("%s %s %v", fd.Path, fd.Definition.Type, fd.Required))
	}
	require.Equal(t, []string{"todo.name string true", "todo.completed boolean false"}, fields)

	tree, err := f.Validate(context.Background(), map[string]any{
		"todo": map[string]any{"completed": "completed"},
	})
	require.NoError(t, err)
	if diff := cmp.Diff(validator.ErrorTree{
		"todo": validator.ErrorTree{"name": "required", "completed": "type"},
	}, tree); diff != "" {
		t.Errorf("error tree mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_FromRootSchema(t *testing.T) {
	root, err := jsonschema.Parse([]byte(`
properties:
  Mutations:
    properties:
      rename:
        properties:
          arguments:
            type: object
            properties:
              slug: {type: string}
            required: [slug]
`))
	require.NoError(t, err)

	f, err := Build(context.Background(), Props{
		Mutation:       `mutation { rename(slug: "a") }`,
		Schema:         root,
		MutationType:   "Mutations",
		Formats:        map[string]string{"slug": "slug"},
		FormatRegistry: validator.NewFormatRegistry(map[string]validator.Format{"slug": isSlug}),
		Sink:           diag.Discard,
	})
	require.NoError(t, err)
	require.Equal(t, `{"type":"object","properties":{"slug":{"type":"string","format":"slug"}},"required":["slug"]}`, marshal(t, f.Schema))

	tree, err := f.Validate(context.Background(), map[string]any{"slug": "Not A Slug"})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"slug": "format"}, tree.Flatten())
}

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

func isSlug(v any) bool {
	s, ok := v.(string)
	return !ok || slugPattern.MatchString(s)
}

func TestBuild_NoForm(t *testing.T) {
	tests := []struct {
		name    string
		props   Props
		warning string
	}{
		{
			name:    "query document",
			props:   Props{Mutation: `query { todos { id } }`},
			warning: "please provide a mutation document, received a query document",
		},
		{
			name:    "unknown mutation",
			props:   Props{Mutation: `mutation { delete_todo(id: "1") }`},
			warning: "Unknown mutation delete_todo provided",
		},
		{
			name:    "no arguments",
			props:   Props{Mutation: `mutation { update_online_status }`},
			warning: "mutation update_online_status has no arguments",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &diag.Recorder{}
			tt.props.SDL = todoSDL(t)
			tt.props.Sink = rec
			f, err := Build(context.Background(), tt.props)
			require.NoError(t, err)
			require.Nil(t, f)
			require.Equal(t, []string{tt.warning}, rec.Messages())
		})
	}
}

func TestBuild_FromSources(t *testing.T) {
	f, err := Build(context.Background(), Props{
		Mutation: `mutation { rename(id: "1", name: "x") }`,
		Sources: []schema.Source{
			{Name: "query.graphql", Content: "type Query { ok: Boolean }"},
			{Name: "mutation.graphql", Content: "type Mutation { rename(id: ID!, name: String): Boolean }"},
		},
		Sink: diag.Discard,
	})
	require.NoError(t, err)
	require.Equal(t,
		`{"type":"object","properties":{"id":{"type":"string"},"name":{"type":"string"}},"required":["id"]}`,
		marshal(t, f.Schema))
}

func TestBuild_Errors(t *testing.T) {
	_, err := Build(context.Background(), Props{Mutation: createTodo, Sink: diag.Discard})
	require.ErrorIs(t, err, ErrNoSchema)

	_, err = Build(context.Background(), Props{Mutation: "mutation {", SDL: todoSDL(t), Sink: diag.Discard})
	require.ErrorContains(t, err, "parse operation")

	_, err = Build(context.Background(), Props{Mutation: createTodo, SDL: "type Query { a: Missing }", Sink: diag.Discard})
	require.ErrorContains(t, err, "build schema")
}

func TestSubmit(t *testing.T) {
	valid := map[string]any{"todo": map[string]any{"name": "write tests"}}

	t.Run("without saver", func(t *testing.T) {
		rec := &diag.Recorder{}
		f, err := Build(context.Background(), Props{Mutation: createTodo, SDL: todoSDL(t), Sink: rec})
		require.NoError(t, err)

		_, err = f.Submit(context.Background(), valid)
		require.ErrorIs(t, err, ErrNoSaver)
		require.Equal(t, []string{"Trying to save data with a mutation without providing a saver!"}, rec.Messages())
	})

	t.Run("invalid values are not saved", func(t *testing.T) {
		saved := 0
		f, err := Build(context.Background(), Props{
			Mutation: createTodo,
			SDL:      todoSDL(t),
			Sink:     diag.Discard,
			Saver: SaverFunc(func(context.Context, string, any) (any, error) {
				saved++
				return nil, nil
			}),
		})
		require.NoError(t, err)

		_, err = f.Submit(context.Background(), map[string]any{"todo": map[string]any{}})
		var invalid *InvalidError
		require.True(t, errors.As(err, &invalid))
		require.Equal(t, map[string]string{"todo.name": "required"}, invalid.Errors.Flatten())
		require.Equal(t, "form: invalid values: todo.name: required", err.Error())
		require.Zero(t, saved)
	})

	t.Run("valid values are saved", func(t *testing.T) {
		var gotMutation string
		f, err := Build(context.Background(), Props{
			Mutation: createTodo,
			SDL:      todoSDL(t),
			Sink:     diag.Discard,
			Saver: SaverFunc(func(_ context.Context, mutation string, values any) (any, error) {
				gotMutation = mutation
				return map[string]any{"id": "1"}, nil
			}),
		})
		require.NoError(t, err)

		res, err := f.Submit(context.Background(), valid)
		require.NoError(t, err)
		require.Equal(t, map[string]any{"id": "1"}, res)
		require.Equal(t, "create_todo", gotMutation)
	})
}

func TestEvents(t *testing.T) {
	eventbus.Use(eventbus.New())
	t.Cleanup(func() { eventbus.Use(nil) })

	var seen []string
	record := func(name string) func() {
		return func() { seen = append(seen, name) }
	}
	onBuildStart, onWarning := record("build.start"), record("warning")
	eventbus.Subscribe(func(_ context.Context, e events.FormBuildStart) {
		require.Equal(t, "sdl", e.Source)
		onBuildStart()
	})
	eventbus.Subscribe(func(_ context.Context, e events.FormBuildFinish) {
		seen = append(seen, fmt.Sprintf("build.finish %s fields=%d empty=%v", e.Mutation, e.Fields, e.Empty))
	})
	eventbus.Subscribe(func(context.Context, events.Warning) { onWarning() })
	eventbus.Subscribe(func(_ context.Context, e events.ValidateFinish) {
		seen = append(seen, fmt.Sprintf("validate.finish errors=%d", e.Errors))
	})
	eventbus.Subscribe(func(_ context.Context, e events.SubmitFinish) {
		seen = append(seen, fmt.Sprintf("submit.finish err=%v", e.Err))
	})

	f, err := Build(context.Background(), Props{Mutation: createTodo, SDL: todoSDL(t), Sink: diag.Discard})
	require.NoError(t, err)
	_, err = f.Validate(context.Background(), map[string]any{})
	require.NoError(t, err)
	_, err = f.Submit(context.Background(), map[string]any{})
	require.ErrorIs(t, err, ErrNoSaver)

	_, err = Build(context.Background(), Props{Mutation: `mutation { update_online_status }`, SDL: todoSDL(t), Sink: diag.Discard})
	require.NoError(t, err)

	require.Equal(t, []string{
		"build.start",
		"build.finish create_todo fields=2 empty=false",
		"validate.finish errors=1",
		"warning",
		"submit.finish err=form: no saver configured",
		"build.start",
		"warning",
		"build.finish update_online_status fields=0 empty=true",
	}, seen)
}
