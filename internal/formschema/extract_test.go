package formschema

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/frontier/internal/diag"
	"github.com/hanpama/frontier/internal/jsonschema"
)

func loadSchema(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	s, err := jsonschema.ParseFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return s
}

func mustJSON(t *testing.T, s *jsonschema.Schema) string {
	t.Helper()
	b, err := s.MarshalJSON()
	require.NoError(t, err)
	return string(b)
}

func TestExtract_InlinesInputObject(t *testing.T) {
	root := loadSchema(t, "todo-jsonschema.json")
	rec := &diag.Recorder{}

	got, err := Extract(root, "create_todo", WithSink(rec))
	require.NoError(t, err)
	require.Empty(t, rec.Messages())

	want := `{"type":"object","properties":{"todo":{"type":"object","properties":{"name":{"type":"string"},"completed":{"type":"boolean"}},"required":["name"]}},"required":["todo"]}`
	require.Equal(t, want, mustJSON(t, got))
}

func TestExtract_ArraysAndScalarDefinitions(t *testing.T) {
	root := loadSchema(t, "todo-jsonschema.json")
	rec := &diag.Recorder{}

	got, err := Extract(root, "create_todos", WithSink(rec))
	require.NoError(t, err)
	require.Empty(t, rec.Messages())

	want := `{"type":"object","properties":{` +
		`"todos":{"type":"array","items":{"type":"object","properties":{"name":{"type":"string"},"completed":{"type":"boolean"}},"required":["name"]}},` +
		`"labels":{"type":"array","items":{"type":"string"}},` +
		`"status":{"type":"string","enum":["OPEN","DONE"]}` +
		`},"required":["todos"]}`
	require.Equal(t, want, mustJSON(t, got))
}

func TestExtract_IdentityWithoutReferences(t *testing.T) {
	root := mustParseSchema(t, `
properties:
  Mutation:
    properties:
      rename:
        properties:
          arguments:
            type: object
            properties:
              id: {type: string, format: uuid}
              meta:
                type: object
                properties:
                  label: {type: string, minLength: 1}
                  tags: {type: array, items: {type: string}}
                required: [label]
            required: [id]
`)
	got, err := Extract(root, "rename", WithSink(diag.Discard))
	require.NoError(t, err)

	mutation, _ := root.Properties.Get("Mutation")
	rename, _ := mutation.Properties.Get("rename")
	arguments, _ := rename.Properties.Get("arguments")
	require.Equal(t, mustJSON(t, arguments), mustJSON(t, got))
}

func TestExtract_ResultsAreIndependent(t *testing.T) {
	root := loadSchema(t, "todo-jsonschema.json")
	before := mustJSON(t, root)

	first, err := Extract(root, "update_todo", WithSink(diag.Discard))
	require.NoError(t, err)
	second, err := Extract(root, "update_todo", WithSink(diag.Discard))
	require.NoError(t, err)
	require.Equal(t, mustJSON(t, first), mustJSON(t, second))

	todo, ok := first.Properties.Get("todo")
	require.True(t, ok)
	todo.Property("extra", jsonschema.NewScalar("string"))
	todo.SetRequired("name", "extra")
	first.Required[0] = "changed"

	other, _ := second.Properties.Get("todo")
	_, leaked := other.Properties.Get("extra")
	require.False(t, leaked)
	require.Equal(t, []string{"name"}, other.Required)
	require.Equal(t, []string{"id", "todo"}, second.Required)
	require.Equal(t, before, mustJSON(t, root))
}

func TestExtract_Warnings(t *testing.T) {
	root := loadSchema(t, "todo-jsonschema.json")

	tests := []struct {
		name     string
		mutation string
		opts     []Option
		warning  string
	}{
		{"unknown mutation", "delete_todo", nil, "Unknown mutation delete_todo provided"},
		{"no arguments", "update_online_status", nil, "mutation update_online_status has no arguments"},
		{"query field is not a mutation", "todos", nil, "Unknown mutation todos provided"},
		{"custom mutation type", "create_todo", []Option{WithMutationType("RootMutation")}, "Unknown mutation create_todo provided"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &diag.Recorder{}
			got, err := Extract(root, tt.mutation, append(tt.opts, WithSink(rec))...)
			require.NoError(t, err)
			require.True(t, IsEmpty(got))
			require.Equal(t, "{}", mustJSON(t, got))
			require.Equal(t, []string{tt.warning}, rec.Messages())
		})
	}
}

func TestExtract_NilRoot(t *testing.T) {
	rec := &diag.Recorder{}
	got, err := Extract(nil, "create_todo", WithSink(rec))
	require.NoError(t, err)
	require.True(t, IsEmpty(got))
	require.Equal(t, []string{"Unknown mutation create_todo provided"}, rec.Messages())
}

func TestExtract_MutationTypeOption(t *testing.T) {
	root := mustParseSchema(t, `
properties:
  RootMutation:
    properties:
      ping:
        properties:
          arguments:
            properties:
              message: {type: string}
`)
	got, err := Extract(root, "ping", WithMutationType("RootMutation"), WithSink(diag.Discard))
	require.NoError(t, err)
	require.Equal(t, `{"type":"object","properties":{"message":{"type":"string"}}}`, mustJSON(t, got))
}

func TestExtract_UnknownReference(t *testing.T) {
	root := loadSchema(t, "invalid-ref-jsonschema.json")

	t.Run("property", func(t *testing.T) {
		rec := &diag.Recorder{}
		got, err := Extract(root, "unknown_ref_mutation", WithSink(rec))
		require.NoError(t, err)
		require.Equal(t,
			`{"type":"object","properties":{"id":{"type":"string"},"user":{}},"required":["id","user"]}`,
			mustJSON(t, got))
		require.Equal(t, []string{`unknown $ref "UnknowRef" for user`}, rec.Messages())
	})

	t.Run("array items", func(t *testing.T) {
		rec := &diag.Recorder{}
		got, err := Extract(root, "unknown_items_mutation", WithSink(rec))
		require.NoError(t, err)
		require.Equal(t,
			`{"type":"object","properties":{"users":{},"id":{"type":"string"}}}`,
			mustJSON(t, got))
		require.Equal(t, []string{`unknown $ref "UnknowRef" for users`}, rec.Messages())
	})
}

func TestExtract_Cycles(t *testing.T) {
	root := loadSchema(t, "cyclic-jsonschema.yaml")

	tests := []struct {
		mutation string
		chain    string
	}{
		{"create_category", "CategoryInput -> ParentInput -> CategoryInput"},
		{"create_node", "NodeInput -> NodeInput"},
	}
	for _, tt := range tests {
		t.Run(tt.mutation, func(t *testing.T) {
			_, err := Extract(root, tt.mutation, WithSink(diag.Discard))
			require.Error(t, err)
			require.True(t, errors.Is(err, ErrCyclicSchema))
			require.Contains(t, err.Error(), tt.chain)
		})
	}

	t.Run("sibling references are not cycles", func(t *testing.T) {
		got, err := Extract(root, "create_pair", WithSink(diag.Discard))
		require.NoError(t, err)
		label := `{"type":"object","properties":{"text":{"type":"string"},"color":{"type":"string","enum":["RED","GREEN"]}},"required":["text"]}`
		require.Equal(t, `{"type":"object","properties":{"first":`+label+`,"second":`+label+`}}`, mustJSON(t, got))
	})
}

func TestExtract_RequiredIsCarriedPerObject(t *testing.T) {
	root := loadSchema(t, "todo-jsonschema.json")
	got, err := Extract(root, "update_todo", WithSink(diag.Discard))
	require.NoError(t, err)

	require.Equal(t, []string{"id", "todo"}, got.Required)
	todo, _ := got.Properties.Get("todo")
	require.Equal(t, []string{"name"}, todo.Required)

	var paths []string
	var required []bool
	Walk(got, func(path string, _ *jsonschema.Schema, req bool) {
		paths = append(paths, path)
		required = append(required, req)
	})
	if diff := cmp.Diff([]string{"id", "todo.name", "todo.completed"}, paths); diff != "" {
		t.Errorf("paths mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, []bool{true, true, false}, required)
}

func TestExtract_DefaultSinkLogs(t *testing.T) {
	root := loadSchema(t, "todo-jsonschema.json")
	got, err := Extract(root, "missing")
	require.NoError(t, err)
	require.True(t, IsEmpty(got))
}

func TestIsEmpty(t *testing.T) {
	require.True(t, IsEmpty(nil))
	require.True(t, IsEmpty(jsonschema.Empty()))
	require.False(t, IsEmpty(jsonschema.NewObject()))
	require.False(t, IsEmpty(jsonschema.NewScalar("string")))
}

func mustParseSchema(t *testing.T, src string) *jsonschema.Schema {
	t.Helper()
	s, err := jsonschema.Parse([]byte(src))
	require.NoError(t, err)
	return s
}
