package formschema

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hanpama/frontier/internal/diag"
	"github.com/hanpama/frontier/internal/jsonschema"
)

type visited struct {
	path     string
	def      string
	required bool
}

func collect(t *testing.T, s *jsonschema.Schema) []visited {
	t.Helper()
	var out []visited
	for f := range Fields(s) {
		out = append(out, visited{f.Path, mustJSON(t, f.Definition), f.Required})
	}
	return out
}

func TestFields_CreateTodo(t *testing.T) {
	root := loadSchema(t, "todo-jsonschema.json")
	form, err := Extract(root, "create_todo", WithSink(diag.Discard))
	require.NoError(t, err)

	require.Equal(t, []visited{
		{"todo.name", `{"type":"string"}`, true},
		{"todo.completed", `{"type":"boolean"}`, false},
	}, collect(t, form))
}

func TestFields_Restartable(t *testing.T) {
	root := loadSchema(t, "todo-jsonschema.json")
	form, err := Extract(root, "update_todo", WithSink(diag.Discard))
	require.NoError(t, err)

	fields := Fields(form)
	var first, second []string
	for f := range fields {
		first = append(first, f.Path)
	}
	for f := range fields {
		second = append(second, f.Path)
	}
	require.Equal(t, []string{"id", "todo.name", "todo.completed"}, first)
	require.Equal(t, first, second)
}

func TestFields_EarlyBreak(t *testing.T) {
	s := mustParseSchema(t, `
type: object
properties:
  a: {type: string}
  b:
    type: object
    properties:
      c: {type: string}
      d: {type: string}
  e: {type: string}
`)
	var seen []string
	for f := range Fields(s) {
		seen = append(seen, f.Path)
		if f.Path == "b.c" {
			break
		}
	}
	require.Equal(t, []string{"a", "b.c"}, seen)
}

func TestFields_LeavesAndOpaqueNodes(t *testing.T) {
	s := mustParseSchema(t, `
type: object
properties:
  tags:
    type: array
    items: {type: string}
  anything: {}
  choice:
    anyOf:
      - {type: string}
      - {type: number}
  empty:
    type: object
    properties: {}
required: [choice]
`)
	got := collect(t, s)
	require.Equal(t, []visited{
		{"tags", `{"type":"array","items":{"type":"string"}}`, false},
		{"anything", `{}`, false},
		{"choice", `{"anyOf":[{"type":"string"},{"type":"number"}]}`, true},
	}, got)
}

func TestFields_EmptyForm(t *testing.T) {
	require.Empty(t, collect(t, jsonschema.Empty()))
	require.Empty(t, collect(t, nil))
}

func TestWalk_MatchesFields(t *testing.T) {
	root := loadSchema(t, "todo-jsonschema.json")
	form, err := Extract(root, "create_todos", WithSink(diag.Discard))
	require.NoError(t, err)

	var walked []visited
	Walk(form, func(path string, def *jsonschema.Schema, required bool) {
		walked = append(walked, visited{path, mustJSON(t, def), required})
	})
	require.Equal(t, collect(t, form), walked)
	require.Len(t, walked, 3)
}

func TestFields_UntypedPropertiesAreLeaves(t *testing.T) {
	s := mustParseSchema(t, `
type: object
properties:
  meta:
    properties:
      a: {type: string}
  todo:
    type: object
    properties:
      name: {type: string}
`)
	require.Equal(t, []visited{
		{"meta", `{"properties":{"a":{"type":"string"}}}`, false},
		{"todo.name", `{"type":"string"}`, false},
	}, collect(t, s))
}
