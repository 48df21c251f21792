package schema

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeSDL(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeSDL(t, dir, "types.graphql", `
type Query { todos: [Todo!]! }
type Mutation { noop: Boolean }
type Todo { id: ID! name: String! }
`)
	writeSDL(t, dir, "todo/mutations.graphql", `
input TodoInputType { name: String! }
extend type Mutation { create_todo(todo: TodoInputType!): Todo }
`)
	writeSDL(t, dir, "README.md", "not sdl")

	sources, err := LoadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, src := range sources {
		names = append(names, src.Name)
	}
	require.Equal(t, []string{"todo/mutations.graphql", "types.graphql"}, names)

	s, err := BuildFromSources(sources...)
	require.NoError(t, err)
	require.Equal(t, "Mutation", s.MutationType)
	require.NotNil(t, s.Types["Mutation"].Field("create_todo"))
	require.NotNil(t, s.Types["TodoInputType"])
}

func TestLoadDir_Missing(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "missing"))
	require.ErrorContains(t, err, "failed to walk")
}

func TestBuildFromSources_Violations(t *testing.T) {
	_, err := BuildFromSources(
		Source{Name: "a.graphql", Content: "type Query { a: String }"},
		Source{Name: "b.graphql", Content: "type {"},
		Source{Name: "c.graphql", Content: "input {"},
	)
	var verr ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr, 2)
	require.Equal(t, "b.graphql", verr[0].File)
	require.Equal(t, "c.graphql", verr[1].File)

	_, err = BuildFromSources(
		Source{Name: "a.graphql", Content: "type Query { a: String }"},
		Source{Name: "b.graphql", Content: "type Query { b: String }"},
	)
	require.True(t, errors.As(err, &verr))
	require.Equal(t, `Duplicate type "Query"`, verr[0].Message)
	require.Equal(t, "b.graphql", verr[0].File)
}
