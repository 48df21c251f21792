package formschema

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hanpama/frontier/internal/diag"
)

func TestWithFormats(t *testing.T) {
	root := loadSchema(t, "todo-jsonschema.json")
	form, err := Extract(root, "update_todo", WithSink(diag.Discard))
	require.NoError(t, err)
	before := mustJSON(t, form)

	got := WithFormats(form, map[string]string{
		"id":         "uuid",
		"todo.name":  "slug",
		"meta.owner": "email",
	})

	require.Equal(t, before, mustJSON(t, form))
	require.Equal(t, `{"type":"object","properties":{`+
		`"id":{"type":"string","format":"uuid"},`+
		`"todo":{"type":"object","properties":{"name":{"type":"string","format":"slug"},"completed":{"type":"boolean"}},"required":["name"]},`+
		`"meta":{"properties":{"owner":{"format":"email"}}}`+
		`},"required":["id","todo"]}`, mustJSON(t, got))

	var paths []string
	for f := range Fields(got) {
		paths = append(paths, f.Path+"="+f.Definition.Format)
	}
	require.Equal(t, []string{"id=uuid", "todo.name=slug", "todo.completed=", "meta.owner=email"}, paths)
}

func TestWithFormats_Nil(t *testing.T) {
	got := WithFormats(nil, map[string]string{"code": "zip"})
	require.Equal(t, `{"properties":{"code":{"format":"zip"}}}`, mustJSON(t, got))
}
