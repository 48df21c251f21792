package jsonschema

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, src string) *Schema {
	t.Helper()
	s, err := Parse([]byte(src))
	require.NoError(t, err)
	return s
}

func mustJSON(t *testing.T, s *Schema) string {
	t.Helper()
	b, err := s.MarshalJSON()
	require.NoError(t, err)
	return string(b)
}

func TestParse_JSONKeepsDeclarationOrder(t *testing.T) {
	s := mustParse(t, "{\n\t\"type\": \"object\",\n\t\"properties\": {\n\t\t\"zeta\": {\"type\": \"string\"},\n\t\t\"alpha\": {\"type\": \"boolean\"},\n\t\t\"mid\": {\"type\": \"number\"}\n\t}\n}")

	require.Equal(t, KindObject, s.Kind)
	require.Equal(t, []string{"zeta", "alpha", "mid"}, s.Properties.Keys())
	require.Equal(t,
		`{"type":"object","properties":{"zeta":{"type":"string"},"alpha":{"type":"boolean"},"mid":{"type":"number"}}}`,
		mustJSON(t, s))
}

func TestParse_YAML(t *testing.T) {
	s := mustParse(t, `
type: object
properties:
  todo:
    $ref: "#/definitions/TodoInputType"
  tags:
    type: array
    items:
      type: string
required: [todo]
definitions:
  TodoInputType:
    type: object
    properties:
      name: {type: string, minLength: 1}
    required: [name]
`)
	require.Equal(t, KindObject, s.Kind)

	todo, ok := s.Properties.Get("todo")
	require.True(t, ok)
	require.Equal(t, KindRef, todo.Kind)
	name, ok := todo.RefName()
	require.True(t, ok)
	require.Equal(t, "TodoInputType", name)

	tags, _ := s.Properties.Get("tags")
	require.Equal(t, KindArray, tags.Kind)
	require.Equal(t, KindScalar, tags.Items.Kind)

	def, ok := s.Definitions.Get("TodoInputType")
	require.True(t, ok)
	require.Equal(t, []string{"name"}, def.Required)
	nameProp, _ := def.Properties.Get("name")
	v, ok := nameProp.Keyword("minLength")
	require.True(t, ok)
	require.Equal(t, 1, v)
}

func TestParse_Kinds(t *testing.T) {
	cases := map[string]Kind{
		`{}`:                           KindEmpty,
		`true`:                         KindEmpty,
		`{"$ref": "definitions/X"}`:    KindRef,
		`{"properties": {}}`:           KindObject,
		`{"type": "object"}`:           KindObject,
		`{"items": {}}`:                KindArray,
		`{"type": "string"}`:           KindScalar,
		`{"enum": ["A", "B"]}`:         KindScalar,
		`{"type": ["string", "null"]}`: KindScalar,
	}
	for src, want := range cases {
		require.Equal(t, want, mustParse(t, src).Kind, src)
	}
}

func TestParse_Errors(t *testing.T) {
	for _, src := range []string{
		`{"properties": []}`,
		`{"required": "name"}`,
		`{"$ref": {}}`,
		`"string"`,
		`{"type": "object",}`,
	} {
		_, err := Parse([]byte(src))
		require.Error(t, err, src)
	}
}

func TestRefName(t *testing.T) {
	cases := []struct {
		ref  string
		name string
		ok   bool
	}{
		{"#/definitions/TodoInputType", "TodoInputType", true},
		{"definitions/TodoInputType", "TodoInputType", true},
		{"/definitions/a~1b", "a/b", true},
		{"#/$defs/TodoInputType", "", false},
		{"#/definitions/", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		name, ok := (&Schema{Ref: tc.ref}).RefName()
		require.Equal(t, tc.ok, ok, tc.ref)
		require.Equal(t, tc.name, name, tc.ref)
	}
}

func TestMarshalJSON_StableOrder(t *testing.T) {
	s := NewObject().
		Property("name", NewScalar("string").SetFormat("email").SetKeyword("pattern", "^.+$")).
		Property("todo", NewRef("TodoInputType")).
		SetRequired("name")
	s.SetKeyword("$schema", Draft07)
	s.Definition("TodoInputType", NewObject())

	want := `{"type":"object","properties":{"name":{"type":"string","format":"email","pattern":"^.+$"},` +
		`"todo":{"$ref":"#/definitions/TodoInputType"}},"required":["name"],` +
		`"$schema":"http://json-schema.org/draft-07/schema#",` +
		`"definitions":{"TodoInputType":{"type":"object","properties":{}}}}`
	if diff := cmp.Diff(want, mustJSON(t, s)); diff != "" {
		t.Fatalf("encoding mismatch (-want +got):\n%s", diff)
	}
}

func TestMarshalJSON_EmptyAndRequiredPresence(t *testing.T) {
	require.Equal(t, `{}`, mustJSON(t, Empty()))
	require.Equal(t, `{"type":"object","properties":{},"required":[]}`, mustJSON(t, mustParse(t, `{"type":"object","properties":{},"required":[]}`)))
	require.Equal(t, `{"type":"object","properties":{}}`, mustJSON(t, mustParse(t, `{"type":"object","properties":{}}`)))
}

func TestRoundTrip(t *testing.T) {
	src := `{"type":"object","properties":{"todos":{"type":"array","items":{"$ref":"#/definitions/Todo"}},` +
		`"status":{"type":"string","enum":["OPEN","DONE"]}},"required":["todos"],` +
		`"definitions":{"Todo":{"type":"object","properties":{"id":{"type":"string"}},"required":["id"]}}}`
	require.Equal(t, src, mustJSON(t, mustParse(t, src)))
}

func TestClone_IsIndependent(t *testing.T) {
	orig := mustParse(t, `{"type":"object","properties":{"status":{"type":"string","enum":["OPEN","DONE"]},`+
		`"todo":{"type":"object","properties":{"name":{"type":"string"}},"required":["name"]}},"required":["todo"]}`)
	before := mustJSON(t, orig)

	cp := orig.Clone()
	todo, _ := cp.Properties.Get("todo")
	todo.Property("extra", NewScalar("number"))
	todo.Required[0] = "changed"
	status, _ := cp.Properties.Get("status")
	status.Keywords[0].Value.([]any)[0] = "CHANGED"
	cp.Required = append(cp.Required, "status")

	require.Equal(t, before, mustJSON(t, orig))
	require.NotEqual(t, before, mustJSON(t, cp))
}

func TestUnmarshalJSON(t *testing.T) {
	var s Schema
	require.NoError(t, s.UnmarshalJSON([]byte(`{"type":"boolean"}`)))
	require.Equal(t, KindScalar, s.Kind)
	require.Equal(t, "boolean", s.Type)
}
