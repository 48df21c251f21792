// Package validator compiles form schemas into reusable validators and
// normalizes validation failures into an ErrorTree keyed by field path.
package validator

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	engine "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/hanpama/frontier/internal/json"
	"github.com/hanpama/frontier/internal/jsonschema"
)

const resourceURL = "form.json"

// Validator checks values against a compiled form schema. It is safe for
// concurrent use.
type Validator struct {
	schema   *jsonschema.Schema
	compiled *engine.Schema
	formats  []string
}

// Compile prepares s for validation. Every format in formats is enforced on
// properties annotated with its name; format names without a registered
// predicate are accepted as annotations. formats may be nil.
func Compile(s *jsonschema.Schema, formats *FormatRegistry) (*Validator, error) {
	if s == nil {
		s = jsonschema.Empty()
	}
	doc, err := s.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("encode schema: %w", err)
	}

	snapshot := formats.Snapshot()
	c := engine.NewCompiler()
	c.Draft = engine.Draft7
	c.AssertFormat = true
	if c.Formats == nil {
		c.Formats = make(map[string]func(interface{}) bool, len(snapshot))
	}
	names := make([]string, 0, len(snapshot))
	for name, f := range snapshot {
		c.Formats[name] = f
		names = append(names, name)
	}
	sort.Strings(names)

	if err := c.AddResource(resourceURL, bytes.NewReader(doc)); err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}
	compiled, err := c.Compile(resourceURL)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return &Validator{schema: s.Clone(), compiled: compiled, formats: names}, nil
}

// Schema returns the schema the validator was compiled from.
func (v *Validator) Schema() *jsonschema.Schema { return v.schema }

// Formats returns the names of the formats installed at compile time.
func (v *Validator) Formats() []string { return append([]string(nil), v.formats...) }

// Validate checks values and returns every violation found, in one pass.
// values may be any JSON-encodable Go value. The error is non-nil only when
// values cannot be encoded or the engine fails for reasons other than
// validation.
func (v *Validator) Validate(values any) (ErrorTree, error) {
	doc, err := json.Normalize(values)
	if err != nil {
		return nil, fmt.Errorf("encode values: %w", err)
	}
	tree := ErrorTree{}
	err = v.compiled.Validate(doc)
	if err == nil {
		return tree, nil
	}
	var verr *engine.ValidationError
	if !errors.As(err, &verr) {
		return nil, err
	}

	var found []violation
	for _, leaf := range leaves(verr) {
		found = append(found, v.violations(leaf, doc)...)
	}
	sort.SliceStable(found, func(i, j int) bool {
		a, b := found[i], found[j]
		if a.key != b.key {
			return a.key < b.key
		}
		return priority(a.tag) < priority(b.tag) ||
			(priority(a.tag) == priority(b.tag) && a.tag < b.tag)
	})
	for _, f := range found {
		tree.Set(f.path, f.tag)
	}
	return tree, nil
}

type violation struct {
	path []string
	key  string
	tag  string
}

func newViolation(path []string, tag string) violation {
	return violation{path: path, key: strings.Join(path, "."), tag: tag}
}

// terminal keywords are reported as a whole; their causes explain branches
// that were tried, not fields that are wrong.
var terminal = map[string]bool{"anyOf": true, "oneOf": true, "not": true}

func leaves(e *engine.ValidationError) []*engine.ValidationError {
	if len(e.Causes) == 0 {
		return []*engine.ValidationError{e}
	}
	if _, kw := locate(nil, pointer(e.KeywordLocation)); terminal[kw] {
		return []*engine.ValidationError{e}
	}
	var out []*engine.ValidationError
	for _, c := range e.Causes {
		out = append(out, leaves(c)...)
	}
	return out
}

func (v *Validator) violations(e *engine.ValidationError, doc any) []violation {
	instance := pointer(e.InstanceLocation)
	node, keyword := locate(v.schema, pointer(e.KeywordLocation))
	if keyword == "" {
		keyword = "schema"
	}
	if keyword != "required" {
		if len(instance) == 0 {
			// Violations of the root value are kept under the empty key.
			instance = []string{""}
		}
		return []violation{newViolation(instance, keyword)}
	}

	var out []violation
	for _, name := range missing(node, lookup(doc, instance), e.Message) {
		path := append(append([]string{}, instance...), name)
		out = append(out, newViolation(path, "required"))
	}
	return out
}

// locate follows a keyword location through root and returns the node the
// final keyword belongs to with that keyword. The node is nil when the
// location passes through parts of the schema that are not modeled.
func locate(root *jsonschema.Schema, segs []string) (*jsonschema.Schema, string) {
	var at *jsonschema.Schema
	var keyword string
	node := root
	for i := 0; i < len(segs); i++ {
		at, keyword = node, segs[i]
		var next *jsonschema.Schema
		switch keyword {
		case "properties", "definitions":
			i++
			if node != nil && i < len(segs) {
				props := node.Properties
				if keyword == "definitions" {
					props = node.Definitions
				}
				next, _ = props.Get(segs[i])
			}
		case "patternProperties", "dependencies", "allOf", "anyOf", "oneOf":
			i++
		case "items":
			if i+1 < len(segs) && isIndex(segs[i+1]) {
				i++
			} else if node != nil {
				next = node.Items
			}
		case "$ref":
			if node != nil {
				if name, ok := node.RefName(); ok {
					next, _ = root.Definitions.Get(name)
				}
			}
		}
		node = next
	}
	return at, keyword
}

var quoted = regexp.MustCompile(`'((?:[^'\\]|\\.)*)'`)

// missing returns the required names of node absent from value. When node is
// unknown the names are read from the engine's message.
func missing(node *jsonschema.Schema, value any, message string) []string {
	if node != nil && node.Required != nil {
		obj, _ := value.(map[string]any)
		var out []string
		for _, name := range node.Required {
			if _, ok := obj[name]; !ok {
				out = append(out, name)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	var out []string
	for _, m := range quoted.FindAllStringSubmatch(message, -1) {
		out = append(out, strings.ReplaceAll(m[1], `\'`, `'`))
	}
	return out
}

func lookup(doc any, path []string) any {
	cur := doc
	for _, seg := range path {
		switch v := cur.(type) {
		case map[string]any:
			cur = v[seg]
		case []any:
			i, err := strconv.Atoi(seg)
			if err != nil || i < 0 || i >= len(v) {
				return nil
			}
			cur = v[i]
		default:
			return nil
		}
	}
	return cur
}

// pointer splits a JSON pointer ("/todo/name" or "#/todo/name") into
// unescaped segments.
func pointer(p string) []string {
	p = strings.TrimPrefix(p, "#")
	if p == "" || p == "/" {
		return nil
	}
	segs := strings.Split(strings.TrimPrefix(p, "/"), "/")
	for i, s := range segs {
		if strings.Contains(s, "~") {
			segs[i] = strings.NewReplacer("~1", "/", "~0", "~").Replace(s)
		}
	}
	return segs
}

func isIndex(s string) bool {
	_, err := strconv.Atoi(s)
	return err == nil
}

func priority(tag string) int {
	switch tag {
	case "required":
		return 0
	case "type":
		return 1
	}
	return 2
}
