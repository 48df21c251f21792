package jsonschema

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hanpama/frontier/internal/json"
)

// Parse decodes a schema document written as JSON or YAML. Property and
// definition order follows the document.
func Parse(data []byte) (*Schema, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		// Re-indent JSON with spaces: YAML rejects tab indentation.
		var buf bytes.Buffer
		if err := json.DefaultJSONHandler.Indent(&buf, trimmed, "", "  "); err != nil {
			return nil, fmt.Errorf("invalid json schema: %w", err)
		}
		trimmed = buf.Bytes()
	}
	var s Schema
	if err := yaml.Unmarshal(trimmed, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ParseFile reads and decodes the schema document at path.
func ParseFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// UnmarshalJSON implements json.Unmarshaler on top of Parse.
func (s *Schema) UnmarshalJSON(data []byte) error {
	parsed, err := Parse(data)
	if err != nil {
		return err
	}
	*s = *parsed
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (s *Schema) UnmarshalYAML(value *yaml.Node) error {
	decoded, err := decodeNode(value)
	if err != nil {
		return err
	}
	*s = *decoded
	return nil
}

func decodeNode(n *yaml.Node) (*Schema, error) {
	n = resolveAlias(n)
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Empty(), nil
		}
		return decodeNode(n.Content[0])
	case yaml.ScalarNode:
		// Boolean schemas: true accepts anything.
		if n.Tag == "!!bool" && n.Value == "true" {
			return Empty(), nil
		}
		if n.Tag == "!!null" {
			return Empty(), nil
		}
		return nil, fmt.Errorf("line %d: schema must be a mapping, got %q", n.Line, n.Value)
	case yaml.MappingNode:
	default:
		return nil, fmt.Errorf("line %d: schema must be a mapping", n.Line)
	}

	s := &Schema{}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := resolveAlias(n.Content[i]).Value
		val := resolveAlias(n.Content[i+1])
		var err error
		switch key {
		case "type":
			if val.Kind == yaml.ScalarNode {
				s.Type = val.Value
			} else {
				err = s.decodeKeyword(key, val)
			}
		case "$ref":
			s.Ref, err = decodeString(key, val)
		case "format":
			s.Format, err = decodeString(key, val)
		case "properties":
			s.Properties, err = decodeProperties(key, val)
		case "definitions":
			s.Definitions, err = decodeProperties(key, val)
		case "items":
			if val.Kind == yaml.MappingNode {
				s.Items, err = decodeNode(val)
			} else {
				err = s.decodeKeyword(key, val)
			}
		case "required":
			s.Required, err = decodeStrings(key, val)
		default:
			err = s.decodeKeyword(key, val)
		}
		if err != nil {
			return nil, err
		}
	}
	s.Kind = classify(s)
	return s, nil
}

func (s *Schema) decodeKeyword(key string, val *yaml.Node) error {
	var v any
	if err := val.Decode(&v); err != nil {
		return fmt.Errorf("line %d: %s: %w", val.Line, key, err)
	}
	s.Keywords = append(s.Keywords, Keyword{Name: key, Value: v})
	return nil
}

func classify(s *Schema) Kind {
	switch {
	case s.Ref != "":
		return KindRef
	case s.Properties != nil || s.Type == "object":
		return KindObject
	case s.Items != nil || s.Type == "array":
		return KindArray
	case s.Type != "" || s.Format != "" || len(s.Keywords) > 0 || s.Required != nil:
		return KindScalar
	}
	return KindEmpty
}

func decodeProperties(key string, n *yaml.Node) (*Properties, error) {
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: %s must be a mapping", n.Line, key)
	}
	props := NewProperties()
	for i := 0; i+1 < len(n.Content); i += 2 {
		name := resolveAlias(n.Content[i]).Value
		prop, err := decodeNode(n.Content[i+1])
		if err != nil {
			return nil, fmt.Errorf("%s.%s: %w", key, name, err)
		}
		props.Set(name, prop)
	}
	return props, nil
}

func decodeString(key string, n *yaml.Node) (string, error) {
	if n.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("line %d: %s must be a string", n.Line, key)
	}
	return n.Value, nil
}

func decodeStrings(key string, n *yaml.Node) ([]string, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("line %d: %s must be a list", n.Line, key)
	}
	out := make([]string, 0, len(n.Content))
	for _, item := range n.Content {
		item = resolveAlias(item)
		if item.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: %s entries must be strings", item.Line, key)
		}
		out = append(out, item.Value)
	}
	return out, nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}
