package jsonschema

import (
	"bytes"

	"github.com/hanpama/frontier/internal/json"
)

// MarshalJSON writes the node with a stable key order: type, properties,
// items, required, $ref, format, remaining keywords in declaration order,
// then definitions. Properties keep their declaration order.
func (s *Schema) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := s.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *Schema) encode(buf *bytes.Buffer) error {
	if s == nil {
		buf.WriteString("{}")
		return nil
	}
	w := objectWriter{buf: buf}
	buf.WriteByte('{')
	if s.Type != "" {
		if err := w.value("type", s.Type); err != nil {
			return err
		}
	}
	if s.Properties != nil {
		if err := w.properties("properties", s.Properties); err != nil {
			return err
		}
	}
	if s.Items != nil {
		w.key("items")
		if err := s.Items.encode(buf); err != nil {
			return err
		}
	}
	if s.Required != nil {
		if err := w.value("required", s.Required); err != nil {
			return err
		}
	}
	if s.Ref != "" {
		if err := w.value("$ref", s.Ref); err != nil {
			return err
		}
	}
	if s.Format != "" {
		if err := w.value("format", s.Format); err != nil {
			return err
		}
	}
	for _, kw := range s.Keywords {
		if err := w.value(kw.Name, kw.Value); err != nil {
			return err
		}
	}
	if s.Definitions != nil {
		if err := w.properties("definitions", s.Definitions); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

type objectWriter struct {
	buf   *bytes.Buffer
	count int
}

func (w *objectWriter) key(name string) {
	if w.count > 0 {
		w.buf.WriteByte(',')
	}
	w.count++
	b, _ := json.Marshal(name)
	w.buf.Write(b)
	w.buf.WriteByte(':')
}

func (w *objectWriter) value(name string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.key(name)
	w.buf.Write(b)
	return nil
}

func (w *objectWriter) properties(name string, props *Properties) error {
	w.key(name)
	inner := objectWriter{buf: w.buf}
	w.buf.WriteByte('{')
	for k, v := range props.All() {
		inner.key(k)
		if err := v.encode(w.buf); err != nil {
			return err
		}
	}
	w.buf.WriteByte('}')
	return nil
}
