package json

import (
	"bytes"
	"encoding/json" //nolint:depguard // this package wraps it
	"io"

	jsoniter "github.com/json-iterator/go"
)

// Number is the decoded form of JSON numbers produced by Normalize.
type Number = json.Number

// Encoder represents an encoder for json
type Encoder interface {
	Encode(v any) error
}

// Decoder represents a decoder for json
type Decoder interface {
	Decode(v any) error
	UseNumber()
}

// Interface represents an interface to handle json data
type Interface interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	NewEncoder(writer io.Writer) Encoder
	NewDecoder(reader io.Reader) Decoder
	Indent(dst *bytes.Buffer, src []byte, prefix, indent string) error
}

// DefaultJSONHandler is used by every package of this module.
var DefaultJSONHandler Interface = jsonIterHandler{api: jsoniter.ConfigCompatibleWithStandardLibrary}

type jsonIterHandler struct {
	api jsoniter.API
}

func (j jsonIterHandler) Marshal(v any) ([]byte, error) { return j.api.Marshal(v) }

func (j jsonIterHandler) Unmarshal(data []byte, v any) error { return j.api.Unmarshal(data, v) }

func (j jsonIterHandler) NewEncoder(writer io.Writer) Encoder { return j.api.NewEncoder(writer) }

func (j jsonIterHandler) NewDecoder(reader io.Reader) Decoder { return j.api.NewDecoder(reader) }

func (j jsonIterHandler) Indent(dst *bytes.Buffer, src []byte, prefix, indent string) error {
	return json.Indent(dst, src, prefix, indent)
}

// Marshal converts object as bytes
func Marshal(v any) ([]byte, error) {
	return DefaultJSONHandler.Marshal(v)
}

// Unmarshal decodes object from bytes
func Unmarshal(data []byte, v any) error {
	return DefaultJSONHandler.Unmarshal(data, v)
}

// NewEncoder creates an encoder to write objects to writer
func NewEncoder(writer io.Writer) Encoder {
	return DefaultJSONHandler.NewEncoder(writer)
}

// NewDecoder creates a decoder to read objects from reader
func NewDecoder(reader io.Reader) Decoder {
	return DefaultJSONHandler.NewDecoder(reader)
}

// MarshalIndent marshals v and indents the result.
func MarshalIndent(v any, prefix, indent string) ([]byte, error) {
	b, err := Marshal(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := DefaultJSONHandler.Indent(&buf, b, prefix, indent); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Normalize converts v into the generic JSON value space (map[string]any,
// []any, json.Number, string, bool, nil) by encoding and decoding it.
func Normalize(v any) (any, error) {
	b, err := Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}
