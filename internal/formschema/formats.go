package formschema

import (
	"sort"
	"strings"

	"github.com/hanpama/frontier/internal/jsonschema"
)

// WithFormats returns a copy of s in which the property at each dot path of
// formats carries the given format annotation. Missing properties along a
// path are created as unconstrained nodes. s is not modified.
func WithFormats(s *jsonschema.Schema, formats map[string]string) *jsonschema.Schema {
	out := s.Clone()
	if out == nil {
		out = jsonschema.Empty()
	}
	paths := make([]string, 0, len(formats))
	for p := range formats {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		segs := strings.Split(p, ".")
		cur := out
		for i, seg := range segs {
			if cur.Kind == jsonschema.KindEmpty {
				cur.Kind = jsonschema.KindObject
			}
			child, ok := cur.Properties.Get(seg)
			if !ok || child == nil {
				child = jsonschema.Empty()
				cur.Property(seg, child)
			}
			if i == len(segs)-1 {
				child.SetFormat(formats[p])
			}
			cur = child
		}
	}
	return out
}
