package validator

import (
	"sort"
	"strings"
)

// ErrorTree mirrors the shape of the validated value. Leaves are keyword tags
// ("required", "type", "pattern", ...); nested objects and arrays are
// ErrorTree values keyed by property name or decimal index. An empty tree
// means the value is valid.
type ErrorTree map[string]any

// Empty reports whether t holds no errors.
func (t ErrorTree) Empty() bool { return len(t) == 0 }

// Set stores tag at path unless something is already recorded at, above or
// below it. It reports whether the tag was stored.
func (t ErrorTree) Set(path []string, tag string) bool {
	if len(path) == 0 {
		return false
	}
	cur := t
	for _, seg := range path[:len(path)-1] {
		switch next := cur[seg].(type) {
		case nil:
			child := ErrorTree{}
			cur[seg] = child
			cur = child
		case ErrorTree:
			cur = next
		default:
			return false
		}
	}
	last := path[len(path)-1]
	if _, exists := cur[last]; exists {
		return false
	}
	cur[last] = tag
	return true
}

// Get returns the tag stored at path.
func (t ErrorTree) Get(path ...string) (string, bool) {
	cur := t
	for i, seg := range path {
		switch v := cur[seg].(type) {
		case string:
			if i == len(path)-1 {
				return v, true
			}
			return "", false
		case ErrorTree:
			cur = v
		default:
			return "", false
		}
	}
	return "", false
}

// Flatten returns every leaf keyed by its dot-joined path.
func (t ErrorTree) Flatten() map[string]string {
	out := make(map[string]string)
	t.flatten("", out)
	return out
}

func (t ErrorTree) flatten(prefix string, out map[string]string) {
	for k, v := range t {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		switch v := v.(type) {
		case string:
			out[path] = v
		case ErrorTree:
			v.flatten(path, out)
		}
	}
}

// Paths returns the dot-joined leaf paths in sorted order.
func (t ErrorTree) Paths() []string {
	flat := t.Flatten()
	paths := make([]string, 0, len(flat))
	for p := range flat {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// String renders "path: tag" pairs in path order.
func (t ErrorTree) String() string {
	flat := t.Flatten()
	var b strings.Builder
	for i, p := range t.Paths() {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p)
		b.WriteString(": ")
		b.WriteString(flat[p])
	}
	return b.String()
}
