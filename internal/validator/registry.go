package validator

import (
	"maps"
	"slices"
	"sync"
)

// Format reports whether a primitive value satisfies a named format. Values
// that the format does not apply to (a number for a string format) should be
// accepted.
type Format func(v any) bool

// FormatRegistry maps format names to predicates. Register formats before
// compiling; Compile works on a snapshot, so later registrations never reach
// an already compiled Validator.
type FormatRegistry struct {
	mu      sync.RWMutex
	formats map[string]Format
}

// NewFormatRegistry returns a registry holding formats.
func NewFormatRegistry(formats map[string]Format) *FormatRegistry {
	r := &FormatRegistry{formats: make(map[string]Format, len(formats))}
	for name, f := range formats {
		r.Register(name, f)
	}
	return r
}

// Register adds or replaces the predicate for name.
func (r *FormatRegistry) Register(name string, f Format) {
	if f == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.formats == nil {
		r.formats = make(map[string]Format)
	}
	r.formats[name] = f
}

// Snapshot returns a copy of the registered formats. A nil registry has none.
func (r *FormatRegistry) Snapshot() map[string]Format {
	if r == nil {
		return map[string]Format{}
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return maps.Clone(r.formats)
}

// Names returns the registered format names, sorted.
func (r *FormatRegistry) Names() []string {
	return slices.Sorted(maps.Keys(r.Snapshot()))
}
