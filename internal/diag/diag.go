// Package diag carries the plain-sentence warnings emitted when a form cannot
// be derived from its inputs. Message strings are stable; callers and tests
// match on them.
package diag

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// Sink receives warnings.
type Sink interface {
	Warn(msg string)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(msg string)

func (f SinkFunc) Warn(msg string) { f(msg) }

// Discard drops every warning.
var Discard Sink = SinkFunc(func(string) {})

// Logrus returns a Sink writing at warn level to l. A nil logger uses the
// logrus standard logger.
func Logrus(l logrus.FieldLogger) Sink {
	if l == nil {
		l = logrus.StandardLogger()
	}
	return SinkFunc(func(msg string) { l.Warn(msg) })
}

// Default is used when no sink is configured.
func Default() Sink { return Logrus(nil) }

// OrDefault returns s, or Default when s is nil.
func OrDefault(s Sink) Sink {
	if s == nil {
		return Default()
	}
	return s
}

// Multi fans a warning out to every sink in order.
func Multi(sinks ...Sink) Sink {
	return SinkFunc(func(msg string) {
		for _, s := range sinks {
			if s != nil {
				s.Warn(msg)
			}
		}
	})
}

// Recorder collects warnings in memory.
type Recorder struct {
	mu   sync.Mutex
	msgs []string
}

func (r *Recorder) Warn(msg string) {
	r.mu.Lock()
	r.msgs = append(r.msgs, msg)
	r.mu.Unlock()
}

// Messages returns a copy of the recorded warnings.
func (r *Recorder) Messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.msgs...)
}

// Reset forgets recorded warnings.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.msgs = nil
	r.mu.Unlock()
}
