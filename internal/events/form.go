// Package events defines the events published on the eventbus while forms
// are built, validated and submitted. Start and finish events of one
// operation share the request ID carried by their context.
package events

import "time"

// FormBuildStart is emitted before a form is derived from its inputs.
type FormBuildStart struct {
	Source string // "schema", "sdl", "sources" or "introspection"
}

// FormBuildFinish is emitted after a build. Mutation is empty when the
// operation document could not be resolved.
type FormBuildFinish struct {
	Mutation string
	Fields   int
	Empty    bool
	Err      error
	Duration time.Duration
}

// ValidateStart is emitted before values are validated.
type ValidateStart struct {
	Mutation string
}

// ValidateFinish is emitted after validation.
type ValidateFinish struct {
	Mutation string
	Errors   int
	Err      error
	Duration time.Duration
}

// SubmitStart is emitted before values are handed to the saver.
type SubmitStart struct {
	Mutation string
}

// SubmitFinish is emitted after a submission attempt.
type SubmitFinish struct {
	Mutation string
	Err      error
	Duration time.Duration
}

// Warning mirrors a diagnostic warning.
type Warning struct {
	Message string
}
