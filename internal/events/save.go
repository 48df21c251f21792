package events

import (
	"time"

	"google.golang.org/grpc/codes"
)

// SaveCallStart is emitted before the gRPC saver invokes a method.
type SaveCallStart struct {
	Mutation string
	Service  string
	Method   string
	Target   string
}

// SaveCallFinish is emitted after the call returns.
type SaveCallFinish struct {
	Mutation string
	Service  string
	Method   string
	Target   string
	Code     codes.Code
	Err      error
	Duration time.Duration
}
