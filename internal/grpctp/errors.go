package grpctp

import "errors"

var (
	// ErrNoEndpoints indicates the provider returned no endpoints for a service.
	ErrNoEndpoints = errors.New("grpctp: no endpoints available")
	// ErrNoService indicates the saver was built without a target service.
	ErrNoService = errors.New("grpctp: service not configured")
	// ErrClosed is returned by Save after Close.
	ErrClosed = errors.New("grpctp: closed")
)
