package grpctp

import (
	"context"
	"maps"
	"slices"
	"sync"
)

// EndpointProvider provides reachable endpoints (host:port) for a
// fully-qualified gRPC service name. Implementations must be safe for
// concurrent use and return at least one endpoint or an error.
type EndpointProvider interface {
	Endpoints(ctx context.Context, service string) ([]string, error)
}

// StaticEndpoints is a provider backed by an in-memory map from service name
// to endpoints.
type StaticEndpoints struct {
	mu   sync.RWMutex
	data map[string][]string
}

func NewStaticEndpoints(m map[string][]string) *StaticEndpoints {
	cp := maps.Clone(m)
	for k, v := range cp {
		cp[k] = slices.Clone(v)
	}
	if cp == nil {
		cp = map[string][]string{}
	}
	return &StaticEndpoints{data: cp}
}

// Set replaces the endpoints of service.
func (s *StaticEndpoints) Set(service string, endpoints ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[service] = slices.Clone(endpoints)
}

func (s *StaticEndpoints) Endpoints(_ context.Context, service string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	arr := s.data[service]
	if len(arr) == 0 {
		return nil, ErrNoEndpoints
	}
	return slices.Clone(arr), nil
}
