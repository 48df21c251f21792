package grpctp

import (
	"strings"
	"time"

	"google.golang.org/grpc"
)

// Options configures the saver.
//
// Defaults:
// - Method:              CamelCase of the mutation name (create_todo -> CreateTodo)
// - MaxConnsPerEndpoint: 2
// - RPCTimeout:          3s (used only if the context has no deadline)
// - DialOptions:         insecure credentials
//
// Service and Provider must be set; Save fails without them.
type Options struct {
	Provider EndpointProvider
	// Service is the fully-qualified gRPC service name, e.g. "todo.TodoService".
	Service string
	Method  func(mutation string) string

	MaxConnsPerEndpoint int
	RPCTimeout          time.Duration

	DialOptions []grpc.DialOption
}

// Option mutates Options
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		Method:              MethodName,
		MaxConnsPerEndpoint: 2,
		RPCTimeout:          3 * time.Second,
	}
}

func WithProvider(p EndpointProvider) Option { return func(o *Options) { o.Provider = p } }
func WithService(name string) Option         { return func(o *Options) { o.Service = name } }
func WithMaxConnsPerEndpoint(n int) Option   { return func(o *Options) { o.MaxConnsPerEndpoint = n } }
func WithRPCTimeout(d time.Duration) Option  { return func(o *Options) { o.RPCTimeout = d } }
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(o *Options) { o.DialOptions = opts }
}

// WithMethod overrides how mutation names map to method names. A nil f
// keeps the default.
func WithMethod(f func(mutation string) string) Option {
	return func(o *Options) {
		if f != nil {
			o.Method = f
		}
	}
}

// MethodName converts a mutation name to a method name: create_todo and
// createTodo both become CreateTodo.
func MethodName(mutation string) string {
	parts := strings.FieldsFunc(mutation, func(r rune) bool { return r == '_' || r == '-' })
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(capitalize(p))
	}
	return b.String()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
