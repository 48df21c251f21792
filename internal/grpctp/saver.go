// Package grpctp submits form values to a gRPC service. Values travel as a
// google.protobuf.Struct and the Struct response is returned as a map.
package grpctp

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	eventbus "github.com/hanpama/frontier/internal/eventbus"
	events "github.com/hanpama/frontier/internal/events"
	"github.com/hanpama/frontier/internal/form"
	"github.com/hanpama/frontier/internal/json"
)

// MutationHeader carries the mutation name in outgoing metadata.
const MutationHeader = "x-frontier-mutation"

// Saver is a form.Saver with connection pooling and deadline propagation.
// It resolves endpoints through an EndpointProvider.
type Saver struct {
	opts *Options

	mu     sync.RWMutex
	pools  map[string]*connPool // key: endpoint
	closed atomic.Bool
}

func New(opts ...Option) *Saver {
	o := defaultOptions()
	for _, f := range opts {
		f(o)
	}
	if len(o.DialOptions) == 0 {
		o.DialOptions = []grpc.DialOption{
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithConnectParams(grpc.ConnectParams{Backoff: backoff.DefaultConfig}),
		}
	}
	return &Saver{
		opts:  o,
		pools: make(map[string]*connPool),
	}
}

var _ form.Saver = (*Saver)(nil)

// Save invokes /<Service>/<Method(mutation)> with values, which must encode
// as a JSON object.
func (s *Saver) Save(ctx context.Context, mutation string, values any) (result any, err error) {
	if s.closed.Load() {
		return nil, ErrClosed
	}
	if s.opts.Service == "" {
		return nil, ErrNoService
	}
	if s.opts.Provider == nil {
		return nil, fmt.Errorf("grpctp: provider not configured")
	}
	service := s.opts.Service
	method := s.opts.Method(mutation)
	fullMethod := fmt.Sprintf("/%s/%s", service, method)

	req, err := encodeValues(values)
	if err != nil {
		return nil, err
	}

	if _, ok := ctx.Deadline(); !ok && s.opts.RPCTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RPCTimeout)
		defer cancel()
	}
	ctx = metadata.AppendToOutgoingContext(ctx, MutationHeader, mutation)

	endpoints, err := s.opts.Provider.Endpoints(ctx, service)
	if err != nil {
		return nil, err
	}
	endpoint := endpoints[rand.Intn(len(endpoints))]

	cc, err := s.getConn(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	defer s.returnConn(endpoint, cc)

	start := time.Now()
	eventbus.Publish(ctx, events.SaveCallStart{Mutation: mutation, Service: service, Method: method, Target: endpoint})
	resp := &structpb.Struct{}
	err = cc.Invoke(ctx, fullMethod, req, resp)
	eventbus.Publish(ctx, events.SaveCallFinish{
		Mutation: mutation,
		Service:  service,
		Method:   method,
		Target:   endpoint,
		Code:     status.Code(err),
		Err:      err,
		Duration: time.Since(start),
	})
	if err != nil {
		return nil, fmt.Errorf("grpctp: %s: %w", fullMethod, err)
	}
	return resp.AsMap(), nil
}

// Close releases every pooled connection. Later calls to Save fail with
// ErrClosed.
func (s *Saver) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.pools {
		p.close()
	}
	s.pools = map[string]*connPool{}
	return nil
}

func encodeValues(values any) (*structpb.Struct, error) {
	b, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("grpctp: encode values: %w", err)
	}
	req := &structpb.Struct{}
	if err := protojson.Unmarshal(b, req); err != nil {
		return nil, fmt.Errorf("grpctp: values must be a JSON object: %w", err)
	}
	return req, nil
}

type connPool struct {
	endpoint string
	opts     *Options
	conns    chan *grpc.ClientConn
	closed   atomic.Bool
}

func newConnPool(endpoint string, opts *Options) *connPool {
	n := opts.MaxConnsPerEndpoint
	if n <= 0 {
		n = 2
	}
	return &connPool{
		endpoint: endpoint,
		opts:     opts,
		conns:    make(chan *grpc.ClientConn, n),
	}
}

func (p *connPool) get(ctx context.Context) (*grpc.ClientConn, error) {
	if p.closed.Load() {
		return nil, ErrClosed
	}
	select {
	case cc := <-p.conns:
		return cc, nil
	default:
		return grpc.DialContext(ctx, p.endpoint, p.opts.DialOptions...)
	}
}

func (p *connPool) put(cc *grpc.ClientConn) {
	if cc == nil || p.closed.Load() {
		if cc != nil {
			_ = cc.Close()
		}
		return
	}
	select {
	case p.conns <- cc:
	default:
		_ = cc.Close()
	}
}

func (p *connPool) close() {
	if p.closed.Swap(true) {
		return
	}
	close(p.conns)
	for cc := range p.conns {
		_ = cc.Close()
	}
}

func (s *Saver) getConn(ctx context.Context, endpoint string) (*grpc.ClientConn, error) {
	s.mu.RLock()
	pool := s.pools[endpoint]
	s.mu.RUnlock()
	if pool == nil {
		s.mu.Lock()
		pool = s.pools[endpoint]
		if pool == nil {
			pool = newConnPool(endpoint, s.opts)
			s.pools[endpoint] = pool
		}
		s.mu.Unlock()
	}
	return pool.get(ctx)
}

func (s *Saver) returnConn(endpoint string, cc *grpc.ClientConn) {
	s.mu.RLock()
	pool := s.pools[endpoint]
	s.mu.RUnlock()
	if pool != nil {
		pool.put(cc)
		return
	}
	_ = cc.Close()
}
