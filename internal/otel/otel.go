// Package otel exports spans for form builds, validations, submissions and
// the gRPC calls made by the saver.
// Spans are created by eventbus subscribers, so the form package carries no
// tracing code.
package otel

import (
	"context"
	"sync"

	eventbus "github.com/hanpama/frontier/internal/eventbus"
	events "github.com/hanpama/frontier/internal/events"
	reqid "github.com/hanpama/frontier/internal/reqid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const instrumentationName = "github.com/hanpama/frontier"

// Setup configures OpenTelemetry and attaches eventbus subscribers.
// If endpoint is empty, no telemetry is configured.
func Setup(endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	unregister := Register(otel.Tracer(instrumentationName))
	return func(ctx context.Context) error {
		unregister()
		return tp.Shutdown(ctx)
	}, nil
}

// Register subscribes span-producing handlers to the global bus.
func Register(tracer trace.Tracer) (unregister func()) {
	s := &subscriber{tracer: tracer}
	return s.register()
}

type subscriber struct {
	tracer      trace.Tracer
	buildSpans  sync.Map // rid -> trace.Span
	validations sync.Map // rid -> trace.Span
	submissions sync.Map // rid -> trace.Span
	calls       sync.Map // rid -> trace.Span
}

func (s *subscriber) start(ctx context.Context, spans *sync.Map, name string, attrs ...attribute.KeyValue) {
	rid, _ := reqid.FromContext(ctx)
	_, span := s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	spans.Store(rid, span)
}

func (s *subscriber) finish(ctx context.Context, spans *sync.Map, err error, attrs ...attribute.KeyValue) {
	rid, _ := reqid.FromContext(ctx)
	v, ok := spans.LoadAndDelete(rid)
	if !ok {
		return
	}
	span := v.(trace.Span)
	span.SetAttributes(attrs...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func (s *subscriber) register() func() {
	unsubs := []func(){
		eventbus.Subscribe(func(ctx context.Context, e events.FormBuildStart) {
			s.start(ctx, &s.buildSpans, "form.build", attribute.String("form.source", e.Source))
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.FormBuildFinish) {
			s.finish(ctx, &s.buildSpans, e.Err,
				attribute.String("form.mutation", e.Mutation),
				attribute.Int("form.fields", e.Fields),
				attribute.Bool("form.empty", e.Empty))
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.ValidateStart) {
			s.start(ctx, &s.validations, "form.validate", attribute.String("form.mutation", e.Mutation))
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.ValidateFinish) {
			s.finish(ctx, &s.validations, e.Err, attribute.Int("form.error_count", e.Errors))
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.SubmitStart) {
			s.start(ctx, &s.submissions, "form.submit", attribute.String("form.mutation", e.Mutation))
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.SubmitFinish) {
			s.finish(ctx, &s.submissions, e.Err)
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.SaveCallStart) {
			rid, _ := reqid.FromContext(ctx)
			parent := ctx
			if v, ok := s.submissions.Load(rid); ok {
				parent = trace.ContextWithSpan(ctx, v.(trace.Span))
			}
			_, span := s.tracer.Start(parent, "grpc.client", trace.WithAttributes(
				semconv.RPCSystemKey.String("grpc"),
				semconv.RPCServiceKey.String(e.Service),
				semconv.RPCMethodKey.String(e.Method),
				attribute.String("net.peer.name", e.Target),
				attribute.String("form.mutation", e.Mutation)))
			s.calls.Store(rid, span)
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.SaveCallFinish) {
			s.finish(ctx, &s.calls, e.Err, attribute.String("grpc.code", e.Code.String()))
		}),
		eventbus.Subscribe(func(ctx context.Context, e events.Warning) {
			// Attach to whichever operation is in flight.
			rid, _ := reqid.FromContext(ctx)
			for _, spans := range []*sync.Map{&s.submissions, &s.validations, &s.buildSpans} {
				if v, ok := spans.Load(rid); ok {
					v.(trace.Span).AddEvent("warning", trace.WithAttributes(attribute.String("message", e.Message)))
					return
				}
			}
		}),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}
