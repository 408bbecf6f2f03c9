package tracing

import (
    "context"
    "io"
    "os"

    "go.opentelemetry.io/otel"
    "go.opentelemetry.io/otel/attribute"
    "go.opentelemetry.io/otel/codes"
    "go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
    sdktrace "go.opentelemetry.io/otel/sdk/trace"
    "go.opentelemetry.io/otel/trace"
)

var enabled bool

// Setup configures a global tracer provider when enable=true. Spans are
// pretty-printed to w (stderr when nil) so stdout stays reserved for
// command results. It returns a shutdown function which should be deferred.
func Setup(enable bool, w io.Writer) (func(context.Context) error, error) {
    enabled = enable
    if !enable {
        return func(context.Context) error { return nil }, nil
    }
    if w == nil { w = os.Stderr }
    exp, err := stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithPrettyPrint())
    if err != nil {
        return nil, err
    }
    tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
    otel.SetTracerProvider(tp)
    return tp.Shutdown, nil
}

// StartSpan starts a tracing span if tracing is enabled.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func()) {
    if !enabled {
        return ctx, func() {}
    }
    tr := otel.Tracer("wmcsctl")
    ctx, span := tr.Start(ctx, name, trace.WithAttributes(attrs...))
    return ctx, func() { span.End() }
}

// RecordError marks the span in ctx as failed. It is a no-op without an
// active span.
func RecordError(ctx context.Context, err error) {
    if err == nil || !enabled {
        return
    }
    span := trace.SpanFromContext(ctx)
    span.RecordError(err)
    span.SetStatus(codes.Error, err.Error())
}
