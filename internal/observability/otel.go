package observability

import (
	"context"
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const (
	serviceName = "chatstream"
	tracerName  = "chatstream"
)

// Setup installs a global tracer provider exporting to the OTLP/HTTP
// endpoint at url (host:port).
func Setup(ctx context.Context, url string, insecure bool) (*sdktrace.TracerProvider, error) {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(url)}
	if insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exp, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewSchemaless(attribute.String("service.name", serviceName))),
	)
	otel.SetTracerProvider(tp)
	return tp, nil
}

// StartStreamSpan starts a span covering one streamed turn.
func StartStreamSpan(ctx context.Context, model string, messages int) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "chat.stream",
		trace.WithAttributes(
			attribute.String("llm.model", model),
			attribute.Int("chat.messages", messages),
		),
	)
}

// Handler wraps h with OpenTelemetry HTTP server instrumentation.
func Handler(h http.Handler) http.Handler {
	return otelhttp.NewHandler(h, serviceName)
}
