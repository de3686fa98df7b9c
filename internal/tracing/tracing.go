package tracing

import (
	"context"

	"github.com/linecard/hellocdk/internal/util"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const ServiceName = "hellocdk"

// InitOtel installs a global tracer provider. Spans are only exported when
// OTEL_EXPORTER_OTLP_ENDPOINT is set; otherwise they are recorded and dropped.
// An exporter that cannot be created is logged and tracing stays local.
func InitOtel() (tp *sdktrace.TracerProvider, shutdown func()) {
	ctx := context.Background()

	service := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(ServiceName),
	)

	tp = sdktrace.NewTracerProvider(sdktrace.WithResource(service))
	shutdown = func() {}

	if util.OtelConfigPresent() {
		exp, err := otlptrace.New(ctx, otlptracegrpc.NewClient())
		if err != nil {
			log.Error().Err(err).Msg("failed to create OTLP exporter, spans will not be exported")
		} else {
			log.Info().Str("service", ServiceName).Msg("exporting spans over OTLP")

			tp = sdktrace.NewTracerProvider(
				sdktrace.WithResource(service),
				sdktrace.WithBatcher(exp))

			shutdown = func() {
				_ = tp.ForceFlush(ctx)
				_ = exp.Shutdown(ctx)
				_ = tp.Shutdown(ctx)
			}
		}
	}

	otel.SetTextMapPropagator(propagation.TraceContext{})
	otel.SetTracerProvider(tp)

	return tp, shutdown
}
