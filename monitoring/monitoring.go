package monitoring

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"payment-service/logging"
)

// OpenTelemetry instruments. They are no-ops until InitMeter replaces them.
var (
	PaymentCounter       metric.Int64Counter     = noop.Int64Counter{}
	OrderPublishFailures metric.Int64Counter     = noop.Int64Counter{}
	UpstreamCallDuration metric.Float64Histogram = noop.Float64Histogram{}
	HTTPServerDuration   metric.Float64Histogram = noop.Float64Histogram{}
)

// InitTracer initializes OpenTelemetry tracing. Without exportOTLP spans are
// still created, and propagated to collaborators, but never shipped.
func InitTracer(serviceName, endpoint string, exportOTLP bool) (*sdktrace.TracerProvider, trace.Tracer, error) {
	ctx := context.Background()

	res, err := newResource(ctx, serviceName)
	if err != nil {
		return nil, nil, err
	}

	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}
	if exportOTLP {
		exporter, err := otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(endpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	tp := sdktrace.NewTracerProvider(opts...)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	tracer := tp.Tracer(serviceName)

	logging.Info("Tracing initialized", zap.String("service_name", serviceName), zap.Bool("otlp", exportOTLP))

	return tp, tracer, nil
}

// InitMeter initializes OpenTelemetry metrics. Instruments are always exposed
// through reg (served on /metrics) and additionally pushed over OTLP when
// exportOTLP is set.
func InitMeter(serviceName, endpoint string, reg prometheus.Registerer, exportOTLP bool) (*sdkmetric.MeterProvider, metric.Meter, error) {
	ctx := context.Background()

	res, err := newResource(ctx, serviceName)
	if err != nil {
		return nil, nil, err
	}

	promExporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, nil, err
	}

	opts := []sdkmetric.Option{
		sdkmetric.WithReader(promExporter),
		sdkmetric.WithResource(res),
	}
	if exportOTLP {
		metricExporter, err := otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)))
	}

	mp := sdkmetric.NewMeterProvider(opts...)

	otel.SetMeterProvider(mp)
	meter := mp.Meter(serviceName)

	if err := initInstruments(meter); err != nil {
		return nil, nil, err
	}

	logging.Info("Metrics initialized", zap.String("endpoint", endpoint), zap.Bool("otlp", exportOTLP))

	return mp, meter, nil
}

func initInstruments(meter metric.Meter) error {
	var err error

	PaymentCounter, err = meter.Int64Counter(
		"payments_processed_total",
		metric.WithDescription("Total number of payment requests by terminal outcome"),
	)
	if err != nil {
		return err
	}

	OrderPublishFailures, err = meter.Int64Counter(
		"order_publish_failed_total",
		metric.WithDescription("Orders the queue publisher failed to hand off"),
	)
	if err != nil {
		return err
	}

	UpstreamCallDuration, err = meter.Float64Histogram(
		"upstream_call_duration_seconds",
		metric.WithDescription("Duration of calls to user, cart and payment gateway services"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return err
	}

	HTTPServerDuration, err = meter.Float64Histogram(
		"http_server_duration_milliseconds",
		metric.WithDescription("HTTP server request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	return err
}

func newResource(ctx context.Context, serviceName string) (*resource.Resource, error) {
	return resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
}
