package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// Metrics holds all application metrics
type Metrics struct {
	SearchCount      metric.Int64Counter
	SearchDuration   metric.Float64Histogram
	CacheHitCount    metric.Int64Counter
	CacheMissCount   metric.Int64Counter
	SuggestionCount  metric.Int64Counter
	BulkFailureCount metric.Int64Counter
}

// Setup initializes OpenTelemetry
func Setup(ctx context.Context, serviceName, serviceVersion, endpoint string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	shutdown := func(ctx context.Context) error {
		return tracerProvider.Shutdown(ctx)
	}

	return shutdown, nil
}

// InitMetrics initializes application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("github.com/sunuchoix/search-backend")

	searchCount, err := meter.Int64Counter(
		"search.request.count",
		metric.WithDescription("Number of orchestrated searches"),
	)
	if err != nil {
		return nil, err
	}

	searchDuration, err := meter.Float64Histogram(
		"search.request.duration",
		metric.WithDescription("Search duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	cacheHitCount, err := meter.Int64Counter(
		"search.cache.hit.count",
		metric.WithDescription("Number of search cache hits"),
	)
	if err != nil {
		return nil, err
	}

	cacheMissCount, err := meter.Int64Counter(
		"search.cache.miss.count",
		metric.WithDescription("Number of search cache misses"),
	)
	if err != nil {
		return nil, err
	}

	suggestionCount, err := meter.Int64Counter(
		"search.suggestion.count",
		metric.WithDescription("Number of suggestion requests"),
	)
	if err != nil {
		return nil, err
	}

	bulkFailureCount, err := meter.Int64Counter(
		"search.bulk.failure.count",
		metric.WithDescription("Number of failed requests inside bulk searches"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		SearchCount:      searchCount,
		SearchDuration:   searchDuration,
		CacheHitCount:    cacheHitCount,
		CacheMissCount:   cacheMissCount,
		SuggestionCount:  suggestionCount,
		BulkFailureCount: bulkFailureCount,
	}, nil
}
