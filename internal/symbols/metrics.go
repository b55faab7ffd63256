package symbols

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	tracer = otel.Tracer("diffscope.symbols")
	meter  = otel.Meter("diffscope.symbols")
)

var (
	extractLatency metric.Float64Histogram
	cacheHits      metric.Int64Counter
	cacheMisses    metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		extractLatency, err = meter.Float64Histogram(
			"symbol_extraction_duration_seconds",
			metric.WithDescription("Duration of symbol extraction for a set of files"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		cacheHits, err = meter.Int64Counter(
			"symbol_cache_hits_total",
			metric.WithDescription("Files whose declarations came from the extraction cache"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		cacheMisses, err = meter.Int64Counter(
			"symbol_cache_misses_total",
			metric.WithDescription("Files that had to be parsed"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordExtractMetrics(ctx context.Context, duration time.Duration, files, hits, misses int) {
	if err := initMetrics(); err != nil {
		return
	}
	extractLatency.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.Int("files", files)))
	cacheHits.Add(ctx, int64(hits))
	cacheMisses.Add(ctx, int64(misses))
}

func startExtractSpan(ctx context.Context, files int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Extractor.Extract",
		trace.WithAttributes(attribute.Int("symbols.input_files", files)),
	)
}
