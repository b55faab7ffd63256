package usage

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
	tracer = otel.Tracer("diffscope.usage")
	meter  = otel.Meter("diffscope.usage")
)

var (
	scanLatency   metric.Float64Histogram
	filesScanned  metric.Int64Counter
	filesSkipped  metric.Int64Counter
	filesAffected metric.Int64Histogram

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		scanLatency, err = meter.Float64Histogram(
			"usage_scan_duration_seconds",
			metric.WithDescription("Duration of usage scans"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		filesScanned, err = meter.Int64Counter(
			"usage_files_scanned_total",
			metric.WithDescription("Files examined for symbol usages"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		filesSkipped, err = meter.Int64Counter(
			"usage_files_skipped_total",
			metric.WithDescription("Files that could not be read or parsed during a scan"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		filesAffected, err = meter.Int64Histogram(
			"usage_affected_files",
			metric.WithDescription("Files referencing changed symbols per scan"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordScanMetrics(ctx context.Context, duration time.Duration, scanned, skipped, affected int) {
	if err := initMetrics(); err != nil {
		return
	}
	scanLatency.Record(ctx, duration.Seconds())
	filesScanned.Add(ctx, int64(scanned))
	filesSkipped.Add(ctx, int64(skipped))
	filesAffected.Record(ctx, int64(affected))
}

func startScanSpan(ctx context.Context, symbols int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Scanner.Scan",
		trace.WithAttributes(attribute.Int("usage.defined_symbols", symbols)),
	)
}
