package graph

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
	tracer = otel.Tracer("diffscope.graph")
	meter  = otel.Meter("diffscope.graph")
)

var (
	buildLatency  metric.Float64Histogram
	graphNodes    metric.Int64Histogram
	graphEdges    metric.Int64Histogram
	cyclesBroken  metric.Int64Counter
	orderFallback metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		buildLatency, err = meter.Float64Histogram(
			"graph_build_duration_seconds",
			metric.WithDescription("Duration of dependency graph construction"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		graphNodes, err = meter.Int64Histogram(
			"graph_nodes",
			metric.WithDescription("Number of files in a built dependency graph"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		graphEdges, err = meter.Int64Histogram(
			"graph_edges",
			metric.WithDescription("Number of resolved import edges in a built dependency graph"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		cyclesBroken, err = meter.Int64Counter(
			"graph_cycle_edges_broken_total",
			metric.WithDescription("Back edges ignored while ordering"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		orderFallback, err = meter.Int64Counter(
			"graph_order_fallback_total",
			metric.WithDescription("Orderings that fell back to lexicographic order"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

func recordBuildMetrics(ctx context.Context, duration time.Duration, nodes, edges int, success bool) {
	if err := initMetrics(); err != nil {
		return
	}
	attrs := metric.WithAttributes(attribute.Bool("success", success))
	buildLatency.Record(ctx, duration.Seconds(), attrs)
	graphNodes.Record(ctx, int64(nodes), attrs)
	graphEdges.Record(ctx, int64(edges), attrs)
}

func recordCycles(ctx context.Context, broken int) {
	if broken == 0 {
		return
	}
	if err := initMetrics(); err != nil {
		return
	}
	cyclesBroken.Add(ctx, int64(broken))
}

func recordFallback(ctx context.Context, reason string) {
	if err := initMetrics(); err != nil {
		return
	}
	orderFallback.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

func startBuildSpan(ctx context.Context, files int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "DependencyGraph.Build",
		trace.WithAttributes(attribute.Int("graph.input_files", files)),
	)
}
