package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "fpl-optimizer/internal/optimizer"

// SolveMetrics records optimizer solves on an OpenTelemetry meter.
type SolveMetrics struct {
	solves   metric.Int64Counter
	duration metric.Float64Histogram
	nodes    metric.Int64Histogram
}

// NewSolveMetrics uses the global meter provider when meter is nil.
func NewSolveMetrics(meter metric.Meter) (*SolveMetrics, error) {
	if meter == nil {
		meter = otel.Meter(meterName)
	}

	solves, err := meter.Int64Counter("optimizer.solves",
		metric.WithDescription("Optimizer solves by kind and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("create solve counter: %w", err)
	}
	duration, err := meter.Float64Histogram("optimizer.solve.duration",
		metric.WithDescription("Wall time of one optimizer solve"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("create solve duration histogram: %w", err)
	}
	nodes, err := meter.Int64Histogram("optimizer.solve.nodes",
		metric.WithDescription("Branch-and-bound nodes explored per solve"),
	)
	if err != nil {
		return nil, fmt.Errorf("create solve nodes histogram: %w", err)
	}

	return &SolveMetrics{solves: solves, duration: duration, nodes: nodes}, nil
}

func (m *SolveMetrics) RecordSolve(ctx context.Context, kind, outcome string, elapsed time.Duration, nodes int) {
	attrs := metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("outcome", outcome),
	)
	m.solves.Add(ctx, 1, attrs)
	m.duration.Record(ctx, float64(elapsed)/float64(time.Millisecond), attrs)
	if nodes > 0 {
		m.nodes.Record(ctx, int64(nodes), attrs)
	}
}
