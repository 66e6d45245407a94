package dispatch

import (
	"context"
	"enricher/pkg/domain"
	"enricher/pkg/metrics"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

const (
	attemptSucceeded = "succeeded"
	attemptFailed    = "failed"
)

type instruments struct {
	attempts metric.Int64Counter
	batches  metric.Int64Counter
	matches  metric.Int64Counter
	latency  metric.Float64Histogram
	backoff  metric.Float64Histogram
}

func newInstruments(meter metric.Meter) (*instruments, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(metrics.MeterName)
	}

	var (
		ins instruments
		err error
	)

	if ins.attempts, err = meter.Int64Counter("attempts",
		metric.WithDescription("Provider requests issued, by result")); err != nil {
		return nil, fmt.Errorf("could not create attempts counter: %w", err)
	}
	if ins.batches, err = meter.Int64Counter("batches",
		metric.WithDescription("Batches completed, by outcome")); err != nil {
		return nil, fmt.Errorf("could not create batches counter: %w", err)
	}
	if ins.matches, err = meter.Int64Counter("matched_domains",
		metric.WithDescription("Domains added to the result set")); err != nil {
		return nil, fmt.Errorf("could not create matches counter: %w", err)
	}
	if ins.latency, err = meter.Float64Histogram("attempt_duration",
		metric.WithUnit("s"),
		metric.WithDescription("Duration of a single provider request"),
		metric.WithExplicitBucketBoundaries(metrics.DefaultBuckets...)); err != nil {
		return nil, fmt.Errorf("could not create attempt duration histogram: %w", err)
	}
	if ins.backoff, err = meter.Float64Histogram("backoff_wait",
		metric.WithUnit("s"),
		metric.WithDescription("Backoff waits between attempts"),
		metric.WithExplicitBucketBoundaries(metrics.DefaultBuckets...)); err != nil {
		return nil, fmt.Errorf("could not create backoff histogram: %w", err)
	}

	return &ins, nil
}

func (i *instruments) attempt(ctx context.Context, took time.Duration, err error) {
	result := attemptSucceeded
	if err != nil {
		result = attemptFailed
	}
	i.attempts.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
	i.latency.Record(ctx, took.Seconds(), metric.WithAttributes(attribute.String("result", result)))
}

func (i *instruments) outcome(ctx context.Context, o domain.Outcome, added int) {
	// The run context may already be cancelled; instruments must still record.
	ctx = context.WithoutCancel(ctx)
	i.batches.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", string(o.Kind))))
	if added > 0 {
		i.matches.Add(ctx, int64(added))
	}
}
