package dispatch

import (
	"context"
	"enricher/pkg/domain"
	"enricher/pkg/enrichment"
	"enricher/pkg/logger"
	"enricher/pkg/serrors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultMaxAttempts is the total number of requests issued for a batch.
	DefaultMaxAttempts = 5
	// DefaultBackoffBase is the wait after the first failed attempt.
	DefaultBackoffBase = 2 * time.Second
	// DefaultAttemptTimeout bounds a single request.
	DefaultAttemptTimeout = 10 * time.Second
	// MaxAttemptsLimit bounds MaxAttempts so the doubling backoff cannot overflow.
	MaxAttemptsLimit = 16
)

// Clock abstracts the timer used for backoff waits.
type Clock interface {
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// FetcherOptions configures a Fetcher. Zero values select the defaults.
type FetcherOptions struct {
	MaxAttempts    int
	BackoffBase    time.Duration
	AttemptTimeout time.Duration
	// Limiter, when set, is waited on before every request.
	Limiter *rate.Limiter
	Clock   Clock
	Meter   metric.Meter
}

// Fetcher submits a single batch to the provider, retrying failed attempts
// with exponential backoff.
type Fetcher struct {
	client         enrichment.Client
	maxAttempts    int
	backoffBase    time.Duration
	attemptTimeout time.Duration
	limiter        *rate.Limiter
	clock          Clock
	instruments    *instruments
}

// NewFetcher creates a Fetcher submitting batches through client.
func NewFetcher(client enrichment.Client, opts FetcherOptions) (*Fetcher, error) {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.MaxAttempts > MaxAttemptsLimit {
		return nil, fmt.Errorf("max attempts must be at most %d, got %d", MaxAttemptsLimit, opts.MaxAttempts)
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = DefaultBackoffBase
	}
	if opts.AttemptTimeout <= 0 {
		opts.AttemptTimeout = DefaultAttemptTimeout
	}
	if opts.Clock == nil {
		opts.Clock = realClock{}
	}

	ins, err := newInstruments(opts.Meter)
	if err != nil {
		return nil, err
	}

	return &Fetcher{
		client:         client,
		maxAttempts:    opts.MaxAttempts,
		backoffBase:    opts.BackoffBase,
		attemptTimeout: opts.AttemptTimeout,
		limiter:        opts.Limiter,
		clock:          opts.Clock,
		instruments:    ins,
	}, nil
}

// Backoff returns the wait after the given 0-based failed attempt.
func (f *Fetcher) Backoff(attempt int) time.Duration {
	return f.backoffBase * time.Duration(1<<attempt)
}

// Fetch runs the attempt sequence for batch and returns its terminal
// outcome. It never blocks past cancellation of ctx: a done context before an
// attempt, during a backoff wait or during a request yields a cancelled
// outcome.
func (f *Fetcher) Fetch(ctx context.Context, batch domain.Batch) domain.Outcome {
	ctx = logger.WithFields(ctx, zap.Int("batch", batch.Number()), zap.Int("size", len(batch.Domains)))

	var lastErr error
	for attempt := 0; attempt < f.maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return domain.Cancelled(batch, lastErr, attempt)
		}

		if f.limiter != nil {
			if err := f.limiter.Wait(ctx); err != nil {
				if ctx.Err() != nil {
					return domain.Cancelled(batch, lastErr, attempt)
				}

				return f.failed(ctx, batch, serrors.Wrap(serrors.ErrInternal, err, "rate limiter"), attempt)
			}
		}

		records, err := f.do(ctx, batch)
		if err == nil {
			logger.Debug(ctx, "batch fetched", zap.Int("attempt", attempt+1), zap.Int("records", len(records)))

			return domain.Succeeded(batch, records, attempt+1)
		}
		if ctx.Err() != nil {
			return domain.Cancelled(batch, err, attempt+1)
		}

		lastErr = err
		logger.Warn(ctx, "batch attempt failed",
			zap.Int("attempt", attempt+1),
			zap.Int("maxAttempts", f.maxAttempts),
			zap.String("kind", errorKind(err)),
			zap.Error(err))

		if !serrors.IsRetryable(err) || attempt+1 == f.maxAttempts {
			return f.failed(ctx, batch, err, attempt+1)
		}

		wait := f.Backoff(attempt)
		f.instruments.backoff.Record(ctx, wait.Seconds())
		select {
		case <-ctx.Done():
			return domain.Cancelled(batch, lastErr, attempt+1)
		case <-f.clock.After(wait):
		}
	}

	return f.failed(ctx, batch, lastErr, f.maxAttempts)
}

func (f *Fetcher) do(ctx context.Context, batch domain.Batch) ([]domain.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, f.attemptTimeout)
	defer cancel()

	start := time.Now()
	records, err := f.client.Lookup(ctx, batch.Domains)
	f.instruments.attempt(ctx, time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("could not lookup batch: %w", err)
	}

	return records, nil
}

// errorKind names the semantic kind of err for logs.
func errorKind(err error) string {
	if k := serrors.KindOf(err); k != nil {
		return k.Error()
	}

	return "UNKNOWN"
}

func (f *Fetcher) failed(ctx context.Context, batch domain.Batch, err error, attempts int) domain.Outcome {
	logger.Error(ctx, "batch failed", zap.Int("attempts", attempts), zap.String("kind", errorKind(err)), zap.Error(err))

	return domain.Failed(batch, err, attempts)
}
