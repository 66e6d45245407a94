package dispatch

import (
	"context"
	"enricher/internal/domainset"
	"enricher/pkg/domain"
	"enricher/pkg/logger"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the number of batches fetched in parallel.
const DefaultConcurrency = 4

// BatchFetcher turns a batch into its terminal outcome.
type BatchFetcher interface {
	Fetch(ctx context.Context, batch domain.Batch) domain.Outcome
}

// SchedulerOptions configures a Scheduler. Zero values select the defaults.
type SchedulerOptions struct {
	Concurrency int
	Progress    Progress
	Meter       metric.Meter
}

// Scheduler fans batches out to a bounded pool of workers and aggregates
// their outcomes against the validated input set.
type Scheduler struct {
	fetcher     BatchFetcher
	valid       *domainset.Set
	concurrency int
	progress    Progress
	instruments *instruments
}

// NewScheduler creates a Scheduler fetching through fetcher and keeping only
// domains contained in valid.
func NewScheduler(fetcher BatchFetcher, valid *domainset.Set, opts SchedulerOptions) (*Scheduler, error) {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Progress == nil {
		opts.Progress = &logProgress{ctx: context.Background()}
	}

	ins, err := newInstruments(opts.Meter)
	if err != nil {
		return nil, err
	}

	return &Scheduler{
		fetcher:     fetcher,
		valid:       valid,
		concurrency: opts.Concurrency,
		progress:    opts.Progress,
		instruments: ins,
	}, nil
}

// Run submits batches in order and blocks until every submitted batch has
// reached a terminal outcome. Outcomes are absorbed by the calling goroutine
// in completion order. When ctx is cancelled no further batch is submitted
// and the partial results are returned.
func (s *Scheduler) Run(ctx context.Context, batches []domain.Batch) *ResultSet {
	results := NewResultSet()
	if len(batches) == 0 {
		return results
	}

	jobs := make(chan domain.Batch)
	outcomes := make(chan domain.Outcome)

	var g errgroup.Group
	g.Go(func() error {
		defer close(jobs)
		for _, b := range batches {
			select {
			case <-ctx.Done():
				return nil
			case jobs <- b:
			}
		}

		return nil
	})

	for range min(s.concurrency, len(batches)) {
		g.Go(func() error {
			for b := range jobs {
				outcomes <- s.fetcher.Fetch(ctx, b)
			}

			return nil
		})
	}

	go func() {
		_ = g.Wait()
		close(outcomes)
	}()

	counts := make(map[domain.OutcomeKind]int, 3)
	s.progress.Start(len(batches))
	for o := range outcomes {
		added := results.Absorb(o, s.valid)
		counts[o.Kind]++
		s.instruments.outcome(ctx, o, added)
		s.progress.Tick(o)
	}
	s.progress.Finish()

	completed := counts[domain.OutcomeSucceeded] + counts[domain.OutcomeFailed] + counts[domain.OutcomeCancelled]
	fields := []zap.Field{
		zap.Int("batches", len(batches)),
		zap.Int("succeeded", counts[domain.OutcomeSucceeded]),
		zap.Int("failed", counts[domain.OutcomeFailed]),
		zap.Int("cancelled", counts[domain.OutcomeCancelled]),
		zap.Int("notSubmitted", len(batches)-completed),
		zap.Int("matched", results.Len()),
	}
	if ctx.Err() != nil {
		logger.Warn(ctx, "dispatch interrupted", fields...)
	} else {
		logger.Info(ctx, "dispatch finished", fields...)
	}

	return results
}
