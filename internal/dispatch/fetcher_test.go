package dispatch_test

import (
	"context"
	"enricher/internal/dispatch"
	"enricher/pkg/domain"
	mockenrichment "enricher/pkg/enrichment/mock"
	"enricher/pkg/logger"
	"enricher/pkg/serrors"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// fakeClock records requested waits and fires immediately.
type fakeClock struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.waits = append(c.waits, d)
	c.mu.Unlock()

	ch := make(chan time.Time, 1)
	ch <- time.Time{}

	return ch
}

func (c *fakeClock) Waits() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	return append([]time.Duration(nil), c.waits...)
}

// cancellingClock cancels the run during the first backoff wait and never fires.
type cancellingClock struct {
	cancel context.CancelFunc
}

func (c cancellingClock) After(time.Duration) <-chan time.Time {
	c.cancel()

	return nil
}

var testBatch = domain.Batch{Index: 2, Domains: []string{"a.com", "b.com"}}

func newFetcher(t *testing.T, client *mockenrichment.MockClient, opts dispatch.FetcherOptions) *dispatch.Fetcher {
	t.Helper()

	f, err := dispatch.NewFetcher(client, opts)
	require.NoError(t, err)

	return f
}

func TestFetcher_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mockenrichment.NewMockClient(ctrl)
	clock := &fakeClock{}

	records := []domain.Record{{EmployeeAt: []string{"a.com"}}}
	client.EXPECT().Lookup(gomock.Any(), testBatch.Domains).Return(records, nil)

	o := newFetcher(t, client, dispatch.FetcherOptions{Clock: clock}).Fetch(context.Background(), testBatch)
	require.Equal(t, domain.OutcomeSucceeded, o.Kind)
	require.Equal(t, records, o.Records)
	require.Equal(t, 1, o.Attempts)
	require.Equal(t, testBatch, o.Batch)
	require.Empty(t, clock.Waits())
}

func TestFetcher_RetriesWithExponentialBackoff(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mockenrichment.NewMockClient(ctrl)
	clock := &fakeClock{}

	gomock.InOrder(
		client.EXPECT().Lookup(gomock.Any(), gomock.Any()).Return(nil, serrors.With(serrors.ErrUnavailable, "502")),
		client.EXPECT().Lookup(gomock.Any(), gomock.Any()).Return(nil, serrors.With(serrors.ErrRateLimited, "429")),
		client.EXPECT().Lookup(gomock.Any(), gomock.Any()).Return([]domain.Record{}, nil),
	)

	o := newFetcher(t, client, dispatch.FetcherOptions{Clock: clock}).Fetch(context.Background(), testBatch)
	require.Equal(t, domain.OutcomeSucceeded, o.Kind)
	require.Equal(t, 3, o.Attempts)
	require.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, clock.Waits())
}

func TestFetcher_SucceedsOnFinalAttempt(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mockenrichment.NewMockClient(ctrl)
	clock := &fakeClock{}

	records := []domain.Record{{ClientAt: []string{"b.com"}}}
	transient := serrors.With(serrors.ErrUnavailable, "503")
	gomock.InOrder(
		client.EXPECT().Lookup(gomock.Any(), gomock.Any()).Return(nil, transient),
		client.EXPECT().Lookup(gomock.Any(), gomock.Any()).Return(nil, transient),
		client.EXPECT().Lookup(gomock.Any(), gomock.Any()).Return(nil, transient),
		client.EXPECT().Lookup(gomock.Any(), gomock.Any()).Return(nil, transient),
		client.EXPECT().Lookup(gomock.Any(), gomock.Any()).Return(records, nil),
	)

	o := newFetcher(t, client, dispatch.FetcherOptions{Clock: clock}).Fetch(context.Background(), testBatch)
	require.Equal(t, domain.OutcomeSucceeded, o.Kind)
	require.Equal(t, 5, o.Attempts)
	require.Equal(t, records, o.Records)
	require.NoError(t, o.Err)
	require.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second}, clock.Waits())
}

func TestFetcher_ExhaustsAttempts(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mockenrichment.NewMockClient(ctrl)
	clock := &fakeClock{}

	lastErr := serrors.With(serrors.ErrBadRequest, "400")
	client.EXPECT().Lookup(gomock.Any(), gomock.Any()).Return(nil, lastErr).Times(5)

	o := newFetcher(t, client, dispatch.FetcherOptions{Clock: clock}).Fetch(context.Background(), testBatch)
	require.Equal(t, domain.OutcomeFailed, o.Kind)
	require.Equal(t, 5, o.Attempts)
	require.ErrorIs(t, o.Err, serrors.ErrBadRequest)
	require.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 16 * time.Second}, clock.Waits())
}

func TestFetcher_CustomBackoff(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mockenrichment.NewMockClient(ctrl)
	clock := &fakeClock{}

	client.EXPECT().Lookup(gomock.Any(), gomock.Any()).Return(nil, errors.New("boom")).Times(3)

	f := newFetcher(t, client, dispatch.FetcherOptions{MaxAttempts: 3, BackoffBase: time.Second, Clock: clock})
	o := f.Fetch(context.Background(), testBatch)
	require.Equal(t, domain.OutcomeFailed, o.Kind)
	require.Equal(t, 3, o.Attempts)
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second}, clock.Waits())
	require.Equal(t, 8*time.Second, f.Backoff(3))
}

func TestFetcher_NonRetryableStopsEarly(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mockenrichment.NewMockClient(ctrl)
	clock := &fakeClock{}

	client.EXPECT().Lookup(gomock.Any(), gomock.Any()).Return(nil, serrors.With(serrors.ErrInternal, "bug"))

	o := newFetcher(t, client, dispatch.FetcherOptions{Clock: clock}).Fetch(context.Background(), testBatch)
	require.Equal(t, domain.OutcomeFailed, o.Kind)
	require.Equal(t, 1, o.Attempts)
	require.Empty(t, clock.Waits())
}

func TestFetcher_PreCancelledIssuesNoRequest(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mockenrichment.NewMockClient(ctrl)
	client.EXPECT().Lookup(gomock.Any(), gomock.Any()).Times(0)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := newFetcher(t, client, dispatch.FetcherOptions{Clock: &fakeClock{}}).Fetch(ctx, testBatch)
	require.Equal(t, domain.OutcomeCancelled, o.Kind)
	require.Zero(t, o.Attempts)
}

func TestFetcher_CancelledDuringBackoff(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mockenrichment.NewMockClient(ctrl)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client.EXPECT().Lookup(gomock.Any(), gomock.Any()).Return(nil, serrors.With(serrors.ErrUnavailable, "503")).Times(1)

	o := newFetcher(t, client, dispatch.FetcherOptions{Clock: cancellingClock{cancel: cancel}}).Fetch(ctx, testBatch)
	require.Equal(t, domain.OutcomeCancelled, o.Kind)
	require.Equal(t, 1, o.Attempts)
	require.ErrorIs(t, o.Err, serrors.ErrUnavailable)
}

func TestFetcher_CancelledDuringRequest(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mockenrichment.NewMockClient(ctrl)
	clock := &fakeClock{}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	client.EXPECT().Lookup(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ []string) ([]domain.Record, error) {
			cancel()
			<-ctx.Done()

			return nil, serrors.Wrap(serrors.ErrCancelled, ctx.Err(), "request aborted")
		})

	o := newFetcher(t, client, dispatch.FetcherOptions{Clock: clock}).Fetch(ctx, testBatch)
	require.Equal(t, domain.OutcomeCancelled, o.Kind)
	require.Equal(t, 1, o.Attempts)
	require.Empty(t, clock.Waits())
}

func TestFetcher_AttemptTimeoutIsRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mockenrichment.NewMockClient(ctrl)
	clock := &fakeClock{}

	client.EXPECT().Lookup(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ []string) ([]domain.Record, error) {
			_, ok := ctx.Deadline()
			require.True(t, ok)
			<-ctx.Done()

			return nil, serrors.Wrap(serrors.ErrTimeout, ctx.Err(), "request timed out")
		}).Times(2)

	f := newFetcher(t, client, dispatch.FetcherOptions{
		MaxAttempts:    2,
		AttemptTimeout: 10 * time.Millisecond,
		Clock:          clock,
	})
	o := f.Fetch(context.Background(), testBatch)
	require.Equal(t, domain.OutcomeFailed, o.Kind)
	require.Equal(t, 2, o.Attempts)
	require.ErrorIs(t, o.Err, serrors.ErrTimeout)
	require.Len(t, clock.Waits(), 1)
}

func TestNewFetcher_RejectsTooManyAttempts(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mockenrichment.NewMockClient(ctrl)

	_, err := dispatch.NewFetcher(client, dispatch.FetcherOptions{MaxAttempts: dispatch.MaxAttemptsLimit + 1})
	require.Error(t, err)

	f := newFetcher(t, client, dispatch.FetcherOptions{MaxAttempts: dispatch.MaxAttemptsLimit})
	require.Positive(t, f.Backoff(dispatch.MaxAttemptsLimit-1))
}

func TestFetcher_LogsErrorKind(t *testing.T) {
	ctrl := gomock.NewController(t)
	client := mockenrichment.NewMockClient(ctrl)

	gomock.InOrder(
		client.EXPECT().Lookup(gomock.Any(), gomock.Any()).Return(nil, serrors.With(serrors.ErrRateLimited, "429")),
		client.EXPECT().Lookup(gomock.Any(), gomock.Any()).Return(nil, errors.New("boom")),
	)

	core, logs := observer.New(zap.WarnLevel)
	ctx := logger.WithLogger(context.Background(), zap.New(core))

	f := newFetcher(t, client, dispatch.FetcherOptions{MaxAttempts: 2, Clock: &fakeClock{}})
	require.Equal(t, domain.OutcomeFailed, f.Fetch(ctx, testBatch).Kind)

	attempts := logs.FilterMessage("batch attempt failed").All()
	require.Len(t, attempts, 2)
	require.Equal(t, "RATE_LIMITED", attempts[0].ContextMap()["kind"])
	require.Equal(t, "UNKNOWN", attempts[1].ContextMap()["kind"])
	require.Len(t, logs.FilterMessage("batch failed").All(), 1)
}
