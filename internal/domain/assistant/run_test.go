package assistant

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
	return nil
}

type runFetcherFunc func(ctx context.Context, threadID, runID string) (Run, error)

func (f runFetcherFunc) GetRun(ctx context.Context, threadID, runID string) (Run, error) {
	return f(ctx, threadID, runID)
}

type recordingObserver struct {
	status RunStatus
	polls  int
}

func (o *recordingObserver) ObserveRun(status RunStatus, polls int, _ time.Duration) {
	o.status = status
	o.polls = polls
}

func TestNextRunAction(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	later := now.Add(time.Minute)

	tests := []struct {
		name     string
		status   RunStatus
		now      time.Time
		expected RunAction
	}{
		{"queued waits", RunQueued, now, ActionWait},
		{"in progress waits", RunInProgress, now, ActionWait},
		{"completed extracts", RunCompleted, now, ActionExtract},
		{"completed at deadline still extracts", RunCompleted, later, ActionExtract},
		{"failed fails", RunFailed, now, ActionFail},
		{"cancelled fails", RunCancelled, now, ActionFail},
		{"expired fails", RunExpired, now, ActionFail},
		{"deadline times out", RunInProgress, later, ActionTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NextRunAction(tt.status, tt.now, later))
		})
	}
}

func TestRunStatus_Transitions(t *testing.T) {
	assert.True(t, RunQueued.CanTransitionTo(RunInProgress))
	assert.True(t, RunInProgress.CanTransitionTo(RunInProgress))
	assert.True(t, RunInProgress.CanTransitionTo(RunCompleted))
	assert.False(t, RunInProgress.CanTransitionTo(RunQueued))
	assert.False(t, RunCompleted.CanTransitionTo(RunInProgress))

	for _, s := range []RunStatus{RunCompleted, RunFailed, RunCancelled, RunExpired} {
		assert.True(t, s.IsTerminal(), s)
	}
	assert.False(t, RunQueued.IsTerminal())
}

func TestRunPoller_CompletesAfterPolling(t *testing.T) {
	clock := newFakeClock()
	statuses := []RunStatus{RunInProgress, RunInProgress, RunCompleted}
	calls := 0
	fetcher := runFetcherFunc(func(_ context.Context, threadID, runID string) (Run, error) {
		assert.Equal(t, "thread_1", threadID)
		assert.Equal(t, "run_1", runID)
		s := statuses[calls]
		calls++
		return Run{ID: runID, Status: s}, nil
	})
	observer := &recordingObserver{}

	poller := NewRunPoller(fetcher, 500*time.Millisecond, time.Minute, zerolog.Nop(),
		WithPollerClock(clock.Now, clock.Sleep), WithRunObserver(observer))

	run, err := poller.Await(context.Background(), "thread_1", Run{ID: "run_1", Status: RunQueued})
	require.NoError(t, err)
	assert.Equal(t, RunCompleted, run.Status)
	assert.Equal(t, 3, calls)
	assert.Equal(t, RunCompleted, observer.status)
	assert.Equal(t, 3, observer.polls)
}

func TestRunPoller_TimesOutWithoutRealWaiting(t *testing.T) {
	clock := newFakeClock()
	calls := 0
	fetcher := runFetcherFunc(func(_ context.Context, _, runID string) (Run, error) {
		calls++
		return Run{ID: runID, Status: RunInProgress}, nil
	})

	poller := NewRunPoller(fetcher, 500*time.Millisecond, 60*time.Second, zerolog.Nop(),
		WithPollerClock(clock.Now, clock.Sleep))

	started := time.Now()
	_, err := poller.Await(context.Background(), "thread_1", Run{ID: "run_1", Status: RunQueued})
	assert.ErrorIs(t, err, ErrRunTimeout)
	assert.Equal(t, 120, calls)
	assert.Less(t, time.Since(started), 5*time.Second)
}

func TestRunPoller_TerminalFailures(t *testing.T) {
	for _, status := range []RunStatus{RunFailed, RunCancelled, RunExpired} {
		t.Run(string(status), func(t *testing.T) {
			clock := newFakeClock()
			fetcher := runFetcherFunc(func(_ context.Context, _, runID string) (Run, error) {
				return Run{ID: runID, Status: status, ErrorCode: "server_error", ErrorText: "boom"}, nil
			})
			poller := NewRunPoller(fetcher, time.Second, time.Minute, zerolog.Nop(), WithPollerClock(clock.Now, clock.Sleep))

			_, err := poller.Await(context.Background(), "thread_1", Run{ID: "run_1", Status: RunQueued})
			var runErr *RunFailedError
			require.ErrorAs(t, err, &runErr)
			assert.Equal(t, status, runErr.Status)
			assert.False(t, errors.Is(err, ErrQuotaExceeded))
		})
	}
}

func TestRunPoller_QuotaFailure(t *testing.T) {
	clock := newFakeClock()
	fetcher := runFetcherFunc(func(_ context.Context, _, runID string) (Run, error) {
		return Run{ID: runID, Status: RunFailed, ErrorCode: "rate_limit_exceeded", ErrorText: "You exceeded your current quota, please check your plan and billing details."}, nil
	})
	poller := NewRunPoller(fetcher, time.Second, time.Minute, zerolog.Nop(), WithPollerClock(clock.Now, clock.Sleep))

	_, err := poller.Await(context.Background(), "thread_1", Run{ID: "run_1", Status: RunInProgress})
	assert.ErrorIs(t, err, ErrQuotaExceeded)

	kind, message := classify(err)
	assert.Equal(t, KindQuotaExceeded, kind)
	assert.Equal(t, MessageQuotaExceeded, message)
}

func TestRunPoller_InvalidTransition(t *testing.T) {
	clock := newFakeClock()
	fetcher := runFetcherFunc(func(_ context.Context, _, runID string) (Run, error) {
		return Run{ID: runID, Status: RunQueued}, nil
	})
	poller := NewRunPoller(fetcher, time.Second, time.Minute, zerolog.Nop(), WithPollerClock(clock.Now, clock.Sleep))

	_, err := poller.Await(context.Background(), "thread_1", Run{ID: "run_1", Status: RunInProgress})
	assert.ErrorIs(t, err, ErrInvalidRunTransition)
}

func TestRunPoller_HonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := runFetcherFunc(func(context.Context, string, string) (Run, error) {
		t.Fatal("no poll expected after cancellation")
		return Run{}, nil
	})
	poller := NewRunPoller(fetcher, time.Hour, 2*time.Hour, zerolog.Nop())

	_, err := poller.Await(ctx, "thread_1", Run{ID: "run_1", Status: RunQueued})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunPoller_FetchError(t *testing.T) {
	clock := newFakeClock()
	fetcher := runFetcherFunc(func(context.Context, string, string) (Run, error) {
		return Run{}, errors.New("connection reset")
	})
	poller := NewRunPoller(fetcher, time.Second, time.Minute, zerolog.Nop(), WithPollerClock(clock.Now, clock.Sleep))

	_, err := poller.Await(context.Background(), "thread_1", Run{ID: "run_1", Status: RunQueued})
	var extErr *ExternalError
	assert.ErrorAs(t, err, &extErr)
	kind, _ := classify(err)
	assert.Equal(t, KindExternalFailure, kind)
}

func TestRunPoller_DeadlineBoundsStatusRequest(t *testing.T) {
	fetcher := runFetcherFunc(func(ctx context.Context, _, _ string) (Run, error) {
		select {
		case <-ctx.Done():
			return Run{}, ctx.Err()
		case <-time.After(5 * time.Second):
			return Run{ID: "run_1", Status: RunCompleted}, nil
		}
	})
	observer := &recordingObserver{}
	poller := NewRunPoller(fetcher, 10*time.Millisecond, 200*time.Millisecond, zerolog.Nop(), WithRunObserver(observer))

	start := time.Now()
	_, err := poller.Await(context.Background(), "thread_1", Run{ID: "run_1", Status: RunInProgress})

	assert.ErrorIs(t, err, ErrRunTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, 1, observer.polls)
}
