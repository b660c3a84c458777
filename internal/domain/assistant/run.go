package assistant

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
)

// RunStatus is the lifecycle state of a run on the external service.
type RunStatus string

const (
	RunQueued     RunStatus = "queued"
	RunInProgress RunStatus = "in_progress"
	RunCompleted  RunStatus = "completed"
	RunFailed     RunStatus = "failed"
	RunCancelled  RunStatus = "cancelled"
	RunExpired    RunStatus = "expired"
)

// ValidRunTransitions lists the statuses a polled run may move to.
// Terminal statuses have no successors.
var ValidRunTransitions = map[RunStatus][]RunStatus{
	RunQueued:     {RunQueued, RunInProgress, RunCompleted, RunFailed, RunCancelled, RunExpired},
	RunInProgress: {RunInProgress, RunCompleted, RunFailed, RunCancelled, RunExpired},
	RunCompleted:  {},
	RunFailed:     {},
	RunCancelled:  {},
	RunExpired:    {},
}

// IsTerminal reports whether the run can no longer change.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunCompleted, RunFailed, RunCancelled, RunExpired:
		return true
	default:
		return false
	}
}

// CanTransitionTo checks a polled status change against ValidRunTransitions.
func (s RunStatus) CanTransitionTo(next RunStatus) bool {
	for _, allowed := range ValidRunTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// RunAction is what the poller does next.
type RunAction int

const (
	ActionWait RunAction = iota
	ActionExtract
	ActionFail
	ActionTimeout
)

// NextRunAction is the pure polling decision. A terminal status wins over an
// expired deadline so a run that finished on the last poll is still used.
func NextRunAction(status RunStatus, now, deadline time.Time) RunAction {
	switch {
	case status == RunCompleted:
		return ActionExtract
	case status.IsTerminal():
		return ActionFail
	case !now.Before(deadline):
		return ActionTimeout
	default:
		return ActionWait
	}
}

// Run is a snapshot of an external run.
type Run struct {
	ID        string
	Status    RunStatus
	ErrorCode string
	ErrorText string
}

// RunObserver receives the outcome of every awaited run.
type RunObserver interface {
	ObserveRun(status RunStatus, polls int, elapsed time.Duration)
}

// RunFetcher reads the current state of a run.
type RunFetcher interface {
	GetRun(ctx context.Context, threadID, runID string) (Run, error)
}

// Sleeper pauses for d or until ctx ends.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the production Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

const (
	DefaultPollInterval = 500 * time.Millisecond
	DefaultRunTimeout   = 60 * time.Second
)

// RunPoller waits for a run to reach a terminal status or the deadline.
type RunPoller struct {
	runs     RunFetcher
	interval time.Duration
	timeout  time.Duration
	now      func() time.Time
	sleep    Sleeper
	observer RunObserver
	log      zerolog.Logger
}

// PollerOption customises a RunPoller.
type PollerOption func(*RunPoller)

// WithPollerClock injects the time source and the sleeper. Tests pass a fake
// clock whose sleeper advances it.
func WithPollerClock(now func() time.Time, sleep Sleeper) PollerOption {
	return func(p *RunPoller) {
		p.now = now
		p.sleep = sleep
	}
}

// WithRunObserver reports every awaited run to observer.
func WithRunObserver(observer RunObserver) PollerOption {
	return func(p *RunPoller) {
		p.observer = observer
	}
}

func NewRunPoller(runs RunFetcher, interval, timeout time.Duration, log zerolog.Logger, opts ...PollerOption) *RunPoller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if timeout <= 0 {
		timeout = DefaultRunTimeout
	}
	p := &RunPoller{
		runs:     runs,
		interval: interval,
		timeout:  timeout,
		now:      time.Now,
		sleep:    SleepContext,
		log:      log.With().Str("component", "run-poller").Logger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Await polls run until it completes. Failed, cancelled and expired runs
// return a *RunFailedError; the deadline returns ErrRunTimeout. The deadline
// also bounds each status request.
func (p *RunPoller) Await(ctx context.Context, threadID string, run Run) (Run, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := p.now()
	deadline := start.Add(p.timeout)
	polls := 0

	defer func() {
		if p.observer != nil {
			p.observer.ObserveRun(run.Status, polls, p.now().Sub(start))
		}
	}()

	for {
		switch NextRunAction(run.Status, p.now(), deadline) {
		case ActionExtract:
			return run, nil
		case ActionFail:
			return run, &RunFailedError{RunID: run.ID, Status: run.Status, Code: run.ErrorCode, Message: run.ErrorText}
		case ActionTimeout:
			p.log.Warn().Str("run_id", run.ID).Str("status", string(run.Status)).Int("polls", polls).Msg("run deadline reached")
			return run, ErrRunTimeout
		}

		if err := p.sleep(ctx, p.interval); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				return run, ErrRunTimeout
			}
			return run, err
		}

		next, err := p.runs.GetRun(ctx, threadID, run.ID)
		polls++
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
				p.log.Warn().Err(err).Str("run_id", run.ID).Int("polls", polls).Msg("run deadline reached while fetching status")
				return run, ErrRunTimeout
			}
			return run, external("retrieve run", err)
		}
		if !run.Status.CanTransitionTo(next.Status) {
			p.log.Error().Str("run_id", run.ID).Str("from", string(run.Status)).Str("to", string(next.Status)).Msg("unexpected run status")
			return run, ErrInvalidRunTransition
		}
		run = next
	}
}
