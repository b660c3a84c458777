package ratelimit

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Window names a quota window.
type Window string

const (
	WindowMinute Window = "minute"
	WindowHour   Window = "hour"
	WindowDay    Window = "day"
)

// Outcome is the result class of a Check.
type Outcome int

const (
	OutcomeAllowed Outcome = iota
	OutcomeLimited
	OutcomeBanned
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAllowed:
		return "allowed"
	case OutcomeLimited:
		return "limited"
	case OutcomeBanned:
		return "banned"
	default:
		return "unknown"
	}
}

const (
	MessageMinuteLimit = "Too many messages. Please wait a moment."
	MessageHourLimit   = "Hourly message limit reached. Please try again later."
	MessageDayLimit    = "Daily message limit reached. Please try again tomorrow."
	MessageBanned      = "Your account has been temporarily restricted due to unusual activity. Please try again later."
	MessageUnavailable = "Chat is temporarily unavailable. Please try again in a minute."
)

// Decision is the answer of Check. Only OutcomeAllowed lets a request through.
type Decision struct {
	Outcome    Outcome
	Window     Window
	RetryAfter time.Duration
	Message    string
}

// Allowed reports whether the caller may proceed.
func (d Decision) Allowed() bool {
	return d.Outcome == OutcomeAllowed
}

// Limits configures quotas and the ban escalation.
type Limits struct {
	PerMinute          int
	PerHour            int
	PerDay             int
	ViolationThreshold int
	ViolationWindow    time.Duration
	BanDuration        time.Duration
}

// DefaultLimits returns 20/minute, 100/hour, 500/day and a 24h ban after 5
// violations within an hour.
func DefaultLimits() Limits {
	return Limits{
		PerMinute:          20,
		PerHour:            100,
		PerDay:             500,
		ViolationThreshold: 5,
		ViolationWindow:    time.Hour,
		BanDuration:        24 * time.Hour,
	}
}

type window struct {
	kind    Window
	length  time.Duration
	limit   int
	message string
}

// Limiter enforces multi-window quotas with violation-triggered bans.
type Limiter struct {
	store   CounterStore
	limits  Limits
	windows []window
	now     Clock
	log     zerolog.Logger
}

// Option customizes a Limiter.
type Option func(*Limiter)

// WithClock replaces the wall clock.
func WithClock(clock Clock) Option {
	return func(l *Limiter) {
		l.now = clock
	}
}

// NewLimiter builds a limiter over store.
func NewLimiter(store CounterStore, limits Limits, log zerolog.Logger, opts ...Option) *Limiter {
	if limits.ViolationWindow <= 0 {
		limits.ViolationWindow = time.Hour
	}
	l := &Limiter{
		store:  store,
		limits: limits,
		// checked in this order: the fastest-resetting breach is reported first
		windows: []window{
			{kind: WindowMinute, length: time.Minute, limit: limits.PerMinute, message: MessageMinuteLimit},
			{kind: WindowHour, length: time.Hour, limit: limits.PerHour, message: MessageHourLimit},
			{kind: WindowDay, length: 24 * time.Hour, limit: limits.PerDay, message: MessageDayLimit},
		},
		now: time.Now,
		log: log.With().Str("component", "rate-limiter").Logger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Check evaluates ban, then minute, hour and day quotas without mutating them.
func (l *Limiter) Check(ctx context.Context, userID string) Decision {
	now := l.now()

	_, banUntil, banned, err := l.store.Get(ctx, banKey(userID))
	if err != nil {
		return l.unavailable(userID, err)
	}
	if banned {
		return Decision{
			Outcome:    OutcomeBanned,
			RetryAfter: retryAfter(banUntil, now, time.Minute),
			Message:    MessageBanned,
		}
	}

	for _, w := range l.windows {
		count, expiresAt, ok, err := l.store.Get(ctx, windowKey(w.kind, userID))
		if err != nil {
			return l.unavailable(userID, err)
		}
		if ok && count >= int64(w.limit) {
			return Decision{
				Outcome:    OutcomeLimited,
				Window:     w.kind,
				RetryAfter: retryAfter(expiresAt, now, w.length),
				Message:    w.message,
			}
		}
	}

	return Decision{Outcome: OutcomeAllowed}
}

// RecordRequest counts an accepted request against every window.
func (l *Limiter) RecordRequest(ctx context.Context, userID string) {
	for _, w := range l.windows {
		if _, err := l.store.Incr(ctx, windowKey(w.kind, userID), w.length); err != nil {
			l.log.Error().Err(err).Str("user_id", userID).Str("window", string(w.kind)).Msg("record request")
		}
	}
}

// RecordViolation counts a detected injection attempt and starts a ban once
// the threshold is reached. An active ban is never extended. It reports
// whether this call started a ban.
func (l *Limiter) RecordViolation(ctx context.Context, userID string) bool {
	count, err := l.store.Incr(ctx, violationKey(userID), l.limits.ViolationWindow)
	if err != nil {
		l.log.Error().Err(err).Str("user_id", userID).Msg("record violation")
		return false
	}

	l.log.Warn().Str("user_id", userID).Int64("violations", count).Msg("injection violation recorded")
	if count < int64(l.limits.ViolationThreshold) {
		return false
	}

	until := l.now().Add(l.limits.BanDuration)
	started, err := l.store.SetNX(ctx, banKey(userID), until.UnixMilli(), l.limits.BanDuration)
	if err != nil {
		l.log.Error().Err(err).Str("user_id", userID).Msg("store ban")
		return false
	}
	if started {
		l.log.Warn().Str("user_id", userID).Time("until", until).Msg("user temporarily banned")
	}
	return started
}

func (l *Limiter) unavailable(userID string, err error) Decision {
	l.log.Error().Err(err).Str("user_id", userID).Msg("counter store unavailable, rejecting request")
	return Decision{
		Outcome:    OutcomeLimited,
		RetryAfter: time.Minute,
		Message:    MessageUnavailable,
	}
}

func retryAfter(expiresAt, now time.Time, fallback time.Duration) time.Duration {
	if expiresAt.IsZero() {
		return fallback
	}
	if d := expiresAt.Sub(now); d > 0 {
		return d
	}
	return time.Minute
}

func windowKey(kind Window, userID string) string {
	return "ratelimit:" + string(kind) + ":" + userID
}

func violationKey(userID string) string {
	return "violations:" + userID
}

// BanKeyPrefix prefixes the keys holding active bans.
const BanKeyPrefix = "ban:"

func banKey(userID string) string {
	return BanKeyPrefix + userID
}
