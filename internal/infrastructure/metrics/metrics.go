package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"pawsitive-haven/assistant-api/internal/domain/assistant"
)

const (
	namespace = "pawsitive"
	subsystem = "assistant_api"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"method", "endpoint", "status"},
	)

	// Chat turns by strategy and outcome (success or error kind)
	ChatTurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "chat_turns_total",
			Help:      "Chat turns by strategy and outcome",
		},
		[]string{"strategy", "outcome"},
	)

	RateLimitDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rate_limit_rejections_total",
			Help:      "Requests rejected by the rate limiter",
		},
		[]string{"outcome", "window"},
	)

	InjectionDetectionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "injection_detections_total",
			Help:      "Adversarial inputs by signature category",
		},
		[]string{"category"},
	)

	BansIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "bans_issued_total",
			Help:      "Temporary bans started after repeated violations",
		},
	)

	OutputLeaksTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "output_leaks_total",
			Help:      "Replies replaced because they carried instruction text",
		},
	)

	ProviderErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "provider_errors_total",
			Help:      "Failed AI service calls by error kind",
		},
		[]string{"kind"},
	)

	RunPolls = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "run_polls",
			Help:      "Status polls per assistant run",
			Buckets:   []float64{1, 2, 5, 10, 20, 40, 80, 120},
		},
		[]string{"status"},
	)

	RunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "run_duration_seconds",
			Help:      "Assistant run duration until a terminal status or the deadline",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		},
		[]string{"status"},
	)

	BiosGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "pet_bios_total",
			Help:      "Pet bio requests by outcome",
		},
		[]string{"outcome"},
	)

	CountersSwept = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "counters_swept_total",
			Help:      "Expired in-process rate limit counters removed",
		},
	)
)

// RecordRequest records one HTTP request.
func RecordRequest(method, endpoint, status string, duration time.Duration) {
	RequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	RequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

// RecordChatTurn records the outcome of a chat turn and its security signals.
func RecordChatTurn(result assistant.ChatResult) {
	outcome := "success"
	if !result.Success {
		outcome = string(result.Kind)
	}
	ChatTurnsTotal.WithLabelValues(result.Strategy, outcome).Inc()

	switch result.Kind {
	case assistant.KindRateLimited:
		RateLimitDecisionsTotal.WithLabelValues("limited", result.Signal).Inc()
	case assistant.KindBanned:
		RateLimitDecisionsTotal.WithLabelValues("banned", "").Inc()
	case assistant.KindValidationAdversarial:
		InjectionDetectionsTotal.WithLabelValues(result.Signal).Inc()
	case assistant.KindTimeout, assistant.KindQuotaExceeded, assistant.KindExternalFailure:
		ProviderErrorsTotal.WithLabelValues(string(result.Kind)).Inc()
	}
	if result.BanStart {
		BansIssuedTotal.Inc()
	}
	if result.Leaked {
		OutputLeaksTotal.Inc()
	}
}

// RecordBio records a pet bio request.
func RecordBio(result assistant.BioResult) {
	outcome := "success"
	if !result.Success {
		outcome = string(result.Kind)
	}
	BiosGeneratedTotal.WithLabelValues(outcome).Inc()
}

// RecordSweep counts expired counters removed by the sweeper.
func RecordSweep(removed int) {
	CountersSwept.Add(float64(removed))
}

// RunObserver feeds assistant run outcomes into the run histograms.
type RunObserver struct{}

func (RunObserver) ObserveRun(status assistant.RunStatus, polls int, elapsed time.Duration) {
	RunPolls.WithLabelValues(string(status)).Observe(float64(polls))
	RunDuration.WithLabelValues(string(status)).Observe(elapsed.Seconds())
}
