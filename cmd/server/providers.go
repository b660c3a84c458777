package main

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"pawsitive-haven/assistant-api/internal/config"
	"pawsitive-haven/assistant-api/internal/domain/assistant"
	"pawsitive-haven/assistant-api/internal/domain/conversation"
	"pawsitive-haven/assistant-api/internal/domain/escalation"
	"pawsitive-haven/assistant-api/internal/domain/faq"
	"pawsitive-haven/assistant-api/internal/domain/guard"
	"pawsitive-haven/assistant-api/internal/domain/ratelimit"
	"pawsitive-haven/assistant-api/internal/infrastructure/auth"
	"pawsitive-haven/assistant-api/internal/infrastructure/cache"
	"pawsitive-haven/assistant-api/internal/infrastructure/crontab"
	"pawsitive-haven/assistant-api/internal/infrastructure/database"
	"pawsitive-haven/assistant-api/internal/infrastructure/metrics"
	"pawsitive-haven/assistant-api/internal/infrastructure/notifier"
	"pawsitive-haven/assistant-api/internal/infrastructure/openaiclient"
	"pawsitive-haven/assistant-api/internal/infrastructure/repository/conversationrepo"
	"pawsitive-haven/assistant-api/internal/infrastructure/repository/escalationrepo"
	"pawsitive-haven/assistant-api/internal/infrastructure/repository/faqrepo"
	"pawsitive-haven/assistant-api/internal/interfaces/httpserver"
	"pawsitive-haven/assistant-api/internal/interfaces/httpserver/handlers"
)

const (
	assistantValidationTimeout = 15 * time.Second
	webhookTimeout             = 10 * time.Second
)

// newGormDB connects and migrates when a DSN is configured. A nil DB selects
// the in-memory repositories.
func newGormDB(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*gorm.DB, func(), error) {
	if cfg.DatabaseURL == "" {
		log.Warn().Msg("no database configured, conversations are kept in memory")
		return nil, func() {}, nil
	}

	db, err := database.Connect(database.Config{
		DSN:         cfg.DatabaseURL,
		MaxIdle:     cfg.DBMaxIdleConns,
		MaxOpen:     cfg.DBMaxOpenConns,
		MaxLifetime: cfg.DBConnLifetime,
		LogLevel:    gormlogger.Warn,
	}, log)
	if err != nil {
		return nil, nil, err
	}
	if err := database.AutoMigrate(ctx, db, log); err != nil {
		_ = database.Close(db)
		return nil, nil, err
	}
	return db, func() {
		if err := database.Close(db); err != nil {
			log.Error().Err(err).Msg("close database")
		}
	}, nil
}

func newRedisCache(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*cache.RedisCache, func(), error) {
	if cfg.RedisURL == "" {
		log.Warn().Msg("no redis configured, rate limit counters and conversation locks are per instance")
		return nil, func() {}, nil
	}
	rc, err := cache.NewRedisCache(ctx, cfg.RedisURL, log)
	if err != nil {
		return nil, nil, err
	}
	return rc, func() {
		if err := rc.Close(); err != nil {
			log.Error().Err(err).Msg("close redis")
		}
	}, nil
}

func newConversationRepository(db *gorm.DB) conversation.Repository {
	if db == nil {
		return conversationrepo.NewInMemoryRepository()
	}
	return conversationrepo.NewPostgresRepository(db)
}

func newFAQRepository(db *gorm.DB) faq.Repository {
	if db == nil {
		seed := database.DefaultFAQs()
		items := make([]faq.FAQ, 0, len(seed))
		for i := range seed {
			seed[i].ID = uint(i + 1)
			items = append(items, seed[i].EtoD())
		}
		return faqrepo.NewInMemoryRepository(items...)
	}
	return faqrepo.NewPostgresRepository(db)
}

func newEscalationRepository(db *gorm.DB) escalation.Repository {
	if db == nil {
		return escalationrepo.NewInMemoryRepository()
	}
	return escalationrepo.NewPostgresRepository(db)
}

// newMemoryCounterStore is nil when Redis holds the counters.
func newMemoryCounterStore(cfg *config.Config, rc *cache.RedisCache) (*cache.MemoryCounterStore, error) {
	if rc != nil {
		return nil, nil
	}
	return cache.NewMemoryCounterStore(cfg.CounterShards, cfg.CounterShardCapacity)
}

func newCounterStore(rc *cache.RedisCache, mem *cache.MemoryCounterStore) ratelimit.CounterStore {
	if rc != nil {
		return cache.NewRedisCounterStore(rc)
	}
	return mem
}

func newConversationLocker(cfg *config.Config, rc *cache.RedisCache) assistant.ConversationLocker {
	if rc != nil {
		return cache.NewRedisLocker(rc, cfg.LockTTL)
	}
	return assistant.NewKeyedMutex()
}

func newLimiter(store ratelimit.CounterStore, cfg *config.Config, log zerolog.Logger) *ratelimit.Limiter {
	limits := ratelimit.DefaultLimits()
	limits.PerMinute = cfg.RateLimitPerMinute
	limits.PerHour = cfg.RateLimitPerHour
	limits.PerDay = cfg.RateLimitPerDay
	limits.ViolationThreshold = cfg.ViolationThreshold
	limits.BanDuration = cfg.BanDuration
	return ratelimit.NewLimiter(store, limits, log)
}

func newDetector(sanitizer *guard.Sanitizer, cfg *config.Config, log zerolog.Logger) *guard.Detector {
	return guard.NewDetector(sanitizer, cfg.ChatMaxMessageLength, log)
}

func newOpenAIClient(cfg *config.Config, log zerolog.Logger) *openaiclient.Client {
	return openaiclient.New(openaiclient.Options{
		APIKey:        cfg.OpenAIAPIKey,
		BaseURL:       cfg.OpenAIBaseURL,
		Model:         cfg.OpenAIModel,
		AssistantID:   cfg.OpenAIAssistantID,
		VectorStoreID: cfg.OpenAIVectorStoreID,
		AssistantName: cfg.OpenAIAssistantName,
	}, log)
}

// newResponder picks the reply strategy once per process. A configured
// assistant that fails validation falls back to stateless completions.
func newResponder(
	ctx context.Context,
	cfg *config.Config,
	client *openaiclient.Client,
	conversations conversation.Repository,
	faqs faq.Repository,
	log zerolog.Logger,
) assistant.Responder {
	stateless := assistant.NewStatelessResponder(client, faqs, cfg.ChatHistoryWindow, cfg.ChatFAQLimit, cfg.CompletionTimeout, log)
	if !cfg.StatefulAssistant() {
		log.Info().Str("strategy", stateless.Name()).Msg("reply strategy selected")
		return stateless
	}

	validateCtx, cancel := context.WithTimeout(ctx, assistantValidationTimeout)
	defer cancel()
	ok, err := client.ValidateAssistant(validateCtx)
	if err != nil || !ok {
		log.Warn().Err(err).Str("assistant_id", cfg.OpenAIAssistantID).Msg("assistant unavailable, falling back to stateless completions")
		return stateless
	}

	poller := assistant.NewRunPoller(client, cfg.RunPollInterval, cfg.RunTimeout, log, assistant.WithRunObserver(metrics.RunObserver{}))
	stateful := assistant.NewStatefulResponder(client, poller, conversations, log)
	log.Info().Str("strategy", stateful.Name()).Msg("reply strategy selected")
	return stateful
}

func newOrchestrator(
	limiter *ratelimit.Limiter,
	detector *guard.Detector,
	conversations conversation.Repository,
	locker assistant.ConversationLocker,
	responder assistant.Responder,
	log zerolog.Logger,
) *assistant.Orchestrator {
	return assistant.NewOrchestrator(limiter, detector, conversations, locker, responder, assistant.NewOutputFilter(), log)
}

func newBioGenerator(
	client *openaiclient.Client,
	sanitizer *guard.Sanitizer,
	detector *guard.Detector,
	limiter *ratelimit.Limiter,
	cfg *config.Config,
	log zerolog.Logger,
) *assistant.BioGenerator {
	return assistant.NewBioGenerator(client, sanitizer, detector, limiter, assistant.NewOutputFilter(), cfg.CompletionTimeout, log)
}

func newConversationService(repo conversation.Repository, client *openaiclient.Client, log zerolog.Logger) *conversation.Service {
	return conversation.NewService(repo, client, log)
}

func newNotifier(cfg *config.Config, log zerolog.Logger) escalation.Notifier {
	return notifier.NewWebhookNotifier(cfg.EscalationWebhookURL, webhookTimeout, log)
}

func newEscalationService(
	repo escalation.Repository,
	conversations conversation.Repository,
	n escalation.Notifier,
	sanitizer *guard.Sanitizer,
	log zerolog.Logger,
) *escalation.Service {
	return escalation.NewService(repo, conversations, n, sanitizer, log)
}

func newAuthValidator(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*auth.Validator, error) {
	return auth.NewValidator(ctx, cfg, log)
}

func newReadinessChecks(db *gorm.DB, rc *cache.RedisCache) map[string]httpserver.ReadinessCheck {
	checks := map[string]httpserver.ReadinessCheck{}
	if db != nil {
		checks["database"] = func(ctx context.Context) error { return database.Ping(ctx, db) }
	}
	if rc != nil {
		checks["redis"] = rc.HealthCheck
	}
	return checks
}

func newHTTPServer(
	cfg *config.Config,
	log zerolog.Logger,
	handlerProvider *handlers.Provider,
	authValidator *auth.Validator,
	checks map[string]httpserver.ReadinessCheck,
	responder assistant.Responder,
) *httpserver.HttpServer {
	return httpserver.New(cfg, log, handlerProvider, authValidator, checks, responder.Name())
}

func newMetricsServer(cfg *config.Config) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{
		Addr:              cfg.MetricsAddr(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func newCrontab(cfg *config.Config, mem *cache.MemoryCounterStore, log zerolog.Logger) *crontab.Crontab {
	var sweeper crontab.Sweeper
	if mem != nil {
		sweeper = mem
	}
	return crontab.NewCrontab(sweeper, cfg.CounterSweepCron, metrics.RecordSweep, log)
}

func newFAQService(repo faq.Repository, log zerolog.Logger) *faq.Service {
	return faq.NewService(repo, log)
}
