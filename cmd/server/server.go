package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"pawsitive-haven/assistant-api/internal/config"
	"pawsitive-haven/assistant-api/internal/domain/guard"
	"pawsitive-haven/assistant-api/internal/infrastructure/crontab"
	"pawsitive-haven/assistant-api/internal/infrastructure/logger"
	"pawsitive-haven/assistant-api/internal/infrastructure/observability"
	"pawsitive-haven/assistant-api/internal/interfaces/httpserver"
	"pawsitive-haven/assistant-api/internal/interfaces/httpserver/handlers"
)

// @title Pawsitive Haven Assistant API
// @version 1.0
// @description Guarded chat assistant, pet bios and staff escalations for the Pawsitive Haven shelter.
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
type Application struct {
	httpServer    *httpserver.HttpServer
	metricsServer *http.Server
	crontab       *crontab.Crontab
	log           zerolog.Logger
}

func NewApplication(httpServer *httpserver.HttpServer, metricsServer *http.Server, ctab *crontab.Crontab, log zerolog.Logger) *Application {
	return &Application{
		httpServer:    httpServer,
		metricsServer: metricsServer,
		crontab:       ctab,
		log:           log,
	}
}

// Start runs the API, the metrics listener and the crontab until ctx ends or
// one of them fails.
func (a *Application) Start(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		return a.httpServer.Run(ctx)
	})
	eg.Go(func() error {
		a.log.Info().Str("addr", a.metricsServer.Addr).Msg("metrics server listening")
		err := a.metricsServer.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	eg.Go(func() error {
		<-ctx.Done()
		return a.metricsServer.Close()
	})
	eg.Go(func() error {
		return a.crontab.Run(ctx)
	})
	return eg.Wait()
}

// buildApplication assembles the object graph declared in wire.go.
func buildApplication(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Application, func(), error) {
	db, closeDB, err := newGormDB(ctx, cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("database: %w", err)
	}
	rc, closeRedis, err := newRedisCache(ctx, cfg, log)
	if err != nil {
		closeDB()
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	cleanup := func() {
		closeRedis()
		closeDB()
	}

	mem, err := newMemoryCounterStore(cfg, rc)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("counter store: %w", err)
	}

	conversations := newConversationRepository(db)
	faqs := newFAQRepository(db)
	escalations := newEscalationRepository(db)

	sanitizer := guard.NewSanitizer()
	detector := newDetector(sanitizer, cfg, log)
	limiter := newLimiter(newCounterStore(rc, mem), cfg, log)
	client := newOpenAIClient(cfg, log)
	responder := newResponder(ctx, cfg, client, conversations, faqs, log)

	handlerProvider := handlers.NewProvider(
		newOrchestrator(limiter, detector, conversations, newConversationLocker(cfg, rc), responder, log),
		newBioGenerator(client, sanitizer, detector, limiter, cfg, log),
		newConversationService(conversations, client, log),
		newFAQService(faqs, log),
		newEscalationService(escalations, conversations, newNotifier(cfg, log), sanitizer, log),
	)

	authValidator, err := newAuthValidator(ctx, cfg, log)
	if err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("auth validator: %w", err)
	}

	httpServer := newHTTPServer(cfg, log, handlerProvider, authValidator, newReadinessChecks(db, rc), responder)
	app := NewApplication(httpServer, newMetricsServer(cfg), newCrontab(cfg, mem, log), log)
	return app, cleanup, nil
}

func main() {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	log = log.With().Str("service", cfg.ServiceName).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := observability.Setup(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("initialize observability")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("shutdown telemetry")
		}
	}()

	app, cleanup, err := buildApplication(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create application")
	}
	defer cleanup()

	if err := app.Start(ctx); err != nil {
		log.Error().Err(err).Msg("application stopped with error")
		return
	}

	log.Info().Msg("application exited cleanly")
}

func loadEnvFiles() {
	paths := []string{".env", "../.env"}
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Overload(path); err != nil {
				fmt.Fprintf(os.Stderr, "warning: failed to load %s: %v\n", path, err)
			}
		}
	}
}
