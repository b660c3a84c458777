//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"
	"github.com/rs/zerolog"

	"pawsitive-haven/assistant-api/internal/config"
	"pawsitive-haven/assistant-api/internal/domain/guard"
	"pawsitive-haven/assistant-api/internal/interfaces/httpserver/handlers"
)

var storageSet = wire.NewSet(
	newGormDB,
	newRedisCache,
	newConversationRepository,
	newFAQRepository,
	newEscalationRepository,
	newMemoryCounterStore,
	newCounterStore,
	newConversationLocker,
)

var domainSet = wire.NewSet(
	guard.NewSanitizer,
	newDetector,
	newLimiter,
	newOpenAIClient,
	newResponder,
	newOrchestrator,
	newBioGenerator,
	newConversationService,
	newFAQService,
	newNotifier,
	newEscalationService,
)

var interfaceSet = wire.NewSet(
	handlers.NewProvider,
	newAuthValidator,
	newReadinessChecks,
	newHTTPServer,
	newMetricsServer,
	newCrontab,
	NewApplication,
)

// BuildApplication is the wire declaration of buildApplication.
func BuildApplication(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*Application, func(), error) {
	wire.Build(storageSet, domainSet, interfaceSet)
	return nil, nil, nil
}
