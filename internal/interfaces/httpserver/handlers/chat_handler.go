package handlers

import (
	"context"

	"pawsitive-haven/assistant-api/internal/domain/assistant"
	"pawsitive-haven/assistant-api/internal/infrastructure/metrics"
)

// ChatHandler runs chat turns and bio requests and records their outcomes.
type ChatHandler struct {
	orchestrator *assistant.Orchestrator
	bios         *assistant.BioGenerator
}

func NewChatHandler(orchestrator *assistant.Orchestrator, bios *assistant.BioGenerator) *ChatHandler {
	return &ChatHandler{
		orchestrator: orchestrator,
		bios:         bios,
	}
}

func (h *ChatHandler) SendChat(ctx context.Context, req assistant.ChatRequest) assistant.ChatResult {
	result := h.orchestrator.SendChat(ctx, req)
	metrics.RecordChatTurn(result)
	return result
}

func (h *ChatHandler) GeneratePetBio(ctx context.Context, userID string, req assistant.BioRequest) assistant.BioResult {
	result := h.bios.GeneratePetBio(ctx, userID, req)
	metrics.RecordBio(result)
	return result
}
