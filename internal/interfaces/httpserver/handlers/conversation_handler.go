package handlers

import (
	"context"

	"pawsitive-haven/assistant-api/internal/domain/conversation"
)

// ConversationHandler exposes conversation history to its owner.
type ConversationHandler struct {
	service *conversation.Service
}

func NewConversationHandler(service *conversation.Service) *ConversationHandler {
	return &ConversationHandler{service: service}
}

func (h *ConversationHandler) List(ctx context.Context, userID string) ([]conversation.Conversation, error) {
	return h.service.ListConversations(ctx, userID)
}

func (h *ConversationHandler) Get(ctx context.Context, userID string, id uint) (*conversation.Conversation, error) {
	return h.service.GetConversation(ctx, userID, id)
}

func (h *ConversationHandler) Delete(ctx context.Context, userID string, id uint) error {
	return h.service.DeleteConversation(ctx, userID, id)
}
