package handlers

import (
	"pawsitive-haven/assistant-api/internal/domain/assistant"
	"pawsitive-haven/assistant-api/internal/domain/conversation"
	"pawsitive-haven/assistant-api/internal/domain/escalation"
	"pawsitive-haven/assistant-api/internal/domain/faq"
)

// Provider wires all HTTP handlers for dependency injection.
type Provider struct {
	Chat         *ChatHandler
	Conversation *ConversationHandler
	FAQ          *FAQHandler
	Escalation   *EscalationHandler
}

// NewProvider constructs the handler provider with domain services.
func NewProvider(
	orchestrator *assistant.Orchestrator,
	bios *assistant.BioGenerator,
	conversations *conversation.Service,
	faqs *faq.Service,
	escalations *escalation.Service,
) *Provider {
	return &Provider{
		Chat:         NewChatHandler(orchestrator, bios),
		Conversation: NewConversationHandler(conversations),
		FAQ:          NewFAQHandler(faqs),
		Escalation:   NewEscalationHandler(escalations),
	}
}
