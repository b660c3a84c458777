package handlers

import (
	"context"

	"pawsitive-haven/assistant-api/internal/domain/faq"
)

type FAQHandler struct {
	service *faq.Service
}

func NewFAQHandler(service *faq.Service) *FAQHandler {
	return &FAQHandler{service: service}
}

func (h *FAQHandler) ListActive(ctx context.Context) ([]faq.FAQ, error) {
	return h.service.ListActive(ctx)
}
