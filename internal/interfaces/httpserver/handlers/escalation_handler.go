package handlers

import (
	"context"

	"pawsitive-haven/assistant-api/internal/domain/escalation"
)

// EscalationHandler invokes the staff handover use cases.
type EscalationHandler struct {
	service *escalation.Service
}

func NewEscalationHandler(service *escalation.Service) *EscalationHandler {
	return &EscalationHandler{service: service}
}

func (h *EscalationHandler) Create(ctx context.Context, userID string, req escalation.CreateRequest) (*escalation.Escalation, error) {
	return h.service.Create(ctx, userID, req)
}

func (h *EscalationHandler) Get(ctx context.Context, id uint, userID string, staff bool) (*escalation.Escalation, error) {
	return h.service.Get(ctx, id, userID, staff)
}

func (h *EscalationHandler) ListMine(ctx context.Context, userID string) ([]escalation.Escalation, error) {
	return h.service.ListMine(ctx, userID)
}

func (h *EscalationHandler) ListByStatus(ctx context.Context, status escalation.Status, page, pageSize int) (*escalation.Page, error) {
	return h.service.ListByStatus(ctx, status, page, pageSize)
}

func (h *EscalationHandler) Update(ctx context.Context, id uint, req escalation.UpdateRequest) (*escalation.Escalation, error) {
	return h.service.Update(ctx, id, req)
}
