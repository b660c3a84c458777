package escalation

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"pawsitive-haven/assistant-api/internal/domain/conversation"
	"pawsitive-haven/assistant-api/internal/domain/guard"
	"pawsitive-haven/assistant-api/internal/utils/platformerrors"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// CreateRequest asks staff to take over a conversation.
type CreateRequest struct {
	ConversationID    uint
	MessageID         *uint
	UserEmail         string
	UserName          string
	UserQuestion      string
	AdditionalContext string
}

// UpdateRequest is a staff edit; nil fields are left alone.
type UpdateRequest struct {
	Status     *Status
	StaffNotes *string
}

// Service implements the escalation use cases.
type Service struct {
	repo          Repository
	conversations conversation.Repository
	notifier      Notifier
	sanitizer     *guard.Sanitizer
	now           func() time.Time
	log           zerolog.Logger
}

// ServiceOption customises a Service.
type ServiceOption func(*Service)

func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewService wires the escalation service. A nil notifier disables staff alerts.
func NewService(repo Repository, conversations conversation.Repository, notifier Notifier, sanitizer *guard.Sanitizer, log zerolog.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		repo:          repo,
		conversations: conversations,
		notifier:      notifier,
		sanitizer:     sanitizer,
		now:           time.Now,
		log:           log.With().Str("component", "escalation-service").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create opens a pending escalation on one of the caller's conversations.
func (s *Service) Create(ctx context.Context, userID string, req CreateRequest) (*Escalation, error) {
	e := &Escalation{
		ConversationID:    req.ConversationID,
		UserID:            userID,
		MessageID:         req.MessageID,
		UserEmail:         s.sanitizer.Clean(req.UserEmail),
		UserName:          s.sanitizer.Clean(req.UserName),
		UserQuestion:      s.sanitizer.Clean(req.UserQuestion),
		AdditionalContext: s.sanitizer.Clean(req.AdditionalContext),
		Status:            StatusPending,
		CreatedAt:         s.now(),
	}
	if e.UserEmail == "" || e.UserName == "" || e.UserQuestion == "" {
		return nil, validation(ctx, "email, name and question are required", nil)
	}

	conv, err := s.conversations.GetByIDWithMessages(ctx, req.ConversationID)
	if err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
				"conversation not found", err, "0c5e8a1d-7b42-4f93-a6d1-2e9f3c7b5a84")
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "load conversation")
	}
	if !conv.OwnedBy(userID) {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeForbidden,
			"conversation belongs to another user", nil, "5f1b7c3e-9a28-4d60-b4e7-8c2d1a6f0e93")
	}
	if req.MessageID != nil && !hasMessage(conv, *req.MessageID) {
		return nil, validation(ctx, "message does not belong to the conversation", nil)
	}

	if err := s.repo.Add(ctx, e); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "create escalation")
	}
	s.log.Info().Uint("escalation_id", e.ID).Uint("conversation_id", e.ConversationID).Str("user_id", userID).Msg("escalation created")

	s.notify(ctx, e)
	return e, nil
}

func (s *Service) notify(ctx context.Context, e *Escalation) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyEscalation(ctx, *e); err != nil {
		s.log.Warn().Err(err).Uint("escalation_id", e.ID).Msg("staff notification failed")
		return
	}
	notified := s.now()
	e.NotifiedAt = &notified
	if err := s.repo.Update(ctx, e); err != nil {
		s.log.Warn().Err(err).Uint("escalation_id", e.ID).Msg("failed to record notification time")
	}
}

// Get returns an escalation to its owner or to staff.
func (s *Service) Get(ctx context.Context, id uint, userID string, staff bool) (*Escalation, error) {
	e, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !staff && e.UserID != userID {
		return nil, notFound(ctx, nil)
	}
	return e, nil
}

// ListMine returns the caller's escalations, newest first.
func (s *Service) ListMine(ctx context.Context, userID string) ([]Escalation, error) {
	items, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "list escalations")
	}
	return items, nil
}

// ListByStatus pages through escalations in one status, oldest first.
func (s *Service) ListByStatus(ctx context.Context, status Status, page, pageSize int) (*Page, error) {
	if _, ok := ValidTransitions[status]; !ok {
		return nil, validation(ctx, "unknown status", ErrInvalidStatus)
	}
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}

	items, total, err := s.repo.GetByStatus(ctx, status, (page-1)*pageSize, pageSize)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "list escalations by status")
	}
	return &Page{Items: items, Total: total, Page: page, PageSize: pageSize}, nil
}

// Update applies a staff edit. Reaching resolved or closed stamps ResolvedAt.
func (s *Service) Update(ctx context.Context, id uint, req UpdateRequest) (*Escalation, error) {
	e, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Status != nil && *req.Status != e.Status {
		next, err := e.Status.TransitionTo(*req.Status)
		if err != nil {
			return nil, validation(ctx, "cannot move escalation from "+string(e.Status)+" to "+string(*req.Status), err)
		}
		e.Status = next
		if next.IsFinal() {
			resolved := s.now()
			e.ResolvedAt = &resolved
		}
	}
	if req.StaffNotes != nil {
		e.StaffNotes = s.sanitizer.Clean(*req.StaffNotes)
	}

	if err := s.repo.Update(ctx, e); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "update escalation")
	}
	s.log.Info().Uint("escalation_id", e.ID).Str("status", string(e.Status)).Msg("escalation updated")
	return e, nil
}

func (s *Service) load(ctx context.Context, id uint) (*Escalation, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, notFound(ctx, err)
		}
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "load escalation")
	}
	return e, nil
}

func hasMessage(conv *conversation.Conversation, messageID uint) bool {
	for _, m := range conv.Messages {
		if m.ID == messageID {
			return true
		}
	}
	return false
}

func notFound(ctx context.Context, err error) error {
	if err == nil {
		err = ErrNotFound
	}
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
		"escalation not found", err, "a4d92e61-3c7f-4b18-9e05-7f6b2c8d1a39")
}

func validation(ctx context.Context, message string, err error) error {
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
		message, err, "e7c31b08-5d9a-4f26-8a4c-1b6e0d3f9c57")
}
