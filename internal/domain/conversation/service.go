package conversation

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"pawsitive-haven/assistant-api/internal/utils/platformerrors"
)

// ThreadDeleter removes a conversation's external thread.
type ThreadDeleter interface {
	DeleteThread(ctx context.Context, threadID string) error
}

// Service exposes the read and delete use cases on a user's conversations.
type Service struct {
	repo    Repository
	threads ThreadDeleter
	log     zerolog.Logger
}

// NewService wires the conversation service. threads may be nil when the
// deployment never creates external threads.
func NewService(repo Repository, threads ThreadDeleter, log zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		threads: threads,
		log:     log.With().Str("component", "conversation-service").Logger(),
	}
}

// ListConversations returns the caller's conversations, most recently updated first.
func (s *Service) ListConversations(ctx context.Context, userID string) ([]Conversation, error) {
	conversations, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "list conversations")
	}
	for i := range conversations {
		conversations[i].Title = conversations[i].DisplayTitle()
	}
	return conversations, nil
}

// GetConversation returns one conversation with its messages in creation
// order. Someone else's conversation is reported as not found.
func (s *Service) GetConversation(ctx context.Context, userID string, id uint) (*Conversation, error) {
	conv, err := s.repo.GetByIDWithMessages(ctx, id)
	if err != nil {
		return nil, s.lookupError(ctx, err)
	}
	if !conv.OwnedBy(userID) {
		return nil, notFound(ctx)
	}
	conv.Title = conv.DisplayTitle()
	conv.Messages = conv.RecentMessages(-1)
	return conv, nil
}

// DeleteConversation removes the caller's conversation and, best effort, its
// external thread.
func (s *Service) DeleteConversation(ctx context.Context, userID string, id uint) error {
	conv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return s.lookupError(ctx, err)
	}
	if !conv.OwnedBy(userID) {
		return notFound(ctx)
	}

	if conv.ThreadID != "" && s.threads != nil {
		if err := s.threads.DeleteThread(ctx, conv.ThreadID); err != nil {
			s.log.Warn().Err(err).Uint("conversation_id", conv.ID).Msg("delete external thread")
		}
	}

	if err := s.repo.Delete(ctx, conv); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "delete conversation")
	}
	s.log.Info().Uint("conversation_id", conv.ID).Str("user_id", userID).Msg("conversation deleted")
	return nil
}

func (s *Service) lookupError(ctx context.Context, err error) error {
	if errors.Is(err, ErrNotFound) {
		return notFound(ctx)
	}
	return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "load conversation")
}

func notFound(ctx context.Context) error {
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeNotFound,
		"conversation not found", ErrNotFound, "7d3c1a52-0b4e-4f6a-9d2e-5c8f1e7a3b90")
}
