package conversation

import "context"

// Repository is the conversation store. Lookups of a missing id return an
// error wrapping ErrNotFound.
type Repository interface {
	GetByID(ctx context.Context, id uint) (*Conversation, error)
	GetByIDWithMessages(ctx context.Context, id uint) (*Conversation, error)
	// Add persists a new conversation and any messages on it, assigning IDs.
	Add(ctx context.Context, conversation *Conversation) error
	// Update persists title, thread handle and timestamps, and inserts
	// messages that have no ID yet. Stored messages are never rewritten.
	Update(ctx context.Context, conversation *Conversation) error
	Delete(ctx context.Context, conversation *Conversation) error
	// GetByUser lists a user's conversations without messages, most recently
	// updated first.
	GetByUser(ctx context.Context, userID string) ([]Conversation, error)
}
