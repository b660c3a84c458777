package conversationrepo

import (
	"context"
	"sort"
	"sync"
	"time"

	"pawsitive-haven/assistant-api/internal/domain/conversation"
)

// InMemoryRepository is a thread-safe store for single-process deployments
// and tests. Callers always receive copies.
type InMemoryRepository struct {
	mu            sync.RWMutex
	conversations map[uint]*conversation.Conversation
	nextID        uint
	nextMessageID uint
	now           func() time.Time
}

var _ conversation.Repository = (*InMemoryRepository)(nil)

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		conversations: make(map[uint]*conversation.Conversation),
		now:           time.Now,
	}
}

func (r *InMemoryRepository) GetByID(_ context.Context, id uint) (*conversation.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.conversations[id]
	if !ok {
		return nil, conversation.ErrNotFound
	}
	c := clone(stored)
	c.Messages = nil
	return c, nil
}

func (r *InMemoryRepository) GetByIDWithMessages(_ context.Context, id uint) (*conversation.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.conversations[id]
	if !ok {
		return nil, conversation.ErrNotFound
	}
	return clone(stored), nil
}

func (r *InMemoryRepository) Add(_ context.Context, conv *conversation.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	now := r.now()
	conv.ID = r.nextID
	conv.CreatedAt = now
	conv.UpdatedAt = now
	r.assignMessageIDs(conv)

	r.conversations[conv.ID] = clone(conv)
	return nil
}

func (r *InMemoryRepository) Update(_ context.Context, conv *conversation.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.conversations[conv.ID]
	if !ok {
		return conversation.ErrNotFound
	}

	r.assignMessageIDs(conv)
	for _, m := range conv.Messages {
		if !hasMessage(stored, m.ID) {
			stored.Messages = append(stored.Messages, m)
		}
	}
	stored.Title = conv.Title
	if stored.ThreadID == "" {
		stored.ThreadID = conv.ThreadID
	}
	stored.UpdatedAt = r.now()
	conv.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *InMemoryRepository) Delete(_ context.Context, conv *conversation.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.conversations, conv.ID)
	return nil
}

func (r *InMemoryRepository) GetByUser(_ context.Context, userID string) ([]conversation.Conversation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]conversation.Conversation, 0)
	for _, stored := range r.conversations {
		if stored.UserID != userID {
			continue
		}
		c := clone(stored)
		c.Messages = nil
		result = append(result, *c)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].UpdatedAt.Equal(result[j].UpdatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].UpdatedAt.After(result[j].UpdatedAt)
	})
	return result, nil
}

// assignMessageIDs must be called with the write lock held.
func (r *InMemoryRepository) assignMessageIDs(conv *conversation.Conversation) {
	for i := range conv.Messages {
		if conv.Messages[i].ID == 0 {
			r.nextMessageID++
			conv.Messages[i].ID = r.nextMessageID
		}
		conv.Messages[i].ConversationID = conv.ID
	}
}

func hasMessage(c *conversation.Conversation, id uint) bool {
	for _, m := range c.Messages {
		if m.ID == id {
			return true
		}
	}
	return false
}

func clone(c *conversation.Conversation) *conversation.Conversation {
	out := *c
	out.Messages = append([]conversation.Message(nil), c.Messages...)
	return &out
}
