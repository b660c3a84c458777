package conversationrepo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pawsitive-haven/assistant-api/internal/domain/conversation"
)

func TestInMemoryRepository_AddAssignsIDs(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	conv := conversation.New("user-1", "How do I foster?")
	require.NoError(t, repo.Add(ctx, conv))
	assert.Equal(t, uint(1), conv.ID)

	conv.Append(conversation.RoleUser, "How do I foster?", time.Now())
	require.NoError(t, repo.Update(ctx, conv))
	require.Len(t, conv.Messages, 1)
	assert.NotZero(t, conv.Messages[0].ID)
	assert.Equal(t, conv.ID, conv.Messages[0].ConversationID)

	stored, err := repo.GetByIDWithMessages(ctx, conv.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Messages, 1)
}

func TestInMemoryRepository_UpdateOnlyInsertsNewMessages(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	conv := conversation.New("user-1", "hi there")
	require.NoError(t, repo.Add(ctx, conv))
	conv.Append(conversation.RoleUser, "hi there", time.Now())
	require.NoError(t, repo.Update(ctx, conv))

	conv.Messages[0].Content = "rewritten"
	conv.Append(conversation.RoleAssistant, "hello!", time.Now())
	require.NoError(t, repo.Update(ctx, conv))

	stored, err := repo.GetByIDWithMessages(ctx, conv.ID)
	require.NoError(t, err)
	require.Len(t, stored.Messages, 2)
	assert.Equal(t, "hi there", stored.Messages[0].Content)
	assert.Equal(t, "hello!", stored.Messages[1].Content)
}

func TestInMemoryRepository_ThreadIsAssignedOnce(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	conv := conversation.New("user-1", "hi there")
	require.NoError(t, repo.Add(ctx, conv))

	conv.ThreadID = "thread_a"
	require.NoError(t, repo.Update(ctx, conv))
	conv.ThreadID = "thread_b"
	require.NoError(t, repo.Update(ctx, conv))

	stored, err := repo.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "thread_a", stored.ThreadID)
}

func TestInMemoryRepository_ReturnsCopies(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()

	conv := conversation.New("user-1", "original")
	require.NoError(t, repo.Add(ctx, conv))

	loaded, err := repo.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	loaded.Title = "mutated"

	again, err := repo.GetByID(ctx, conv.ID)
	require.NoError(t, err)
	assert.Equal(t, "original", again.Title)
}

func TestInMemoryRepository_GetByUserNewestFirst(t *testing.T) {
	repo := NewInMemoryRepository()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	repo.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	first := conversation.New("user-1", "first")
	second := conversation.New("user-1", "second")
	other := conversation.New("user-2", "other")
	require.NoError(t, repo.Add(ctx, first))
	require.NoError(t, repo.Add(ctx, second))
	require.NoError(t, repo.Add(ctx, other))

	first.Append(conversation.RoleUser, "bump", base)
	require.NoError(t, repo.Update(ctx, first))

	list, err := repo.GetByUser(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
	assert.Empty(t, list[0].Messages)
}

func TestInMemoryRepository_NotFound(t *testing.T) {
	repo := NewInMemoryRepository()

	_, err := repo.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, conversation.ErrNotFound)

	err = repo.Update(context.Background(), &conversation.Conversation{ID: 42})
	assert.ErrorIs(t, err, conversation.ErrNotFound)
}
