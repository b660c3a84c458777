package escalationrepo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pawsitive-haven/assistant-api/internal/domain/escalation"
)

func seed(t *testing.T, repo *InMemoryRepository, userID string, status escalation.Status) *escalation.Escalation {
	t.Helper()
	e := &escalation.Escalation{UserID: userID, Status: status, UserQuestion: "Can I foster two cats?"}
	require.NoError(t, repo.Add(context.Background(), e))
	return e
}

func TestInMemoryRepository_AddAndGet(t *testing.T) {
	repo := NewInMemoryRepository()
	e := seed(t, repo, "user-1", escalation.StatusPending)

	assert.Equal(t, uint(1), e.ID)
	assert.False(t, e.CreatedAt.IsZero())

	got, err := repo.GetByID(context.Background(), e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Can I foster two cats?", got.UserQuestion)

	_, err = repo.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, escalation.ErrNotFound)
}

func TestInMemoryRepository_UpdateUnknown(t *testing.T) {
	repo := NewInMemoryRepository()

	err := repo.Update(context.Background(), &escalation.Escalation{ID: 9})
	assert.ErrorIs(t, err, escalation.ErrNotFound)
}

func TestInMemoryRepository_GetByUserNewestFirst(t *testing.T) {
	repo := NewInMemoryRepository()
	first := seed(t, repo, "user-1", escalation.StatusPending)
	seed(t, repo, "user-2", escalation.StatusPending)
	second := seed(t, repo, "user-1", escalation.StatusClosed)

	items, err := repo.GetByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].ID)
	assert.Equal(t, first.ID, items[1].ID)
}

func TestInMemoryRepository_GetByStatusPages(t *testing.T) {
	repo := NewInMemoryRepository()
	for i := 0; i < 5; i++ {
		seed(t, repo, "user-1", escalation.StatusPending)
	}
	seed(t, repo, "user-1", escalation.StatusResolved)

	page, total, err := repo.GetByStatus(context.Background(), escalation.StatusPending, 2, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page, 2)
	assert.Equal(t, uint(3), page[0].ID)
	assert.Equal(t, uint(4), page[1].ID)

	page, total, err = repo.GetByStatus(context.Background(), escalation.StatusPending, 10, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Empty(t, page)
}
