package faqrepo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pawsitive-haven/assistant-api/internal/domain/faq"
)

func TestInMemoryRepository_GetActive(t *testing.T) {
	repo := NewInMemoryRepository(
		faq.FAQ{ID: 3, Question: "Hours?", DisplayOrder: 2, IsActive: true},
		faq.FAQ{ID: 1, Question: "Fees?", DisplayOrder: 1, IsActive: true},
		faq.FAQ{ID: 2, Question: "Retired", DisplayOrder: 0, IsActive: false},
		faq.FAQ{ID: 4, Question: "Volunteering?", DisplayOrder: 2, IsActive: true},
	)

	got, err := repo.GetActive(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []uint{1, 3, 4}, []uint{got[0].ID, got[1].ID, got[2].ID})
}

func TestInMemoryRepository_Replace(t *testing.T) {
	repo := NewInMemoryRepository(faq.FAQ{ID: 1, IsActive: true})
	repo.Replace(faq.FAQ{ID: 7, IsActive: true})

	got, err := repo.GetActive(context.Background())

	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, uint(7), got[0].ID)
}
