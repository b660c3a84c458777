package faqrepo

import (
	"context"
	"sort"
	"sync"

	"gorm.io/gorm"

	"pawsitive-haven/assistant-api/internal/domain/faq"
	"pawsitive-haven/assistant-api/internal/infrastructure/database/entities"
	"pawsitive-haven/assistant-api/internal/utils/platformerrors"
)

// PostgresRepository reads FAQs via GORM.
type PostgresRepository struct {
	db *gorm.DB
}

var _ faq.Repository = (*PostgresRepository)(nil)

func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetActive(ctx context.Context) ([]faq.FAQ, error) {
	var records []entities.Faq
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("display_order ASC, id ASC").
		Find(&records).Error
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to list faqs", err, "8c3a6f14-7e2b-4d95-a1c8-0f5b9e2d7a36")
	}

	faqs := make([]faq.FAQ, 0, len(records))
	for i := range records {
		faqs = append(faqs, records[i].EtoD())
	}
	return faqs, nil
}

// InMemoryRepository serves a fixed catalogue.
type InMemoryRepository struct {
	mu   sync.RWMutex
	faqs []faq.FAQ
}

var _ faq.Repository = (*InMemoryRepository)(nil)

func NewInMemoryRepository(seed ...faq.FAQ) *InMemoryRepository {
	r := &InMemoryRepository{}
	r.Replace(seed...)
	return r
}

// Replace swaps the catalogue.
func (r *InMemoryRepository) Replace(faqs ...faq.FAQ) {
	sorted := append([]faq.FAQ(nil), faqs...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].DisplayOrder == sorted[j].DisplayOrder {
			return sorted[i].ID < sorted[j].ID
		}
		return sorted[i].DisplayOrder < sorted[j].DisplayOrder
	})

	r.mu.Lock()
	r.faqs = sorted
	r.mu.Unlock()
}

func (r *InMemoryRepository) GetActive(_ context.Context) ([]faq.FAQ, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	active := make([]faq.FAQ, 0, len(r.faqs))
	for _, f := range r.faqs {
		if f.IsActive {
			active = append(active, f)
		}
	}
	return active, nil
}
