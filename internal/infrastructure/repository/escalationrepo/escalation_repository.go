package escalationrepo

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pawsitive-haven/assistant-api/internal/domain/escalation"
	"pawsitive-haven/assistant-api/internal/infrastructure/database/entities"
	"pawsitive-haven/assistant-api/internal/utils/platformerrors"
)

// PostgresRepository persists escalations via GORM.
type PostgresRepository struct {
	db *gorm.DB
}

var _ escalation.Repository = (*PostgresRepository)(nil)

func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Add(ctx context.Context, e *escalation.Escalation) error {
	record := entities.NewEscalation(e)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(record).Error; err != nil {
		return dbError(ctx, "failed to create escalation", err, "4e7b1c93-8a25-4f60-9d3e-b2c6a8f1e057")
	}
	e.ID = record.ID
	e.CreatedAt = record.CreatedAt
	return nil
}

func (r *PostgresRepository) Update(ctx context.Context, e *escalation.Escalation) error {
	record := entities.NewEscalation(e)
	result := r.db.WithContext(ctx).Omit(clause.Associations).Save(record)
	if result.Error != nil {
		return dbError(ctx, "failed to update escalation", result.Error, "b0d4e8f2-1c73-4a59-8e6b-3f9a2d5c7b18")
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uint) (*escalation.Escalation, error) {
	var record entities.Escalation
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound,
				"escalation not found", escalation.ErrNotFound, "f3a9c5e1-6d28-4b74-a0f5-7e1c3b8d2a69")
		}
		return nil, dbError(ctx, "failed to load escalation", err, "2c8e5a17-9f4d-4b31-b6a2-d0e7f3c9a584")
	}
	return record.EtoD(), nil
}

func (r *PostgresRepository) GetByUser(ctx context.Context, userID string) ([]escalation.Escalation, error) {
	var records []entities.Escalation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&records).Error
	if err != nil {
		return nil, dbError(ctx, "failed to list escalations", err, "7a1d4f86-3b9e-4c25-8f70-e5b2a9c6d143")
	}
	return toDomain(records), nil
}

func (r *PostgresRepository) GetByStatus(ctx context.Context, status escalation.Status, offset, limit int) ([]escalation.Escalation, int64, error) {
	byStatus := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&entities.Escalation{}).Where("status = ?", string(status))
	}

	var total int64
	if err := byStatus().Count(&total).Error; err != nil {
		return nil, 0, dbError(ctx, "failed to count escalations", err, "e9f2b6c4-5a81-4d37-9c0e-1b4d8a7f3e52")
	}

	var records []entities.Escalation
	err := byStatus().Order("created_at ASC, id ASC").Offset(offset).Limit(limit).Find(&records).Error
	if err != nil {
		return nil, 0, dbError(ctx, "failed to list escalations", err, "3d6c9a20-7e4f-4b58-a1d3-f8c5e2b9a706")
	}
	return toDomain(records), total, nil
}

func toDomain(records []entities.Escalation) []escalation.Escalation {
	out := make([]escalation.Escalation, 0, len(records))
	for i := range records {
		out = append(out, *records[i].EtoD())
	}
	return out
}

func dbError(ctx context.Context, message string, err error, id string) error {
	return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError, message, err, id)
}

// InMemoryRepository is a thread-safe store for single-process deployments and tests.
type InMemoryRepository struct {
	mu     sync.RWMutex
	items  map[uint]escalation.Escalation
	nextID uint
	now    func() time.Time
}

var _ escalation.Repository = (*InMemoryRepository)(nil)

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		items: make(map[uint]escalation.Escalation),
		now:   time.Now,
	}
}

func (r *InMemoryRepository) Add(_ context.Context, e *escalation.Escalation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	e.ID = r.nextID
	if e.CreatedAt.IsZero() {
		e.CreatedAt = r.now()
	}
	r.items[e.ID] = *e
	return nil
}

func (r *InMemoryRepository) Update(_ context.Context, e *escalation.Escalation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[e.ID]; !ok {
		return escalation.ErrNotFound
	}
	r.items[e.ID] = *e
	return nil
}

func (r *InMemoryRepository) GetByID(_ context.Context, id uint) (*escalation.Escalation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.items[id]
	if !ok {
		return nil, escalation.ErrNotFound
	}
	return &e, nil
}

func (r *InMemoryRepository) GetByUser(_ context.Context, userID string) ([]escalation.Escalation, error) {
	items := r.filter(func(e escalation.Escalation) bool { return e.UserID == userID })
	sort.Slice(items, func(i, j int) bool { return items[i].ID > items[j].ID })
	return items, nil
}

func (r *InMemoryRepository) GetByStatus(_ context.Context, status escalation.Status, offset, limit int) ([]escalation.Escalation, int64, error) {
	items := r.filter(func(e escalation.Escalation) bool { return e.Status == status })
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })

	total := int64(len(items))
	if offset >= len(items) {
		return []escalation.Escalation{}, total, nil
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end], total, nil
}

func (r *InMemoryRepository) filter(keep func(escalation.Escalation) bool) []escalation.Escalation {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]escalation.Escalation, 0)
	for _, e := range r.items {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
