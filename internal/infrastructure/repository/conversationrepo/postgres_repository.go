package conversationrepo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"pawsitive-haven/assistant-api/internal/domain/conversation"
	"pawsitive-haven/assistant-api/internal/infrastructure/database/entities"
	"pawsitive-haven/assistant-api/internal/utils/platformerrors"
)

// PostgresRepository persists conversations via GORM.
type PostgresRepository struct {
	db *gorm.DB
}

var _ conversation.Repository = (*PostgresRepository)(nil)

func NewPostgresRepository(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByID(ctx context.Context, id uint) (*conversation.Conversation, error) {
	var record entities.Conversation
	if err := r.db.WithContext(ctx).First(&record, id).Error; err != nil {
		return nil, lookupError(ctx, err)
	}
	return record.EtoD(), nil
}

func (r *PostgresRepository) GetByIDWithMessages(ctx context.Context, id uint) (*conversation.Conversation, error) {
	var record entities.Conversation
	err := r.db.WithContext(ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC, id ASC")
		}).
		First(&record, id).Error
	if err != nil {
		return nil, lookupError(ctx, err)
	}
	return record.EtoD(), nil
}

func (r *PostgresRepository) Add(ctx context.Context, conv *conversation.Conversation) error {
	record := entities.NewConversation(conv)
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to create conversation", err, "3b8f2d61-4c07-4e9a-b5d3-9a1e6c2f7d48")
	}
	stored := record.EtoD()
	conv.ID = stored.ID
	conv.CreatedAt = stored.CreatedAt
	conv.UpdatedAt = stored.UpdatedAt
	conv.Messages = stored.Messages
	return nil
}

// Update writes header fields and inserts unsaved messages in one
// transaction. The thread handle is only ever set on a row that has none.
func (r *PostgresRepository) Update(ctx context.Context, conv *conversation.Conversation) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range conv.Messages {
			if conv.Messages[i].ID != 0 {
				continue
			}
			msg := entities.NewConversationMessage(conv.ID, conv.Messages[i])
			if err := tx.Create(msg).Error; err != nil {
				return fmt.Errorf("insert message: %w", err)
			}
			conv.Messages[i].ID = msg.ID
			conv.Messages[i].ConversationID = conv.ID
		}

		updates := map[string]any{"title": conv.Title}
		result := tx.Model(&entities.Conversation{}).Where("id = ?", conv.ID).Updates(updates)
		if result.Error != nil {
			return fmt.Errorf("update conversation: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return conversation.ErrNotFound
		}

		if conv.ThreadID != "" {
			if err := tx.Model(&entities.Conversation{}).
				Where("id = ? AND thread_id IS NULL", conv.ID).
				Update("thread_id", conv.ThreadID).Error; err != nil {
				return fmt.Errorf("assign thread: %w", err)
			}
		}

		var header entities.Conversation
		if err := tx.Select("updated_at").First(&header, conv.ID).Error; err != nil {
			return err
		}
		conv.UpdatedAt = header.UpdatedAt
		return nil
	})
	if err != nil {
		if errors.Is(err, conversation.ErrNotFound) {
			return notFound(ctx, err)
		}
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to update conversation", err, "9e4c7a12-6b3d-4f85-a0e2-5d8b1c4f7a63")
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, conv *conversation.Conversation) error {
	err := r.db.WithContext(ctx).Select(clause.Associations).Delete(&entities.Conversation{ID: conv.ID}).Error
	if err != nil {
		return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to delete conversation", err, "c6a1f9e3-2d85-4b70-9f4e-8b3d0a7c5e12")
	}
	return nil
}

func (r *PostgresRepository) GetByUser(ctx context.Context, userID string) ([]conversation.Conversation, error) {
	var records []entities.Conversation
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC, id DESC").
		Find(&records).Error
	if err != nil {
		return nil, platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
			"failed to list conversations", err, "1f7d3b58-9c24-4a6e-8d01-3e5a7b9c2f46")
	}

	result := make([]conversation.Conversation, 0, len(records))
	for i := range records {
		result = append(result, *records[i].EtoD())
	}
	return result, nil
}

func lookupError(ctx context.Context, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(ctx, conversation.ErrNotFound)
	}
	return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeDatabaseError,
		"failed to load conversation", err, "5a2e8c71-0f3b-4d96-b7a4-6c1e9d3f8b25")
}

func notFound(ctx context.Context, err error) error {
	return platformerrors.NewError(ctx, platformerrors.LayerRepository, platformerrors.ErrorTypeNotFound,
		"conversation not found", err, "d8b5e2a7-4c19-4f3e-9a60-2b7f5c1d8e94")
}
