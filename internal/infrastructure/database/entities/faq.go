package entities

import (
	"time"

	"pawsitive-haven/assistant-api/internal/domain/faq"
)

// Faq is a persisted FAQ entry.
type Faq struct {
	ID           uint   `gorm:"primaryKey"`
	Question     string `gorm:"size:500;not null"`
	Answer       string `gorm:"type:text;not null"`
	DisplayOrder int    `gorm:"not null;default:0;index:idx_faqs_active_order,priority:2"`
	IsActive     bool   `gorm:"not null;default:true;index:idx_faqs_active_order,priority:1"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (Faq) TableName() string {
	return "faqs"
}

func (e *Faq) EtoD() faq.FAQ {
	return faq.FAQ{
		ID:           e.ID,
		Question:     e.Question,
		Answer:       e.Answer,
		DisplayOrder: e.DisplayOrder,
		IsActive:     e.IsActive,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}
