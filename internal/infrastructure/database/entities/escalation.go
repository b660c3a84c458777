package entities

import (
	"time"

	"pawsitive-haven/assistant-api/internal/domain/escalation"
)

// Escalation is a persisted staff hand-off.
type Escalation struct {
	ID                uint      `gorm:"primaryKey"`
	ConversationID    uint      `gorm:"not null;index"`
	UserID            string    `gorm:"size:191;not null;index"`
	MessageID         *uint     `gorm:"index"`
	UserEmail         string    `gorm:"size:256;not null"`
	UserName          string    `gorm:"size:200;not null"`
	UserQuestion      string    `gorm:"type:text;not null"`
	AdditionalContext string    `gorm:"type:text"`
	Status            string    `gorm:"size:32;not null;index:idx_escalations_status_created,priority:1"`
	StaffNotes        string    `gorm:"type:text"`
	CreatedAt         time.Time `gorm:"index:idx_escalations_status_created,priority:2"`
	NotifiedAt        *time.Time
	ResolvedAt        *time.Time

	Conversation Conversation `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE"`
}

func (Escalation) TableName() string {
	return "escalations"
}

// NewEscalation maps the domain escalation.
func NewEscalation(e *escalation.Escalation) *Escalation {
	return &Escalation{
		ID:                e.ID,
		ConversationID:    e.ConversationID,
		UserID:            e.UserID,
		MessageID:         e.MessageID,
		UserEmail:         e.UserEmail,
		UserName:          e.UserName,
		UserQuestion:      e.UserQuestion,
		AdditionalContext: e.AdditionalContext,
		Status:            string(e.Status),
		StaffNotes:        e.StaffNotes,
		CreatedAt:         e.CreatedAt,
		NotifiedAt:        e.NotifiedAt,
		ResolvedAt:        e.ResolvedAt,
	}
}

func (e *Escalation) EtoD() *escalation.Escalation {
	return &escalation.Escalation{
		ID:                e.ID,
		ConversationID:    e.ConversationID,
		UserID:            e.UserID,
		MessageID:         e.MessageID,
		UserEmail:         e.UserEmail,
		UserName:          e.UserName,
		UserQuestion:      e.UserQuestion,
		AdditionalContext: e.AdditionalContext,
		Status:            escalation.Status(e.Status),
		StaffNotes:        e.StaffNotes,
		CreatedAt:         e.CreatedAt,
		NotifiedAt:        e.NotifiedAt,
		ResolvedAt:        e.ResolvedAt,
	}
}
