package entities

import (
	"time"

	"pawsitive-haven/assistant-api/internal/domain/conversation"
)

// Conversation is the persisted chat header.
type Conversation struct {
	ID        uint    `gorm:"primaryKey"`
	UserID    string  `gorm:"size:191;not null;index:idx_conversations_user_updated,priority:1"`
	Title     string  `gorm:"size:100"`
	ThreadID  *string `gorm:"size:128;uniqueIndex"`
	CreatedAt time.Time
	UpdatedAt time.Time             `gorm:"index:idx_conversations_user_updated,priority:2,sort:desc"`
	Messages  []ConversationMessage `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE"`
}

func (Conversation) TableName() string {
	return "conversations"
}

// ConversationMessage is one persisted message.
type ConversationMessage struct {
	ID             uint   `gorm:"primaryKey"`
	ConversationID uint   `gorm:"not null;index"`
	Role           string `gorm:"size:16;not null"`
	Content        string `gorm:"type:text;not null"`
	CreatedAt      time.Time
}

func (ConversationMessage) TableName() string {
	return "conversation_messages"
}

// NewConversation maps the domain conversation, messages included.
func NewConversation(c *conversation.Conversation) *Conversation {
	entity := &Conversation{
		ID:        c.ID,
		UserID:    c.UserID,
		Title:     c.Title,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if c.ThreadID != "" {
		threadID := c.ThreadID
		entity.ThreadID = &threadID
	}
	for _, m := range c.Messages {
		entity.Messages = append(entity.Messages, *NewConversationMessage(c.ID, m))
	}
	return entity
}

// NewConversationMessage maps one domain message.
func NewConversationMessage(conversationID uint, m conversation.Message) *ConversationMessage {
	return &ConversationMessage{
		ID:             m.ID,
		ConversationID: conversationID,
		Role:           string(m.Role),
		Content:        m.Content,
		CreatedAt:      m.CreatedAt,
	}
}

// EtoD converts the entity to the domain model.
func (e *Conversation) EtoD() *conversation.Conversation {
	c := &conversation.Conversation{
		ID:        e.ID,
		UserID:    e.UserID,
		Title:     e.Title,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
	if e.ThreadID != nil {
		c.ThreadID = *e.ThreadID
	}
	for _, m := range e.Messages {
		c.Messages = append(c.Messages, m.EtoD())
	}
	return c
}

// EtoD converts the entity to the domain model.
func (e *ConversationMessage) EtoD() conversation.Message {
	return conversation.Message{
		ID:             e.ID,
		ConversationID: e.ConversationID,
		Role:           conversation.Role(e.Role),
		Content:        e.Content,
		CreatedAt:      e.CreatedAt,
	}
}
