package conversation

import (
	"errors"
	"sort"
	"time"
	"unicode/utf8"
)

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

const (
	DefaultTitle   = "New Chat"
	maxTitleLength = 50
	titleEllipsis  = "..."
)

var (
	ErrNotFound              = errors.New("conversation not found")
	ErrThreadAlreadyAssigned = errors.New("conversation already has an external thread")
)

// Message is one immutable entry of a conversation.
type Message struct {
	ID             uint      `json:"id"`
	ConversationID uint      `json:"conversation_id"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// Conversation is a user's chat with the assistant.
//
// ThreadID is the external service's thread handle; empty until the first
// stateful turn, then fixed for the conversation's life.
type Conversation struct {
	ID        uint      `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	ThreadID  string    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Messages  []Message `json:"messages,omitempty"`
}

// New starts a conversation for userID titled from its first message.
func New(userID, firstMessage string) *Conversation {
	return &Conversation{
		UserID: userID,
		Title:  TitleFrom(firstMessage),
	}
}

// OwnedBy reports whether userID owns the conversation.
func (c *Conversation) OwnedBy(userID string) bool {
	return c.UserID != "" && c.UserID == userID
}

// DisplayTitle falls back to DefaultTitle for untitled conversations.
func (c *Conversation) DisplayTitle() string {
	if c.Title == "" {
		return DefaultTitle
	}
	return c.Title
}

// AssignThread records the external thread handle. Reassigning the same
// handle is a no-op; replacing it is an error.
func (c *Conversation) AssignThread(threadID string) error {
	if c.ThreadID == "" {
		c.ThreadID = threadID
		return nil
	}
	if c.ThreadID == threadID {
		return nil
	}
	return ErrThreadAlreadyAssigned
}

// Append adds an unsaved message; the store assigns its ID on Update.
func (c *Conversation) Append(role Role, content string, at time.Time) {
	c.Messages = append(c.Messages, Message{
		ConversationID: c.ID,
		Role:           role,
		Content:        content,
		CreatedAt:      at,
	})
}

// RecentMessages returns up to n messages in chronological order, most recent last.
func (c *Conversation) RecentMessages(n int) []Message {
	ordered := make([]Message, len(c.Messages))
	copy(ordered, c.Messages)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})
	if n >= 0 && len(ordered) > n {
		ordered = ordered[len(ordered)-n:]
	}
	return ordered
}

// TitleFrom caps text at 50 characters, ellipsis included.
func TitleFrom(text string) string {
	if utf8.RuneCountInString(text) <= maxTitleLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxTitleLength-len(titleEllipsis)]) + titleEllipsis
}
