package escalation

import (
	"context"
	"errors"
	"time"
)

// Status is the lifecycle state of an escalation.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusResolved   Status = "resolved"
	StatusClosed     Status = "closed"
)

var (
	ErrNotFound          = errors.New("escalation not found")
	ErrInvalidTransition = errors.New("invalid escalation status transition")
	ErrInvalidStatus     = errors.New("unknown escalation status")
)

// ValidTransitions defines the staff workflow. Resolved and closed are final.
var ValidTransitions = map[Status][]Status{
	StatusPending:    {StatusInProgress, StatusClosed},
	StatusInProgress: {StatusPending, StatusResolved, StatusClosed},
	StatusResolved:   {},
	StatusClosed:     {},
}

// ParseStatus accepts the wire form of a status.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if _, ok := ValidTransitions[s]; !ok {
		return "", ErrInvalidStatus
	}
	return s, nil
}

// IsFinal reports whether the escalation is finished.
func (s Status) IsFinal() bool {
	return s == StatusResolved || s == StatusClosed
}

func (s Status) CanTransitionTo(target Status) bool {
	for _, t := range ValidTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// TransitionTo returns target, or ErrInvalidTransition and s unchanged.
func (s Status) TransitionTo(target Status) (Status, error) {
	if !s.CanTransitionTo(target) {
		return s, ErrInvalidTransition
	}
	return target, nil
}

// Escalation hands a conversation over to shelter staff.
type Escalation struct {
	ID                uint       `json:"id"`
	ConversationID    uint       `json:"conversation_id"`
	UserID            string     `json:"user_id"`
	MessageID         *uint      `json:"message_id,omitempty"`
	UserEmail         string     `json:"user_email"`
	UserName          string     `json:"user_name"`
	UserQuestion      string     `json:"user_question"`
	AdditionalContext string     `json:"additional_context,omitempty"`
	Status            Status     `json:"status"`
	StaffNotes        string     `json:"staff_notes,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	NotifiedAt        *time.Time `json:"notified_at,omitempty"`
	ResolvedAt        *time.Time `json:"resolved_at,omitempty"`
}

// Page is one page of a status listing.
type Page struct {
	Items    []Escalation `json:"items"`
	Total    int64        `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
}

// Repository stores escalations. Missing ids return an error wrapping ErrNotFound.
type Repository interface {
	Add(ctx context.Context, e *Escalation) error
	Update(ctx context.Context, e *Escalation) error
	GetByID(ctx context.Context, id uint) (*Escalation, error)
	// GetByUser lists newest first.
	GetByUser(ctx context.Context, userID string) ([]Escalation, error)
	// GetByStatus lists oldest first, offset paged, with the total count.
	GetByStatus(ctx context.Context, status Status, offset, limit int) ([]Escalation, int64, error)
}

// Notifier alerts staff about a new escalation.
type Notifier interface {
	NotifyEscalation(ctx context.Context, e Escalation) error
}
