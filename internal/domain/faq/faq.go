package faq

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"pawsitive-haven/assistant-api/internal/utils/platformerrors"
)

// FAQ is a curated question and answer shown to users and fed to the
// stateless assistant as grounding.
type FAQ struct {
	ID           uint      `json:"id"`
	Question     string    `json:"question"`
	Answer       string    `json:"answer"`
	DisplayOrder int       `json:"display_order"`
	IsActive     bool      `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Repository reads the FAQ catalogue.
type Repository interface {
	// GetActive returns active entries ordered by display order, then id.
	GetActive(ctx context.Context) ([]FAQ, error)
}

// Service serves the public FAQ listing.
type Service struct {
	repo Repository
	log  zerolog.Logger
}

func NewService(repo Repository, log zerolog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log.With().Str("component", "faq-service").Logger(),
	}
}

// ListActive returns the active FAQ entries in display order.
func (s *Service) ListActive(ctx context.Context) ([]FAQ, error) {
	faqs, err := s.repo.GetActive(ctx)
	if err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "list faqs")
	}
	return faqs, nil
}
