package similarity

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gatherly/backend/internal/models"
)

// CandidateReader fetches an organizer's existing events inside a time
// window. Implemented by the events repository.
type CandidateReader interface {
	ListByOrganizerWithin(ctx context.Context, organizerID uuid.UUID, from, to time.Time) ([]models.Event, error)
}

// Service runs the duplicate check: one bounded candidate read, then pure
// in-memory scoring.
type Service struct {
	reader CandidateReader
	scorer *Scorer
	cfg    Config
}

// NewService creates a similarity service with the given config.
func NewService(reader CandidateReader, cfg Config) *Service {
	return &Service{reader: reader, scorer: NewScorer(cfg), cfg: cfg}
}

// Check scores a proposed event against the organizer's existing events
// within the candidate window. A failed read is a hard error, never a
// "clear" result: defaulting to clear would disable duplicate protection
// exactly when the data layer is unhealthy.
func (s *Service) Check(ctx context.Context, title, location string, startsAt time.Time, organizerID uuid.UUID) (*Assessment, error) {
	from := startsAt.Add(-s.cfg.CandidateWindow)
	to := startsAt.Add(s.cfg.CandidateWindow)
	existing, err := s.reader.ListByOrganizerWithin(ctx, organizerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetch candidate events: %w", err)
	}
	assessment := s.scorer.Assess(Candidate{Title: title, Location: location, StartsAt: startsAt}, existing)
	return &assessment, nil
}
