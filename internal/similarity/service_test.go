package similarity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherly/backend/internal/models"
)

type stubReader struct {
	events []models.Event
	err    error

	gotOrganizer uuid.UUID
	gotFrom      time.Time
	gotTo        time.Time
}

func (r *stubReader) ListByOrganizerWithin(_ context.Context, organizerID uuid.UUID, from, to time.Time) ([]models.Event, error) {
	r.gotOrganizer = organizerID
	r.gotFrom = from
	r.gotTo = to
	return r.events, r.err
}

func TestCheckBoundsCandidateFetch(t *testing.T) {
	reader := &stubReader{}
	svc := NewService(reader, DefaultConfig())
	organizer := uuid.New()

	a, err := svc.Check(context.Background(), "AI Hackathon 2026", "San Francisco, CA", baseStart, organizer)
	require.NoError(t, err)
	assert.Equal(t, TierClear, a.Tier)

	assert.Equal(t, organizer, reader.gotOrganizer)
	assert.Equal(t, baseStart.Add(-30*24*time.Hour), reader.gotFrom)
	assert.Equal(t, baseStart.Add(30*24*time.Hour), reader.gotTo)
}

func TestCheckScoresFetchedEvents(t *testing.T) {
	dup := existingEvent("AI Hackathon 2026", "San Francisco, CA", baseStart.Add(time.Hour))
	reader := &stubReader{events: []models.Event{dup}}
	svc := NewService(reader, DefaultConfig())

	a, err := svc.Check(context.Background(), "AI Hackathon 2026", "San Francisco, CA", baseStart, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, TierBlock, a.Tier)
	assert.True(t, a.HasDuplicates)
	require.Len(t, a.Matches, 1)
	assert.Equal(t, dup.ID, a.Matches[0].EventID)
}

func TestCheckPropagatesFetchFailure(t *testing.T) {
	readErr := errors.New("connection refused")
	svc := NewService(&stubReader{err: readErr}, DefaultConfig())

	a, err := svc.Check(context.Background(), "AI Hackathon 2026", "San Francisco, CA", baseStart, uuid.New())
	assert.Nil(t, a)
	require.Error(t, err)
	assert.ErrorIs(t, err, readErr)
}
