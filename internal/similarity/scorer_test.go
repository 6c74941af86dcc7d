package similarity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherly/backend/internal/models"
)

var baseStart = time.Date(2026, 6, 15, 9, 0, 0, 0, time.UTC)

func existingEvent(title, location string, startsAt time.Time) models.Event {
	return models.Event{
		ID:       uuid.New(),
		Title:    title,
		Location: location,
		StartsAt: startsAt,
	}
}

func TestScoreDeterministic(t *testing.T) {
	s := NewScorer(DefaultConfig())
	c := Candidate{Title: "AI Hackathon 2026", Location: "San Francisco, CA", StartsAt: baseStart}
	e := existingEvent("AI Hackathon 2026", "San Francisco, CA", baseStart.Add(time.Hour))

	first := s.Score(c, e)
	second := s.Score(c, e)
	assert.Equal(t, first, second)
}

func TestIdenticalEventOneHourApartBlocks(t *testing.T) {
	s := NewScorer(DefaultConfig())
	c := Candidate{Title: "AI Hackathon 2026", Location: "San Francisco, CA", StartsAt: baseStart}
	e := existingEvent("AI Hackathon 2026", "San Francisco, CA", baseStart.Add(time.Hour))

	m := s.Score(c, e)
	assert.GreaterOrEqual(t, m.Score, 0.90)
	assert.Equal(t, TierBlock, m.Label)
}

func TestSameTitleDifferentCityDoesNotBlock(t *testing.T) {
	s := NewScorer(DefaultConfig())
	c := Candidate{Title: "AI Hackathon 2026", Location: "Oakland, CA", StartsAt: baseStart}
	e := existingEvent("AI Hackathon 2026", "San Francisco, CA", baseStart)

	m := s.Score(c, e)
	assert.Less(t, m.Score, 0.90)
	assert.NotEqual(t, TierBlock, m.Label)
	assert.NotEqual(t, TierClear, m.Label)
}

func TestUnrelatedEventIsClear(t *testing.T) {
	s := NewScorer(DefaultConfig())
	c := Candidate{Title: "AI Hackathon 2026", Location: "San Francisco, CA", StartsAt: baseStart}
	e := existingEvent("Chess Tournament Finals", "Berlin, Germany", baseStart.Add(10*24*time.Hour))

	m := s.Score(c, e)
	assert.Equal(t, TierClear, m.Label)
}

func TestTierThresholdsInclusive(t *testing.T) {
	s := NewScorer(DefaultConfig())

	tests := []struct {
		score float64
		want  Tier
	}{
		{1.00, TierBlock},
		{0.90, TierBlock},
		{0.899, TierWarn},
		{0.80, TierWarn},
		{0.799, TierLowRisk},
		{0.40, TierLowRisk},
		{0.399, TierClear},
		{0.00, TierClear},
	}
	for _, tt := range tests {
		assert.Equalf(t, tt.want, s.tierFor(tt.score), "score %v", tt.score)
	}
}

func TestTitleSimilarityMonotonic(t *testing.T) {
	s := NewScorer(DefaultConfig())
	c := Candidate{Title: "AI Hackathon 2026", Location: "San Francisco, CA", StartsAt: baseStart}

	exact := s.Score(c, existingEvent("AI Hackathon 2026", "San Francisco, CA", baseStart))
	near := s.Score(c, existingEvent("AI Hackathon 2027", "San Francisco, CA", baseStart))
	far := s.Score(c, existingEvent("Pottery Workshop", "San Francisco, CA", baseStart))

	assert.Greater(t, exact.Score, near.Score)
	assert.Greater(t, near.Score, far.Score)
}

func TestNormalizationIgnoresCasePunctuationAndSpacing(t *testing.T) {
	assert.Equal(t, 1.0, stringSimilarity("AI   Hackathon!!", "ai hackathon"))
	assert.Equal(t, 1.0, stringSimilarity("San-Francisco, CA", "san francisco ca"))
}

func TestReorderedWordsStillMatch(t *testing.T) {
	assert.Equal(t, 1.0, stringSimilarity("Hackathon AI 2026", "AI Hackathon 2026"))
}

func TestEmptyFieldScoresZeroOnThatAxis(t *testing.T) {
	assert.Equal(t, 0.0, stringSimilarity("", "San Francisco"))
	assert.Equal(t, 0.0, stringSimilarity("San Francisco", ""))
	assert.Equal(t, 0.0, stringSimilarity("", ""))

	// With no locations at all, only title and time contribute.
	s := NewScorer(DefaultConfig())
	c := Candidate{Title: "AI Hackathon 2026", StartsAt: baseStart}
	m := s.Score(c, existingEvent("AI Hackathon 2026", "", baseStart))
	assert.InDelta(t, 0.70, m.Score, 1e-9)
}

func TestTimeProximity(t *testing.T) {
	s := NewScorer(DefaultConfig())

	assert.Equal(t, 1.0, s.timeProximity(baseStart, baseStart))
	assert.Equal(t, 1.0, s.timeProximity(baseStart, baseStart.Add(time.Minute)))
	assert.Equal(t, 0.0, s.timeProximity(baseStart, baseStart.Add(48*time.Hour)))
	assert.Equal(t, 0.0, s.timeProximity(baseStart, baseStart.Add(72*time.Hour)))
	assert.InDelta(t, 0.5, s.timeProximity(baseStart, baseStart.Add(24*time.Hour)), 1e-9)
	// Symmetric in either direction.
	assert.InDelta(t, 0.5, s.timeProximity(baseStart.Add(24*time.Hour), baseStart), 1e-9)
}

func TestAssessSortsMatchesDescending(t *testing.T) {
	s := NewScorer(DefaultConfig())
	c := Candidate{Title: "AI Hackathon 2026", Location: "San Francisco, CA", StartsAt: baseStart}

	existing := []models.Event{
		existingEvent("Pottery Workshop", "Berlin, Germany", baseStart.Add(5*24*time.Hour)),
		existingEvent("AI Hackathon 2026", "San Francisco, CA", baseStart.Add(time.Hour)),
		existingEvent("AI Hackathon 2027", "San Francisco, CA", baseStart.Add(48*time.Hour)),
	}

	a := s.Assess(c, existing)
	require.Len(t, a.Matches, 3)
	for i := 1; i < len(a.Matches); i++ {
		assert.GreaterOrEqual(t, a.Matches[i-1].Score, a.Matches[i].Score)
	}
	assert.Equal(t, TierBlock, a.Tier)
	assert.True(t, a.HasDuplicates)
	assert.Equal(t, "AI Hackathon 2026", a.Matches[0].Title)
}

func TestAssessNoCandidates(t *testing.T) {
	s := NewScorer(DefaultConfig())
	c := Candidate{Title: "AI Hackathon 2026", Location: "San Francisco, CA", StartsAt: baseStart}

	a := s.Assess(c, nil)
	assert.Equal(t, TierClear, a.Tier)
	assert.False(t, a.HasDuplicates)
	assert.Empty(t, a.Matches)
}
