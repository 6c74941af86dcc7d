// Package similarity scores a proposed event against an organizer's existing
// events and maps the result to a risk tier. Scoring is pure and
// deterministic; the caller decides what to do with the advice.
package similarity

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/gatherly/backend/internal/models"
)

// Tier is the outcome of the duplicate-detection policy.
type Tier string

const (
	TierClear   Tier = "clear"
	TierLowRisk Tier = "low_risk"
	TierWarn    Tier = "warn"
	TierBlock   Tier = "block"
)

// Config holds scoring weights and policy thresholds. These are algorithm
// tuning, not deployment config, so they live here rather than in env vars.
type Config struct {
	TitleWeight    float64
	LocationWeight float64
	TimeWeight     float64

	// TimeWindow is the gap at which temporal proximity decays to zero.
	TimeWindow time.Duration
	// CandidateWindow bounds the fetch of existing events around the
	// candidate start time.
	CandidateWindow time.Duration

	// Thresholds use inclusive lower bounds: score >= BlockThreshold blocks.
	BlockThreshold   float64
	WarnThreshold    float64
	LowRiskThreshold float64
}

// DefaultConfig returns the standard weights and thresholds.
func DefaultConfig() Config {
	return Config{
		TitleWeight:      0.55,
		LocationWeight:   0.30,
		TimeWeight:       0.15,
		TimeWindow:       48 * time.Hour,
		CandidateWindow:  30 * 24 * time.Hour,
		BlockThreshold:   0.90,
		WarnThreshold:    0.80,
		LowRiskThreshold: 0.40,
	}
}

// Candidate is the proposed event being checked.
type Candidate struct {
	Title    string
	Location string
	StartsAt time.Time
}

// Match is one scored comparison against an existing event.
type Match struct {
	EventID uuid.UUID `json:"similar_event_id"`
	Title   string    `json:"similar_event_title"`
	Score   float64   `json:"score"`
	Label   Tier      `json:"label"`
}

// Assessment is the result of a duplicate check.
type Assessment struct {
	HasDuplicates bool    `json:"hasDuplicates"`
	Tier          Tier    `json:"assessment"`
	Matches       []Match `json:"matches"`
}

// Scorer computes composite similarity scores under a Config.
type Scorer struct {
	cfg Config
}

// NewScorer creates a scorer. A zero-weight config would score everything 0,
// so callers normally pass DefaultConfig().
func NewScorer(cfg Config) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score compares a candidate against one existing event and returns its
// match entry.
func (s *Scorer) Score(c Candidate, existing models.Event) Match {
	title := stringSimilarity(c.Title, existing.Title)
	location := stringSimilarity(c.Location, existing.Location)
	proximity := s.timeProximity(c.StartsAt, existing.StartsAt)

	score := s.cfg.TitleWeight*title + s.cfg.LocationWeight*location + s.cfg.TimeWeight*proximity
	score = clamp01(score)

	return Match{
		EventID: existing.ID,
		Title:   existing.Title,
		Score:   score,
		Label:   s.tierFor(score),
	}
}

// Assess scores all candidates, sorts matches by descending score and maps
// the maximum score to a tier. Zero candidates yield a clear assessment with
// an empty match list.
func (s *Scorer) Assess(c Candidate, existing []models.Event) Assessment {
	matches := make([]Match, 0, len(existing))
	for _, e := range existing {
		matches = append(matches, s.Score(c, e))
	}
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Score > matches[j].Score })

	tier := TierClear
	if len(matches) > 0 {
		tier = s.tierFor(matches[0].Score)
	}
	return Assessment{
		HasDuplicates: tier != TierClear,
		Tier:          tier,
		Matches:       matches,
	}
}

func (s *Scorer) tierFor(score float64) Tier {
	switch {
	case score >= s.cfg.BlockThreshold:
		return TierBlock
	case score >= s.cfg.WarnThreshold:
		return TierWarn
	case score >= s.cfg.LowRiskThreshold:
		return TierLowRisk
	default:
		return TierClear
	}
}

// timeProximity is 1.0 when starts are within a minute of each other and
// decays linearly to 0 at the configured window.
func (s *Scorer) timeProximity(a, b time.Time) float64 {
	gap := a.Sub(b)
	if gap < 0 {
		gap = -gap
	}
	if gap <= time.Minute {
		return 1.0
	}
	if gap >= s.cfg.TimeWindow {
		return 0
	}
	return 1.0 - float64(gap)/float64(s.cfg.TimeWindow)
}

// stringSimilarity returns a [0,1] similarity of two normalized strings:
// the larger of token-set Jaccard overlap and Levenshtein ratio, so both
// reordered words and small edits register. Empty input scores 0.
func stringSimilarity(a, b string) float64 {
	na, nb := normalize(a), normalize(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1.0
	}
	j := jaccard(strings.Fields(na), strings.Fields(nb))
	l := levenshteinRatio(na, nb)
	if j > l {
		return j
	}
	return l
}

// normalize lowercases, strips punctuation and collapses whitespace.
func normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func jaccard(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	set := make(map[string]struct{}, len(a))
	for _, t := range a {
		set[t] = struct{}{}
	}
	union := len(set)
	inter := 0
	seen := make(map[string]struct{}, len(b))
	for _, t := range b {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := set[t]; ok {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}

func levenshteinRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 0
	}
	return 1.0 - float64(levenshtein(ra, rb))/float64(longest)
}

func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min3(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}

func clamp01(f float64) float64 {
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}
