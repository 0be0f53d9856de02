// Package scoring turns an assessment answer set into a scored result:
// per-pillar percentages, an overall percentage, a band and recommendations.
//
// Engine holds only immutable data and is safe for concurrent use.
package scoring

import (
	"math"
	"slices"

	"github.com/onedigit/site-engine/internal/models"
)

const (
	// weakestPillars is how many low-scoring pillars feed recommendations
	weakestPillars = 3
	// recsPerPillar caps recommendations taken from one pillar
	recsPerPillar = 2
	// maxRecommendations caps the final list
	maxRecommendations = 5
)

// Engine scores answer sets against a fixed catalog
type Engine struct {
	pillars         []models.Pillar
	bands           []models.Band
	recommendations map[string][]string
}

// Option configures an Engine
type Option func(*Engine)

// WithBands replaces the default bands. bands must be ascending and non-empty.
func WithBands(bands []models.Band) Option {
	return func(e *Engine) {
		if len(bands) > 0 {
			e.bands = slices.Clone(bands)
		}
	}
}

// WithRecommendations replaces the default recommendation lists
func WithRecommendations(recs map[string][]string) Option {
	return func(e *Engine) {
		e.recommendations = cloneRecs(recs)
	}
}

// NewEngine creates an engine for the given catalog. The catalog is expected
// to be validated already (see questionbank.Validate).
func NewEngine(pillars []models.Pillar, opts ...Option) *Engine {
	e := &Engine{
		pillars:         slices.Clone(pillars),
		bands:           slices.Clone(DefaultBands),
		recommendations: cloneRecs(DefaultRecommendations),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Bands returns the bands used for classification
func (e *Engine) Bands() []models.Band {
	return slices.Clone(e.bands)
}

// Calculate scores answers. Unanswered questions score the lowest value (1),
// ids not in the catalog are ignored and values are taken as given.
// answers is never modified.
func (e *Engine) Calculate(answers models.AnswerSet) *models.AssessmentResult {
	pillarScores := make([]models.PillarScore, 0, len(e.pillars))
	totalScore, totalMax := 0, 0

	for _, p := range e.pillars {
		score, maxScore := 0, 0
		for _, q := range p.Questions {
			v, ok := answers[q.ID]
			if !ok {
				v = models.DefaultAnswerValue
			}
			score += v
			maxScore += q.MaxValue()
		}

		pillarScores = append(pillarScores, models.PillarScore{
			ID:         p.ID,
			Name:       p.Name,
			Score:      score,
			MaxScore:   maxScore,
			Percentage: percentage(score, maxScore),
		})
		totalScore += score
		totalMax += maxScore
	}

	overall := percentage(totalScore, totalMax)
	band := BandFor(e.bands, overall)

	return &models.AssessmentResult{
		PillarScores:      pillarScores,
		OverallScore:      totalScore,
		OverallPercentage: overall,
		Band:              band.Label,
		BandDescription:   band.Description,
		Recommendations:   e.recommend(pillarScores),
	}
}

// recommend draws up to two recommendations from each of the three weakest
// pillars, weakest first, capped at five. Ties keep catalog order.
func (e *Engine) recommend(scores []models.PillarScore) []string {
	sorted := slices.Clone(scores)
	slices.SortStableFunc(sorted, func(a, b models.PillarScore) int {
		return a.Percentage - b.Percentage
	})

	recs := make([]string, 0, maxRecommendations)
	for i, ps := range sorted {
		if i == weakestPillars {
			break
		}
		candidates := e.recommendations[ps.ID]
		recs = append(recs, candidates[:min(recsPerPillar, len(candidates))]...)
	}

	if len(recs) > maxRecommendations {
		recs = recs[:maxRecommendations]
	}
	return recs
}

// percentage rounds half up, matching the public site's rounding
func percentage(score, maxScore int) int {
	if maxScore == 0 {
		return 0
	}
	return int(math.Floor(float64(score)*100/float64(maxScore) + 0.5))
}

func cloneRecs(src map[string][]string) map[string][]string {
	out := make(map[string][]string, len(src))
	for k, v := range src {
		out[k] = slices.Clone(v)
	}
	return out
}
