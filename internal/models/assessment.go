package models

// Option is a selectable answer carrying an integer score
type Option struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// Question is a single assessment question with ordered options
type Question struct {
	ID      string   `json:"id"`
	Text    string   `json:"text"`
	Options []Option `json:"options"`
}

// MaxValue returns the highest option value, or 4 when the question has no options
func (q Question) MaxValue() int {
	if len(q.Options) == 0 {
		return DefaultMaxOptionValue
	}
	hi := q.Options[0].Value
	for _, o := range q.Options[1:] {
		if o.Value > hi {
			hi = o.Value
		}
	}
	return hi
}

// MinValue returns the lowest option value, or 1 when the question has no options
func (q Question) MinValue() int {
	if len(q.Options) == 0 {
		return DefaultAnswerValue
	}
	lo := q.Options[0].Value
	for _, o := range q.Options[1:] {
		if o.Value < lo {
			lo = o.Value
		}
	}
	return lo
}

// Pillar is a named readiness dimension (e.g., leadership, data-maturity).
// Order of pillars and questions defines the step order of the form.
type Pillar struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Icon        string     `json:"icon,omitempty"`
	Questions   []Question `json:"questions"`
}

const (
	// DefaultAnswerValue is scored for a question that was left unanswered
	DefaultAnswerValue = 1
	// DefaultMaxOptionValue is the max score of a question without options
	DefaultMaxOptionValue = 4
)

// AnswerSet maps question IDs to the selected score
type AnswerSet map[string]int

// PillarScore is the derived score of a single pillar
type PillarScore struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Score      int    `json:"score"`
	MaxScore   int    `json:"maxScore"`
	Percentage int    `json:"percentage"`
}

// AssessmentResult is the scored outcome of one submission
type AssessmentResult struct {
	PillarScores      []PillarScore `json:"pillarScores"`
	OverallScore      int           `json:"overallScore"`
	OverallPercentage int           `json:"overallPercentage"`
	Band              string        `json:"band"`
	BandDescription   string        `json:"bandDescription"`
	Recommendations   []string      `json:"recommendations"`
}

// Band is a qualitative label for an overall percentage range [Min, Max)
type Band struct {
	Min         int    `json:"min"`
	Max         int    `json:"max"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// Contains reports whether pct falls within [Min, Max)
func (b Band) Contains(pct int) bool {
	return pct >= b.Min && pct < b.Max
}
