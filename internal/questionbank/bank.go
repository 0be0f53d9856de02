// Package questionbank holds the static AI-readiness catalog. The catalog is
// parsed and validated once at startup and is read-only afterwards.
package questionbank

import (
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/onedigit/site-engine/internal/models"
)

// ErrInvalidCatalog is returned when the catalog fails validation
var ErrInvalidCatalog = errors.New("invalid question catalog")

//go:embed default.yaml
var defaultCatalog []byte

// Bank is a validated, immutable question catalog
type Bank struct {
	pillars   []models.Pillar
	questions map[string]models.Question
	pillarOf  map[string]string
}

// New validates pillars and builds a Bank from a private copy of them
func New(pillars []models.Pillar) (*Bank, error) {
	if err := Validate(pillars); err != nil {
		return nil, err
	}

	b := &Bank{
		pillars:   clonePillars(pillars),
		questions: make(map[string]models.Question),
		pillarOf:  make(map[string]string),
	}
	for _, p := range b.pillars {
		for _, q := range p.Questions {
			b.questions[q.ID] = q
			b.pillarOf[q.ID] = p.ID
		}
	}
	return b, nil
}

// Default returns the embedded catalog
func Default() (*Bank, error) {
	return Parse(defaultCatalog)
}

// Load reads the catalog from path, or the embedded catalog when path is empty
func Load(path string) (*Bank, error) {
	if path == "" {
		slog.Info("loading embedded question catalog")
		return Default()
	}

	slog.Info("loading question catalog", "path", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog and validates it
func Parse(data []byte) (*Bank, error) {
	var cf catalogFile
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}

	pillars := make([]models.Pillar, 0, len(cf.Pillars))
	for _, pf := range cf.Pillars {
		p := models.Pillar{
			ID:          pf.ID,
			Name:        pf.Name,
			Description: pf.Description,
			Icon:        pf.Icon,
			Questions:   make([]models.Question, 0, len(pf.Questions)),
		}
		for _, qf := range pf.Questions {
			q := models.Question{ID: qf.ID, Text: qf.Text, Options: make([]models.Option, 0, len(qf.Options))}
			for _, of := range qf.Options {
				q.Options = append(q.Options, models.Option{Label: of.Label, Value: of.Value})
			}
			p.Questions = append(p.Questions, q)
		}
		pillars = append(pillars, p)
	}

	b, err := New(pillars)
	if err != nil {
		return nil, err
	}

	slog.Info("question catalog loaded", "pillars", len(b.pillars), "questions", len(b.questions))
	return b, nil
}

// Validate checks catalog invariants: non-empty pillar ids and names, at
// least one question per pillar, question ids unique across the catalog,
// and positive option values.
func Validate(pillars []models.Pillar) error {
	var errs []error
	if len(pillars) == 0 {
		errs = append(errs, errors.New("catalog has no pillars"))
	}

	pillarIDs := make(map[string]bool)
	questionIDs := make(map[string]string)

	for i, p := range pillars {
		if p.ID == "" {
			errs = append(errs, fmt.Errorf("pillar %d: id is required", i))
		} else if pillarIDs[p.ID] {
			errs = append(errs, fmt.Errorf("pillar %q: duplicate id", p.ID))
		}
		pillarIDs[p.ID] = true

		if p.Name == "" {
			errs = append(errs, fmt.Errorf("pillar %q: name is required", p.ID))
		}
		if len(p.Questions) == 0 {
			errs = append(errs, fmt.Errorf("pillar %q: has no questions", p.ID))
		}

		for j, q := range p.Questions {
			if q.ID == "" {
				errs = append(errs, fmt.Errorf("pillar %q question %d: id is required", p.ID, j))
				continue
			}
			if owner, seen := questionIDs[q.ID]; seen {
				errs = append(errs, fmt.Errorf("question %q: duplicate id (already in pillar %q)", q.ID, owner))
			}
			questionIDs[q.ID] = p.ID

			for _, o := range q.Options {
				if o.Value <= 0 {
					errs = append(errs, fmt.Errorf("question %q: option %q has non-positive value %d", q.ID, o.Label, o.Value))
				}
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidCatalog, errors.Join(errs...))
	}
	return nil
}

// Pillars returns the ordered catalog. The returned slice is a copy.
func (b *Bank) Pillars() []models.Pillar {
	return clonePillars(b.pillars)
}

// Question looks up a question by id
func (b *Bank) Question(id string) (models.Question, bool) {
	q, ok := b.questions[id]
	return q, ok
}

// PillarOf returns the id of the pillar that owns a question
func (b *Bank) PillarOf(questionID string) (string, bool) {
	id, ok := b.pillarOf[questionID]
	return id, ok
}

// QuestionCount returns the number of questions across all pillars
func (b *Bank) QuestionCount() int {
	return len(b.questions)
}

func clonePillars(src []models.Pillar) []models.Pillar {
	out := make([]models.Pillar, len(src))
	for i, p := range src {
		out[i] = p
		out[i].Questions = make([]models.Question, len(p.Questions))
		for j, q := range p.Questions {
			out[i].Questions[j] = q
			out[i].Questions[j].Options = append([]models.Option(nil), q.Options...)
		}
	}
	return out
}

// --- YAML file structs ---

type catalogFile struct {
	Pillars []pillarFile `yaml:"pillars"`
}

type pillarFile struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Icon        string         `yaml:"icon"`
	Questions   []questionFile `yaml:"questions"`
}

type questionFile struct {
	ID      string       `yaml:"id"`
	Text    string       `yaml:"text"`
	Options []optionFile `yaml:"options"`
}

type optionFile struct {
	Label string `yaml:"label"`
	Value int    `yaml:"value"`
}
