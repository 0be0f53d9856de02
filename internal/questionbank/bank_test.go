package questionbank

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onedigit/site-engine/internal/models"
)

func TestDefaultCatalog(t *testing.T) {
	bank, err := Default()
	require.NoError(t, err)

	pillars := bank.Pillars()
	require.Len(t, pillars, 5)

	wantIDs := []string{"leadership", "data-maturity", "platform", "governance", "operations"}
	wantCounts := []int{3, 4, 3, 3, 3}
	for i, p := range pillars {
		assert.Equal(t, wantIDs[i], p.ID)
		assert.Len(t, p.Questions, wantCounts[i], "pillar %s", p.ID)
		for _, q := range p.Questions {
			require.Len(t, q.Options, 4, "question %s", q.ID)
			assert.Equal(t, 4, q.MaxValue())
			assert.Equal(t, 1, q.MinValue())
		}
	}

	assert.Equal(t, 16, bank.QuestionCount())
	assert.Equal(t, "Leadership & Strategy", pillars[0].Name)

	q, ok := bank.Question("d4")
	require.True(t, ok)
	assert.Equal(t, "Do you have data enrichment or augmentation capabilities?", q.Text)

	owner, ok := bank.PillarOf("g2")
	require.True(t, ok)
	assert.Equal(t, "governance", owner)
}

func TestPillarsReturnsCopy(t *testing.T) {
	bank, err := Default()
	require.NoError(t, err)

	first := bank.Pillars()
	first[0].Name = "mutated"
	first[0].Questions[0].Options[0].Value = 99

	second := bank.Pillars()
	assert.Equal(t, "Leadership & Strategy", second[0].Name)
	assert.Equal(t, 1, second[0].Questions[0].Options[0].Value)
}

func TestValidate(t *testing.T) {
	opts := []models.Option{{Label: "a", Value: 1}, {Label: "b", Value: 4}}

	tests := []struct {
		name    string
		pillars []models.Pillar
		wantErr string
	}{
		{
			name:    "no pillars",
			pillars: nil,
			wantErr: "catalog has no pillars",
		},
		{
			name: "missing pillar id",
			pillars: []models.Pillar{
				{Name: "Lead", Questions: []models.Question{{ID: "q1", Options: opts}}},
			},
			wantErr: "id is required",
		},
		{
			name: "missing pillar name",
			pillars: []models.Pillar{
				{ID: "lead", Questions: []models.Question{{ID: "q1", Options: opts}}},
			},
			wantErr: "name is required",
		},
		{
			name: "empty pillar",
			pillars: []models.Pillar{
				{ID: "lead", Name: "Lead"},
			},
			wantErr: "has no questions",
		},
		{
			name: "duplicate question across pillars",
			pillars: []models.Pillar{
				{ID: "a", Name: "A", Questions: []models.Question{{ID: "q1", Options: opts}}},
				{ID: "b", Name: "B", Questions: []models.Question{{ID: "q1", Options: opts}}},
			},
			wantErr: `question "q1": duplicate id`,
		},
		{
			name: "non-positive option",
			pillars: []models.Pillar{
				{ID: "a", Name: "A", Questions: []models.Question{{ID: "q1", Options: []models.Option{{Label: "zero", Value: 0}}}}},
			},
			wantErr: "non-positive value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.pillars)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidCatalog)
			assert.Contains(t, err.Error(), tt.wantErr)

			_, err = New(tt.pillars)
			assert.ErrorIs(t, err, ErrInvalidCatalog)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	data := []byte(`
pillars:
  - id: only
    name: Only
    questions:
      - id: x1
        text: "Pick one"
        options:
          - { label: low, value: 1 }
          - { label: high, value: 5 }
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	bank, err := Load(path)
	require.NoError(t, err)
	require.Len(t, bank.Pillars(), 1)

	q, ok := bank.Question("x1")
	require.True(t, ok)
	assert.Equal(t, 5, q.MaxValue())
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Parse([]byte("pillars: [this is: not valid"))
	assert.Error(t, err)

	_, err = Parse([]byte("pillars:\n  - id: a\n    name: A\n"))
	assert.ErrorIs(t, err, ErrInvalidCatalog)
}

func TestEmptyLoadUsesEmbedded(t *testing.T) {
	bank, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 16, bank.QuestionCount())
}
