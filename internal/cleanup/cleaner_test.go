package cleanup

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onedigit/site-engine/internal/models"
	"github.com/onedigit/site-engine/internal/storage"
)

func TestCleanupPurgesExpiredLeads(t *testing.T) {
	repo := storage.NewMemoryRepository()
	ctx := context.Background()
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	for i, age := range []time.Duration{time.Hour, 400 * 24 * time.Hour, 500 * 24 * time.Hour} {
		require.NoError(t, repo.CreateLead(ctx, &models.Lead{
			ID:        string(rune('a' + i)),
			Kind:      models.LeadContact,
			CreatedAt: now.Add(-age),
		}))
	}

	c := NewCleaner(repo, 365*24*time.Hour, time.Hour)
	c.now = func() time.Time { return now }

	assert.Equal(t, int64(2), c.cleanup(ctx))

	leads, err := repo.ListLeads(ctx, models.LeadFilters{})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "a", leads[0].ID)

	assert.Zero(t, c.cleanup(ctx))
}

type countingPurger struct {
	calls atomic.Int32
	err   error
}

func (p *countingPurger) DeleteLeadsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	p.calls.Add(1)
	return 0, p.err
}

func TestStartRunsImmediatelyAndStops(t *testing.T) {
	p := &countingPurger{err: errors.New("db down")}
	c := NewCleaner(p, time.Hour, 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	c.Start(ctx)

	require.Eventually(t, func() bool { return p.calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	time.Sleep(30 * time.Millisecond)
	stopped := p.calls.Load()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, stopped, p.calls.Load())
}

func TestNewCleanerDefaultInterval(t *testing.T) {
	c := NewCleaner(&countingPurger{}, time.Hour, 0)
	assert.Equal(t, time.Hour, c.interval)
}
