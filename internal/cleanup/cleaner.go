package cleanup

import (
	"context"
	"log/slog"
	"time"
)

// LeadPurger deletes leads captured before a cutoff
type LeadPurger interface {
	DeleteLeadsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Cleaner periodically purges leads older than the retention period
type Cleaner struct {
	store     LeadPurger
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
}

// NewCleaner creates a new retention worker
func NewCleaner(store LeadPurger, retention, interval time.Duration) *Cleaner {
	if interval <= 0 {
		interval = time.Hour
	}

	return &Cleaner{
		store:     store,
		retention: retention,
		interval:  interval,
		now:       time.Now,
	}
}

// Start begins the retention worker in a goroutine
func (c *Cleaner) Start(ctx context.Context) {
	go c.run(ctx)
}

// run is the main loop for the retention worker
func (c *Cleaner) run(ctx context.Context) {
	slog.Info("retention worker started", "interval", c.interval, "retention", c.retention)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Run immediately on start
	c.cleanup(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("retention worker stopped")
			return
		case <-ticker.C:
			c.cleanup(ctx)
		}
	}
}

// cleanup removes leads older than the retention period
func (c *Cleaner) cleanup(ctx context.Context) int64 {
	cutoff := c.now().Add(-c.retention)
	slog.Debug("running retention cycle", "cutoff", cutoff)

	deleted, err := c.store.DeleteLeadsBefore(ctx, cutoff)
	if err != nil {
		slog.Error("failed to purge expired leads", "error", err)
		return 0
	}

	if deleted > 0 {
		slog.Info("expired leads purged", "count", deleted, "cutoff", cutoff)
	}
	return deleted
}
