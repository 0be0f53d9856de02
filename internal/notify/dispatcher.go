package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultSendTimeout bounds a single delivery attempt
const DefaultSendTimeout = 15 * time.Second

// Dispatcher fans notifications out to every registered channel without
// blocking the caller
type Dispatcher struct {
	registry *Registry
	timeout  time.Duration
	wg       sync.WaitGroup
}

// NewDispatcher creates a dispatcher over the registry
func NewDispatcher(registry *Registry, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = DefaultSendTimeout
	}
	return &Dispatcher{
		registry: registry,
		timeout:  timeout,
	}
}

// Dispatch delivers n to every notifier on background goroutines
func (d *Dispatcher) Dispatch(n *Notification) {
	if n == nil {
		return
	}

	for _, notifier := range d.registry.All() {
		d.wg.Add(1)
		go func(notifier Notifier) {
			defer d.wg.Done()
			d.send(notifier, n)
		}(notifier)
	}
}

func (d *Dispatcher) send(notifier Notifier, n *Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	start := time.Now()
	if err := notifier.Notify(ctx, n); err != nil {
		slog.Error("notification failed",
			"notifier", notifier.Name(),
			"kind", n.Kind,
			"error", err,
		)
		return
	}

	slog.Debug("notification sent",
		"notifier", notifier.Name(),
		"kind", n.Kind,
		"duration", time.Since(start),
	)
}

// Wait blocks until in-flight deliveries finish or ctx is done
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
