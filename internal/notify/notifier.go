package notify

import (
	"context"

	"github.com/onedigit/site-engine/internal/models"
)

// Notification is a rendered lead alert ready for delivery
type Notification struct {
	Kind    models.LeadKind `json:"kind"`
	Subject string          `json:"subject"`
	Text    string          `json:"text"`
	HTML    string          `json:"-"`
	Lead    *models.Lead    `json:"lead"`
}

// Notifier defines the interface for a notification channel
type Notifier interface {
	// Notify delivers a single notification
	Notify(ctx context.Context, n *Notification) error

	// Name returns the channel name
	Name() string

	// HealthCheck checks if the channel is available
	HealthCheck(ctx context.Context) error
}

// BaseNotifier provides common functionality for notifiers
type BaseNotifier struct {
	name string
}

// Name returns the channel name
func (n *BaseNotifier) Name() string {
	return n.name
}
