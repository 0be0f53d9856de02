package notify

import (
	"context"
	"log/slog"
)

// LogNotifier writes notifications to the structured log. It stands in for
// SMTP when no relay is configured.
type LogNotifier struct {
	BaseNotifier
	to string
}

// NewLogNotifier creates a log notifier
func NewLogNotifier(to string) *LogNotifier {
	return &LogNotifier{
		BaseNotifier: BaseNotifier{name: "log"},
		to:           to,
	}
}

// Notify logs the notification envelope without the respondent's address
func (l *LogNotifier) Notify(ctx context.Context, n *Notification) error {
	attrs := []any{
		"to", l.to,
		"kind", n.Kind,
		"subject", n.Subject,
		"body_length", len(n.HTML),
	}
	if n.Lead != nil {
		attrs = append(attrs, "lead_id", n.Lead.ID, "email", n.Lead.Respondent.MaskedEmail())
	}
	slog.InfoContext(ctx, "smtp not configured, notification logged", attrs...)
	return nil
}

// HealthCheck always succeeds
func (l *LogNotifier) HealthCheck(ctx context.Context) error {
	return nil
}
