package notify

import (
	"context"
	"log/slog"
)

// Log is a Notifier that only records the notification. Used when no SMTP
// relay is configured, and as the default in tests.
type Log struct{}

func (Log) Notify(ctx context.Context, recipientEmail, kind string, payload map[string]string) error {
	slog.Info("notification", "recipient", recipientEmail, "kind", kind, "payload", payload)
	return nil
}
