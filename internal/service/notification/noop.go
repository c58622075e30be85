package notification

import (
	"context"
	"log/slog"
)

// noopService is selected when mail credentials are not configured.
// Every send degrades to a log line.
type noopService struct{}

func NewNoopService() EmailService {
	return noopService{}
}

func (noopService) SendText(ctx context.Context, to []string, subject, body string) error {
	slog.Info("email not sent (no credentials)", "to", to, "subject", subject)
	return nil
}

func (noopService) SendHTML(ctx context.Context, to []string, subject, text, html string) error {
	slog.Info("email not sent (no credentials)", "to", to, "subject", subject)
	return nil
}
