package notification

import "context"

type EmailService interface {
	SendText(ctx context.Context, to []string, subject, body string) error
	SendHTML(ctx context.Context, to []string, subject, text, html string) error
}
