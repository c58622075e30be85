package notification

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

type smtpService struct {
	client *mail.Client
	from   string
}

func NewSMTPService(client *mail.Client, from string) EmailService {
	return &smtpService{
		client: client,
		from:   from,
	}
}

func (s *smtpService) SendText(ctx context.Context, to []string, subject, body string) error {
	return s.send(ctx, to, subject, body, "")
}

func (s *smtpService) SendHTML(ctx context.Context, to []string, subject, text, html string) error {
	return s.send(ctx, to, subject, text, html)
}

func (s *smtpService) send(ctx context.Context, to []string, subject, text, html string) error {
	msg := mail.NewMsg()
	if err := msg.From(s.from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := msg.To(to...); err != nil {
		return fmt.Errorf("mail to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextPlain, text)
	if html != "" {
		msg.AddAlternativeString(mail.TypeTextHTML, html)
	}
	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}
