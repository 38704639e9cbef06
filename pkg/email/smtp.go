package email

import (
	"context"
	"errors"
	"fmt"

	"portfolio-contact-backend/internal/domain"

	"gopkg.in/gomail.v2"
)

// dialer is the subset of *gomail.Dialer used by SMTPTransport
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPTransport sends mail through an SMTP relay (Brevo's by default)
type SMTPTransport struct {
	dialer dialer
}

// NewSMTPTransport creates a transport authenticated with username/password
func NewSMTPTransport(host string, port int, username, password string) (*SMTPTransport, error) {
	if host == "" || username == "" || password == "" {
		return nil, errors.New("smtp: SMTP_HOST, SMTP_USERNAME and SMTP_PASSWORD are required")
	}
	return &SMTPTransport{dialer: gomail.NewDialer(host, port, username, password)}, nil
}

// Send delivers msg. gomail has no context support, so the dial runs in a goroutine
// and Send returns as soon as ctx is done.
func (t *SMTPTransport) Send(ctx context.Context, msg *domain.NotificationMessage) error {
	m := gomail.NewMessage()
	m.SetAddressHeader("From", msg.Sender.Email, msg.Sender.Name)
	m.SetAddressHeader("To", msg.Recipient.Email, msg.Recipient.Name)
	if msg.ReplyTo.Email != "" {
		m.SetAddressHeader("Reply-To", msg.ReplyTo.Email, msg.ReplyTo.Name)
	}
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.TextBody)
	m.AddAlternative("text/html", msg.HTMLBody)

	done := make(chan error, 1)
	go func() {
		done <- t.dialer.DialAndSend(m)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("smtp: send: %w", err)
		}
		return nil
	}
}
