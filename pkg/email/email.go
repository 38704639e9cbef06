package email

import (
	"context"
	"fmt"
	"net/http"

	"portfolio-contact-backend/config"
	"portfolio-contact-backend/internal/domain"
)

// Transport delivers a rendered notification
type Transport interface {
	Send(ctx context.Context, msg *domain.NotificationMessage) error
}

// EmailService renders and sends operator notifications. It implements domain.Notifier.
type EmailService struct {
	transport Transport
	sender    domain.Mailbox
	recipient domain.Mailbox
}

// NewEmailService creates a service; a nil transport leaves it unconfigured.
func NewEmailService(transport Transport, sender, recipient domain.Mailbox) *EmailService {
	return &EmailService{
		transport: transport,
		sender:    sender,
		recipient: recipient,
	}
}

// NewTransportFromConfig builds the transport selected by EMAIL_PROVIDER
func NewTransportFromConfig(cfg *config.Config) (Transport, error) {
	switch cfg.EmailProvider {
	case config.EmailProviderBrevo:
		t, err := NewBrevoTransport(cfg.BrevoAPIKey, cfg.BrevoAPIURL, &http.Client{})
		if err != nil {
			return nil, err
		}
		return t, nil
	case config.EmailProviderSMTP:
		t, err := NewSMTPTransport(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword)
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unknown EMAIL_PROVIDER %q", cfg.EmailProvider)
	}
}

// OperatorMailboxes returns the sender and recipient identities from configuration
func OperatorMailboxes(cfg *config.Config) (sender, recipient domain.Mailbox) {
	return domain.Mailbox{Email: cfg.SenderEmail, Name: cfg.SenderName},
		domain.Mailbox{Email: cfg.RecipientEmail, Name: cfg.RecipientName}
}

// IsConfigured checks that a transport and both operator addresses are present
func (s *EmailService) IsConfigured() bool {
	return s != nil && s.transport != nil && s.sender.Email != "" && s.recipient.Email != ""
}

// Notify sends the notification for rec to the operator
func (s *EmailService) Notify(ctx context.Context, rec *domain.SubmissionRecord) error {
	if !s.IsConfigured() {
		return fmt.Errorf("email service is not configured: %w", domain.ErrServiceUnavailable)
	}

	msg, err := BuildNotification(rec, s.sender, s.recipient)
	if err != nil {
		return err
	}
	if err := s.transport.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}
