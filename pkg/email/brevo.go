package email

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"portfolio-contact-backend/internal/domain"

	brevo "github.com/getbrevo/brevo-go/lib"
)

// BrevoTransport sends mail through the Brevo transactional email API
type BrevoTransport struct {
	client *brevo.APIClient
}

// NewBrevoTransport creates a transport for baseURL (e.g. https://api.brevo.com/v3).
// An empty baseURL keeps the SDK default.
func NewBrevoTransport(apiKey, baseURL string, client *http.Client) (*BrevoTransport, error) {
	if apiKey == "" {
		return nil, errors.New("brevo: BREVO_API_KEY not configured")
	}

	cfg := brevo.NewConfiguration()
	cfg.AddDefaultHeader("api-key", apiKey)
	if baseURL != "" {
		cfg.BasePath = baseURL
	}
	if client != nil {
		cfg.HTTPClient = client
	}
	return &BrevoTransport{client: brevo.NewAPIClient(cfg)}, nil
}

type brevoErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Send submits msg as a transactional email. Any non-2xx status is returned as an error.
func (t *BrevoTransport) Send(ctx context.Context, msg *domain.NotificationMessage) error {
	email := brevo.SendSmtpEmail{
		Sender:      &brevo.SendSmtpEmailSender{Email: msg.Sender.Email, Name: msg.Sender.Name},
		To:          []brevo.SendSmtpEmailTo{{Email: msg.Recipient.Email, Name: msg.Recipient.Name}},
		Subject:     msg.Subject,
		HtmlContent: msg.HTMLBody,
		TextContent: msg.TextBody,
	}
	if msg.ReplyTo.Email != "" {
		email.ReplyTo = &brevo.SendSmtpEmailReplyTo{Email: msg.ReplyTo.Email, Name: msg.ReplyTo.Name}
	}

	_, resp, err := t.client.TransactionalEmailsApi.SendTransacEmail(ctx, email)
	if err == nil {
		return nil
	}

	var apiErr brevo.GenericSwaggerError
	if errors.As(err, &apiErr) && resp != nil {
		var body brevoErrorBody
		if json.Unmarshal(apiErr.Body(), &body) == nil && body.Message != "" {
			return fmt.Errorf("brevo: status %d: %s", resp.StatusCode, body.Message)
		}
		return fmt.Errorf("brevo: status %d", resp.StatusCode)
	}
	return fmt.Errorf("brevo: send: %w", err)
}
