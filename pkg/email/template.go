package email

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	texttemplate "text/template"

	"portfolio-contact-backend/internal/domain"
)

// SubjectPrefix precedes the submitter's name in the notification subject.
const SubjectPrefix = "New Portfolio Message from "

// notificationData holds the fields interpolated into the email templates
type notificationData struct {
	Name    string
	Email   string
	Message string
	Sent    string
}

// notificationHTMLTemplate is rendered with html/template so submitted text is escaped
const notificationHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>New Contact Form Submission</title>
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .label { font-weight: bold; color: #555; }
        .message-box { background: #f9f9f9; padding: 15px; border-left: 4px solid #0066cc; white-space: pre-wrap; }
        .footer { padding-top: 20px; color: #888; font-size: 12px; }
    </style>
</head>
<body>
    <div class="container">
        <p>You received a new message from your portfolio contact form:</p>
        <hr>
        <p><span class="label">Name:</span> {{.Name}}</p>
        <p><span class="label">Email:</span> {{.Email}}</p>
        <p class="label">Message:</p>
        <div class="message-box">{{.Message}}</div>
        <div class="footer">
            <p>Received {{.Sent}}. Reply to this email to answer {{.Name}} directly.</p>
        </div>
    </div>
</body>
</html>`

const notificationTextTemplate = `You received a new message from your portfolio contact form:

Name: {{.Name}}
Email: {{.Email}}
Received: {{.Sent}}

Message:
{{.Message}}
`

var (
	htmlTmpl = template.Must(template.New("notification_html").Parse(notificationHTMLTemplate))
	textTmpl = texttemplate.Must(texttemplate.New("notification_text").Parse(notificationTextTemplate))
)

// BuildNotification renders the operator email for rec. Name, email and message
// are HTML-escaped in the HTML body; the plain text body carries them verbatim.
func BuildNotification(rec *domain.SubmissionRecord, sender, recipient domain.Mailbox) (*domain.NotificationMessage, error) {
	data := notificationData{
		Name:    rec.Name,
		Email:   rec.Email,
		Message: rec.Message,
		Sent:    rec.CreatedAt.UTC().Format("2006-01-02 15:04:05 MST"),
	}

	var html bytes.Buffer
	if err := htmlTmpl.Execute(&html, data); err != nil {
		return nil, fmt.Errorf("failed to execute email template: %w", err)
	}
	var text bytes.Buffer
	if err := textTmpl.Execute(&text, data); err != nil {
		return nil, fmt.Errorf("failed to execute text template: %w", err)
	}

	return &domain.NotificationMessage{
		Subject:   Subject(rec.Name),
		HTMLBody:  html.String(),
		TextBody:  text.String(),
		Sender:    sender,
		Recipient: recipient,
		ReplyTo:   domain.Mailbox{Email: headerSafe(rec.Email), Name: headerSafe(rec.Name)},
	}, nil
}

// Subject derives the notification subject from the submitter's name.
func Subject(name string) string {
	return SubjectPrefix + headerSafe(name)
}

// headerSafe collapses line breaks so user input cannot add mail headers
func headerSafe(v string) string {
	return strings.Join(strings.Fields(strings.NewReplacer("\r", " ", "\n", " ").Replace(v)), " ")
}
