package email

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"portfolio-contact-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

var (
	testSender    = domain.Mailbox{Email: "site@example.com", Name: "Portfolio"}
	testRecipient = domain.Mailbox{Email: "owner@example.com", Name: "Owner"}
)

func testRecord() *domain.SubmissionRecord {
	return &domain.SubmissionRecord{
		Name:      "Ada",
		Email:     "ada@example.com",
		Message:   "Hello",
		CreatedAt: time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC),
	}
}

func TestBuildNotification(t *testing.T) {
	msg, err := BuildNotification(testRecord(), testSender, testRecipient)
	require.NoError(t, err)

	assert.Equal(t, "New Portfolio Message from Ada", msg.Subject)
	assert.Equal(t, domain.Mailbox{Email: "ada@example.com", Name: "Ada"}, msg.ReplyTo)
	assert.Equal(t, testSender, msg.Sender)
	assert.Equal(t, testRecipient, msg.Recipient)
	assert.Contains(t, msg.HTMLBody, "Hello")
	assert.Contains(t, msg.TextBody, "Email: ada@example.com")
}

func TestBuildNotificationEscapesMarkup(t *testing.T) {
	rec := testRecord()
	rec.Name = "<b>Eve</b>"
	rec.Message = `<script>alert(1)</script> & "more"`

	msg, err := BuildNotification(rec, testSender, testRecipient)
	require.NoError(t, err)

	assert.NotContains(t, msg.HTMLBody, "<script>")
	assert.NotContains(t, msg.HTMLBody, "<b>Eve</b>")
	assert.Contains(t, msg.HTMLBody, "&lt;script&gt;alert(1)&lt;/script&gt; &amp; &#34;more&#34;")
	assert.Contains(t, msg.HTMLBody, "&lt;b&gt;Eve&lt;/b&gt;")
	// the plain text alternative keeps the literal characters
	assert.Contains(t, msg.TextBody, `<script>alert(1)</script> & "more"`)
}

func TestSubjectStripsLineBreaks(t *testing.T) {
	assert.Equal(t, "New Portfolio Message from Ada Bcc: x@example.com", Subject("Ada\r\nBcc: x@example.com"))
}

// brevoWireEmail mirrors the JSON the transactional email endpoint receives
type brevoWireEmail struct {
	Sender      brevoWireContact   `json:"sender"`
	To          []brevoWireContact `json:"to"`
	ReplyTo     *brevoWireContact  `json:"replyTo"`
	Subject     string             `json:"subject"`
	HTMLContent string             `json:"htmlContent"`
	TextContent string             `json:"textContent"`
}

type brevoWireContact struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

func TestBrevoTransportSend(t *testing.T) {
	var got brevoWireEmail
	var apiKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v3/smtp/email", r.URL.Path)
		apiKey = r.Header.Get("api-key")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"messageId":"<abc@smtp-relay.mailin.fr>"}`))
	}))
	defer srv.Close()

	tr, err := NewBrevoTransport("secret", srv.URL+"/v3", srv.Client())
	require.NoError(t, err)

	msg, err := BuildNotification(testRecord(), testSender, testRecipient)
	require.NoError(t, err)
	require.NoError(t, tr.Send(context.Background(), msg))

	assert.Equal(t, "secret", apiKey)
	assert.Equal(t, "New Portfolio Message from Ada", got.Subject)
	assert.Equal(t, testSender.Email, got.Sender.Email)
	require.NotNil(t, got.ReplyTo)
	assert.Equal(t, "ada@example.com", got.ReplyTo.Email)
	assert.Equal(t, []brevoWireContact{{Email: "owner@example.com", Name: "Owner"}}, got.To)
	assert.Contains(t, got.HTMLContent, "Hello")
}

func TestBrevoTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":"unauthorized","message":"Key not found"}`))
	}))
	defer srv.Close()

	tr, err := NewBrevoTransport("bad", srv.URL, srv.Client())
	require.NoError(t, err)

	err = tr.Send(context.Background(), &domain.NotificationMessage{Subject: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401: Key not found")
}

func TestNewBrevoTransportRequiresKey(t *testing.T) {
	_, err := NewBrevoTransport("", "https://api.brevo.com/v3", nil)
	assert.Error(t, err)
}

type fakeDialer struct {
	delay time.Duration
	err   error
	sent  []*gomail.Message
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	time.Sleep(d.delay)
	d.sent = append(d.sent, m...)
	return d.err
}

func TestSMTPTransportSend(t *testing.T) {
	d := &fakeDialer{}
	tr := &SMTPTransport{dialer: d}

	msg, err := BuildNotification(testRecord(), testSender, testRecipient)
	require.NoError(t, err)
	require.NoError(t, tr.Send(context.Background(), msg))

	require.Len(t, d.sent, 1)
	assert.Equal(t, []string{"New Portfolio Message from Ada"}, d.sent[0].GetHeader("Subject"))
	assert.Equal(t, []string{`"Ada" <ada@example.com>`}, d.sent[0].GetHeader("Reply-To"))
}

func TestSMTPTransportHonoursContext(t *testing.T) {
	tr := &SMTPTransport{dialer: &fakeDialer{delay: 200 * time.Millisecond}}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := tr.Send(ctx, &domain.NotificationMessage{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSMTPTransportError(t *testing.T) {
	tr := &SMTPTransport{dialer: &fakeDialer{err: errors.New("535 auth failed")}}
	err := tr.Send(context.Background(), &domain.NotificationMessage{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "535 auth failed")
}

type recordingTransport struct {
	msgs []*domain.NotificationMessage
	err  error
}

func (r *recordingTransport) Send(ctx context.Context, msg *domain.NotificationMessage) error {
	r.msgs = append(r.msgs, msg)
	return r.err
}

func TestEmailServiceNotify(t *testing.T) {
	tr := &recordingTransport{}
	svc := NewEmailService(tr, testSender, testRecipient)
	require.True(t, svc.IsConfigured())

	require.NoError(t, svc.Notify(context.Background(), testRecord()))
	require.Len(t, tr.msgs, 1)
	assert.Equal(t, "ada@example.com", tr.msgs[0].ReplyTo.Email)
}

func TestEmailServiceUnconfigured(t *testing.T) {
	svc := NewEmailService(nil, testSender, testRecipient)
	assert.False(t, svc.IsConfigured())

	err := svc.Notify(context.Background(), testRecord())
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
}
