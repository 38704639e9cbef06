package v1

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"portfolio-contact-backend/internal/delivery/http/middleware"
	"portfolio-contact-backend/internal/delivery/http/response"
	"portfolio-contact-backend/internal/domain"
	"portfolio-contact-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
)

const maxSubmissionBytes = 64 << 10

type ContactHandler struct {
	contactUC domain.ContactUsecase
}

// SubmitResult is the data attached to a submit response
type SubmitResult struct {
	RecordID           string         `json:"record_id,omitempty"`
	Store              domain.Outcome `json:"store"`
	Email              domain.Outcome `json:"email"`
	NotificationQueued bool           `json:"notification_queued,omitempty"`
}

// NewContactHandler registers the submit endpoint on /submit and its /v1/contact
// alias. Every method is routed to the handler so the method gate answers 405.
func NewContactHandler(root, v1 gin.IRoutes, contactUC domain.ContactUsecase, mw ...gin.HandlerFunc) {
	handler := &ContactHandler{
		contactUC: contactUC,
	}

	chain := append(append([]gin.HandlerFunc{}, mw...), handler.Submit)
	root.Any("/submit", chain...)
	v1.Any("/contact", chain...)
}

// Submit godoc
// @Summary      Submit Contact Form
// @Description  Stores the submission and emails the site owner. Both happen concurrently; a 500 names the branch that failed.
// @Tags         contact
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header    string                 false  "Deduplicates retries of the same submission"
// @Param        contact          body      map[string]string      true   "name, email and message"
// @Success      200              {object}  response.Response
// @Failure      400              {object}  response.Response
// @Failure      405              {object}  response.Response
// @Failure      409              {object}  response.Response
// @Failure      500              {object}  response.Response
// @Router       /contact [post]
func (h *ContactHandler) Submit(c *gin.Context) {
	if c.Request.Method == http.MethodOptions {
		allow := strings.Join(domain.SubmitAllowedMethods(), ", ")
		c.Header("Allow", allow)
		c.Header("Access-Control-Allow-Methods", allow)
		c.Status(http.StatusOK)
		return
	}

	var fields map[string]string
	if c.Request.Method == http.MethodPost {
		fields = readFields(c)
	}

	req, err := h.contactUC.ValidateSubmission(c.Request.Method, fields)
	if err != nil {
		var notAllowed *domain.MethodNotAllowedError
		var missing *domain.MissingFieldsError
		switch {
		case errors.As(err, &notAllowed):
			c.Header("Allow", strings.Join(notAllowed.Allowed, ", "))
			_ = c.Error(apperror.MethodNotAllowed(notAllowed.Error()))
		case errors.As(err, &missing):
			_ = c.Error(apperror.BadRequest("Missing required fields").WithDetails(gin.H{"missing": missing.Fields}))
		default:
			_ = c.Error(apperror.Internal(err))
		}
		return
	}

	req.ClientIP = c.ClientIP()
	req.ClientUserAgent = c.Request.UserAgent()
	req.IdempotencyKey = strings.TrimSpace(c.GetHeader(middleware.IdempotencyKeyHeader))

	result := h.contactUC.Submit(c.Request.Context(), req)
	c.Set(middleware.DispatchedKey, true)

	data := SubmitResult{
		RecordID:           result.RecordID,
		Store:              result.Store,
		Email:              result.Notification,
		NotificationQueued: result.NotificationQueued,
	}
	if result.State() == domain.BothSucceeded {
		response.Success(c, http.StatusOK, domain.SuccessMessage, data)
		return
	}
	response.Error(c, http.StatusInternalServerError, result.ErrorText(), data)
}

// readFields extracts the string fields of a JSON object or a form body.
// An empty, oversized or malformed body yields no fields, which the validator
// reports as missing.
func readFields(c *gin.Context) map[string]string {
	fields := map[string]string{}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxSubmissionBytes)

	switch c.ContentType() {
	case gin.MIMEPOSTForm, gin.MIMEMultipartPOSTForm:
		for _, k := range []string{"name", "email", "message"} {
			if v, ok := c.GetPostForm(k); ok {
				fields[k] = v
			}
		}
		return fields
	}

	raw, err := io.ReadAll(c.Request.Body)
	if err != nil || len(raw) == 0 {
		return fields
	}
	var body map[string]interface{}
	if err := json.Unmarshal(raw, &body); err != nil {
		return fields
	}
	for k, v := range body {
		if s, ok := v.(string); ok {
			fields[k] = s
		}
	}
	return fields
}
