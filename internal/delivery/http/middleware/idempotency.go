package middleware

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"portfolio-contact-backend/internal/domain"
	"portfolio-contact-backend/pkg/apperror"
	"portfolio-contact-backend/pkg/audit"
	"portfolio-contact-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

const (
	IdempotencyKeyHeader   = "Idempotency-Key"
	IdempotentReplayHeader = "Idempotent-Replayed"
	maxIdempotencyKeyLen   = 128

	// DispatchedKey is set by the submit handler once both branches have been
	// joined. Only those responses are remembered for replay.
	DispatchedKey = "contact.dispatched"

	idempotencyStoreTimeout = 2 * time.Second
)

type bodyCaptureWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *bodyCaptureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyCaptureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency deduplicates POST submissions carrying an Idempotency-Key header.
// A repeat of a completed submission gets the original status and body back
// without touching the store or the mailer; a repeat while the first request is
// still running gets 409. Requests without the header pass through. When the
// backing store is unreachable the request proceeds without deduplication.
func Idempotency(store domain.IdempotencyStore, ttl time.Duration, auditLogger *audit.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if store == nil || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxIdempotencyKeyLen {
			_ = c.Error(apperror.BadRequest("Idempotency-Key must be at most 128 characters"))
			c.Abort()
			return
		}

		stored, err := store.Reserve(c.Request.Context(), key, ttl)
		switch {
		case errors.Is(err, domain.ErrIdempotencyInFlight):
			auditLogger.Log(c.Request.Context(), audit.Event{
				Event:   audit.EventDuplicateSubmission,
				IP:      c.ClientIP(),
				Details: map[string]interface{}{"key": audit.HashValue(key), "in_flight": true},
			})
			_ = c.Error(apperror.Conflict("Submission already in progress"))
			c.Abort()
			return
		case err != nil:
			logger.Log.Warn("Idempotency store unavailable, proceeding without dedupe", "error", err)
			c.Next()
			return
		case stored != nil:
			auditLogger.Log(c.Request.Context(), audit.Event{
				Event:   audit.EventDuplicateSubmission,
				IP:      c.ClientIP(),
				Details: map[string]interface{}{"key": audit.HashValue(key), "status": stored.Status},
			})
			c.Header(IdempotentReplayHeader, "true")
			c.Data(stored.Status, "application/json; charset=utf-8", stored.Body)
			c.Abort()
			return
		}

		capture := &bodyCaptureWriter{ResponseWriter: c.Writer, body: &bytes.Buffer{}}
		c.Writer = capture

		// Recovery sits outside this middleware, so a panic further down the
		// chain must still free the key before it propagates.
		defer func() {
			ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), idempotencyStoreTimeout)
			defer cancel()

			if r := recover(); r != nil {
				releaseIdempotencyKey(ctx, store, key)
				panic(r)
			}
			if !c.GetBool(DispatchedKey) {
				// nothing happened yet, the caller may retry with the same key
				releaseIdempotencyKey(ctx, store, key)
				return
			}
			resp := domain.StoredResponse{Status: capture.Status(), Body: capture.body.Bytes()}
			if err := store.Complete(ctx, key, resp, ttl); err != nil {
				logger.Log.Error("Failed to store idempotent response", "error", err)
			}
		}()

		c.Next()
	}
}

func releaseIdempotencyKey(ctx context.Context, store domain.IdempotencyStore, key string) {
	if err := store.Release(ctx, key); err != nil {
		logger.Log.Warn("Failed to release idempotency key", "error", err)
	}
}
