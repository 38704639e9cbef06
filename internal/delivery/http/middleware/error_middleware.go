package middleware

import (
	"errors"
	"net/http"

	"portfolio-contact-backend/internal/delivery/http/response"
	"portfolio-contact-backend/pkg/apperror"
	"portfolio-contact-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

const genericErrorMessage = "An unexpected error occurred. Please try again later."

func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		var appErr *apperror.AppError
		if errors.As(err, &appErr) {
			if appErr.Err != nil {
				logger.Log.Warn("Request failed", "status", appErr.Code, "error", appErr.Err, "request_id", c.GetString(response.RequestIDKey))
			}
			response.Error(c, appErr.Code, appErr.Message, appErr.Details)
			return
		}

		// SECURITY: Never expose internal error details to clients.
		logger.Log.Error("Internal Server Error", "error", err, "request_id", c.GetString(response.RequestIDKey))
		response.Error(c, http.StatusInternalServerError, genericErrorMessage, nil)
	}
}

// Recovery turns a panic anywhere below it into a generic 500 and logs the
// value server side only.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		logger.Log.Error("Panic recovered", "panic", recovered, "path", c.Request.URL.Path, "request_id", c.GetString(response.RequestIDKey))
		if !c.Writer.Written() {
			response.Error(c, http.StatusInternalServerError, genericErrorMessage, nil)
		}
		c.Abort()
	})
}
