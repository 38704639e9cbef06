package middleware

import (
	"net/http"
	"strings"

	"portfolio-contact-backend/internal/domain"

	"github.com/gin-gonic/gin"
)

var devOrigins = map[string]bool{
	"http://localhost:3000": true,
	"http://127.0.0.1:3000": true,
	"http://localhost:5173": true,
}

// CORSMiddleware adds CORS headers for the portfolio site.
//
// SECURITY: only origins from CORS_ALLOWED_ORIGINS are echoed back. Localhost
// origins are accepted outside production. A preflight from any other origin
// is rejected with 403 before it reaches a handler; allowed preflights fall
// through so the route can answer with its own Allow header.
func CORSMiddleware(allowedOrigins []string, isProduction bool) gin.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[strings.TrimSuffix(o, "/")] = true
	}

	allowMethods := strings.Join(domain.SubmitAllowedMethods(), ", ")

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")

		isAllowed := origin == "" || allowed[origin] || (!isProduction && devOrigins[origin])

		if isAllowed && origin != "" {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Headers", "Content-Type, Idempotency-Key, X-Request-ID")
			c.Header("Access-Control-Allow-Methods", allowMethods)
			c.Header("Access-Control-Allow-Credentials", "true")
			c.Header("Access-Control-Expose-Headers", "X-Request-ID, Idempotent-Replayed")
			c.Header("Access-Control-Max-Age", "86400")
		}

		// Vary header to ensure caches differentiate by Origin
		c.Header("Vary", "Origin")

		if c.Request.Method == http.MethodOptions && !isAllowed {
			c.AbortWithStatus(http.StatusForbidden)
			return
		}

		c.Next()
	}
}
