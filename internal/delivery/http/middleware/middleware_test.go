package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"portfolio-contact-backend/internal/domain"
	"portfolio-contact-backend/pkg/apperror"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	var fromCtx string
	r.GET("/", func(c *gin.Context) {
		fromCtx, _ = c.Request.Context().Value(domain.KeyRequestID).(string)
		c.Status(http.StatusNoContent)
	})

	t.Run("Should generate an id", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		id := w.Header().Get(RequestIDHeader)
		_, err := uuid.Parse(id)
		assert.NoError(t, err)
		assert.Equal(t, id, fromCtx)
	})

	t.Run("Should keep a valid caller id", func(t *testing.T) {
		id := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, id)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, id, w.Header().Get(RequestIDHeader))
	})

	t.Run("Should replace a malformed caller id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "<script>")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.NotEqual(t, "<script>", w.Header().Get(RequestIDHeader))
	})
}

func TestCORSMiddleware(t *testing.T) {
	newRouter := func(production bool) *gin.Engine {
		r := gin.New()
		r.Use(CORSMiddleware([]string{"https://portfolio.example.com/"}, production))
		r.Any("/submit", func(c *gin.Context) { c.Status(http.StatusOK) })
		return r
	}
	send := func(r *gin.Engine, method, origin string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/submit", nil)
		if origin != "" {
			req.Header.Set("Origin", origin)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	w := send(newRouter(true), http.MethodPost, "https://portfolio.example.com")
	assert.Equal(t, "https://portfolio.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST, OPTIONS", w.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	w = send(newRouter(true), http.MethodOptions, "http://localhost:3000")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = send(newRouter(false), http.MethodOptions, "http://localhost:3000")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	w = send(newRouter(true), http.MethodPost, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestErrorHandler(t *testing.T) {
	r := gin.New()
	r.Use(RequestID(), ErrorHandler())
	r.GET("/app", func(c *gin.Context) {
		_ = c.Error(apperror.BadRequest("Missing required fields").WithDetails(gin.H{"missing": []string{"name"}}))
	})
	r.GET("/raw", func(c *gin.Context) {
		_ = c.Error(assert.AnError)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/app", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"error":"Missing required fields"`)
	assert.Contains(t, w.Body.String(), `"missing":["name"]`)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/raw", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), assert.AnError.Error())
	assert.Contains(t, w.Body.String(), `"success":false`)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/", func(c *gin.Context) { panic("secret detail") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "secret detail")
}

func TestRateLimitMiddlewareLocalWindow(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(nil, RateLimitConfig{Limit: 2, Window: time.Minute}, nil))
	r.Any("/submit", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(method, ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/submit", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusOK, send(http.MethodPost, "198.51.100.1").Code)
	assert.Equal(t, http.StatusOK, send(http.MethodPost, "198.51.100.1").Code)
	w := send(http.MethodPost, "198.51.100.1")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// preflights and other clients are not counted against the limit
	assert.Equal(t, http.StatusOK, send(http.MethodOptions, "198.51.100.1").Code)
	assert.Equal(t, http.StatusOK, send(http.MethodPost, "198.51.100.2").Code)
}

func TestRateLimitMiddlewareDisabled(t *testing.T) {
	r := gin.New()
	r.Use(RateLimitMiddleware(nil, RateLimitConfig{}, nil))
	r.POST("/submit", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 20; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/submit", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}
