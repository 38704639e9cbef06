package v1

import (
	"time"

	"portfolio-contact-backend/internal/delivery/http/middleware"
	"portfolio-contact-backend/internal/domain"
	"portfolio-contact-backend/internal/usecase"
	"portfolio-contact-backend/pkg/audit"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	ContactUC      domain.ContactUsecase
	HealthUC       usecase.HealthUsecase
	Idempotency    domain.IdempotencyStore // optional
	IdempotencyTTL time.Duration
	Audit          *audit.Logger
	RateLimit      middleware.RateLimitConfig
	Redis          *goredis.Client // optional, shared rate limit counters
	AllowedOrigins []string
	IsProduction   bool
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	// Global Middlewares
	r.Use(middleware.CORSMiddleware(deps.AllowedOrigins, deps.IsProduction)) // CORS must be first!
	r.Use(middleware.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.RequestID())
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.ErrorHandler())

	v1 := r.Group("/v1")

	NewHealthHandler(v1, deps.HealthUC)

	NewContactHandler(r, v1, deps.ContactUC,
		middleware.RateLimitMiddleware(deps.Redis, deps.RateLimit, deps.Audit),
		middleware.Idempotency(deps.Idempotency, deps.IdempotencyTTL, deps.Audit),
	)

	// Swagger
	v1.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
