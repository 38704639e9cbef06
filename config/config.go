package config

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreDriverMongo    = "mongo"
	StoreDriverPostgres = "postgres"

	EmailProviderBrevo = "brevo"
	EmailProviderSMTP  = "smtp"
)

type Config struct {
	Port        string
	Environment string
	// Store Configuration
	StoreDriver      string
	StoreCredentials string // raw JSON blob, parsed by StoreCredential()
	MongoURI         string
	MongoDatabase    string
	MongoCollection  string
	DBUrl            string
	// Email Configuration (Brevo API or SMTP relay)
	EmailProvider string
	BrevoAPIKey   string
	BrevoAPIURL   string
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	// Operator identity used as sender and recipient of notifications
	SenderEmail    string
	SenderName     string
	RecipientEmail string
	RecipientName  string
	// Branch timeouts
	StoreTimeout  time.Duration
	NotifyTimeout time.Duration
	// Redis/Upstash Configuration
	RedisURL      string
	RedisPassword string
	// Idempotency
	IdempotencyEnabled bool
	IdempotencyTTL     time.Duration
	// Notification retry queue
	RetryQueueEnabled bool
	RetryMaxAttempts  int
	RetryPollInterval time.Duration
	RetryLease        time.Duration
	// CORS
	AllowedOrigins []string
	// Per-client submission rate limit, 0 disables
	SubmitRateLimit  int
	SubmitRateWindow time.Duration
	// Logging
	LogLevel      string
	LogFile       string
	LogMaxSizeMB  int
	LogMaxBackups int
}

// StoreCredential is the structured credential blob accepted in STORE_CREDENTIALS.
type StoreCredential struct {
	URI        string `json:"uri"`
	Database   string `json:"database"`
	Collection string `json:"collection"`
}

func LoadConfig() (*Config, error) {
	// .env is only present locally
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("APP_ENV", environmentFromGinMode()),
		// Store
		StoreDriver:      strings.ToLower(getEnv("STORE_DRIVER", StoreDriverMongo)),
		StoreCredentials: getEnv("STORE_CREDENTIALS", ""),
		MongoURI:         getEnv("MONGODB_URI", ""),
		MongoDatabase:    getEnv("MONGODB_DATABASE", "portfolio"),
		MongoCollection:  getEnv("MONGODB_COLLECTION", "contact-submissions"),
		DBUrl:            getEnv("DATABASE_URL", ""),
		// Email
		EmailProvider: strings.ToLower(getEnv("EMAIL_PROVIDER", EmailProviderBrevo)),
		BrevoAPIKey:   getEnv("BREVO_API_KEY", getEnv("SENDINBLUE_API_KEY", "")),
		BrevoAPIURL:   strings.TrimRight(getEnv("BREVO_API_URL", "https://api.brevo.com/v3"), "/"),
		SMTPHost:      getEnv("SMTP_HOST", "smtp-relay.brevo.com"),
		SMTPPort:      getEnvInt("SMTP_PORT", 587),
		SMTPUsername:  getEnv("SMTP_USERNAME", ""),
		SMTPPassword:  getEnv("SMTP_PASSWORD", ""),
		// Operator identity
		SenderEmail:    getEnv("NOTIFY_SENDER_EMAIL", ""),
		SenderName:     getEnv("NOTIFY_SENDER_NAME", "Portfolio Contact Form"),
		RecipientEmail: getEnv("NOTIFY_RECIPIENT_EMAIL", ""),
		RecipientName:  getEnv("NOTIFY_RECIPIENT_NAME", ""),
		// Timeouts
		StoreTimeout:  getEnvDuration("STORE_TIMEOUT", 5*time.Second),
		NotifyTimeout: getEnvDuration("NOTIFY_TIMEOUT", 10*time.Second),
		// Redis
		RedisURL:      getEnv("REDIS_URL", getEnv("UPSTASH_REDIS_URL", "")),
		RedisPassword: getEnv("REDIS_PASSWORD", getEnv("UPSTASH_REDIS_PASSWORD", "")),
		// Idempotency
		IdempotencyEnabled: getEnvBool("IDEMPOTENCY_ENABLED", false),
		IdempotencyTTL:     getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		// Retry queue
		RetryQueueEnabled: getEnvBool("RETRY_QUEUE_ENABLED", false),
		RetryMaxAttempts:  getEnvInt("RETRY_MAX_ATTEMPTS", 5),
		RetryPollInterval: getEnvDuration("RETRY_POLL_INTERVAL", 5*time.Second),
		RetryLease:        getEnvDuration("RETRY_LEASE", 60*time.Second),
		// CORS
		AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
		// Rate limit
		SubmitRateLimit:  getEnvInt("SUBMIT_RATE_LIMIT", 0),
		SubmitRateWindow: getEnvDuration("SUBMIT_RATE_WINDOW", time.Minute),
		// Logging
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFile:       getEnv("LOG_FILE", ""),
		LogMaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 50),
		LogMaxBackups: getEnvInt("LOG_MAX_BACKUPS", 5),
	}

	if cfg.SenderEmail == "" {
		cfg.SenderEmail = cfg.SMTPUsername
	}
	if cfg.RecipientEmail == "" {
		cfg.RecipientEmail = cfg.SenderEmail
	}

	// Missing secrets are not fatal: the affected branch reports unavailable at request time
	if cfg.StoreDriver == StoreDriverPostgres && cfg.DBUrl == "" {
		log.Println("WARNING: DATABASE_URL is missing. Submissions will not be saved.")
	}
	if cfg.StoreDriver == StoreDriverMongo && cfg.MongoURI == "" && cfg.StoreCredentials == "" {
		log.Println("WARNING: MONGODB_URI/STORE_CREDENTIALS missing. Submissions will not be saved.")
	}
	if cfg.RecipientEmail == "" {
		log.Println("WARNING: NOTIFY_RECIPIENT_EMAIL not configured. Notifications will be unavailable.")
	}
	if (cfg.IdempotencyEnabled || cfg.RetryQueueEnabled) && cfg.RedisURL == "" {
		log.Println("WARNING: REDIS_URL not configured. Idempotency keys and the retry queue are disabled.")
	}

	return cfg, nil
}

// StoreCredential merges STORE_CREDENTIALS with the individual MONGODB_* variables.
// The blob wins when both are set. A malformed blob is returned as an error so the
// caller can mark the store unavailable.
func (c *Config) StoreCredential() (StoreCredential, error) {
	cred := StoreCredential{
		URI:        c.MongoURI,
		Database:   c.MongoDatabase,
		Collection: c.MongoCollection,
	}
	if c.StoreDriver == StoreDriverPostgres {
		cred.URI = c.DBUrl
	}
	if strings.TrimSpace(c.StoreCredentials) == "" {
		return cred, nil
	}

	var blob StoreCredential
	if err := json.Unmarshal([]byte(c.StoreCredentials), &blob); err != nil {
		return cred, fmt.Errorf("invalid STORE_CREDENTIALS: %w", err)
	}
	if blob.URI != "" {
		cred.URI = blob.URI
	}
	if blob.Database != "" {
		cred.Database = blob.Database
	}
	if blob.Collection != "" {
		cred.Collection = blob.Collection
	}
	return cred, nil
}

// IsProduction reports whether the service runs in release mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func environmentFromGinMode() string {
	if os.Getenv("GIN_MODE") == "release" {
		return "production"
	}
	return "development"
}

// getEnv treats an empty variable as unset
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or fallback if not set/invalid
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool returns a boolean environment variable or fallback if not set/invalid
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// getEnvDuration accepts Go durations ("5s") or plain milliseconds ("5000")
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if ms, err := strconv.Atoi(value); err == nil && ms > 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}

// getEnvList splits a comma separated variable, dropping blanks and trailing slashes
func getEnvList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		part = strings.TrimRight(strings.TrimSpace(part), "/")
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
