package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer string // Issuer label shown in authenticator apps

	DatabaseFile string // Path to SQLite database file (default: ./deskauth.db)
	PepperFile   string // Path to pepper file for password hashing (default: ./pepper)

	SessionBackend string // Session storage backend (memory, redis) (default: memory)
	RedisAddr      string // Redis address for the redis backend
	RedisPassword  string // Redis password
	RedisDB        int    // Redis database number

	StateSecret string // HMAC secret for the OAuth state token (required when providers are configured)

	GoogleClientID        string
	GoogleClientSecret    string
	GoogleRedirectURL     string
	MicrosoftClientID     string
	MicrosoftClientSecret string
	MicrosoftRedirectURL  string

	LockoutThreshold int           // Failed logins before lockout (default: 5)
	LockoutDuration  time.Duration // Lock length once triggered (default: 30m)
	PendingTTL       time.Duration // Pending-MFA handle lifetime (default: 5m)
	SessionTTL       time.Duration // Session lifetime (default: 8h)
	RememberTTL      time.Duration // Session lifetime with remember-me (default: 30 days)
	ResetTokenTTL    time.Duration // Password reset token lifetime (default: 1h)

	PasswordMinLength    int // Minimum password length (default: 12)
	PasswordHistoryCount int // Recent passwords a reset may not reuse (default: 5)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		Issuer: getEnvOrDefault("AUTH_ISSUER", "Copperfort Desk"),

		DatabaseFile: getEnvOrDefault("AUTH_DATABASE_FILE", "deskauth.db"),
		PepperFile:   getEnvOrDefault("AUTH_PEPPER_FILE", "pepper"),

		SessionBackend: getEnvOrDefault("SESSION_BACKEND", "memory"),
		RedisAddr:      getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("REDIS_PASSWORD"),
		RedisDB:        getEnvIntOrDefault("REDIS_DB", 0),

		StateSecret: os.Getenv("AUTH_STATE_SECRET"),

		GoogleClientID:        os.Getenv("OAUTH_GOOGLE_CLIENT_ID"),
		GoogleClientSecret:    os.Getenv("OAUTH_GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:     os.Getenv("OAUTH_GOOGLE_REDIRECT_URL"),
		MicrosoftClientID:     os.Getenv("OAUTH_MICROSOFT_CLIENT_ID"),
		MicrosoftClientSecret: os.Getenv("OAUTH_MICROSOFT_CLIENT_SECRET"),
		MicrosoftRedirectURL:  os.Getenv("OAUTH_MICROSOFT_REDIRECT_URL"),

		LockoutThreshold: getEnvIntOrDefault("AUTH_LOCKOUT_THRESHOLD", 5),
		LockoutDuration:  getEnvDurationOrDefault("AUTH_LOCKOUT_DURATION", 30*time.Minute),
		PendingTTL:       getEnvDurationOrDefault("AUTH_PENDING_TTL", 5*time.Minute),
		SessionTTL:       getEnvDurationOrDefault("AUTH_SESSION_TTL", 8*time.Hour),
		RememberTTL:      getEnvDurationOrDefault("AUTH_REMEMBER_TTL", 30*24*time.Hour),
		ResetTokenTTL:    getEnvDurationOrDefault("AUTH_RESET_TOKEN_TTL", time.Hour),

		PasswordMinLength:    getEnvIntOrDefault("AUTH_PASSWORD_MIN_LENGTH", 12),
		PasswordHistoryCount: getEnvIntOrDefault("AUTH_PASSWORD_HISTORY", 5),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	return defaultValue
}
