package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the booking core
type Config struct {
	// Server configuration
	Port           string
	GinMode        string
	APIVersion     string
	APIPrefix      string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int

	// Database configuration
	Database DatabaseConfig

	// Redis configuration
	Redis RedisConfig

	// Kafka configuration (email job queue)
	Kafka KafkaConfig

	// JWT verification
	JWT JWTConfig

	// Advisory locks
	Locks LockConfig

	// Booking lifecycle
	Bookings BookingConfig

	// Waitlist lifecycle
	Waitlist WaitlistConfig

	// Rate limiting
	RateLimit RateLimitConfig

	// CORS
	CORS CORSConfig

	// Outbound email
	Email EmailConfig

	// Logging
	LogLevel string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	DSN      string

	// Pool sizing: base connections plus overflow headroom
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration

	StatementTimeout time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host      string
	Port      string
	Password  string
	DB        int
	Addr      string
	PoolSize  int
	KeyPrefix string

	// Short TTL for availability read-through caching
	AvailabilityTTL time.Duration
	CacheEnabled    bool
}

// KafkaConfig holds the email job queue configuration
type KafkaConfig struct {
	Enabled       bool
	Brokers       []string
	EmailTopic    string
	ConsumerGroup string
	Workers       int
}

// JWTConfig holds token verification configuration. The core never
// issues tokens in production; ExpiresIn exists for dev tooling.
type JWTConfig struct {
	Secret    string
	Issuer    string
	ExpiresIn time.Duration
}

// LockConfig bounds advisory lock acquisition and hold.
type LockConfig struct {
	WaitBudget    time.Duration
	HoldTTL       time.Duration
	RetryInterval time.Duration
}

// BookingConfig holds booking lifecycle knobs
type BookingConfig struct {
	HoldDuration    time.Duration
	SweepInterval   time.Duration
	DefaultCurrency string
	MaxPageSize     int
}

// WaitlistConfig holds waitlist lifecycle knobs
type WaitlistConfig struct {
	NotificationWindow time.Duration
	SweepInterval      time.Duration
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled         bool
	WindowDuration  time.Duration
	DefaultRequests int
	BookingRequests int
	AdminRequests   int
	WhitelistedIPs  []string
}

// CORSConfig holds allowed origins for browser clients
type CORSConfig struct {
	AllowedOrigins []string
}

// EmailConfig holds SMTP configuration for the worker pool
type EmailConfig struct {
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	FromEmail    string
	FromName     string
	Timeout      time.Duration
}

// Load loads configuration from environment variables
func Load() *Config {
	cfg := &Config{
		// Server configuration
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		APIVersion:     getEnv("API_VERSION", "v1"),
		APIPrefix:      getEnv("API_PREFIX", ""),
		ReadTimeout:    getDurationEnv("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:   getDurationEnv("WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:    getDurationEnv("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes: getIntEnv("MAX_HEADER_BYTES", 1<<20), // 1 MB

		// Database configuration
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "evently_bookings"),
			User:     getEnv("DB_USER", "evently_user"),
			Password: getEnv("DB_PASSWORD", "evently_password"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),

			MaxOpenConns:    getIntEnv("DB_POOL_SIZE", 10) + getIntEnv("DB_MAX_OVERFLOW", 20),
			MaxIdleConns:    getIntEnv("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getDurationEnv("DB_CONN_MAX_LIFETIME", time.Hour),

			StatementTimeout: getDurationEnv("DB_STATEMENT_TIMEOUT", 60*time.Second),
		},

		// Redis configuration
		Redis: RedisConfig{
			Host:      getEnv("REDIS_HOST", "localhost"),
			Port:      getEnv("REDIS_PORT", "6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getIntEnv("REDIS_DB", 0),
			PoolSize:  getIntEnv("REDIS_POOL_SIZE", 10),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "evently:"),

			AvailabilityTTL: getDurationEnv("AVAILABILITY_CACHE_TTL", 10*time.Second),
			CacheEnabled:    getBoolEnv("AVAILABILITY_CACHE_ENABLED", true),
		},

		// Kafka configuration
		Kafka: KafkaConfig{
			Enabled:       getBoolEnv("KAFKA_ENABLED", false),
			Brokers:       getStringSliceEnv("KAFKA_BROKERS", []string{"localhost:9092"}),
			EmailTopic:    getEnv("KAFKA_EMAIL_TOPIC", "evently.notifications.email"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "evently-booking-mailer"),
			Workers:       getIntEnv("KAFKA_EMAIL_WORKERS", 4),
		},

		// JWT configuration
		JWT: JWTConfig{
			Secret:    getEnv("JWT_SECRET", "your-super-secret-jwt-key"),
			Issuer:    getEnv("JWT_ISSUER", "evently"),
			ExpiresIn: getDurationEnvSeconds("JWT_EXPIRES_IN", 15*time.Minute),
		},

		// Advisory locks
		Locks: LockConfig{
			WaitBudget:    getDurationEnvSeconds("LOCK_TIMEOUT_SECONDS", 10*time.Second),
			HoldTTL:       getDurationEnvSeconds("LOCK_HOLD_TTL_SECONDS", 30*time.Second),
			RetryInterval: getDurationEnv("LOCK_RETRY_INTERVAL", 50*time.Millisecond),
		},

		// Booking lifecycle
		Bookings: BookingConfig{
			HoldDuration:    getDurationEnv("BOOKING_HOLD_DURATION", 15*time.Minute),
			SweepInterval:   getDurationEnv("BOOKING_SWEEP_INTERVAL", 60*time.Second),
			DefaultCurrency: getEnv("BOOKING_CURRENCY", "USD"),
			MaxPageSize:     getIntEnv("BOOKING_MAX_PAGE_SIZE", 100),
		},

		// Waitlist lifecycle
		Waitlist: WaitlistConfig{
			NotificationWindow: getDurationEnv("WAITLIST_NOTIFICATION_WINDOW", 30*time.Minute),
			SweepInterval:      getDurationEnv("WAITLIST_SWEEP_INTERVAL", 60*time.Second),
		},

		// Rate limiting
		RateLimit: RateLimitConfig{
			Enabled:         getBoolEnv("RATE_LIMIT_ENABLED", true),
			WindowDuration:  getDurationEnv("RATE_LIMIT_WINDOW_DURATION", 60*time.Second),
			DefaultRequests: getIntEnv("RATE_LIMIT_DEFAULT_REQUESTS", 60),
			BookingRequests: getIntEnv("RATE_LIMIT_BOOKING_REQUESTS", 20),
			AdminRequests:   getIntEnv("RATE_LIMIT_ADMIN_REQUESTS", 200),
			WhitelistedIPs:  getStringSliceEnv("RATE_LIMIT_WHITELISTED_IPS", []string{}),
		},

		// CORS
		CORS: CORSConfig{
			AllowedOrigins: getStringSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},

		// Email configuration
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getIntEnv("SMTP_PORT", 587),
			SMTPUsername: getEnv("SMTP_USERNAME", ""),
			SMTPPassword: getEnv("SMTP_PASSWORD", ""),
			FromEmail:    getEnv("FROM_EMAIL", "noreply@evently.com"),
			FromName:     getEnv("FROM_NAME", "Evently"),
			Timeout:      getDurationEnv("SMTP_TIMEOUT", 30*time.Second),
		},

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "debug"),
	}

	// Build composite values
	cfg.Database.DSN = buildDatabaseDSN(cfg.Database)
	cfg.Redis.Addr = cfg.Redis.Host + ":" + cfg.Redis.Port

	return cfg
}

// buildDatabaseDSN builds the database connection string. The statement
// timeout rides along as a pgx runtime parameter.
func buildDatabaseDSN(db DatabaseConfig) string {
	return "host=" + db.Host +
		" port=" + db.Port +
		" user=" + db.User +
		" password=" + db.Password +
		" dbname=" + db.Name +
		" sslmode=" + db.SSLMode +
		" statement_timeout=" + strconv.FormatInt(db.StatementTimeout.Milliseconds(), 10)
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getIntEnv gets an integer environment variable with a fallback value
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return fallback
}

// getDurationEnv gets a duration environment variable with a fallback value
func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return fallback
}

// getDurationEnvSeconds gets an environment variable as seconds (int) and converts to time.Duration
func getDurationEnvSeconds(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

// getBoolEnv gets a boolean environment variable with a fallback value
func getBoolEnv(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return fallback
}

// getStringSliceEnv gets a comma-separated string environment variable as a slice
func getStringSliceEnv(key string, fallback []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		var result []string
		for _, part := range parts {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}

// IsProduction returns true if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// IsDevelopment returns true if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.GinMode == "debug"
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return ":" + c.Port
}

// GetAPIBasePath returns the API base path, e.g. "/v1"
func (c *Config) GetAPIBasePath() string {
	return c.APIPrefix + "/" + c.APIVersion
}
