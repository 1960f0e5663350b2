package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"skillarena/database"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// HTTP configuration
	HTTPAddr       string
	GatewayToken   string   // Bearer token the auth gateway attaches to every request
	AllowedOrigins []string // CORS origins

	// Wallet configuration
	PlatformFeePercent int64 // Percentage of the match pool kept by the platform (0-100)

	// Payment gateway configuration
	PaymentGatewayBaseURL      string
	PaymentGatewayClientID     string
	PaymentGatewayClientSecret string
	PaymentGatewayAPIVersion   string
	PaymentWebhookSecret       string
	PaymentReturnURL           string

	// Scheduler configuration
	ReconcileInterval  time.Duration // How often stale gateway deposits are re-polled
	ReconcileAfter     time.Duration // Minimum age of a pending gateway deposit before re-polling
	StaleMatchGrace    time.Duration // How long after start time an unfilled match is cancelled
	StaleMatchInterval time.Duration

	// NATS configuration
	NATSEnabled bool
	NATSServers string // NATS server addresses (comma-separated)

	// Discord admin notifications
	DiscordToken          string
	DiscordAdminChannelID string

	// Verification document storage (S3 compatible)
	S3Endpoint        string
	S3Region          string
	S3Bucket          string
	S3AccessKeyID     string
	S3SecretAccessKey string

	// OpenTelemetry configuration
	OTelEnabled              bool
	OTelServiceName          string
	OTelExporterType         string // "console", "otlp" or "none"
	OTelOTLPEndpoint         string
	OTelExportIntervalMillis int

	// Logging
	LogLevel string

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("GO_TEST") == "1" || os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// load loads configuration from environment variables
func load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("No .env file found, reading environment variables directly")
	}

	config := &Config{
		// Database
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		// HTTP
		HTTPAddr:       getEnvWithDefault("HTTP_ADDR", ":8080"),
		GatewayToken:   os.Getenv("GATEWAY_TOKEN"),
		AllowedOrigins: splitList(getEnvWithDefault("ALLOWED_ORIGINS", "http://localhost:3000")),

		// Wallet
		PlatformFeePercent: 10,

		// Payment gateway
		PaymentGatewayBaseURL:      getEnvWithDefault("PAYMENT_GATEWAY_BASE_URL", "https://sandbox.cashfree.com/pg"),
		PaymentGatewayClientID:     os.Getenv("PAYMENT_GATEWAY_CLIENT_ID"),
		PaymentGatewayClientSecret: os.Getenv("PAYMENT_GATEWAY_CLIENT_SECRET"),
		PaymentGatewayAPIVersion:   getEnvWithDefault("PAYMENT_GATEWAY_API_VERSION", "2023-08-01"),
		PaymentWebhookSecret:       os.Getenv("PAYMENT_WEBHOOK_SECRET"),
		PaymentReturnURL:           os.Getenv("PAYMENT_RETURN_URL"),

		// Scheduler
		ReconcileInterval:  getDurationWithDefault("RECONCILE_INTERVAL", 2*time.Minute),
		ReconcileAfter:     getDurationWithDefault("RECONCILE_AFTER", 5*time.Minute),
		StaleMatchGrace:    getDurationWithDefault("STALE_MATCH_GRACE", 2*time.Hour),
		StaleMatchInterval: getDurationWithDefault("STALE_MATCH_INTERVAL", 10*time.Minute),

		// NATS
		NATSEnabled: os.Getenv("NATS_ENABLED") == "true",
		NATSServers: getEnvWithDefault("NATS_SERVERS", "nats://nats:4222"),

		// Discord
		DiscordToken:          os.Getenv("DISCORD_TOKEN"),
		DiscordAdminChannelID: os.Getenv("DISCORD_ADMIN_CHANNEL_ID"),

		// S3
		S3Endpoint:        os.Getenv("S3_ENDPOINT"),
		S3Region:          getEnvWithDefault("S3_REGION", "auto"),
		S3Bucket:          os.Getenv("S3_BUCKET"),
		S3AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),

		// OpenTelemetry
		OTelEnabled:              os.Getenv("OTEL_ENABLED") == "true",
		OTelServiceName:          getEnvWithDefault("OTEL_SERVICE_NAME", "skillarena"),
		OTelExporterType:         getEnvWithDefault("OTEL_EXPORTER_TYPE", "console"),
		OTelOTLPEndpoint:         getEnvWithDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4317"),
		OTelExportIntervalMillis: 30000,

		LogLevel:    getEnvWithDefault("LOG_LEVEL", "info"),
		Environment: os.Getenv("ENVIRONMENT"),
	}

	// Override defaults if environment variables are set
	if fee := os.Getenv("PLATFORM_FEE_PERCENT"); fee != "" {
		parsed, err := strconv.ParseInt(fee, 10, 64)
		if err != nil || parsed < 0 || parsed > 100 {
			return nil, fmt.Errorf("PLATFORM_FEE_PERCENT must be an integer between 0 and 100")
		}
		config.PlatformFeePercent = parsed
	}
	if interval := os.Getenv("OTEL_EXPORT_INTERVAL_MILLIS"); interval != "" {
		if parsed, err := strconv.Atoi(interval); err == nil {
			config.OTelExportIntervalMillis = parsed
		}
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.Environment != "test" {
		// Validate required configuration
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.GatewayToken == "" {
			return nil, fmt.Errorf("GATEWAY_TOKEN is required")
		}
		if config.DatabaseName != "" && strings.TrimSpace(config.DatabaseName) == "" {
			return nil, fmt.Errorf("DATABASE_NAME cannot be empty when provided")
		}
	}

	return config, nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
		log.WithField("key", key).Warn("Invalid duration in environment, using default")
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:              "test",
		HTTPAddr:                 ":0",
		GatewayToken:             "test-gateway-token",
		PlatformFeePercent:       10,
		PaymentWebhookSecret:     "test-webhook-secret",
		PaymentGatewayAPIVersion: "2023-08-01",
		ReconcileInterval:        time.Minute,
		ReconcileAfter:           5 * time.Minute,
		StaleMatchGrace:          2 * time.Hour,
		StaleMatchInterval:       10 * time.Minute,
		OTelExporterType:         "none",
		LogLevel:                 "debug",
	}
}
