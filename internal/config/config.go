package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration loaded from the environment.
type Config struct {
	Environment string
	Port        string
	LogLevel    string
	LogFile     string

	DatabaseURL string
	JWTSecret   []byte

	// TokenKey seals platform access tokens at rest (32 bytes, hex or raw).
	TokenKey string

	RedisHost     string
	RedisPort     string
	RedisPassword string

	AWSRegion  string
	AWSBucket  string
	CDNBaseURL string
	// S3Endpoint points the S3 client at localstack or minio
	S3Endpoint string

	SESFromEmail string
	SESFromName  string
	AppBaseURL   string

	Facebook FacebookConfig
	OAuth    *OAuthConfig

	LLM LLMConfig

	Publish PublishConfig

	OTLPEndpoint    string
	TracingEnabled  bool
	TracingSampling float64

	RequiredServices []string
	CORSOrigins      []string
}

// FacebookConfig holds the Graph API app credentials used for token exchange.
type FacebookConfig struct {
	AppID      string
	AppSecret  string
	GraphURL   string
	APIVersion string
}

// LLMConfig points at an OpenAI-compatible completion endpoint used for content plans.
type LLMConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// PublishConfig tunes the publish pipeline.
type PublishConfig struct {
	Workers         int
	QueueSize       int
	MaxAttempts     int
	ScanInterval    time.Duration
	LeaseTimeout    time.Duration
	RatePerMinute   map[string]int
	BreakerFailures uint32
	BreakerOpenFor  time.Duration
}

// Load reads configuration from environment variables.
// REQUIRED: JWT_SECRET. Everything else has a development default.
func Load() (*Config, error) {
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}

	cfg := &Config{
		Environment: getEnvOrDefault("ENVIRONMENT", "development"),
		Port:        getEnvOrDefault("PORT", "8787"),
		LogLevel:    getEnvOrDefault("LOG_LEVEL", "info"),
		LogFile:     getEnvOrDefault("LOG_FILE", "brandcast.log"),

		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   []byte(jwtSecret),
		TokenKey:    os.Getenv("TOKEN_ENCRYPTION_KEY"),

		RedisHost:     os.Getenv("REDIS_HOST"),
		RedisPort:     getEnvOrDefault("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		AWSRegion:  getEnvOrDefault("AWS_REGION", "us-east-1"),
		AWSBucket:  os.Getenv("AWS_BUCKET"),
		CDNBaseURL: os.Getenv("CDN_BASE_URL"),
		S3Endpoint: os.Getenv("S3_ENDPOINT"),

		SESFromEmail: os.Getenv("SES_FROM_EMAIL"),
		SESFromName:  getEnvOrDefault("SES_FROM_NAME", "Brandcast"),
		AppBaseURL:   getEnvOrDefault("APP_BASE_URL", "http://localhost:3000"),

		Facebook: FacebookConfig{
			AppID:      os.Getenv("FACEBOOK_APP_ID"),
			AppSecret:  os.Getenv("FACEBOOK_APP_SECRET"),
			GraphURL:   getEnvOrDefault("FACEBOOK_GRAPH_URL", "https://graph.facebook.com"),
			APIVersion: getEnvOrDefault("FACEBOOK_API_VERSION", "v19.0"),
		},
		OAuth: LoadOAuthConfig(),

		LLM: LLMConfig{
			BaseURL: getEnvOrDefault("LLM_BASE_URL", "https://api.openai.com/v1"),
			APIKey:  os.Getenv("LLM_API_KEY"),
			Model:   getEnvOrDefault("LLM_MODEL", "gpt-4o-mini"),
			Timeout: getEnvDuration("LLM_TIMEOUT", 60*time.Second),
		},

		Publish: PublishConfig{
			Workers:         getEnvInt("PUBLISH_WORKERS", 4),
			QueueSize:       getEnvInt("PUBLISH_QUEUE_SIZE", 100),
			MaxAttempts:     getEnvInt("PUBLISH_MAX_ATTEMPTS", 5),
			ScanInterval:    getEnvDuration("PUBLISH_SCAN_INTERVAL", 15*time.Second),
			LeaseTimeout:    getEnvDuration("PUBLISH_LEASE_TIMEOUT", 10*time.Minute),
			RatePerMinute:   parseRates(os.Getenv("PUBLISH_RATE_PER_MINUTE")),
			BreakerFailures: uint32(getEnvInt("PUBLISH_BREAKER_FAILURES", 5)),
			BreakerOpenFor:  getEnvDuration("PUBLISH_BREAKER_OPEN_FOR", 2*time.Minute),
		},

		OTLPEndpoint:    os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		TracingEnabled:  os.Getenv("OTEL_TRACING_ENABLED") == "true",
		TracingSampling: getEnvFloat("OTEL_SAMPLING_RATE", 0.1),

		RequiredServices: splitList(os.Getenv("REQUIRED_SERVICES")),
		CORSOrigins:      splitList(getEnvOrDefault("CORS_ORIGINS", "*")),
	}

	return cfg, nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// DefaultRatesPerMinute are conservative per-platform publish budgets.
var DefaultRatesPerMinute = map[string]int{
	"facebook":  30,
	"instagram": 10,
	"twitter":   15,
	"linkedin":  20,
}

// parseRates parses "facebook=30,twitter=10" and fills gaps from DefaultRatesPerMinute.
func parseRates(raw string) map[string]int {
	rates := make(map[string]int, len(DefaultRatesPerMinute))
	for k, v := range DefaultRatesPerMinute {
		rates[k] = v
	}
	for _, pair := range splitList(raw) {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || n <= 0 {
			continue
		}
		rates[strings.ToLower(strings.TrimSpace(name))] = n
	}
	return rates
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
