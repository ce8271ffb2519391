package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	AppPort string
	AppEnv  string // "development" | "production"
	AppURL  string // public base URL used in magic-link emails

	AWSRegion      string
	AWSEndpointURL string // empty in prod, set to LocalStack URL in dev
	AWSAccessKeyID string
	AWSSecretKey   string
	DynamoTables   DynamoTables
	S3BucketName   string

	JWTSecret     string
	SessionExpiry time.Duration // absolute session cookie lifetime

	MagicLinkTTL      time.Duration
	MagicLinkMaxPerHr int // issuances per email per hour
	RateLimitBackend  string // "memory" | "dynamo"

	SMTPHost     string
	SMTPPort     string
	SMTPFrom     string
	SMTPUsername string
	SMTPPassword string

	StripeSecretKey       string
	StripeWebhookSecret   string
	StripePriceIDStandard string
	StripePriceIDPro      string
	CheckoutSuccessURL    string
	CheckoutCancelURL     string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	GoogleClientID string

	OpsAlertTopicARN string // SNS topic for reconciliation failures
	SNSRegion        string

	AllowedOrigins []string // CORS allowed origins
}

// DynamoTables holds the DynamoDB table name for each entity.
type DynamoTables struct {
	Users           string
	MagicLinkTokens string
	Claims          string
	Payments        string
	RateLimits      string
}

// Load reads all configuration from environment variables.
func Load() *Config {
	return &Config{
		AppPort: getEnv("APP_PORT", "3000"),
		AppEnv:  getEnv("APP_ENV", "development"),
		AppURL:  getEnv("APP_URL", "http://localhost:3000"),

		AWSRegion:      getEnv("AWS_REGION", "eu-west-2"),
		AWSEndpointURL: getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID: getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:   getEnv("AWS_SECRET_ACCESS_KEY", ""),
		DynamoTables: DynamoTables{
			Users:           getEnv("DYNAMO_TABLE_USERS", "users"),
			MagicLinkTokens: getEnv("DYNAMO_TABLE_MAGIC_LINK_TOKENS", "magic_link_tokens"),
			Claims:          getEnv("DYNAMO_TABLE_CLAIMS", "claims"),
			Payments:        getEnv("DYNAMO_TABLE_PAYMENTS", "payments"),
			RateLimits:      getEnv("DYNAMO_TABLE_RATE_LIMITS", "rate_limits"),
		},
		S3BucketName: getEnv("S3_BUCKET_NAME", "claimease-documents"),

		JWTSecret:     getEnv("JWT_SECRET", ""),
		SessionExpiry: time.Duration(getEnvInt("SESSION_EXPIRY_DAYS", 30)) * 24 * time.Hour,

		MagicLinkTTL:      time.Duration(getEnvInt("MAGIC_LINK_TTL_MINUTES", 15)) * time.Minute,
		MagicLinkMaxPerHr: getEnvInt("MAGIC_LINK_MAX_PER_HOUR", 5),
		RateLimitBackend:  getEnv("RATE_LIMIT_BACKEND", "memory"),

		SMTPHost:     getEnv("SMTP_HOST", "localhost"),
		SMTPPort:     getEnv("SMTP_PORT", "1025"),
		SMTPFrom:     getEnv("SMTP_FROM", "noreply@claimease.co.uk"),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),

		StripeSecretKey:       getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:   getEnv("STRIPE_WEBHOOK_SECRET", ""),
		StripePriceIDStandard: getEnv("STRIPE_STANDARD_PRICE_ID", ""),
		StripePriceIDPro:      getEnv("STRIPE_PRO_PRICE_ID", ""),
		CheckoutSuccessURL:    getEnv("CHECKOUT_SUCCESS_URL", "http://localhost:3000/success"),
		CheckoutCancelURL:     getEnv("CHECKOUT_CANCEL_URL", "http://localhost:3000"),

		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1/chat/completions"),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o"),

		GoogleClientID: getEnv("GOOGLE_CLIENT_ID", ""),

		OpsAlertTopicARN: getEnv("OPS_ALERT_TOPIC_ARN", ""),
		SNSRegion:        getEnv("SNS_REGION", "eu-west-2"),

		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "*"), ","),
	}
}

// IsProduction reports whether the app runs with production hardening
// (secure cookies, no magic-link echo).
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
