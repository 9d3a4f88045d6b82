package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port        string
	Environment string
	AppBaseURL  string
	LogLevel    string

	// Database
	DatabaseDriver string
	DatabaseURL    string

	// Blob storage
	BlobBackend           string
	BlobBoltPath          string
	SupabaseURL           string
	SupabaseServiceKey    string
	SupabaseStorageBucket string

	// Stripe
	StripeSecretKey          string
	StripeWebhookSecret      string
	StripeWebhookTolerance   time.Duration
	CheckoutPriceAmount      int64
	CheckoutCurrency         string
	CheckoutProductName      string
	CheckoutAllowedCountries []string

	// Print on demand
	PODProvider           string
	PODAPIKey             string
	PODAPIBaseURL         string
	PODStoreID            string
	PODProductID          string
	PODCurrency           string
	GelatoWebhookSecret   string
	PrintfulWebhookSecret string

	// Admin
	AdminToken     string
	AdminJWTSecret string

	// Jobs
	SampleScheduleEnabled bool
	FulfillmentLease      time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
		AppBaseURL:  strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:8080"), "/"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		DatabaseDriver: getEnv("DATABASE_DRIVER", "sqlite"),
		DatabaseURL:    getEnv("DATABASE_URL", "file:artprint.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"),

		BlobBackend:           getEnv("BLOB_BACKEND", "bolt"),
		BlobBoltPath:          getEnv("BLOB_BOLT_PATH", "artprint-blobs.db"),
		SupabaseURL:           getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey:    getEnv("SUPABASE_SERVICE_KEY", ""),
		SupabaseStorageBucket: getEnv("SUPABASE_STORAGE_BUCKET", "artworks"),

		StripeSecretKey:          getEnv("STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret:      getEnv("STRIPE_WEBHOOK_SECRET", ""),
		CheckoutCurrency:         strings.ToLower(getEnv("CHECKOUT_CURRENCY", "jpy")),
		CheckoutProductName:      getEnv("CHECKOUT_PRODUCT_NAME", "Framed art print"),
		CheckoutAllowedCountries: getEnvList("CHECKOUT_ALLOWED_COUNTRIES", []string{"JP"}),

		PODProvider:           strings.ToLower(getEnv("POD_PROVIDER", "manual")),
		PODAPIKey:             getEnv("POD_API_KEY", ""),
		PODAPIBaseURL:         getEnv("POD_API_BASE_URL", ""),
		PODStoreID:            getEnv("POD_STORE_ID", ""),
		PODProductID:          getEnv("POD_PRODUCT_ID", ""),
		PODCurrency:           getEnv("POD_CURRENCY", "JPY"),
		GelatoWebhookSecret:   getEnv("GELATO_WEBHOOK_SECRET", ""),
		PrintfulWebhookSecret: getEnv("PRINTFUL_WEBHOOK_SECRET", ""),

		AdminToken:     getEnv("ADMIN_TOKEN", ""),
		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),
	}

	var err error
	if cfg.StripeWebhookTolerance, err = getEnvDuration("STRIPE_WEBHOOK_TOLERANCE", 0); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.FulfillmentLease, err = getEnvDuration("FULFILLMENT_LEASE", 2*time.Minute); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.CheckoutPriceAmount, err = getEnvInt64("CHECKOUT_PRICE_AMOUNT", 15000); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if cfg.SampleScheduleEnabled, err = getEnvBool("SAMPLE_SCHEDULE_ENABLED", false); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite, got %q", c.DatabaseDriver)
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	switch c.BlobBackend {
	case "bolt":
		if c.BlobBoltPath == "" {
			return fmt.Errorf("BLOB_BOLT_PATH is required for the bolt blob backend")
		}
	case "supabase":
		if c.SupabaseURL == "" {
			return fmt.Errorf("SUPABASE_URL is required for the supabase blob backend")
		}
		if c.SupabaseServiceKey == "" {
			return fmt.Errorf("SUPABASE_SERVICE_KEY is required for the supabase blob backend")
		}
	default:
		return fmt.Errorf("BLOB_BACKEND must be bolt or supabase, got %q", c.BlobBackend)
	}

	switch c.PODProvider {
	case "manual":
	case "gelato", "printful":
		if c.PODAPIKey == "" {
			return fmt.Errorf("POD_API_KEY is required for provider %s", c.PODProvider)
		}
		// Printful variant ids are store specific; there is no usable default.
		if c.PODProvider == "printful" && c.PODProductID == "" {
			return fmt.Errorf("POD_PRODUCT_ID is required for provider printful")
		}
	default:
		return fmt.Errorf("POD_PROVIDER must be manual, gelato or printful, got %q", c.PODProvider)
	}

	if c.CheckoutPriceAmount <= 0 {
		return fmt.Errorf("CHECKOUT_PRICE_AMOUNT must be positive")
	}
	if c.StripeWebhookTolerance < 0 {
		return fmt.Errorf("STRIPE_WEBHOOK_TOLERANCE must not be negative")
	}
	if c.FulfillmentLease <= 0 {
		return fmt.Errorf("FULFILLMENT_LEASE must be positive")
	}
	return nil
}

// PaymentsEnabled reports whether checkout sessions can be created.
func (c *Config) PaymentsEnabled() bool {
	return c.StripeSecretKey != ""
}

// AdminEnabled reports whether any admin credential is configured.
func (c *Config) AdminEnabled() bool {
	return c.AdminToken != "" || c.AdminJWTSecret != ""
}

// PODWebhookSecret returns the signing secret for the named provider.
func (c *Config) PODWebhookSecret(provider string) string {
	switch provider {
	case "gelato":
		return c.GelatoWebhookSecret
	case "printful":
		return c.PrintfulWebhookSecret
	}
	return ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.ToUpper(strings.TrimSpace(part)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	// Bare integers are seconds.
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func getEnvInt64(key string, defaultValue int64) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getEnvBool(key string, defaultValue bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
