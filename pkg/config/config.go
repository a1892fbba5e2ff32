package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port   string
	AppEnv string

	// Database
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	// Payments
	StripeSecretKey          string
	StripePublishableKey     string
	PaymentCurrency          string
	PaymentTimeout           time.Duration
	HoldSearchLimit          int
	HeuristicHoldMatching    bool
	DefaultTravelFee         decimal.Decimal
	AdditionalChargeCapRatio decimal.Decimal // zero means unbounded

	// Quotes
	QuoteExpiryDays    int
	QuoteSweepInterval time.Duration
	PublicBaseURL      string

	// Auth
	JWTSecret      string
	JWTTokenExpiry time.Duration

	// Notifications
	GoogleProjectID     string
	GoogleCredentials   string
	SMSTopic            string
	EmailTopic          string
	FirebaseCredentials string
}

func Load() *Config {
	// Load .env file if it exists
	_ = godotenv.Load()

	return &Config{
		Port:   getEnv("PORT", "8080"),
		AppEnv: getEnv("APP_ENV", "development"),

		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", ""),
		DBName:      getEnv("DB_NAME", "sendahandyman"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),

		StripeSecretKey:          getEnv("STRIPE_SECRET_KEY", ""),
		StripePublishableKey:     getEnv("STRIPE_PUBLISHABLE_KEY", ""),
		PaymentCurrency:          getEnv("PAYMENT_CURRENCY", "usd"),
		PaymentTimeout:           getDuration("PAYMENT_TIMEOUT", 10*time.Second),
		HoldSearchLimit:          getInt("HOLD_SEARCH_LIMIT", 100),
		HeuristicHoldMatching:    getBool("HEURISTIC_HOLD_MATCHING", true),
		DefaultTravelFee:         getDecimal("DEFAULT_TRAVEL_FEE", decimal.NewFromInt(80)),
		AdditionalChargeCapRatio: getDecimal("ADDITIONAL_CHARGE_CAP_RATIO", decimal.Zero),

		QuoteExpiryDays:    getInt("QUOTE_EXPIRY_DAYS", 14),
		QuoteSweepInterval: getDuration("QUOTE_SWEEP_INTERVAL", time.Hour),
		PublicBaseURL:      getEnv("PUBLIC_BASE_URL", "https://sendahandyman.com"),

		JWTSecret:      getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
		JWTTokenExpiry: getDuration("JWT_TOKEN_EXPIRY", 12*time.Hour),

		GoogleProjectID:     getEnv("GOOGLE_PROJECT_ID", ""),
		GoogleCredentials:   getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),
		SMSTopic:            getEnv("SMS_TOPIC", "sms-notifications"),
		EmailTopic:          getEnv("EMAIL_TOPIC", "email-notifications"),
		FirebaseCredentials: getEnv("FIREBASE_CREDENTIALS", ""),
	}
}

// DSN returns DATABASE_URL when set, otherwise a key/value DSN built from the DB_* parts.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName, c.DBSSLMode)
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if parsed, err := time.ParseDuration(v); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if parsed, err := strconv.ParseBool(v); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	if v := os.Getenv(key); v != "" {
		if parsed, err := decimal.NewFromString(v); err == nil {
			return parsed
		}
	}
	return defaultValue
}
