package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds everything the api and cli binaries read from the environment.
type Config struct {
	Port     string
	LogLevel string

	DBDriver    string // postgres | sqlite
	DatabaseURL string
	SQLitePath  string

	JWTSecret string
	TokenTTL  time.Duration

	DirectusURL         string
	DirectusInsecureTLS bool

	// Fuzzy resolver acceptance thresholds for the similarity tier.
	StockMatchThreshold  float64
	SampleMatchThreshold float64

	DefaultLoanDays int

	// Printed on the header of protocol documents.
	CompanyName string

	// bcrypt hash of the key the chat bot sends in X-Bot-Key
	BotKeyHash string

	PubSubProjectID string
	PubSubTopic     string
	GCSBucket       string
}

// Load reads configuration from environment variables, falling back to defaults.
// Call godotenv.Load() before this if a .env file should be honored.
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "3000"),
		LogLevel: strings.ToLower(getEnv("LOG_LEVEL", "info")),

		DBDriver:    strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SQLitePath:  getEnv("SQLITE_PATH", "brindes.db"),

		JWTSecret: getEnv("JWT_SECRET", "your-super-secret-key-change-in-production"),
		TokenTTL:  time.Duration(getInt("TOKEN_TTL_HOURS", 24)) * time.Hour,

		DirectusURL:         strings.TrimRight(os.Getenv("DIRECTUS_URL"), "/"),
		DirectusInsecureTLS: getBool("DIRECTUS_INSECURE_TLS", false),

		StockMatchThreshold:  getFloat("STOCK_MATCH_THRESHOLD", 0.5),
		SampleMatchThreshold: getFloat("SAMPLE_MATCH_THRESHOLD", 0.6),

		DefaultLoanDays: getInt("DEFAULT_LOAN_DAYS", 7),

		CompanyName: getEnv("COMPANY_NAME", "Brindes"),

		BotKeyHash: os.Getenv("BOT_KEY_HASH"),

		PubSubProjectID: firstEnv("PUBSUB_PROJECT_ID", "GOOGLE_CLOUD_PROJECT"),
		PubSubTopic:     os.Getenv("PUBSUB_TOPIC"),
		GCSBucket:       os.Getenv("GCS_BUCKET"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func getFloat(key string, fallback float64) float64 {
	v, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil || v <= 0 || v > 1 {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}
