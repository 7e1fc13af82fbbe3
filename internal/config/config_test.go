package config_test

import (
	"testing"
	"time"

	"go-brindes-ws/internal/config"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"PORT", "DB_DRIVER", "STOCK_MATCH_THRESHOLD", "SAMPLE_MATCH_THRESHOLD",
		"DEFAULT_LOAN_DAYS", "TOKEN_TTL_HOURS", "DIRECTUS_URL", "PUBSUB_PROJECT_ID", "GOOGLE_CLOUD_PROJECT"} {
		t.Setenv(k, "")
	}

	cfg := config.Load()

	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 0.5, cfg.StockMatchThreshold)
	assert.Equal(t, 0.6, cfg.SampleMatchThreshold)
	assert.Equal(t, 7, cfg.DefaultLoanDays)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Empty(t, cfg.PubSubProjectID)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "8081")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("STOCK_MATCH_THRESHOLD", "0.7")
	t.Setenv("SAMPLE_MATCH_THRESHOLD", "0.8")
	t.Setenv("DEFAULT_LOAN_DAYS", "14")
	t.Setenv("DIRECTUS_URL", "https://cms.example.com/")
	t.Setenv("DIRECTUS_INSECURE_TLS", "true")
	t.Setenv("PUBSUB_PROJECT_ID", "")
	t.Setenv("GOOGLE_CLOUD_PROJECT", "brindes-prod")

	cfg := config.Load()

	assert.Equal(t, "8081", cfg.Port)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 0.7, cfg.StockMatchThreshold)
	assert.Equal(t, 0.8, cfg.SampleMatchThreshold)
	assert.Equal(t, 14, cfg.DefaultLoanDays)
	assert.Equal(t, "https://cms.example.com", cfg.DirectusURL)
	assert.True(t, cfg.DirectusInsecureTLS)
	assert.Equal(t, "brindes-prod", cfg.PubSubProjectID)
}

func TestLoad_RejectsOutOfRangeThreshold(t *testing.T) {
	t.Setenv("STOCK_MATCH_THRESHOLD", "1.5")
	t.Setenv("SAMPLE_MATCH_THRESHOLD", "abc")

	cfg := config.Load()

	assert.Equal(t, 0.5, cfg.StockMatchThreshold)
	assert.Equal(t, 0.6, cfg.SampleMatchThreshold)
}
