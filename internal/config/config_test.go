package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, devJWTSecret, cfg.JWTSecret)
	assert.Equal(t, 5*time.Minute, cfg.SLASweepInterval)
	assert.Equal(t, 30*time.Second, cfg.StatsCacheTTL)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.NotEmpty(t, cfg.AllowedOrigins)
	assert.False(t, cfg.IsProduction())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("SLA_SWEEP_INTERVAL", "0s")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/x")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Zero(t, cfg.SLASweepInterval)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.DatabaseURL)
}

func TestFromEnv_ProductionRequiresSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "short")
	_, err := FromEnv()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	_, err = FromEnv()
	assert.ErrorContains(t, err, "CORS_ALLOWED_ORIGINS")
}

func TestFromEnv_BadDuration(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("STATS_CACHE_TTL", "soon")
	_, err := FromEnv()
	assert.ErrorContains(t, err, "STATS_CACHE_TTL")
}

func TestGetDatabaseURL_FromParts(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRESQL_HOST", "db")
	t.Setenv("POSTGRESQL_USER", "svc")
	t.Setenv("POSTGRESQL_PASSWORD", "p@ss")
	t.Setenv("POSTGRESQL_DBNAME", "disputes")

	assert.Equal(t, "postgres://svc:p%40ss@db:5432/disputes?sslmode=disable", getDatabaseURL())
}
