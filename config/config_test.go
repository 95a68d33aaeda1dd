package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRequiresJWTSecret(t *testing.T) {
	cfg := &Config{}
	assert.ErrorIs(t, cfg.Validate(), ErrMissingJWTSecret)

	cfg.JWTSecret = "   "
	assert.ErrorIs(t, cfg.Validate(), ErrMissingJWTSecret)

	cfg.JWTSecret = "s3cr3t"
	assert.NoError(t, cfg.Validate())
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("JWT_EXPIRE", "")
	t.Setenv("PORT", "")

	cfg := Load()

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, time.Hour, cfg.TokenTTL)
	assert.Empty(t, cfg.JWTSecret) // no default for the signing secret
	assert.ErrorIs(t, cfg.Validate(), ErrMissingJWTSecret)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cr3t")
	t.Setenv("JWT_EXPIRE", "30m")
	t.Setenv("DB_NAME", "authdb_test")

	cfg := Load()

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "s3cr3t", cfg.JWTSecret)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, "authdb_test", cfg.DBName)
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{
		DBUser: "app", DBPassword: "pw", DBHost: "db", DBPort: "5432",
		DBName: "authdb", DBSSLMode: "disable",
	}
	assert.Equal(t, "postgres://app:pw@db:5432/authdb?sslmode=disable", cfg.PostgresDSN())
}

func TestCSVSplitting(t *testing.T) {
	cfg := &Config{
		CORSAllowedOrigins: "http://a.test, http://b.test ,",
		ElasticsearchAddrs: "",
	}
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins())
	assert.Empty(t, cfg.ESAddrs())
}
