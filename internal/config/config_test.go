package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unsetEnv clears keys for the duration of the test.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad_Defaults(t *testing.T) {
	unsetEnv(t, "PORT", "DATABASE_URL", "JWT_SECRET", "TOKEN_TTL", "DATA_DIR", "CORS_ORIGINS", "DB_HOST", "DB_NAME")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "4000", cfg.Port)
	assert.Equal(t, 12*time.Hour, cfg.TokenTTL)
	assert.Equal(t, "changeme", cfg.JWTSecret)
	assert.Equal(t, "./data", cfg.DataDir)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.Contains(t, cfg.DatabaseURL, "host=localhost")
	assert.Contains(t, cfg.DatabaseURL, "dbname=scci")
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/scci")
	t.Setenv("TOKEN_TTL", "30m")
	t.Setenv("CORS_ORIGINS", " http://a.test , ,http://b.test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://u:p@db:5432/scci", cfg.DatabaseURL)
	assert.Equal(t, 30*time.Minute, cfg.TokenTTL)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
}

func TestLoad_InvalidTTL(t *testing.T) {
	t.Setenv("TOKEN_TTL", "forever")

	_, err := Load()
	assert.ErrorContains(t, err, "TOKEN_TTL")
}
