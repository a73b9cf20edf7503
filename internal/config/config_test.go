package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAppliesDefaultsWhenUnset(t *testing.T) {
	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("DB_ENDPOINT", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 5432, cfg.DBPort)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadRequiresDBEndpointInProduction(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("DB_ENDPOINT", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestGetEnvIntFallsBackOnInvalidValue(t *testing.T) {
	t.Setenv("WORKER_POOL_SIZE", "not-a-number")
	assert.Equal(t, 7, getEnvInt("WORKER_POOL_SIZE", 7))
}
