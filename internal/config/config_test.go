package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewConfig_Defaults(t *testing.T) {
	cfg := NewConfig()

	assert.Equal(t, int32(8189), cfg.HTTP.Port)
	assert.Equal(t, "0.0.0.0", cfg.HTTP.Host)
	assert.Equal(t, 2, cfg.Global.ShutdownTimeoutInSeconds)
	assert.Equal(t, DefaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, DefaultLocalDatabasePath, cfg.LocalDatabase.Path)
	assert.Equal(t, "https://www.googleapis.com/books/v1", cfg.Catalog.BaseURL)
	assert.Equal(t, 10, cfg.Catalog.MaxResults)
	assert.Equal(t, 10*time.Second, cfg.Catalog.Timeout)
}

func TestNewConfig_EnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DATABASE_PATH", "/tmp/override.db")
	t.Setenv("CATALOG_MAX_RESULTS", "25")

	cfg := NewConfig()

	assert.Equal(t, int32(9000), cfg.HTTP.Port)
	assert.Equal(t, "/tmp/override.db", cfg.Database.Path)
	assert.Equal(t, 25, cfg.Catalog.MaxResults)
}
