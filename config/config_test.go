package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 2000, cfg.SliderMaxPrice)
	assert.Equal(t, 250, cfg.SliderMaxSize)
	assert.Equal(t, "fr", cfg.DefaultLanguage)
	assert.Equal(t, []string{"fr", "en"}, cfg.Languages)
	assert.Equal(t, 50*time.Millisecond, cfg.MapResizeDelay)
	assert.False(t, cfg.CacheEnabled())
	assert.Equal(t, 500, cfg.MaxSessions)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SLIDER_MAX_PRICE", "1500")
	t.Setenv("LANGUAGES", " en , fr ,de")
	t.Setenv("MAP_RESIZE_DELAY", "80ms")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("LISTINGS_SOURCE", "HTTP")

	cfg := Load()

	assert.Equal(t, 1500, cfg.SliderMaxPrice)
	assert.Equal(t, []string{"en", "fr", "de"}, cfg.Languages)
	assert.Equal(t, 80*time.Millisecond, cfg.MapResizeDelay)
	assert.True(t, cfg.CacheEnabled())
	assert.Equal(t, "http", cfg.ListingsSource)
}

func TestDSN(t *testing.T) {
	cfg := &Config{
		PostgresHost: "db", PostgresPort: "5432", PostgresUser: "u",
		PostgresPassword: "p", PostgresDB: "crous", PostgresSSLMode: "disable",
	}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=crous sslmode=disable", cfg.DSN())
}
