package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"STORE_BACKEND", "MIN_APPRECIATION_SAMPLES", "MILLAGE_RATE", "MEDIA_TIMEOUT", "LISTINGS_INDEX"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, BackendElasticsearch, cfg.StoreBackend)
	assert.Equal(t, "listings", cfg.ListingsIndex)
	assert.Equal(t, 5, cfg.MinAppreciationSamples)
	assert.Equal(t, 0.0125, cfg.MillageRate)
	assert.Equal(t, 5*time.Second, cfg.MediaTimeout)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", BackendMemory)
	t.Setenv("MIN_APPRECIATION_SAMPLES", "12")
	t.Setenv("MILLAGE_RATE", "0.011")
	t.Setenv("MEDIA_TIMEOUT", "750ms")
	t.Setenv("MAX_PAGE_SIZE", "not-a-number")

	cfg := Load()

	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, 12, cfg.MinAppreciationSamples)
	assert.Equal(t, 0.011, cfg.MillageRate)
	assert.Equal(t, 750*time.Millisecond, cfg.MediaTimeout)
	assert.Equal(t, 200, cfg.MaxPageSize, "invalid value falls back to default")
}

func TestPostgresDSN(t *testing.T) {
	cfg := &Config{PostgresHost: "db", PostgresPort: "5433", PostgresUser: "u", PostgresPassword: "p", PostgresDB: "d"}

	assert.Equal(t, "host=db port=5433 user=u password=p dbname=d sslmode=disable", cfg.PostgresDSN())
}
