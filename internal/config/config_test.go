package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/baystatedata/covidetl/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Contains(t, cfg.Source.URL, "mass.gov")
	assert.Equal(t, 30*time.Second, cfg.HTTPTimeout())
	assert.Equal(t, "downloaded", cfg.Paths.DownloadDir)
	assert.Equal(t, "processed", cfg.Paths.ProcessedDir)
	assert.InDelta(t, 0.1, cfg.Match.ToleranceRatio, 1e-9)
	assert.InDelta(t, 0.5, cfg.Normalize.NumericCastThreshold, 1e-9)
	assert.Equal(t, config.DriverNone, cfg.Upload.Driver)
	assert.Equal(t, 5, cfg.Upload.AttemptBudget)
	assert.Equal(t, "covid", cfg.Postgres.Schema)
	assert.Equal(t, 1, cfg.Logging.Verbosity)
}

func TestLoadWithFileOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	configYAML := `
source:
  url: https://example.test/landing
  timeout_seconds: 5
match:
  tolerance_ratio: 0.2
upload:
  driver: postgres
  attempt_budget: 3
postgres:
  dsn: postgres://etl@localhost:5432/covid
  schema: staging
logging:
  verbosity: 2
  development: false
`
	require.NoError(t, os.WriteFile(path, []byte(configYAML), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://example.test/landing", cfg.Source.URL)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout())
	assert.InDelta(t, 0.2, cfg.Match.ToleranceRatio, 1e-9)
	assert.Equal(t, config.DriverPostgres, cfg.Upload.Driver)
	assert.Equal(t, 3, cfg.Upload.AttemptBudget)
	assert.Equal(t, "staging", cfg.Postgres.Schema)
	assert.Equal(t, 2, cfg.Logging.Verbosity)
	assert.False(t, cfg.Logging.Development)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	base := func() config.Config {
		cfg, err := config.Load("")
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"missing source url", func(c *config.Config) { c.Source.URL = "" }},
		{"zero timeout", func(c *config.Config) { c.Source.TimeoutSeconds = 0 }},
		{"tolerance out of range", func(c *config.Config) { c.Match.ToleranceRatio = 1.5 }},
		{"threshold out of range", func(c *config.Config) { c.Normalize.NumericCastThreshold = 0 }},
		{"zero attempt budget", func(c *config.Config) { c.Upload.AttemptBudget = 0 }},
		{"unknown driver", func(c *config.Config) { c.Upload.Driver = "oracle" }},
		{"bigquery driver without dataset", func(c *config.Config) { c.Upload.Driver = config.DriverBigQuery }},
		{"postgres driver without dsn", func(c *config.Config) { c.Upload.Driver = config.DriverPostgres }},
		{"verbosity out of range", func(c *config.Config) { c.Logging.Verbosity = 7 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := base()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
