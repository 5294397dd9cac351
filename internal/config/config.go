// Package config loads and validates pipeline configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Warehouse driver names accepted by upload.driver.
const (
	DriverBigQuery = "bigquery"
	DriverPostgres = "postgres"
	DriverNone     = "none"
)

// Config captures all pipeline configuration knobs loaded via Viper.
type Config struct {
	Source    SourceConfig    `mapstructure:"source"`
	Paths     PathsConfig     `mapstructure:"paths"`
	Match     MatchConfig     `mapstructure:"match"`
	Normalize NormalizeConfig `mapstructure:"normalize"`
	Upload    UploadConfig    `mapstructure:"upload"`
	BigQuery  BigQueryConfig  `mapstructure:"bigquery"`
	Postgres  PostgresConfig  `mapstructure:"postgres"`
	GCS       GCSConfig       `mapstructure:"gcs"`
	PubSub    PubSubConfig    `mapstructure:"pubsub"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// SourceConfig identifies the landing page and how to fetch it.
type SourceConfig struct {
	URL            string `mapstructure:"url"`
	UserAgent      string `mapstructure:"user_agent"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// PathsConfig holds the local and mounted output locations.
type PathsConfig struct {
	DownloadDir  string   `mapstructure:"download_dir"`
	ProcessedDir string   `mapstructure:"processed_dir"`
	MountDir     string   `mapstructure:"mount_dir"`
	GitCityCSV   string   `mapstructure:"git_city_csv"`
	GitAgeCSV    string   `mapstructure:"git_age_csv"`
	Alternates   []string `mapstructure:"alternates"`
}

// MatchConfig controls fuzzy sheet-name matching.
type MatchConfig struct {
	ToleranceRatio float64 `mapstructure:"tolerance_ratio"`
}

// NormalizeConfig controls type-coercion heuristics.
type NormalizeConfig struct {
	NumericCastThreshold float64 `mapstructure:"numeric_cast_threshold"`
}

// UploadConfig governs warehouse loads.
type UploadConfig struct {
	Driver        string `mapstructure:"driver"`
	AttemptBudget int    `mapstructure:"attempt_budget"`
}

// BigQueryConfig identifies the destination dataset.
type BigQueryConfig struct {
	Project string `mapstructure:"project"`
	Dataset string `mapstructure:"dataset"`
}

// PostgresConfig identifies the alternative warehouse.
type PostgresConfig struct {
	DSN    string `mapstructure:"dsn"`
	Schema string `mapstructure:"schema"`
}

// GCSConfig names an optional bucket mirror for the CSV outputs.
type GCSConfig struct {
	Bucket string `mapstructure:"bucket"`
	Prefix string `mapstructure:"prefix"`
}

// PubSubConfig names an optional topic for the end-of-run report.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// MetricsConfig names an optional Pushgateway for batch metrics.
type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	JobName        string `mapstructure:"job_name"`
}

// LoggingConfig selects verbosity and zap development features.
type LoggingConfig struct {
	Verbosity   int  `mapstructure:"verbosity"`
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("COVIDETL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.url", "https://www.mass.gov/info-details/covid-19-cases-quarantine-and-monitoring")
	v.SetDefault("source.user_agent", "covidetl/1.0 (+https://github.com/baystatedata/covidetl)")
	v.SetDefault("source.timeout_seconds", 30)
	v.SetDefault("paths.download_dir", "downloaded")
	v.SetDefault("paths.processed_dir", "processed")
	v.SetDefault("paths.mount_dir", "/opt/covid19_public_data_map")
	v.SetDefault("paths.git_city_csv", "/opt/data/seed_covid19__by_city_ma.csv")
	v.SetDefault("paths.git_age_csv", "/opt/data/seed_covid19__by_age_ma.csv")
	v.SetDefault("match.tolerance_ratio", 0.1)
	v.SetDefault("normalize.numeric_cast_threshold", 0.5)
	v.SetDefault("upload.driver", DriverNone)
	v.SetDefault("upload.attempt_budget", 5)
	v.SetDefault("postgres.schema", "covid")
	v.SetDefault("gcs.prefix", "csv")
	v.SetDefault("metrics.job_name", "covidetl")
	v.SetDefault("logging.verbosity", 1)
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Source.URL == "" {
		return fmt.Errorf("source.url must be set")
	}
	if c.Source.TimeoutSeconds <= 0 {
		return fmt.Errorf("source.timeout_seconds must be > 0")
	}
	if c.Match.ToleranceRatio <= 0 || c.Match.ToleranceRatio > 1 {
		return fmt.Errorf("match.tolerance_ratio must be in (0, 1]")
	}
	if c.Normalize.NumericCastThreshold <= 0 || c.Normalize.NumericCastThreshold > 1 {
		return fmt.Errorf("normalize.numeric_cast_threshold must be in (0, 1]")
	}
	if c.Upload.AttemptBudget < 1 {
		return fmt.Errorf("upload.attempt_budget must be >= 1")
	}
	switch c.Upload.Driver {
	case DriverBigQuery:
		if c.BigQuery.Project == "" || c.BigQuery.Dataset == "" {
			return fmt.Errorf("bigquery.project and bigquery.dataset must be set for the bigquery driver")
		}
	case DriverPostgres:
		if c.Postgres.DSN == "" {
			return fmt.Errorf("postgres.dsn must be set for the postgres driver")
		}
	case DriverNone:
	default:
		return fmt.Errorf("upload.driver must be one of bigquery, postgres, none")
	}
	if c.Logging.Verbosity < 0 || c.Logging.Verbosity > 2 {
		return fmt.Errorf("logging.verbosity must be 0, 1 or 2")
	}
	return nil
}

// HTTPTimeout converts the configured timeout into a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.Source.TimeoutSeconds) * time.Second
}
