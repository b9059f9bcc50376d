package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Config represents the top-level application configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Schema    SchemaConfig    `koanf:"schema"`
	Ingestion IngestionConfig `koanf:"ingestion"`
	Sink      SinkConfig      `koanf:"sink"`
	Analysis  AnalysisConfig  `koanf:"analysis"`
	Jobs      JobsConfig      `koanf:"jobs"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	Port          int    `koanf:"port"`
	Host          string `koanf:"host"`
	MaxBodySizeMB int    `koanf:"max_body_size_mb"`
	Mode          string `koanf:"mode"` // "debug" or "release"
}

// DatabaseConfig holds the database connection settings.
type DatabaseConfig struct {
	Type         string `koanf:"type"`
	DSN          string `koanf:"dsn"`
	MaxOpenConns int    `koanf:"max_open_conns"`
	MaxIdleConns int    `koanf:"max_idle_conns"`
	AutoMigrate  bool   `koanf:"auto_migrate"`
}

// SchemaConfig holds settings for schema definition loading.
type SchemaConfig struct {
	SourceType string `koanf:"source_type"`
	Path       string `koanf:"path"`
}

// IngestionConfig bounds the ingestion surface.
type IngestionConfig struct {
	MaxBatchSize  int  `koanf:"max_batch_size"`
	MaxAttributes int  `koanf:"max_attributes"`
	PublishEvents bool `koanf:"publish_events"`
}

// SinkConfig selects and tunes the active signal sink.
type SinkConfig struct {
	// Type is one of: durable, cache, hybrid, queue, archive.
	Type string `koanf:"type"`

	CachePath     string `koanf:"cache_path"`
	CacheTTL      string `koanf:"cache_ttl"`
	HotTTLSeconds int    `koanf:"hot_ttl_seconds"`
	HotTTLDays    int    `koanf:"hot_ttl_days"`

	ArchiveBucket      string `koanf:"archive_bucket"`
	ArchivePrefix      string `koanf:"archive_prefix"`
	ArchiveCompress    bool   `koanf:"archive_compress"`
	ArchiveCredentials string `koanf:"archive_credentials"`
}

// AnalysisConfig tunes the behavioral analyzers.
type AnalysisConfig struct {
	ValidityWindow     string   `koanf:"validity_window"`
	Sensitivity        float64  `koanf:"sensitivity"`
	HighValueThreshold float64  `koanf:"high_value_threshold"`
	HighlightedDomains []string `koanf:"highlighted_domains"`
}

// JobsConfig tunes the scheduled background analysis path.
type JobsConfig struct {
	Enabled           bool   `koanf:"enabled"`
	Interval          string `koanf:"interval"`
	UsersPerBatch     int    `koanf:"users_per_batch"`
	MaxBatchDuration  string `koanf:"max_batch_duration"`
	DelayBetweenUsers string `koanf:"delay_between_users"`
}

// SinkTypes lists the valid sink.type values.
var SinkTypes = []string{"durable", "cache", "hybrid", "queue", "archive"}

// EffectiveCacheTTL resolves the cache sink retention, defaulting to 24h.
func (c SinkConfig) EffectiveCacheTTL() (time.Duration, error) {
	if c.CacheTTL == "" {
		return 24 * time.Hour, nil
	}
	return time.ParseDuration(c.CacheTTL)
}

// EffectiveHotTTL resolves the hybrid sink's hot retention. Seconds take
// precedence over days when both are configured; neither configured means 1h.
func (c SinkConfig) EffectiveHotTTL() time.Duration {
	if c.HotTTLSeconds > 0 {
		return time.Duration(c.HotTTLSeconds) * time.Second
	}
	if c.HotTTLDays > 0 {
		return time.Duration(c.HotTTLDays) * 24 * time.Hour
	}
	return time.Hour
}

// EffectiveValidityWindow resolves the insight validity window, defaulting
// to 24h.
func (c AnalysisConfig) EffectiveValidityWindow() (time.Duration, error) {
	if c.ValidityWindow == "" {
		return 24 * time.Hour, nil
	}
	return time.ParseDuration(c.ValidityWindow)
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d (must be 1-65535)", c.Server.Port)
	}
	if strings.TrimSpace(c.Server.Host) == "" {
		return fmt.Errorf("server.host is required")
	}
	if c.Server.MaxBodySizeMB <= 0 {
		return fmt.Errorf("server.max_body_size_mb must be > 0")
	}
	if c.Server.Mode != "debug" && c.Server.Mode != "release" {
		return fmt.Errorf("invalid server.mode %q (must be debug or release)", c.Server.Mode)
	}

	if strings.TrimSpace(c.Database.DSN) == "" {
		return fmt.Errorf("database.dsn is required")
	}
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be > 0")
	}
	if c.Database.MaxIdleConns <= 0 {
		return fmt.Errorf("database.max_idle_conns must be > 0")
	}
	if c.Database.Type != "" && c.Database.Type != "postgres" {
		return fmt.Errorf("unsupported database.type %q", c.Database.Type)
	}

	if c.Schema.SourceType != "filesystem" {
		return fmt.Errorf("unsupported schema.source_type %q", c.Schema.SourceType)
	}
	if strings.TrimSpace(c.Schema.Path) == "" {
		return fmt.Errorf("schema.path is required")
	}
	if _, err := os.Stat(c.Schema.Path); err != nil {
		return fmt.Errorf("schema.path %q is not accessible: %w", c.Schema.Path, err)
	}

	if c.Ingestion.MaxBatchSize <= 0 {
		return fmt.Errorf("ingestion.max_batch_size must be > 0")
	}
	if c.Ingestion.MaxAttributes <= 0 {
		return fmt.Errorf("ingestion.max_attributes must be > 0")
	}

	if !validSinkType(c.Sink.Type) {
		return fmt.Errorf("invalid sink.type %q (must be one of %s)", c.Sink.Type, strings.Join(SinkTypes, ", "))
	}
	if _, err := c.Sink.EffectiveCacheTTL(); err != nil {
		return fmt.Errorf("invalid sink.cache_ttl %q: %w", c.Sink.CacheTTL, err)
	}
	if c.Sink.Type == "archive" && strings.TrimSpace(c.Sink.ArchiveBucket) == "" {
		return fmt.Errorf("sink.archive_bucket is required for the archive sink")
	}
	if (c.Sink.Type == "cache" || c.Sink.Type == "hybrid") && strings.TrimSpace(c.Sink.CachePath) == "" {
		return fmt.Errorf("sink.cache_path is required for the %s sink", c.Sink.Type)
	}

	if _, err := c.Analysis.EffectiveValidityWindow(); err != nil {
		return fmt.Errorf("invalid analysis.validity_window %q: %w", c.Analysis.ValidityWindow, err)
	}
	if c.Analysis.Sensitivity < 0 || c.Analysis.Sensitivity > 1 {
		return fmt.Errorf("analysis.sensitivity must be in [0,1], got %g", c.Analysis.Sensitivity)
	}
	if c.Analysis.HighValueThreshold < 0 {
		return fmt.Errorf("analysis.high_value_threshold must be >= 0")
	}

	if c.Jobs.Enabled {
		interval, err := time.ParseDuration(c.Jobs.Interval)
		if err != nil {
			return fmt.Errorf("invalid jobs.interval %q: %w", c.Jobs.Interval, err)
		}
		if interval <= 0 {
			return fmt.Errorf("jobs.interval must be > 0")
		}
		if c.Jobs.UsersPerBatch <= 0 {
			return fmt.Errorf("jobs.users_per_batch must be > 0")
		}
		if c.Jobs.MaxBatchDuration != "" {
			if _, err := time.ParseDuration(c.Jobs.MaxBatchDuration); err != nil {
				return fmt.Errorf("invalid jobs.max_batch_duration %q: %w", c.Jobs.MaxBatchDuration, err)
			}
		}
		if c.Jobs.DelayBetweenUsers != "" {
			if _, err := time.ParseDuration(c.Jobs.DelayBetweenUsers); err != nil {
				return fmt.Errorf("invalid jobs.delay_between_users %q: %w", c.Jobs.DelayBetweenUsers, err)
			}
		}
	}

	return nil
}

func validSinkType(t string) bool {
	for _, s := range SinkTypes {
		if t == s {
			return true
		}
	}
	return false
}

// Load parses config from defaults, an optional YAML file, and SIFT_*
// environment variables (double underscore maps to a dot), then validates.
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]interface{}{
		"server.port":                   8080,
		"server.host":                   "0.0.0.0",
		"server.max_body_size_mb":       1,
		"server.mode":                   "release",
		"database.type":                 "postgres",
		"database.dsn":                  "",
		"database.max_open_conns":       25,
		"database.max_idle_conns":       25,
		"database.auto_migrate":         true,
		"schema.source_type":            "filesystem",
		"schema.path":                   "./schemas",
		"ingestion.max_batch_size":      100,
		"ingestion.max_attributes":      50,
		"ingestion.publish_events":      false,
		"sink.type":                     "durable",
		"sink.cache_path":               "",
		"sink.cache_ttl":                "24h",
		"sink.hot_ttl_seconds":          0,
		"sink.hot_ttl_days":             0,
		"sink.archive_bucket":           "",
		"sink.archive_prefix":           "signals",
		"sink.archive_compress":         true,
		"sink.archive_credentials":      "",
		"analysis.validity_window":      "24h",
		"analysis.sensitivity":          0.5,
		"analysis.high_value_threshold": 1000.0,
		"analysis.highlighted_domains":  []string{},
		"jobs.enabled":                  true,
		"jobs.interval":                 "1m",
		"jobs.users_per_batch":          50,
		"jobs.max_batch_duration":       "45s",
		"jobs.delay_between_users":      "",
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	if err := k.Load(env.Provider("SIFT_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "SIFT_")), "__", ".", -1)
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
