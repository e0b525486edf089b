// Package config defines the configuration structures for the CaseIntel
// pipeline.  No I/O or parsing logic lives here, only plain data types and
// validation.  Each pipeline stage receives its own sub-struct by value.
package config

import (
	"fmt"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Infrastructure sections
// ─────────────────────────────────────────────────────────────────────────────

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"db_name"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	MigrationPath   string        `mapstructure:"migration_path"`
}

// RedisConfig holds Redis parameters for checkpoints and entity locks.
// Redis is optional: when Addr is empty checkpoints are kept in memory.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// KafkaConfig holds the change-event producer parameters.
type KafkaConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Brokers      []string      `mapstructure:"brokers"`
	Topic        string        `mapstructure:"topic"`
	BatchSize    int           `mapstructure:"batch_size"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	MaxAttempts  int           `mapstructure:"max_attempts"`
}

// LogConfig holds structured-logging parameters.
type LogConfig struct {
	Level       string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format      string   `mapstructure:"format"` // "json" | "console"
	OutputPaths []string `mapstructure:"output_paths"`
}

// MetricsConfig controls pipeline metrics.  When PushgatewayURL is set the
// collected metrics are pushed once at the end of a run.  ListenAddr serves
// probes and /metrics while a run is in flight.
type MetricsConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Namespace      string `mapstructure:"namespace"`
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	JobName        string `mapstructure:"job_name"`
	ListenAddr     string `mapstructure:"listen_addr"`
}

// AIConfig configures the optional AI outcome classifier.
type AIConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	APIKey     string        `mapstructure:"api_key"`
	BaseURL    string        `mapstructure:"base_url"`
	Model      string        `mapstructure:"model"`
	Timeout    time.Duration `mapstructure:"timeout"`
	RatePerSec float64       `mapstructure:"rate_per_sec"`
	Burst      int           `mapstructure:"burst"`
	CacheTTL   time.Duration `mapstructure:"cache_ttl"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Pipeline sections
// ─────────────────────────────────────────────────────────────────────────────

// ExtractionConfig drives the entity extractor.
type ExtractionConfig struct {
	MinNameLength     int                 `mapstructure:"min_name_length"`
	PageSize          int                 `mapstructure:"page_size"`
	Categories        []string            `mapstructure:"categories"`
	StopWords         []string            `mapstructure:"stop_words"`
	Honorifics        []string            `mapstructure:"honorifics"`
	Blacklist         []string            `mapstructure:"blacklist"`
	BankSuffixes      []string            `mapstructure:"bank_suffixes"`
	InsuranceSuffixes []string            `mapstructure:"insurance_suffixes"`
	CompanySuffixes   []string            `mapstructure:"company_suffixes"`
	Seeds             map[string][]string `mapstructure:"seeds"`
}

// ClassificationConfig holds the outcome marker groups.  Plaintiff and
// defendant markers are side-relative and mirrored for defendant entities.
type ClassificationConfig struct {
	FavorableMarkers   []string `mapstructure:"favorable_markers"`
	UnfavorableMarkers []string `mapstructure:"unfavorable_markers"`
	MixedMarkers       []string `mapstructure:"mixed_markers"`
	PlaintiffMarkers   []string `mapstructure:"plaintiff_markers"`
	DefendantMarkers   []string `mapstructure:"defendant_markers"`
	AI                 AIConfig `mapstructure:"ai"`
}

// ScoringConfig holds the risk model constants.
type ScoringConfig struct {
	WeightUnresolved  float64 `mapstructure:"weight_unresolved"`
	WeightUnfavorable float64 `mapstructure:"weight_unfavorable"`
	VolumeScale       float64 `mapstructure:"volume_scale"`
	VolumeCap         float64 `mapstructure:"volume_cap"`
	MonetaryScale     float64 `mapstructure:"monetary_scale"`
	MonetaryCap       float64 `mapstructure:"monetary_cap"`

	UnresolvedFactorRatio  float64 `mapstructure:"unresolved_factor_ratio"`
	UnfavorableFactorRatio float64 `mapstructure:"unfavorable_factor_ratio"`
	MixedFactorRatio       float64 `mapstructure:"mixed_factor_ratio"`
	VolumeFactorCount      int     `mapstructure:"volume_factor_count"`
	HighExposure           float64 `mapstructure:"high_exposure"`

	FinancialMedium  float64 `mapstructure:"financial_medium"`
	FinancialHigh    float64 `mapstructure:"financial_high"`
	FinancialCrit    float64 `mapstructure:"financial_critical"`
	AveragePromotion float64 `mapstructure:"average_promotion"`

	// SubjectKeywords maps an area of law to the keywords that indicate it.
	SubjectKeywords map[string][]string `mapstructure:"subject_keywords"`
}

// BackfillConfig drives the batch driver.
type BackfillConfig struct {
	Workers           int           `mapstructure:"workers"`
	MaxRetries        int           `mapstructure:"max_retries"`
	InitialBackoff    time.Duration `mapstructure:"initial_backoff"`
	MaxBackoff        time.Duration `mapstructure:"max_backoff"`
	BackoffMultiplier float64       `mapstructure:"backoff_multiplier"`
	UnitTimeout       time.Duration `mapstructure:"unit_timeout"`
	LockTTL           time.Duration `mapstructure:"lock_ttl"`
	CheckpointTTL     time.Duration `mapstructure:"checkpoint_ttl"`
}

// PipelineConfig groups the per-stage sections.
type PipelineConfig struct {
	Extraction     ExtractionConfig     `mapstructure:"extraction"`
	Classification ClassificationConfig `mapstructure:"classification"`
	Scoring        ScoringConfig        `mapstructure:"scoring"`
	Backfill       BackfillConfig       `mapstructure:"backfill"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config and
// returns the first error encountered.
func (c *Config) Validate() error {
	// Database
	if c.Database.Host == "" {
		return fmt.Errorf("config: database.host is required")
	}
	if c.Database.Port < 1 || c.Database.Port > 65535 {
		return fmt.Errorf("config: database.port %d is out of range [1, 65535]", c.Database.Port)
	}
	if c.Database.User == "" {
		return fmt.Errorf("config: database.user is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("config: database.db_name is required")
	}

	// Redis
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be >= 0, got %d", c.Redis.DB)
	}

	// Kafka
	if c.Kafka.Enabled {
		if len(c.Kafka.Brokers) == 0 {
			return fmt.Errorf("config: kafka.brokers must contain at least one broker when kafka is enabled")
		}
		if c.Kafka.Topic == "" {
			return fmt.Errorf("config: kafka.topic is required when kafka is enabled")
		}
	}

	// AI
	ai := c.Pipeline.Classification.AI
	if ai.Enabled {
		if ai.APIKey == "" {
			return fmt.Errorf("config: pipeline.classification.ai.api_key is required when ai is enabled")
		}
		if ai.Timeout <= 0 {
			return fmt.Errorf("config: pipeline.classification.ai.timeout must be positive")
		}
	}

	if err := c.Pipeline.Extraction.Validate(); err != nil {
		return err
	}
	if err := c.Pipeline.Scoring.Validate(); err != nil {
		return err
	}
	if c.Pipeline.Backfill.Workers < 1 {
		return fmt.Errorf("config: pipeline.backfill.workers must be >= 1, got %d", c.Pipeline.Backfill.Workers)
	}
	if c.Pipeline.Backfill.MaxRetries < 0 {
		return fmt.Errorf("config: pipeline.backfill.max_retries must be >= 0, got %d", c.Pipeline.Backfill.MaxRetries)
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}

// Validate checks the extractor section.
func (e ExtractionConfig) Validate() error {
	if e.MinNameLength < 1 {
		return fmt.Errorf("config: pipeline.extraction.min_name_length must be >= 1, got %d", e.MinNameLength)
	}
	if e.PageSize < 1 {
		return fmt.Errorf("config: pipeline.extraction.page_size must be >= 1, got %d", e.PageSize)
	}
	for _, c := range e.Categories {
		switch c {
		case "person", "bank", "insurance", "company":
		default:
			return fmt.Errorf("config: pipeline.extraction.categories: unknown category %q", c)
		}
	}
	return nil
}

// Validate checks the scorer section.  Thresholds must be strictly increasing.
func (s ScoringConfig) Validate() error {
	if s.WeightUnresolved < 0 || s.WeightUnfavorable < 0 {
		return fmt.Errorf("config: pipeline.scoring weights must be non-negative")
	}
	if s.VolumeCap < 0 || s.MonetaryCap < 0 {
		return fmt.Errorf("config: pipeline.scoring caps must be non-negative")
	}
	if !(s.FinancialMedium < s.FinancialHigh && s.FinancialHigh < s.FinancialCrit) {
		return fmt.Errorf("config: pipeline.scoring financial thresholds must increase: %.0f < %.0f < %.0f",
			s.FinancialMedium, s.FinancialHigh, s.FinancialCrit)
	}
	return nil
}

//Personal.AI order the ending
