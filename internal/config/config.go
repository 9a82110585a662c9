// Package config loads and validates the static configuration this
// collector is run with.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/EIDA/wfcatalog/internal/identity"
)

// Mongo holds the store connection and behavior settings. The field name
// keeps the source's MONGO.* vocabulary even though the store itself is
// now SQLite-backed (internal/catalog): the configuration surface is
// preserved verbatim and the backing engine is an implementation detail.
type Mongo struct {
	Enabled      bool   `yaml:"enabled"`
	DBHost       string `yaml:"db_host"`
	DBName       string `yaml:"db_name"`
	Authenticate bool   `yaml:"authenticate"`
	User         string `yaml:"user"`
	Pass         string `yaml:"pass"`
	AllowDouble  bool   `yaml:"allow_double"`
}

// Filters holds the glob whitelist/blacklist applied to candidate
// basenames.
type Filters struct {
	White []string `yaml:"white"`
	Black []string `yaml:"black"`
}

// Config is the full static configuration, loaded once at startup.
type Config struct {
	Version   string `yaml:"version"`
	Archive   string `yaml:"archive"`
	Publisher string `yaml:"publisher"`

	Structure   identity.Layout `yaml:"structure"`
	ArchiveRoot string          `yaml:"archive_root"`

	Filters Filters `yaml:"filters"`

	Mongo Mongo `yaml:"mongo"`

	ProcessingTimeoutSeconds int `yaml:"processing_timeout"`

	EnableDublinCore bool `yaml:"enable_dublin_core"`

	PeriodLowerLimit float64 `yaml:"period_lower_limit"`
	PeriodUpperLimit float64 `yaml:"period_upper_limit"`

	FDSNStationAddress string `yaml:"fdsn_station_address"`

	DefaultLogFile string `yaml:"default_log_file"`
}

// Default returns a fully-populated Config with sensible defaults. There
// is no package-level mutable singleton: every caller gets its own value
// and threads it explicitly through constructors.
func Default() Config {
	return Config{
		Version:                  "1.0",
		Archive:                  "EIDA",
		Publisher:                "",
		Structure:                identity.SDS,
		ArchiveRoot:              "",
		Filters:                  Filters{White: []string{"*"}},
		Mongo:                    Mongo{Enabled: false},
		ProcessingTimeoutSeconds: 120,
		EnableDublinCore:         false,
		PeriodLowerLimit:         0.02,
		PeriodUpperLimit:         200,
		FDSNStationAddress:       "",
		DefaultLogFile:           "wfcatalog.log",
	}
}

// Load reads and parses a YAML configuration file, starting from Default()
// so unset keys retain their defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: reading %s: %v", ErrInvalidConfig, path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parsing %s: %v", ErrInvalidConfig, path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for the errors the CLI layer must
// reject before running: unknown STRUCTURE, empty ARCHIVE_ROOT, empty
// FILTERS.WHITE, and a non-positive PROCESSING_TIMEOUT. CLI flag
// combinations are not checked here.
func (c Config) Validate() error {
	if !identity.ValidLayout(c.Structure) {
		return fmt.Errorf("%w: unknown structure %q", ErrInvalidConfig, c.Structure)
	}
	if c.ArchiveRoot == "" {
		return fmt.Errorf("%w: archive_root must not be empty", ErrInvalidConfig)
	}
	if len(c.Filters.White) == 0 {
		return fmt.Errorf("%w: filters.white must not be empty", ErrInvalidConfig)
	}
	if c.ProcessingTimeoutSeconds <= 0 {
		return fmt.Errorf("%w: processing_timeout must be positive", ErrInvalidConfig)
	}
	return nil
}
