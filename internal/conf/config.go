// Package conf loads import settings from config.yaml, environment variables and CLI flags.
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/tphakala/birdnet-annotations/internal/errors"
	"github.com/tphakala/birdnet-annotations/internal/logger"
)

// Database backends
const (
	DatabaseSQLite = "sqlite"
	DatabaseMySQL  = "mysql"
)

// Settings contains all configuration options for the importer
type Settings struct {
	Debug bool // true to enable debug logging

	Database  DatabaseSettings
	Audio     AudioSettings
	Import    ImportSettings
	Logging   LoggingSettings
	Cache     CacheSettings
	Telemetry TelemetrySettings
}

// DatabaseSettings selects and configures the store
type DatabaseSettings struct {
	Type               string        // sqlite or mysql
	SlowQueryThreshold time.Duration // queries slower than this are logged as warnings
	SQLite             SQLiteSettings
	MySQL              MySQLSettings
}

// SQLiteSettings contains settings for the SQLite database.
type SQLiteSettings struct {
	Path string // path to the SQLite database file
}

// MySQLSettings contains settings for the MySQL database.
type MySQLSettings struct {
	Username string
	Password string
	Database string
	Host     string
	Port     string
}

// AudioSettings locates audio files referenced by imported recordings
type AudioSettings struct {
	BaseDir string // recording paths are stored relative to this directory
}

// ImportSettings tunes the reconciliation engine
type ImportSettings struct {
	BatchSize   int // rows per INSERT statement
	Concurrency int // files imported in parallel by the CLI, each in its own transaction
}

// LoggingSettings configures console and file logging
type LoggingSettings struct {
	Level        string
	Timezone     string
	FilePath     string            // empty disables JSON file output
	ModuleLevels map[string]string // e.g. datastore: trace
}

// CacheSettings configures derived aggregate caches
type CacheSettings struct {
	TagTTL time.Duration // lifetime of cached project tag lists
}

// TelemetrySettings configures opt-in error reporting to Sentry
type TelemetrySettings struct {
	Enabled     bool
	DSN         string
	Environment string
}

// LoggingConfig converts the settings into the logger package configuration.
func (s *Settings) LoggingConfig() *logger.LoggingConfig {
	level := s.Logging.Level
	if s.Debug {
		level = string(logger.LogLevelDebug)
	}

	cfg := &logger.LoggingConfig{
		DefaultLevel: level,
		Timezone:     s.Logging.Timezone,
		Console:      &logger.ConsoleOutput{Enabled: true, Level: level},
		ModuleLevels: s.Logging.ModuleLevels,
	}
	if s.Logging.FilePath != "" {
		cfg.FileOutput = &logger.FileOutput{Enabled: true, Path: s.Logging.FilePath, Level: level}
	}
	return cfg
}

// NewViper returns a viper instance with defaults and environment bindings applied.
func NewViper() (*viper.Viper, error) {
	v := viper.New()
	setDefaultConfig(v)
	if err := bindEnvVars(v); err != nil {
		return nil, err
	}
	return v, nil
}

// Load reads configFile (when set, otherwise config.yaml from the default
// search paths) into Settings and validates the result. A missing default
// config file is not an error.
func Load(v *viper.Viper, configFile string) (*Settings, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, path := range defaultConfigPaths() {
			v.AddConfigPath(path)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, errors.New(fmt.Errorf("error reading config file: %w", err)).
				Component("configuration").
				Category(errors.CategoryConfiguration).
				Build()
		}
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, errors.New(fmt.Errorf("error unmarshaling config into struct: %w", err)).
			Component("configuration").
			Category(errors.CategoryConfiguration).
			Build()
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, errors.New(fmt.Errorf("error validating settings: %w", err)).
			Component("configuration").
			Category(errors.CategoryValidation).
			Build()
	}

	return settings, nil
}

var userConfigDir = os.UserConfigDir

func defaultConfigPaths() []string {
	paths := []string{"."}
	if dir, err := userConfigDir(); err == nil {
		paths = append(paths, filepath.Join(dir, "birdnet-annotations"))
	}
	return paths
}
