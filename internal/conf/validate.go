package conf

import (
	"fmt"
	"strings"
)

// maxBatchSize keeps a single INSERT under the SQLite bound-parameter limit for the widest row
const maxBatchSize = 2000

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	if err := validateDatabaseSettings(&settings.Database); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if err := validateImportSettings(&settings.Import); err != nil {
		ve.Errors = append(ve.Errors, err.Error())
	}

	if settings.Telemetry.Enabled && settings.Telemetry.DSN == "" {
		ve.Errors = append(ve.Errors, "telemetry.dsn is required when telemetry is enabled")
	}

	if settings.Cache.TagTTL < 0 {
		ve.Errors = append(ve.Errors, "cache.tagttl must not be negative")
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateDatabaseSettings(settings *DatabaseSettings) error {
	settings.Type = strings.ToLower(settings.Type)

	switch settings.Type {
	case DatabaseSQLite:
		if settings.SQLite.Path == "" {
			return fmt.Errorf("database.sqlite.path is required for sqlite")
		}
	case DatabaseMySQL:
		if settings.MySQL.Host == "" || settings.MySQL.Database == "" {
			return fmt.Errorf("database.mysql.host and database.mysql.database are required for mysql")
		}
	default:
		return fmt.Errorf("unsupported database type %q", settings.Type)
	}
	return nil
}

func validateImportSettings(settings *ImportSettings) error {
	if settings.BatchSize < 1 || settings.BatchSize > maxBatchSize {
		return fmt.Errorf("import.batchsize must be between 1 and %d, got %d", maxBatchSize, settings.BatchSize)
	}
	if settings.Concurrency < 1 {
		return fmt.Errorf("import.concurrency must be at least 1, got %d", settings.Concurrency)
	}
	return nil
}
