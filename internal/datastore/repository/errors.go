package repository

import (
	"strings"

	"gorm.io/gorm"

	"github.com/tphakala/birdnet-annotations/internal/errors"
)

// Sentinel errors for repository operations.
var (
	// ErrDuplicateKey indicates a unique constraint violation, typically a
	// concurrent import that inserted the same natural key first.
	ErrDuplicateKey = errors.NewStd("duplicate key")

	// ErrInvalidKey indicates a natural key whose value count does not match its columns.
	ErrInvalidKey = errors.NewStd("natural key does not match key columns")
)

// isDuplicateKeyError reports unique-constraint violations. TranslateError
// covers the registered dialects; the message checks cover handles opened
// without it.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "Duplicate entry")
}

// dbError wraps a store failure with the operation and table it concerned.
func dbError(err error, operation, table string) error {
	if isDuplicateKeyError(err) {
		return errors.New(errors.Join(ErrDuplicateKey, err)).
			Component("datastore").
			Category(errors.CategoryConflict).
			Context("operation", operation).
			Context("table", table).
			Build()
	}
	return errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("operation", operation).
		Context("table", table).
		Build()
}
