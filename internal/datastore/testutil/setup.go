// Package testutil provides store fixtures for tests.
package testutil

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tphakala/birdnet-annotations/internal/datastore"
	"github.com/tphakala/birdnet-annotations/internal/logger"
)

// TestStore bundles a migrated store with a silent logger.
type TestStore struct {
	Manager datastore.Manager
	DB      *gorm.DB
	Logger  logger.Logger
	TempDir string
}

// NewSQLiteStore creates a migrated SQLite store in a temporary directory.
// The connection is closed by t.Cleanup.
func NewSQLiteStore(t *testing.T) *TestStore {
	t.Helper()

	tmpDir := t.TempDir()
	log := logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC)

	mgr, err := datastore.NewSQLiteManager(filepath.Join(tmpDir, "annotations.db"), datastore.Config{
		BatchSize: 100,
		Logger:    log,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })

	require.NoError(t, mgr.Initialize(context.Background()))

	return &TestStore{
		Manager: mgr,
		DB:      mgr.DB(),
		Logger:  log,
		TempDir: tmpDir,
	}
}

// Count returns the number of rows in the table of model.
func (s *TestStore) Count(t *testing.T, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, s.DB.Model(model).Count(&n).Error)
	return n
}
