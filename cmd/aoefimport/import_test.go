package aoefimport

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/birdnet-annotations/internal/datastore/repository"
	"github.com/tphakala/birdnet-annotations/internal/errors"
	"github.com/tphakala/birdnet-annotations/internal/importer"
	"github.com/tphakala/birdnet-annotations/internal/logger"
)

func discardLogger() logger.Logger {
	return logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC)
}

func TestImportFileMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")
	calls := 0
	run := func(context.Context, io.Reader, importer.Options) (*importer.Result, error) {
		calls++
		return &importer.Result{}, nil
	}

	_, err := importFile(context.Background(), path, importer.Options{}, run, discardLogger())
	require.Error(t, err)
	assert.Zero(t, calls)
	assert.True(t, errors.IsCategory(err, errors.CategoryFileIO))

	var ee *errors.EnhancedError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, "json", ee.GetContext()["file_extension"])
}

func TestImportFileRetriesOnceAfterDuplicateKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))

	calls := 0
	run := func(context.Context, io.Reader, importer.Options) (*importer.Result, error) {
		calls++
		if calls == 1 {
			return nil, errors.New(repository.ErrDuplicateKey).Category(errors.CategoryConflict).Build()
		}
		return &importer.Result{Name: "retried"}, nil
	}

	res, err := importFile(context.Background(), path, importer.Options{}, run, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "retried", res.Name)

	calls = 0
	failing := func(context.Context, io.Reader, importer.Options) (*importer.Result, error) {
		calls++
		return nil, errors.New(repository.ErrDuplicateKey).Category(errors.CategoryConflict).Build()
	}
	_, err = importFile(context.Background(), path, importer.Options{}, failing, discardLogger())
	require.ErrorIs(t, err, repository.ErrDuplicateKey)
	assert.Equal(t, 2, calls)
}
