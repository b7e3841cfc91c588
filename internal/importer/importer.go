// Package importer reconciles AOEF documents against the annotation store.
//
// An import validates the document before touching the store, then creates
// or reuses rows for every entity in dependency order inside one
// transaction: the anchor (project or dataset), tags, users, feature names,
// notes, recordings, clips and sound events, clip annotations, sound event
// annotations, annotation tasks and finally project tags. Existing rows are
// reused and never modified; re-importing a document is a no-op.
//
// Entities referencing something that cannot be resolved are skipped and
// listed in Result.Report rather than failing the import.
package importer

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tphakala/birdnet-annotations/internal/aoef"
	"github.com/tphakala/birdnet-annotations/internal/datastore/entities"
	"github.com/tphakala/birdnet-annotations/internal/datastore/repository"
	"github.com/tphakala/birdnet-annotations/internal/errors"
	"github.com/tphakala/birdnet-annotations/internal/logger"
	"github.com/tphakala/birdnet-annotations/internal/observability/metrics"
)

// ErrImportingUserNotFound is returned when Options.ImportedBy names no stored user.
var ErrImportingUserNotFound = errors.NewStd("importing user not found")

const defaultTagCacheTTL = 10 * time.Minute

// Importer imports AOEF documents into a store.
type Importer struct {
	db      *gorm.DB
	log     logger.Logger
	tags    *repository.ProjectTagCache
	metrics metrics.Recorder
	now     func() time.Time
}

// Option configures an Importer.
type Option func(*Importer)

// WithLogger sets the logger; records are scoped to the "importer" module.
func WithLogger(log logger.Logger) Option {
	return func(i *Importer) { i.log = log }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(r metrics.Recorder) Option {
	return func(i *Importer) { i.metrics = r }
}

// WithTagCache sets the project tag cache kept current by project imports.
func WithTagCache(c *repository.ProjectTagCache) Option {
	return func(i *Importer) { i.tags = c }
}

// WithClock sets the time source for default timestamps.
func WithClock(now func() time.Time) Option {
	return func(i *Importer) { i.now = now }
}

// New creates an Importer writing through db.
func New(db *gorm.DB, opts ...Option) *Importer {
	i := &Importer{
		db:      db,
		metrics: metrics.NoopRecorder{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.log == nil {
		i.log = logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC)
	}
	i.log = i.log.Module("importer")
	if i.tags == nil {
		i.tags = repository.NewProjectTagCache(defaultTagCacheTTL)
	}
	return i
}

// TagCache returns the project tag cache.
func (i *Importer) TagCache() *repository.ProjectTagCache {
	return i.tags
}

// Result describes a committed import.
type Result struct {
	// Collection is the imported collection type.
	Collection string
	// UUID and ID identify the anchor project or dataset.
	UUID uuid.UUID
	ID   uint
	Name string
	// Created reports whether the anchor was created by this import.
	Created bool
	// Stats holds per-kind mapping sizes, keyed by the Kind constants.
	Stats  map[string]KindStats
	Report Report
	// ProjectTags is the project's tag list after the import.
	ProjectTags []entities.Tag
	Duration    time.Duration
}

// ImportAnnotationProject imports an annotation_project document from src.
// Format errors are reported as *aoef.FormatError before any write.
func (i *Importer) ImportAnnotationProject(ctx context.Context, src io.Reader, opts Options) (*Result, error) {
	start := time.Now()
	collection := aoef.CollectionAnnotationProject

	project, _, err := aoef.ParseAnnotationProject(src)
	if err != nil {
		i.metrics.RecordImport(collection, metrics.StatusRejected, time.Since(start))
		return nil, err
	}
	opts, err = opts.normalize()
	if err != nil {
		i.metrics.RecordImport(collection, metrics.StatusRejected, time.Since(start))
		return nil, err
	}

	log := i.log.With(logger.String("project_uuid", project.UUID.String()))
	log.Info("importing annotation project",
		logger.Int("recordings", len(project.Recordings)),
		logger.Int("clips", len(project.Clips)),
		logger.Int("clip_annotations", len(project.ClipAnnotations)),
		logger.Int("tasks", len(project.Tasks)))

	result := &Result{Collection: collection, UUID: project.UUID}
	var u *unitOfWork
	err = i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if u, err = i.begin(ctx, tx, opts, log); err != nil {
			return err
		}
		return importProject(ctx, u, project, result)
	})
	result.Duration = time.Since(start)

	if err != nil {
		if result.ID != 0 {
			i.tags.Invalidate(result.ID)
			i.metrics.RecordCacheOperation(metrics.OpCacheInvalidate)
		}
		return nil, i.fail(log, collection, result, err)
	}

	i.finish(log, result, u)

	tags, err := i.tags.Refresh(ctx, i.db, result.ID)
	if err != nil {
		log.Warn("failed to refresh project tag cache", logger.Error(err))
	} else {
		i.metrics.RecordCacheOperation(metrics.OpCacheRefresh)
		result.ProjectTags = tags
	}

	return result, nil
}

// ImportDataset imports a dataset document from src. The dataset's audio
// directory is stored relative to Options.BaseAudioDir.
func (i *Importer) ImportDataset(ctx context.Context, src io.Reader, opts Options) (*Result, error) {
	start := time.Now()
	collection := aoef.CollectionDataset

	dataset, _, err := aoef.ParseDataset(src)
	if err != nil {
		i.metrics.RecordImport(collection, metrics.StatusRejected, time.Since(start))
		return nil, err
	}
	opts, err = opts.normalize()
	if err != nil {
		i.metrics.RecordImport(collection, metrics.StatusRejected, time.Since(start))
		return nil, err
	}
	audioDir, err := relativeTo(opts.BaseAudioDir, opts.AudioDir)
	if err != nil {
		i.metrics.RecordImport(collection, metrics.StatusRejected, time.Since(start))
		return nil, errors.New(err).
			Component("importer").
			Category(errors.CategoryValidation).
			Context("audio_dir", opts.AudioDir).
			Build()
	}

	log := i.log.With(logger.String("dataset_uuid", dataset.UUID.String()))
	log.Info("importing dataset",
		logger.String("audio_dir", audioDir),
		logger.Int("recordings", len(dataset.Recordings)))

	result := &Result{Collection: collection, UUID: dataset.UUID}
	var u *unitOfWork
	err = i.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		if u, err = i.begin(ctx, tx, opts, log); err != nil {
			return err
		}
		return importDataset(ctx, u, dataset, audioDir, result)
	})
	result.Duration = time.Since(start)

	if err != nil {
		return nil, i.fail(log, collection, result, err)
	}

	i.finish(log, result, u)
	return result, nil
}

// begin resolves the importing user and opens the unit of work.
func (i *Importer) begin(ctx context.Context, tx *gorm.DB, opts Options, log logger.Logger) (*unitOfWork, error) {
	ids, err := repository.ResolveColumn(ctx, tx, entities.User{}.TableName(), "username", []string{opts.ImportedBy})
	if err != nil {
		return nil, err
	}
	userID, ok := ids[opts.ImportedBy]
	if !ok {
		return nil, errors.New(ErrImportingUserNotFound).
			Component("importer").
			Category(errors.CategoryValidation).
			Context("username", opts.ImportedBy).
			Build()
	}
	return newUnitOfWork(tx, i.now().UTC(), userID, opts, log), nil
}

// finish records metrics and logs the summary of a committed import.
func (i *Importer) finish(log logger.Logger, result *Result, u *unitOfWork) {
	result.Stats = u.stats
	result.Report = u.report

	created := 0
	for kind, s := range u.stats {
		i.metrics.RecordEntities(kind, s.Created, s.Reused())
		created += s.Created
	}
	for _, d := range u.report.Dropped {
		i.metrics.RecordDropped(d.Kind, d.Reason)
	}
	i.metrics.RecordImport(result.Collection, metrics.StatusSuccess, result.Duration)

	fields := []logger.Field{
		logger.Uint("id", result.ID),
		logger.Bool("anchor_created", result.Created),
		logger.Int("rows_created", created),
		logger.Int("dropped", len(u.report.Dropped)),
		logger.Duration("duration", result.Duration),
	}
	if len(u.report.Dropped) > 0 {
		log.Warn("import committed with dropped entities", fields...)
		return
	}
	log.Info("import committed", fields...)
}

// fail records a rolled back import and wraps err with import context.
func (i *Importer) fail(log logger.Logger, collection string, result *Result, err error) error {
	i.metrics.RecordImport(collection, metrics.StatusError, result.Duration)
	log.Error("import rolled back",
		logger.Error(err),
		logger.Duration("duration", result.Duration))

	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		return err
	}
	return errors.New(err).
		Component("importer").
		Context("collection", collection).
		Context("uuid", result.UUID.String()).
		Timing("import", result.Duration).
		Build()
}

// importStep is one stage of an import.
type importStep struct {
	name string
	run  func(ctx context.Context) error
}

func runSteps(ctx context.Context, u *unitOfWork, steps []importStep) error {
	for _, s := range steps {
		if err := u.step(ctx, s.name, func() error { return s.run(ctx) }); err != nil {
			return err
		}
	}
	return nil
}

// registrySteps returns the steps filling the shared registries.
func registrySteps(u *unitOfWork, reg *registries, tags []aoef.Tag, users []aoef.User) []importStep {
	return []importStep{
		{"tags", func(ctx context.Context) (err error) {
			reg.tags, err = importTags(ctx, u, tags)
			return err
		}},
		{"users", func(ctx context.Context) (err error) {
			reg.users, err = importUsers(ctx, u, users)
			return err
		}},
	}
}
