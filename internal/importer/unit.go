package importer

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tphakala/birdnet-annotations/internal/datastore/entities"
	"github.com/tphakala/birdnet-annotations/internal/logger"
)

// unitOfWork carries the state shared by the entity importers of one import.
// Every importer receives it explicitly; tx is the import's transaction.
type unitOfWork struct {
	tx         *gorm.DB
	now        time.Time
	importedBy uint
	opts       Options
	paths      pathResolver
	log        logger.Logger

	stats  map[string]KindStats
	report Report
}

func newUnitOfWork(tx *gorm.DB, now time.Time, importedBy uint, opts Options, log logger.Logger) *unitOfWork {
	return &unitOfWork{
		tx:         tx,
		now:        now,
		importedBy: importedBy,
		opts:       opts,
		paths:      pathResolver{audioDir: opts.AudioDir, baseDir: opts.BaseAudioDir},
		log:        log,
		stats:      make(map[string]KindStats),
	}
}

// record adds mapped and created counts to the stats of kind.
func (u *unitOfWork) record(kind string, mapped, created int) {
	s := u.stats[kind]
	s.Mapped += mapped
	s.Created += created
	u.stats[kind] = s
}

// drop reports an entity skipped for an unresolved reference.
func (u *unitOfWork) drop(kind string, id uuid.UUID, reason string, detail any) {
	d := Dropped{Kind: kind, ID: id, Reason: reason, Detail: fmt.Sprint(detail)}
	u.report.Dropped = append(u.report.Dropped, d)
	u.log.Debug("dropped entity",
		logger.String("kind", kind),
		logger.String("uuid", id.String()),
		logger.String("reason", reason),
		logger.String("detail", d.Detail))
}

// step runs fn unless ctx is done, logging its duration.
func (u *unitOfWork) step(ctx context.Context, name string, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	start := time.Now()
	if err := fn(); err != nil {
		return err
	}
	u.log.Debug("import step finished",
		logger.String("step", name),
		logger.Duration("duration", time.Since(start)))
	return nil
}

// creator returns the user ID for an optional author reference, falling
// back to the importing user.
func (u *unitOfWork) creator(ref *uuid.UUID, users map[uuid.UUID]uint) uint {
	if ref != nil {
		if id, ok := users[*ref]; ok {
			return id
		}
	}
	return u.importedBy
}

// registries holds the shared lookups every content importer consumes.
// Feature names and notes are filled by the owners that use them, so an
// owner that fails to resolve leaves none behind.
type registries struct {
	tags     map[int]uint
	users    map[uuid.UUID]uint
	features map[string]uint
	notes    map[uuid.UUID]uint
}

func newRegistries() *registries {
	return &registries{
		features: make(map[string]uint),
		notes:    make(map[uuid.UUID]uint),
	}
}

func byUUID(ids map[entities.UUIDKey]uint) map[uuid.UUID]uint {
	out := make(map[uuid.UUID]uint, len(ids))
	for k, id := range ids {
		out[uuid.UUID(k)] = id
	}
	return out
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
