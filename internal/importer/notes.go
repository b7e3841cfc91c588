package importer

import (
	"context"

	"github.com/google/uuid"

	"github.com/tphakala/birdnet-annotations/internal/aoef"
	"github.com/tphakala/birdnet-annotations/internal/datastore/entities"
	"github.com/tphakala/birdnet-annotations/internal/datastore/repository"
)

// importNotes stores the notes of resolved owners and adds them to
// reg.notes. Notes already mapped by an earlier owner are skipped. Authors
// that cannot be resolved are replaced by the importing user.
func importNotes(ctx context.Context, u *unitOfWork, reg *registries, notes []aoef.Note) error {
	rows := make([]entities.Note, 0, len(notes))
	for i := range notes {
		n := &notes[i]
		if _, ok := reg.notes[n.UUID]; ok {
			continue
		}
		createdBy := u.creator(n.CreatedBy, reg.users)
		rows = append(rows, entities.Note{
			UUID:        n.UUID,
			Message:     n.Message,
			CreatedByID: &createdBy,
			IsIssue:     n.IsIssue,
			CreatedOn:   n.CreatedOn.OrNow(u.now),
		})
	}
	if len(rows) == 0 {
		return nil
	}

	ids, created, err := repository.Reconcile[entities.Note, entities.UUIDKey](ctx, u.tx, rows)
	if err != nil {
		return err
	}
	for k, id := range ids {
		reg.notes[uuid.UUID(k)] = id
	}

	u.record(KindNote, len(ids), created)
	return nil
}
