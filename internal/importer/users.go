package importer

import (
	"context"

	"github.com/google/uuid"

	"github.com/tphakala/birdnet-annotations/internal/aoef"
	"github.com/tphakala/birdnet-annotations/internal/datastore/entities"
	"github.com/tphakala/birdnet-annotations/internal/datastore/repository"
	"github.com/tphakala/birdnet-annotations/internal/logger"
)

// importUsers maps user UUIDs to stored user IDs. New users whose username
// is already taken by a different UUID get a "-<uuid prefix>" suffix.
func importUsers(ctx context.Context, u *unitOfWork, users []aoef.User) (map[uuid.UUID]uint, error) {
	uuids := make([]uuid.UUID, 0, len(users))
	for i := range users {
		uuids = append(uuids, users[i].UUID)
	}

	mapping, err := repository.ResolveUUIDs[entities.User](ctx, u.tx, uuids)
	if err != nil {
		return nil, err
	}
	reused := len(mapping)

	pending := make([]*aoef.User, 0, len(users))
	queued := make(map[uuid.UUID]struct{})
	candidates := make([]string, 0, 2*len(users))
	for i := range users {
		usr := &users[i]
		if _, ok := mapping[usr.UUID]; ok {
			continue
		}
		if _, ok := queued[usr.UUID]; ok {
			continue
		}
		queued[usr.UUID] = struct{}{}
		pending = append(pending, usr)
		base := baseUsername(usr)
		candidates = append(candidates, base, suffixedUsername(base, usr.UUID))
	}

	taken, err := repository.ResolveColumn(ctx, u.tx, entities.User{}.TableName(), "username", candidates)
	if err != nil {
		return nil, err
	}

	claimed := make(map[string]struct{}, len(pending))
	available := func(name string) bool {
		_, inStore := taken[name]
		_, inBatch := claimed[name]
		return !inStore && !inBatch
	}

	rows := make([]entities.User, 0, len(pending))
	for _, usr := range pending {
		base := baseUsername(usr)
		name := base
		if !available(name) {
			name = suffixedUsername(base, usr.UUID)
			if !available(name) {
				name = usr.UUID.String()
			}
			u.log.Info("username taken, importing user under a new name",
				logger.String("uuid", usr.UUID.String()),
				logger.String("requested", base),
				logger.String("username", name))
		}
		claimed[name] = struct{}{}

		rows = append(rows, entities.User{
			UUID:      usr.UUID,
			Username:  name,
			Name:      deref(usr.Name),
			Email:     deref(usr.Email),
			CreatedOn: u.now,
		})
	}

	created, err := repository.CreateMissing[entities.User, entities.UUIDKey](ctx, u.tx, rows)
	if err != nil {
		return nil, err
	}
	for i := range created {
		mapping[created[i].UUID] = created[i].ID
	}

	u.record(KindUser, reused+len(created), len(created))
	return mapping, nil
}

// baseUsername picks the username a user is stored under when it is free.
func baseUsername(usr *aoef.User) string {
	switch {
	case usr.Username != nil && *usr.Username != "":
		return *usr.Username
	case usr.Name != nil && *usr.Name != "":
		return *usr.Name
	default:
		return usr.UUID.String()
	}
}

func suffixedUsername(base string, id uuid.UUID) string {
	return base + "-" + id.String()[:8]
}
