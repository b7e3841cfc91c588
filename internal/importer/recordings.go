package importer

import (
	"context"

	"github.com/google/uuid"

	"github.com/tphakala/birdnet-annotations/internal/aoef"
	"github.com/tphakala/birdnet-annotations/internal/datastore/entities"
	"github.com/tphakala/birdnet-annotations/internal/datastore/repository"
	"github.com/tphakala/birdnet-annotations/internal/errors"
)

type recordingCandidate struct {
	obj  *aoef.Recording
	path string
}

func (c recordingCandidate) hash() string {
	return deref(c.obj.Hash)
}

// importRecordings maps recording UUIDs to stored recording IDs.
//
// A recording is matched by UUID, then by content hash, then by stored path,
// so a file imported under another UUID is reused rather than duplicated.
// Document recordings sharing a hash or path collapse onto the first of them.
// Recordings whose path leaves the base audio directory are dropped.
func importRecordings(ctx context.Context, u *unitOfWork, recordings []aoef.Recording, reg *registries) (map[uuid.UUID]uint, error) {
	candidates := make([]recordingCandidate, 0, len(recordings))
	uuids := make([]uuid.UUID, 0, len(recordings))
	for i := range recordings {
		r := &recordings[i]
		stored, err := u.paths.resolve(r.Path)
		if err != nil {
			if errors.Is(err, errPathOutsideBase) {
				u.drop(KindRecording, r.UUID, ReasonPathOutsideAudioDir, r.Path)
				continue
			}
			return nil, err
		}
		candidates = append(candidates, recordingCandidate{obj: r, path: stored})
		uuids = append(uuids, r.UUID)
	}

	mapping, err := repository.ResolveUUIDs[entities.Recording](ctx, u.tx, uuids)
	if err != nil {
		return nil, err
	}

	var hashes, paths []string
	for _, c := range candidates {
		if _, ok := mapping[c.obj.UUID]; ok {
			continue
		}
		if h := c.hash(); h != "" {
			hashes = append(hashes, h)
		}
		paths = append(paths, c.path)
	}

	table := entities.Recording{}.TableName()
	byHash, err := repository.ResolveColumn(ctx, u.tx, table, "hash", hashes)
	if err != nil {
		return nil, err
	}
	byPath, err := repository.ResolveColumn(ctx, u.tx, table, "path", paths)
	if err != nil {
		return nil, err
	}

	aliases := make(map[uuid.UUID]uuid.UUID)
	firstByHash := make(map[string]uuid.UUID)
	firstByPath := make(map[string]uuid.UUID)
	queued := make(map[uuid.UUID]struct{})
	rows := make([]entities.Recording, 0, len(candidates))

	for _, c := range candidates {
		id := c.obj.UUID
		if _, ok := mapping[id]; ok {
			continue
		}
		if _, ok := queued[id]; ok {
			continue
		}
		h := c.hash()
		if stored, ok := byHash[h]; ok && h != "" {
			mapping[id] = stored
			continue
		}
		if stored, ok := byPath[c.path]; ok {
			mapping[id] = stored
			continue
		}
		if first, ok := firstByHash[h]; ok && h != "" {
			aliases[id] = first
			continue
		}
		if first, ok := firstByPath[c.path]; ok {
			aliases[id] = first
			continue
		}
		if u.opts.ExistingRecordingsOnly {
			u.drop(KindRecording, id, ReasonRecordingNotInStore, c.path)
			continue
		}

		queued[id] = struct{}{}
		if h != "" {
			firstByHash[h] = id
		}
		firstByPath[c.path] = id
		rows = append(rows, newRecordingRow(c, u))
	}

	created, err := repository.CreateMissing[entities.Recording, entities.UUIDKey](ctx, u.tx, rows)
	if err != nil {
		return nil, err
	}
	for i := range created {
		mapping[created[i].UUID] = created[i].ID
	}
	for alias, first := range aliases {
		if stored, ok := mapping[first]; ok {
			mapping[alias] = stored
		}
	}

	u.record(KindRecording, len(mapping), len(created))

	if err := linkRecordings(ctx, u, recordings, mapping, reg); err != nil {
		return nil, err
	}
	return mapping, nil
}

func newRecordingRow(c recordingCandidate, u *unitOfWork) entities.Recording {
	r := c.obj
	timeExpansion := r.TimeExpansion
	if timeExpansion == 0 {
		timeExpansion = 1
	}
	var hash *string
	if h := c.hash(); h != "" {
		hash = &h
	}
	return entities.Recording{
		UUID:          r.UUID,
		Path:          c.path,
		Hash:          hash,
		Duration:      r.Duration,
		Channels:      r.Channels,
		SampleRate:    r.SampleRate,
		TimeExpansion: timeExpansion,
		Date:          r.Date,
		Time:          r.Time,
		Latitude:      r.Latitude,
		Longitude:     r.Longitude,
		Rights:        r.Rights,
		CreatedOn:     u.now,
	}
}

// linkRecordings creates the tag, feature, owner and note associations of
// every resolved recording. Links to unresolved targets are dropped.
func linkRecordings(ctx context.Context, u *unitOfWork, recordings []aoef.Recording, mapping map[uuid.UUID]uint, reg *registries) error {
	var (
		featureSets []map[string]float64
		docNotes    []aoef.Note
	)
	for i := range recordings {
		if _, ok := mapping[recordings[i].UUID]; ok {
			featureSets = append(featureSets, recordings[i].Features)
			docNotes = append(docNotes, recordings[i].Notes...)
		}
	}
	if err := importFeatureNames(ctx, u, reg, featureSets...); err != nil {
		return err
	}
	if err := importNotes(ctx, u, reg, docNotes); err != nil {
		return err
	}

	var (
		tags     []entities.RecordingTag
		features []entities.RecordingFeature
		owners   []entities.RecordingOwner
		notes    []entities.RecordingNote
	)

	for i := range recordings {
		r := &recordings[i]
		recID, ok := mapping[r.UUID]
		if !ok {
			continue
		}

		for _, tagID := range r.Tags {
			id, ok := reg.tags[tagID]
			if !ok {
				u.drop(KindRecordingTag, r.UUID, ReasonMissingTag, tagID)
				continue
			}
			tags = append(tags, entities.RecordingTag{RecordingID: recID, TagID: id, CreatedOn: u.now})
		}

		for name, value := range r.Features {
			id, ok := reg.features[name]
			if !ok {
				u.drop(KindRecordingFeature, r.UUID, ReasonMissingFeature, name)
				continue
			}
			features = append(features, entities.RecordingFeature{RecordingID: recID, FeatureNameID: id, Value: value})
		}

		for _, owner := range r.Owners {
			id, ok := reg.users[owner]
			if !ok {
				u.drop(KindRecordingOwner, r.UUID, ReasonMissingUser, owner)
				continue
			}
			owners = append(owners, entities.RecordingOwner{RecordingID: recID, UserID: id})
		}

		for j := range r.Notes {
			id, ok := reg.notes[r.Notes[j].UUID]
			if !ok {
				u.drop(KindRecordingNote, r.UUID, ReasonMissingNote, r.Notes[j].UUID)
				continue
			}
			notes = append(notes, entities.RecordingNote{RecordingID: recID, NoteID: id})
		}
	}

	if err := createLinks[entities.RecordingTag, entities.PairKey](ctx, u, KindRecordingTag, tags); err != nil {
		return err
	}
	if err := createLinks[entities.RecordingFeature, entities.PairKey](ctx, u, KindRecordingFeature, features); err != nil {
		return err
	}
	if err := createLinks[entities.RecordingOwner, entities.PairKey](ctx, u, KindRecordingOwner, owners); err != nil {
		return err
	}
	return createLinks[entities.RecordingNote, entities.PairKey](ctx, u, KindRecordingNote, notes)
}

// createLinks inserts the association rows not yet stored and records stats.
func createLinks[R repository.Row[K], K repository.Key](ctx context.Context, u *unitOfWork, kind string, rows []R) error {
	ids, created, err := repository.Reconcile[R, K](ctx, u.tx, rows)
	if err != nil {
		return err
	}
	u.record(kind, len(ids), created)
	return nil
}
