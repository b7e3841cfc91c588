package entities

import "github.com/google/uuid"

// Natural key types. Each key is comparable so it can index a map, and
// Values returns the key in KeyColumns order for binding as SQL parameters.

// UUIDKey is the natural key of entities identified by UUID.
type UUIDKey uuid.UUID

func (k UUIDKey) Values() []any { return []any{uuid.UUID(k)} }

// StringKey is a single text column key.
type StringKey string

func (k StringKey) Values() []any { return []any{string(k)} }

// PairKey is a two-column foreign key tuple.
type PairKey struct{ A, B uint }

func (k PairKey) Values() []any { return []any{k.A, k.B} }

// TripleKey is a three-column foreign key tuple.
type TripleKey struct{ A, B, C uint }

func (k TripleKey) Values() []any { return []any{k.A, k.B, k.C} }

// TagKey identifies a tag by its (key, value) pair.
type TagKey struct{ Key, Value string }

func (k TagKey) Values() []any { return []any{k.Key, k.Value} }

// SpanKey identifies a clip by its recording and time span.
type SpanKey struct {
	RecordingID uint
	Start, End  float64
}

func (k SpanKey) Values() []any { return []any{k.RecordingID, k.Start, k.End} }

// BadgeKey identifies a status badge by task, user and state.
type BadgeKey struct {
	TaskID, UserID uint
	State          string
}

func (k BadgeKey) Values() []any { return []any{k.TaskID, k.UserID, k.State} }

var uuidColumns = []string{"uuid"}

func (u User) GetID() uint              { return u.ID }
func (User) KeyColumns() []string       { return uuidColumns }
func (u User) NaturalKey() UUIDKey      { return UUIDKey(u.UUID) }
func (n Note) GetID() uint              { return n.ID }
func (Note) KeyColumns() []string       { return uuidColumns }
func (n Note) NaturalKey() UUIDKey      { return UUIDKey(n.UUID) }
func (r Recording) GetID() uint         { return r.ID }
func (Recording) KeyColumns() []string  { return uuidColumns }
func (r Recording) NaturalKey() UUIDKey { return UUIDKey(r.UUID) }
func (d Dataset) GetID() uint           { return d.ID }
func (Dataset) KeyColumns() []string    { return uuidColumns }
func (d Dataset) NaturalKey() UUIDKey   { return UUIDKey(d.UUID) }
func (c Clip) GetID() uint              { return c.ID }
func (Clip) KeyColumns() []string       { return uuidColumns }
func (c Clip) NaturalKey() UUIDKey      { return UUIDKey(c.UUID) }

func (s SoundEvent) GetID() uint             { return s.ID }
func (SoundEvent) KeyColumns() []string      { return uuidColumns }
func (s SoundEvent) NaturalKey() UUIDKey     { return UUIDKey(s.UUID) }
func (c ClipAnnotation) GetID() uint         { return c.ID }
func (ClipAnnotation) KeyColumns() []string  { return uuidColumns }
func (c ClipAnnotation) NaturalKey() UUIDKey { return UUIDKey(c.UUID) }
func (s SoundEventAnnotation) GetID() uint   { return s.ID }
func (SoundEventAnnotation) KeyColumns() []string {
	return uuidColumns
}
func (s SoundEventAnnotation) NaturalKey() UUIDKey { return UUIDKey(s.UUID) }
func (p AnnotationProject) GetID() uint            { return p.ID }
func (AnnotationProject) KeyColumns() []string     { return uuidColumns }
func (p AnnotationProject) NaturalKey() UUIDKey    { return UUIDKey(p.UUID) }
func (t AnnotationTask) GetID() uint               { return t.ID }
func (AnnotationTask) KeyColumns() []string        { return uuidColumns }
func (t AnnotationTask) NaturalKey() UUIDKey       { return UUIDKey(t.UUID) }

func (t Tag) GetID() uint         { return t.ID }
func (Tag) KeyColumns() []string  { return []string{"key", "value"} }
func (t Tag) NaturalKey() TagKey  { return TagKey{Key: t.Key, Value: t.Value} }
func (f FeatureName) GetID() uint { return f.ID }
func (FeatureName) KeyColumns() []string {
	return []string{"name"}
}
func (f FeatureName) NaturalKey() StringKey { return StringKey(f.Name) }

func (r RecordingTag) GetID() uint        { return r.ID }
func (RecordingTag) KeyColumns() []string { return []string{"recording_id", "tag_id"} }
func (r RecordingTag) NaturalKey() PairKey {
	return PairKey{A: r.RecordingID, B: r.TagID}
}

func (r RecordingFeature) GetID() uint        { return r.ID }
func (RecordingFeature) KeyColumns() []string { return []string{"recording_id", "feature_name_id"} }
func (r RecordingFeature) NaturalKey() PairKey {
	return PairKey{A: r.RecordingID, B: r.FeatureNameID}
}

func (r RecordingOwner) GetID() uint        { return r.ID }
func (RecordingOwner) KeyColumns() []string { return []string{"recording_id", "user_id"} }
func (r RecordingOwner) NaturalKey() PairKey {
	return PairKey{A: r.RecordingID, B: r.UserID}
}

func (r RecordingNote) GetID() uint        { return r.ID }
func (RecordingNote) KeyColumns() []string { return []string{"recording_id", "note_id"} }
func (r RecordingNote) NaturalKey() PairKey {
	return PairKey{A: r.RecordingID, B: r.NoteID}
}

func (d DatasetRecording) GetID() uint        { return d.ID }
func (DatasetRecording) KeyColumns() []string { return []string{"dataset_id", "recording_id"} }
func (d DatasetRecording) NaturalKey() PairKey {
	return PairKey{A: d.DatasetID, B: d.RecordingID}
}

func (c ClipFeature) GetID() uint        { return c.ID }
func (ClipFeature) KeyColumns() []string { return []string{"clip_id", "feature_name_id"} }
func (c ClipFeature) NaturalKey() PairKey {
	return PairKey{A: c.ClipID, B: c.FeatureNameID}
}

func (s SoundEventFeature) GetID() uint        { return s.ID }
func (SoundEventFeature) KeyColumns() []string { return []string{"sound_event_id", "feature_name_id"} }
func (s SoundEventFeature) NaturalKey() PairKey {
	return PairKey{A: s.SoundEventID, B: s.FeatureNameID}
}

func (c ClipAnnotationTag) GetID() uint { return c.ID }
func (ClipAnnotationTag) KeyColumns() []string {
	return []string{"clip_annotation_id", "tag_id", "created_by_id"}
}
func (c ClipAnnotationTag) NaturalKey() TripleKey {
	return TripleKey{A: c.ClipAnnotationID, B: c.TagID, C: c.CreatedByID}
}

func (c ClipAnnotationNote) GetID() uint        { return c.ID }
func (ClipAnnotationNote) KeyColumns() []string { return []string{"clip_annotation_id", "note_id"} }
func (c ClipAnnotationNote) NaturalKey() PairKey {
	return PairKey{A: c.ClipAnnotationID, B: c.NoteID}
}

func (s SoundEventAnnotationTag) GetID() uint { return s.ID }
func (SoundEventAnnotationTag) KeyColumns() []string {
	return []string{"sound_event_annotation_id", "tag_id", "created_by_id"}
}
func (s SoundEventAnnotationTag) NaturalKey() TripleKey {
	return TripleKey{A: s.SoundEventAnnotationID, B: s.TagID, C: s.CreatedByID}
}

func (s SoundEventAnnotationNote) GetID() uint { return s.ID }
func (SoundEventAnnotationNote) KeyColumns() []string {
	return []string{"sound_event_annotation_id", "note_id"}
}
func (s SoundEventAnnotationNote) NaturalKey() PairKey {
	return PairKey{A: s.SoundEventAnnotationID, B: s.NoteID}
}

func (a AnnotationProjectTag) GetID() uint { return a.ID }
func (AnnotationProjectTag) KeyColumns() []string {
	return []string{"annotation_project_id", "tag_id"}
}
func (a AnnotationProjectTag) NaturalKey() PairKey {
	return PairKey{A: a.AnnotationProjectID, B: a.TagID}
}

func (a AnnotationStatusBadge) GetID() uint { return a.ID }
func (AnnotationStatusBadge) KeyColumns() []string {
	return []string{"annotation_task_id", "user_id", "state"}
}
func (a AnnotationStatusBadge) NaturalKey() BadgeKey {
	return BadgeKey{TaskID: a.AnnotationTaskID, UserID: a.UserID, State: a.State}
}

// Secondary natural keys, used to find an existing row under a different UUID.

// SpanKey returns the (recording, start, end) key of the clip.
func (c Clip) SpanKey() SpanKey {
	return SpanKey{RecordingID: c.RecordingID, Start: c.StartTime, End: c.EndTime}
}

// SpanColumns lists the columns of SpanKey.
func SpanColumns() []string { return []string{"recording_id", "start_time", "end_time"} }

// PairKey returns the (clip annotation, sound event) key of the annotation.
func (s SoundEventAnnotation) PairKey() PairKey {
	return PairKey{A: s.ClipAnnotationID, B: s.SoundEventID}
}

// SoundEventAnnotationPairColumns lists the columns of SoundEventAnnotation.PairKey.
func SoundEventAnnotationPairColumns() []string {
	return []string{"clip_annotation_id", "sound_event_id"}
}

// ClipKey returns the (project, clip) key of the task.
func (t AnnotationTask) ClipKey() PairKey {
	return PairKey{A: t.AnnotationProjectID, B: t.ClipID}
}

// TaskClipColumns lists the columns of AnnotationTask.ClipKey.
func TaskClipColumns() []string { return []string{"annotation_project_id", "clip_id"} }
