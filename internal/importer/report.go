package importer

import "github.com/google/uuid"

// Entity kinds, in import order.
const (
	KindTag                      = "tag"
	KindUser                     = "user"
	KindFeatureName              = "feature_name"
	KindNote                     = "note"
	KindRecording                = "recording"
	KindRecordingTag             = "recording_tag"
	KindRecordingFeature         = "recording_feature"
	KindRecordingOwner           = "recording_owner"
	KindRecordingNote            = "recording_note"
	KindDatasetRecording         = "dataset_recording"
	KindClip                     = "clip"
	KindClipFeature              = "clip_feature"
	KindSoundEvent               = "sound_event"
	KindSoundEventFeature        = "sound_event_feature"
	KindClipAnnotation           = "clip_annotation"
	KindClipAnnotationTag        = "clip_annotation_tag"
	KindClipAnnotationNote       = "clip_annotation_note"
	KindSoundEventAnnotation     = "sound_event_annotation"
	KindSoundEventAnnotationTag  = "sound_event_annotation_tag"
	KindSoundEventAnnotationNote = "sound_event_annotation_note"
	KindAnnotationTask           = "annotation_task"
	KindStatusBadge              = "status_badge"
	KindProjectTag               = "project_tag"
)

// KindOrder lists every kind in the order an import reaches it.
var KindOrder = []string{
	KindTag, KindUser, KindFeatureName, KindNote,
	KindRecording, KindRecordingTag, KindRecordingFeature, KindRecordingOwner, KindRecordingNote,
	KindDatasetRecording,
	KindClip, KindClipFeature, KindSoundEvent, KindSoundEventFeature,
	KindClipAnnotation, KindClipAnnotationTag, KindClipAnnotationNote,
	KindSoundEventAnnotation, KindSoundEventAnnotationTag, KindSoundEventAnnotationNote,
	KindAnnotationTask, KindStatusBadge, KindProjectTag,
}

// Drop reasons. Reasons are metric label values and stay low-cardinality;
// the offending reference goes in Dropped.Detail.
const (
	ReasonMissingTag            = "missing tag"
	ReasonMissingUser           = "missing user"
	ReasonMissingFeature        = "missing feature name"
	ReasonMissingNote           = "missing note"
	ReasonMissingRecording      = "missing recording"
	ReasonMissingClip           = "missing clip"
	ReasonMissingSoundEvent     = "missing sound event"
	ReasonMissingClipAnnotation = "missing clip annotation"
	ReasonPathOutsideAudioDir   = "path outside audio directory"
	ReasonRecordingNotInStore   = "recording not in store"
)

// Dropped describes a document entity that was skipped because something it
// references could not be resolved.
type Dropped struct {
	Kind string
	// ID is the UUID of the dropped entity, or of the owner for association rows.
	ID     uuid.UUID
	Reason string
	Detail string
}

// KindStats counts the document entities of one kind. Mapped entities
// resolved to a row; Created of them were inserted by this import.
type KindStats struct {
	Mapped  int
	Created int
}

// Reused returns the number of entities matched to rows that already existed.
func (s KindStats) Reused() int {
	return s.Mapped - s.Created
}

// Report is the referential-gap report of one import.
type Report struct {
	Dropped []Dropped
}

// DroppedByKind counts dropped entities per kind.
func (r *Report) DroppedByKind() map[string]int {
	counts := make(map[string]int)
	for _, d := range r.Dropped {
		counts[d.Kind]++
	}
	return counts
}
