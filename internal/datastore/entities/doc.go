// Package entities defines the GORM entity models for the annotation store.
//
// Every importable entity carries three identities: an external UUID that is
// stable across systems, a surrogate auto-increment ID assigned on first
// insert, and a natural key enforced by a unique index. Association tables
// have no UUID; their natural key is the tuple of foreign keys.
//
// # Core Entities
//
//   - User, Tag, FeatureName, Note: shared registries
//   - Recording, Dataset: audio inventory
//   - Clip, SoundEvent: regions of a recording
//   - ClipAnnotation, SoundEventAnnotation: tagged observations
//   - AnnotationProject, AnnotationTask, AnnotationStatusBadge: project workflow
//
// Rows are created once and never updated by the import path.
package entities

import "github.com/google/uuid"

// Identified is implemented by entities with an external UUID.
type Identified interface {
	TableName() string
	GetUUID() uuid.UUID
}

// Models returns all entities in dependency order for AutoMigrate.
func Models() []any {
	return []any{
		&User{},
		&Tag{},
		&FeatureName{},
		&Note{},
		&Recording{},
		&RecordingTag{},
		&RecordingFeature{},
		&RecordingOwner{},
		&RecordingNote{},
		&Dataset{},
		&DatasetRecording{},
		&Clip{},
		&ClipFeature{},
		&SoundEvent{},
		&SoundEventFeature{},
		&ClipAnnotation{},
		&ClipAnnotationTag{},
		&ClipAnnotationNote{},
		&SoundEventAnnotation{},
		&SoundEventAnnotationTag{},
		&SoundEventAnnotationNote{},
		&AnnotationProject{},
		&AnnotationProjectTag{},
		&AnnotationTask{},
		&AnnotationStatusBadge{},
	}
}
