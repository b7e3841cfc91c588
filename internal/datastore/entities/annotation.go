package entities

import (
	"time"

	"github.com/google/uuid"
)

// ClipAnnotation holds the tags and notes attached to a clip.
type ClipAnnotation struct {
	ID        uint      `gorm:"primaryKey"`
	UUID      uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex"`
	ClipID    uint      `gorm:"not null;index"`
	CreatedOn time.Time `gorm:"not null"`

	Clip *Clip `gorm:"foreignKey:ClipID"`
}

func (ClipAnnotation) TableName() string { return "clip_annotations" }

func (c ClipAnnotation) GetUUID() uuid.UUID { return c.UUID }

// ClipAnnotationTag attributes a tag on a clip annotation to a user.
type ClipAnnotationTag struct {
	ID               uint      `gorm:"primaryKey"`
	ClipAnnotationID uint      `gorm:"not null;uniqueIndex:idx_clip_annotation_tag"`
	TagID            uint      `gorm:"not null;uniqueIndex:idx_clip_annotation_tag;index"`
	CreatedByID      uint      `gorm:"not null;uniqueIndex:idx_clip_annotation_tag"`
	CreatedOn        time.Time `gorm:"not null"`
}

func (ClipAnnotationTag) TableName() string { return "clip_annotation_tags" }

// ClipAnnotationNote attaches a note to a clip annotation.
type ClipAnnotationNote struct {
	ID               uint `gorm:"primaryKey"`
	ClipAnnotationID uint `gorm:"not null;uniqueIndex:idx_clip_annotation_note"`
	NoteID           uint `gorm:"not null;uniqueIndex:idx_clip_annotation_note"`
}

func (ClipAnnotationNote) TableName() string { return "clip_annotation_notes" }

// SoundEventAnnotation annotates one sound event within one clip annotation.
type SoundEventAnnotation struct {
	ID               uint      `gorm:"primaryKey"`
	UUID             uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex"`
	ClipAnnotationID uint      `gorm:"not null;uniqueIndex:idx_sound_event_annotation"`
	SoundEventID     uint      `gorm:"not null;uniqueIndex:idx_sound_event_annotation;index"`
	CreatedByID      *uint     `gorm:"index"`
	CreatedOn        time.Time `gorm:"not null"`

	ClipAnnotation *ClipAnnotation `gorm:"foreignKey:ClipAnnotationID"`
	SoundEvent     *SoundEvent     `gorm:"foreignKey:SoundEventID"`
	CreatedBy      *User           `gorm:"foreignKey:CreatedByID"`
}

func (SoundEventAnnotation) TableName() string { return "sound_event_annotations" }

func (s SoundEventAnnotation) GetUUID() uuid.UUID { return s.UUID }

// SoundEventAnnotationTag attributes a tag on a sound event annotation to a user.
type SoundEventAnnotationTag struct {
	ID                     uint      `gorm:"primaryKey"`
	SoundEventAnnotationID uint      `gorm:"not null;uniqueIndex:idx_sound_event_annotation_tag"`
	TagID                  uint      `gorm:"not null;uniqueIndex:idx_sound_event_annotation_tag;index"`
	CreatedByID            uint      `gorm:"not null;uniqueIndex:idx_sound_event_annotation_tag"`
	CreatedOn              time.Time `gorm:"not null"`
}

func (SoundEventAnnotationTag) TableName() string { return "sound_event_annotation_tags" }

// SoundEventAnnotationNote attaches a note to a sound event annotation.
type SoundEventAnnotationNote struct {
	ID                     uint `gorm:"primaryKey"`
	SoundEventAnnotationID uint `gorm:"not null;uniqueIndex:idx_sound_event_annotation_note"`
	NoteID                 uint `gorm:"not null;uniqueIndex:idx_sound_event_annotation_note"`
}

func (SoundEventAnnotationNote) TableName() string { return "sound_event_annotation_notes" }
