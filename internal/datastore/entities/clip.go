package entities

import (
	"time"

	"github.com/google/uuid"
)

// Clip is a time span of a recording. A recording never holds two clips with
// the same span.
type Clip struct {
	ID          uint      `gorm:"primaryKey"`
	UUID        uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex"`
	RecordingID uint      `gorm:"not null;uniqueIndex:idx_clip_span"`
	StartTime   float64   `gorm:"not null;uniqueIndex:idx_clip_span"`
	EndTime     float64   `gorm:"not null;uniqueIndex:idx_clip_span"`
	CreatedOn   time.Time `gorm:"not null"`

	Recording *Recording `gorm:"foreignKey:RecordingID"`
}

func (Clip) TableName() string { return "clips" }

func (c Clip) GetUUID() uuid.UUID { return c.UUID }

// ClipFeature stores a numeric feature value for a clip.
type ClipFeature struct {
	ID            uint    `gorm:"primaryKey"`
	ClipID        uint    `gorm:"not null;uniqueIndex:idx_clip_feature"`
	FeatureNameID uint    `gorm:"not null;uniqueIndex:idx_clip_feature"`
	Value         float64 `gorm:"not null"`
}

func (ClipFeature) TableName() string { return "clip_features" }

// SoundEvent is a region of interest in a recording. Geometry holds the
// JSON coordinates of the shape named by GeometryType.
type SoundEvent struct {
	ID           uint      `gorm:"primaryKey"`
	UUID         uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex"`
	RecordingID  uint      `gorm:"not null;index"`
	GeometryType string    `gorm:"size:32;not null"`
	Geometry     string    `gorm:"type:text;not null"`
	CreatedOn    time.Time `gorm:"not null"`

	Recording *Recording `gorm:"foreignKey:RecordingID"`
}

func (SoundEvent) TableName() string { return "sound_events" }

func (s SoundEvent) GetUUID() uuid.UUID { return s.UUID }

// SoundEventFeature stores a numeric feature value for a sound event.
type SoundEventFeature struct {
	ID            uint    `gorm:"primaryKey"`
	SoundEventID  uint    `gorm:"not null;uniqueIndex:idx_sound_event_feature"`
	FeatureNameID uint    `gorm:"not null;uniqueIndex:idx_sound_event_feature"`
	Value         float64 `gorm:"not null"`
}

func (SoundEventFeature) TableName() string { return "sound_event_features" }
