package entities

import (
	"time"

	"github.com/google/uuid"
)

// Recording is an audio file known to the store. Path is relative to the
// configured audio base directory, in posix form. Hash is optional; when
// present it identifies the file content.
type Recording struct {
	ID            uint      `gorm:"primaryKey"`
	UUID          uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex"`
	Path          string    `gorm:"size:512;not null;uniqueIndex"`
	Hash          *string   `gorm:"size:64;uniqueIndex"`
	Duration      float64   `gorm:"not null"`
	Channels      int       `gorm:"not null"`
	SampleRate    int       `gorm:"not null"`
	TimeExpansion float64   `gorm:"not null;default:1"`
	Date          *string   `gorm:"size:10"` // YYYY-MM-DD
	Time          *string   `gorm:"size:15"` // HH:MM:SS[.ffffff]
	Latitude      *float64
	Longitude     *float64
	Rights        *string   `gorm:"type:text"`
	CreatedOn     time.Time `gorm:"not null"`
}

func (Recording) TableName() string { return "recordings" }

func (r Recording) GetUUID() uuid.UUID { return r.UUID }

// RecordingTag attaches a tag to a recording.
type RecordingTag struct {
	ID          uint      `gorm:"primaryKey"`
	RecordingID uint      `gorm:"not null;uniqueIndex:idx_recording_tag"`
	TagID       uint      `gorm:"not null;uniqueIndex:idx_recording_tag;index"`
	CreatedOn   time.Time `gorm:"not null"`

	Recording *Recording `gorm:"foreignKey:RecordingID"`
	Tag       *Tag       `gorm:"foreignKey:TagID"`
}

func (RecordingTag) TableName() string { return "recording_tags" }

// RecordingFeature stores a numeric feature value for a recording.
type RecordingFeature struct {
	ID            uint    `gorm:"primaryKey"`
	RecordingID   uint    `gorm:"not null;uniqueIndex:idx_recording_feature"`
	FeatureNameID uint    `gorm:"not null;uniqueIndex:idx_recording_feature"`
	Value         float64 `gorm:"not null"`

	Recording   *Recording   `gorm:"foreignKey:RecordingID"`
	FeatureName *FeatureName `gorm:"foreignKey:FeatureNameID"`
}

func (RecordingFeature) TableName() string { return "recording_features" }

// RecordingOwner grants a user ownership of a recording.
type RecordingOwner struct {
	ID          uint `gorm:"primaryKey"`
	RecordingID uint `gorm:"not null;uniqueIndex:idx_recording_owner"`
	UserID      uint `gorm:"not null;uniqueIndex:idx_recording_owner"`

	Recording *Recording `gorm:"foreignKey:RecordingID"`
	User      *User      `gorm:"foreignKey:UserID"`
}

func (RecordingOwner) TableName() string { return "recording_owners" }

// RecordingNote attaches a note to a recording.
type RecordingNote struct {
	ID          uint `gorm:"primaryKey"`
	RecordingID uint `gorm:"not null;uniqueIndex:idx_recording_note"`
	NoteID      uint `gorm:"not null;uniqueIndex:idx_recording_note"`

	Recording *Recording `gorm:"foreignKey:RecordingID"`
	Note      *Note      `gorm:"foreignKey:NoteID"`
}

func (RecordingNote) TableName() string { return "recording_notes" }

// Dataset groups recordings found under one audio directory.
type Dataset struct {
	ID          uint      `gorm:"primaryKey"`
	UUID        uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex"`
	Name        string    `gorm:"size:255;not null;uniqueIndex"`
	Description string    `gorm:"type:text;not null"`
	AudioDir    string    `gorm:"size:512;not null"`
	CreatedOn   time.Time `gorm:"not null"`
}

func (Dataset) TableName() string { return "datasets" }

func (d Dataset) GetUUID() uuid.UUID { return d.UUID }

// DatasetRecording links a recording to a dataset.
type DatasetRecording struct {
	ID          uint      `gorm:"primaryKey"`
	DatasetID   uint      `gorm:"not null;uniqueIndex:idx_dataset_recording"`
	RecordingID uint      `gorm:"not null;uniqueIndex:idx_dataset_recording;index"`
	CreatedOn   time.Time `gorm:"not null"`

	Dataset   *Dataset   `gorm:"foreignKey:DatasetID"`
	Recording *Recording `gorm:"foreignKey:RecordingID"`
}

func (DatasetRecording) TableName() string { return "dataset_recordings" }
