package entities

import (
	"time"

	"github.com/google/uuid"
)

// User is an annotator or owner. Usernames are unique across the store.
type User struct {
	ID        uint      `gorm:"primaryKey"`
	UUID      uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex"`
	Username  string    `gorm:"size:255;not null;uniqueIndex"`
	Name      string    `gorm:"size:255"`
	Email     string    `gorm:"size:255"`
	CreatedOn time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM.
func (User) TableName() string { return "users" }

func (u User) GetUUID() uuid.UUID { return u.UUID }

// Tag is a (key, value) label such as ("species", "Myotis myotis").
// Exchange documents reference tags by a document-local integer id.
type Tag struct {
	ID        uint      `gorm:"primaryKey"`
	Key       string    `gorm:"size:255;not null;uniqueIndex:idx_tag_key_value"`
	Value     string    `gorm:"size:255;not null;uniqueIndex:idx_tag_key_value"`
	CreatedOn time.Time `gorm:"not null"`
}

func (Tag) TableName() string { return "tags" }

// FeatureName is the registry of numeric feature names (e.g. "duration", "snr").
type FeatureName struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"size:255;not null;uniqueIndex"`
	CreatedOn time.Time `gorm:"not null"`
}

func (FeatureName) TableName() string { return "feature_names" }

// Note is a free-text message, optionally flagged as an issue.
type Note struct {
	ID          uint      `gorm:"primaryKey"`
	UUID        uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex"`
	Message     string    `gorm:"type:text;not null"`
	CreatedByID *uint     `gorm:"index"`
	IsIssue     bool      `gorm:"not null;default:false"`
	CreatedOn   time.Time `gorm:"not null"`

	CreatedBy *User `gorm:"foreignKey:CreatedByID"`
}

func (Note) TableName() string { return "notes" }

func (n Note) GetUUID() uuid.UUID { return n.UUID }
