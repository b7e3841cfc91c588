package entities

import (
	"time"

	"github.com/google/uuid"
)

// AnnotationProject is the aggregate root of a project import.
type AnnotationProject struct {
	ID           uint      `gorm:"primaryKey"`
	UUID         uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex"`
	Name         string    `gorm:"size:255;not null"`
	Description  string    `gorm:"type:text;not null"`
	Instructions string    `gorm:"type:text"`
	CreatedOn    time.Time `gorm:"not null"`
}

func (AnnotationProject) TableName() string { return "annotation_projects" }

func (p AnnotationProject) GetUUID() uuid.UUID { return p.UUID }

// AnnotationProjectTag makes a tag available to annotators of a project.
type AnnotationProjectTag struct {
	ID                  uint      `gorm:"primaryKey"`
	AnnotationProjectID uint      `gorm:"not null;uniqueIndex:idx_annotation_project_tag"`
	TagID               uint      `gorm:"not null;uniqueIndex:idx_annotation_project_tag;index"`
	CreatedOn           time.Time `gorm:"not null"`

	Tag *Tag `gorm:"foreignKey:TagID"`
}

func (AnnotationProjectTag) TableName() string { return "annotation_project_tags" }

// AnnotationTask assigns one clip of a project for annotation. A project has
// at most one task per clip.
type AnnotationTask struct {
	ID                  uint      `gorm:"primaryKey"`
	UUID                uuid.UUID `gorm:"type:varchar(36);not null;uniqueIndex"`
	AnnotationProjectID uint      `gorm:"not null;uniqueIndex:idx_annotation_task_clip"`
	ClipID              uint      `gorm:"not null;uniqueIndex:idx_annotation_task_clip"`
	ClipAnnotationID    uint      `gorm:"not null;index"`
	CreatedOn           time.Time `gorm:"not null"`

	AnnotationProject *AnnotationProject `gorm:"foreignKey:AnnotationProjectID"`
	Clip              *Clip              `gorm:"foreignKey:ClipID"`
	ClipAnnotation    *ClipAnnotation    `gorm:"foreignKey:ClipAnnotationID"`
}

func (AnnotationTask) TableName() string { return "annotation_tasks" }

func (t AnnotationTask) GetUUID() uuid.UUID { return t.UUID }

// Annotation task states
const (
	StateAssigned  = "assigned"
	StateCompleted = "completed"
	StateVerified  = "verified"
	StateRejected  = "rejected"
)

// AnnotationStatusBadge records a state transition of a task by a user.
type AnnotationStatusBadge struct {
	ID               uint      `gorm:"primaryKey"`
	AnnotationTaskID uint      `gorm:"not null;uniqueIndex:idx_annotation_status_badge"`
	UserID           uint      `gorm:"not null;uniqueIndex:idx_annotation_status_badge"`
	State            string    `gorm:"size:32;not null;uniqueIndex:idx_annotation_status_badge"`
	CreatedOn        time.Time `gorm:"not null"`
}

func (AnnotationStatusBadge) TableName() string { return "annotation_status_badges" }
