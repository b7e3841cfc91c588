// Package aoef decodes and validates Acoustic Objects Exchange Format documents.
//
// A document is an envelope {version, created_on, data} whose data member is
// discriminated by collection_type. Parse decodes data into one of
// *AnnotationProject, *Dataset or *UnsupportedCollection. Entities reference
// each other by UUID and tags by a document-local integer id.
package aoef

import (
	"encoding/json"

	"github.com/google/uuid"
)

// Collection types
const (
	CollectionAnnotationProject = "annotation_project"
	CollectionDataset           = "dataset"
	CollectionAnnotationSet     = "annotation_set"
	CollectionPredictionSet     = "prediction_set"
	CollectionModelRun          = "model_run"
	CollectionEvaluationSet     = "evaluation_set"
	CollectionEvaluation        = "evaluation"
)

// Document is a decoded AOEF envelope.
type Document struct {
	Version   string
	CreatedOn *Timestamp
	Data      Collection
}

// Collection is the tagged variant held in Document.Data.
type Collection interface {
	CollectionType() string
	CollectionUUID() uuid.UUID
}

// Tag is a (key, value) pair with an id local to the document.
type Tag struct {
	ID    int    `json:"id"`
	Key   string `json:"key" validate:"required,max=255"`
	Value string `json:"value" validate:"max=255"`
}

// User identifies an annotator or owner.
type User struct {
	UUID     uuid.UUID `json:"uuid" validate:"required"`
	Username *string   `json:"username" validate:"omitempty,max=255"`
	Email    *string   `json:"email" validate:"omitempty,max=255"`
	Name     *string   `json:"name" validate:"omitempty,max=255"`
}

// Note is a message attached to a recording or annotation.
type Note struct {
	UUID      uuid.UUID  `json:"uuid" validate:"required"`
	Message   string     `json:"message" validate:"required"`
	CreatedBy *uuid.UUID `json:"created_by"`
	IsIssue   bool       `json:"is_issue"`
	CreatedOn *Timestamp `json:"created_on"`
}

// Recording describes an audio file. Path is relative to the audio directory
// the document was exported from and may use either separator.
type Recording struct {
	UUID          uuid.UUID          `json:"uuid" validate:"required"`
	Path          string             `json:"path" validate:"required"`
	Duration      float64            `json:"duration" validate:"gte=0"`
	Channels      int                `json:"channels" validate:"gte=1"`
	SampleRate    int                `json:"samplerate" validate:"gt=0"`
	TimeExpansion float64            `json:"time_expansion" validate:"gte=0"`
	Hash          *string            `json:"hash" validate:"omitempty,max=64"`
	Date          *string            `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time          *string            `json:"time" validate:"omitempty,datetime=15:04:05"`
	Latitude      *float64           `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude     *float64           `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	Tags          []int              `json:"tags"`
	Features      map[string]float64 `json:"features"`
	Notes         []Note             `json:"notes" validate:"dive"`
	Owners        []uuid.UUID        `json:"owners"`
	Rights        *string            `json:"rights"`
}

// Clip is a time span of a recording.
type Clip struct {
	UUID      uuid.UUID          `json:"uuid" validate:"required"`
	Recording uuid.UUID          `json:"recording" validate:"required"`
	StartTime float64            `json:"start_time" validate:"gte=0"`
	EndTime   float64            `json:"end_time" validate:"gtefield=StartTime"`
	Features  map[string]float64 `json:"features"`
}

// Geometry is the shape of a sound event. Coordinates are kept as raw JSON.
type Geometry struct {
	Type        string          `json:"type" validate:"required,oneof=TimeStamp TimeInterval Point LineString Polygon BoundingBox MultiPoint MultiLineString MultiPolygon"`
	Coordinates json.RawMessage `json:"coordinates" validate:"required"`
}

// SoundEvent is a region of interest within a recording.
type SoundEvent struct {
	UUID      uuid.UUID          `json:"uuid" validate:"required"`
	Recording uuid.UUID          `json:"recording" validate:"required"`
	Geometry  Geometry           `json:"geometry"`
	Features  map[string]float64 `json:"features"`
}

// ClipAnnotation tags a clip. SoundEvents lists the UUIDs of the sound
// event annotations made within it.
type ClipAnnotation struct {
	UUID        uuid.UUID   `json:"uuid" validate:"required"`
	Clip        uuid.UUID   `json:"clip" validate:"required"`
	Tags        []int       `json:"tags"`
	SoundEvents []uuid.UUID `json:"sound_events"`
	Notes       []Note      `json:"notes" validate:"dive"`
	CreatedOn   *Timestamp  `json:"created_on"`
}

// SoundEventAnnotation tags a sound event.
type SoundEventAnnotation struct {
	UUID       uuid.UUID  `json:"uuid" validate:"required"`
	SoundEvent uuid.UUID  `json:"sound_event" validate:"required"`
	Tags       []int      `json:"tags"`
	Notes      []Note     `json:"notes" validate:"dive"`
	CreatedBy  *uuid.UUID `json:"created_by"`
	CreatedOn  *Timestamp `json:"created_on"`
}

// StatusBadge records a task state set by a user.
type StatusBadge struct {
	State     string     `json:"state" validate:"required,oneof=assigned completed verified rejected"`
	Owner     *uuid.UUID `json:"owner"`
	CreatedOn *Timestamp `json:"created_on"`
}

// AnnotationTask assigns a clip for annotation.
type AnnotationTask struct {
	UUID         uuid.UUID     `json:"uuid" validate:"required"`
	Clip         uuid.UUID     `json:"clip" validate:"required"`
	StatusBadges []StatusBadge `json:"status_badges" validate:"dive"`
	CreatedOn    *Timestamp    `json:"created_on"`
}

// AnnotationProject is the annotation_project collection.
type AnnotationProject struct {
	UUID                  uuid.UUID              `json:"uuid" validate:"required"`
	Name                  *string                `json:"name" validate:"omitempty,max=255"`
	Description           *string                `json:"description"`
	Instructions          *string                `json:"instructions"`
	Users                 []User                 `json:"users" validate:"dive"`
	Tags                  []Tag                  `json:"tags" validate:"dive"`
	Recordings            []Recording            `json:"recordings" validate:"dive"`
	Clips                 []Clip                 `json:"clips" validate:"dive"`
	SoundEvents           []SoundEvent           `json:"sound_events" validate:"dive"`
	ClipAnnotations       []ClipAnnotation       `json:"clip_annotations" validate:"dive"`
	SoundEventAnnotations []SoundEventAnnotation `json:"sound_event_annotations" validate:"dive"`
	Tasks                 []AnnotationTask       `json:"tasks" validate:"dive"`
	ProjectTags           []int                  `json:"project_tags"`
	CreatedOn             *Timestamp             `json:"created_on"`
}

func (p *AnnotationProject) CollectionType() string    { return CollectionAnnotationProject }
func (p *AnnotationProject) CollectionUUID() uuid.UUID { return p.UUID }

// Dataset is the dataset collection.
type Dataset struct {
	UUID        uuid.UUID   `json:"uuid" validate:"required"`
	Name        *string     `json:"name" validate:"omitempty,max=255"`
	Description *string     `json:"description"`
	Users       []User      `json:"users" validate:"dive"`
	Tags        []Tag       `json:"tags" validate:"dive"`
	Recordings  []Recording `json:"recordings" validate:"dive"`
	CreatedOn   *Timestamp  `json:"created_on"`
}

func (d *Dataset) CollectionType() string    { return CollectionDataset }
func (d *Dataset) CollectionUUID() uuid.UUID { return d.UUID }

// UnsupportedCollection is a valid collection type this module does not import.
type UnsupportedCollection struct {
	Type string
	UUID uuid.UUID `json:"uuid" validate:"required"`
}

func (u *UnsupportedCollection) CollectionType() string    { return u.Type }
func (u *UnsupportedCollection) CollectionUUID() uuid.UUID { return u.UUID }
