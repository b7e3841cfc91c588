package aoef

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/tphakala/birdnet-annotations/internal/errors"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

type envelope struct {
	Version       string          `json:"version"`
	FormatVersion string          `json:"format_version"`
	CreatedOn     *Timestamp      `json:"created_on"`
	Data          json.RawMessage `json:"data"`
}

type collectionHeader struct {
	CollectionType string `json:"collection_type"`
}

// Parse reads and validates an AOEF document of any collection type.
func Parse(r io.Reader) (*Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.New(err).
			Component("aoef").
			Category(errors.CategoryFileIO).
			Context("operation", "read_document").
			Build()
	}

	if !json.Valid(raw) {
		var v any
		return nil, invalidJSON(json.Unmarshal(raw, &v))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, invalidAOEF(err.Error())
	}
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		return nil, invalidAOEF("data: field required")
	}

	var header collectionHeader
	if err := json.Unmarshal(env.Data, &header); err != nil {
		return nil, invalidAOEF(fmt.Sprintf("data: %v", err))
	}

	data, err := decodeCollection(header.CollectionType, env.Data)
	if err != nil {
		return nil, err
	}

	if err := getValidator().Struct(data); err != nil {
		return nil, invalidAOEF(describeValidation(err))
	}

	version := env.Version
	if version == "" {
		version = env.FormatVersion
	}

	return &Document{
		Version:   version,
		CreatedOn: env.CreatedOn,
		Data:      data,
	}, nil
}

func decodeCollection(collectionType string, data json.RawMessage) (Collection, error) {
	var target Collection
	switch collectionType {
	case CollectionAnnotationProject:
		target = &AnnotationProject{}
	case CollectionDataset:
		target = &Dataset{}
	case CollectionAnnotationSet, CollectionPredictionSet, CollectionModelRun,
		CollectionEvaluationSet, CollectionEvaluation:
		target = &UnsupportedCollection{Type: collectionType}
	case "":
		return nil, invalidAOEF("data.collection_type: field required")
	default:
		return nil, invalidAOEF(fmt.Sprintf("data.collection_type: unknown collection type '%s'", collectionType))
	}

	if err := json.Unmarshal(data, target); err != nil {
		return nil, invalidAOEF(fmt.Sprintf("data: %v", err))
	}
	return target, nil
}

func describeValidation(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := "data"
		if i := strings.IndexByte(fe.Namespace(), '.'); i >= 0 {
			field += fe.Namespace()[i:]
		}
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+": field required")
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s: must be one of [%s]", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s: failed '%s' check", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, "; ")
}

// ParseAnnotationProject parses r and requires an annotation_project collection.
func ParseAnnotationProject(r io.Reader) (*AnnotationProject, *Document, error) {
	doc, err := Parse(r)
	if err != nil {
		return nil, nil, err
	}
	project, ok := doc.Data.(*AnnotationProject)
	if !ok {
		return nil, nil, wrongCollection(FormatAnnotationProject, CollectionAnnotationProject, doc.Data.CollectionType())
	}
	return project, doc, nil
}

// ParseDataset parses r and requires a dataset collection.
func ParseDataset(r io.Reader) (*Dataset, *Document, error) {
	doc, err := Parse(r)
	if err != nil {
		return nil, nil, err
	}
	dataset, ok := doc.Data.(*Dataset)
	if !ok {
		return nil, nil, wrongCollection(FormatDataset, CollectionDataset, doc.Data.CollectionType())
	}
	return dataset, doc, nil
}
