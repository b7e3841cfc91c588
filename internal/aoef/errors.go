package aoef

import (
	"encoding/json"
	"fmt"

	"github.com/tphakala/birdnet-annotations/internal/errors"
)

// Format tags carried by FormatError.
const (
	FormatJSON              = "json"
	FormatAOEF              = "aoef"
	FormatAnnotationProject = "aoef-annotation-project"
	FormatDataset           = "aoef-dataset"
)

// FormatError reports input that is not an acceptable AOEF document. It is
// returned before anything is written.
type FormatError struct {
	Format   string
	Message  string
	Details  string
	Detected string
}

func (e *FormatError) Error() string {
	if e.Details == "" {
		return e.Message
	}
	return e.Message + ": " + e.Details
}

// ErrorCategory implements errors.CategorizedError.
func (e *FormatError) ErrorCategory() errors.ErrorCategory {
	return errors.CategoryDataFormat
}

// MarshalJSON renders the error as the API error body.
func (e *FormatError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ErrorType string `json:"error_type"`
		Message   string `json:"message"`
		Format    string `json:"format,omitempty"`
		Details   string `json:"details,omitempty"`
	}{
		ErrorType: "DataFormatError",
		Message:   e.Message,
		Format:    e.Format,
		Details:   e.Details,
	})
}

// IsFormatError reports whether err is or wraps a *FormatError.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

func invalidJSON(err error) *FormatError {
	fe := &FormatError{
		Format:  FormatJSON,
		Message: "Invalid JSON file. Expected a JSON file in AOEF format.",
	}
	if err != nil {
		fe.Details = err.Error()
	}
	return fe
}

func invalidAOEF(details string) *FormatError {
	return &FormatError{
		Format:  FormatAOEF,
		Message: "Invalid AOEF file. Expected a JSON file in AOEF format.",
		Details: details,
	}
}

func wrongCollection(format, expected, detected string) *FormatError {
	return &FormatError{
		Format: format,
		Message: fmt.Sprintf(
			"Invalid %s file. The provided file is a valid AOEF object, but it is not %s. "+
				"Detected object type: '%s'. Please ensure you provided the correct file or convert it to %s.",
			collectionTitle(expected), article(expected), detected, article(expected)),
		Detected: detected,
	}
}

func collectionTitle(collectionType string) string {
	switch collectionType {
	case CollectionAnnotationProject:
		return "Annotation Project"
	case CollectionDataset:
		return "Dataset"
	default:
		return collectionType
	}
}

func article(collectionType string) string {
	switch collectionType {
	case CollectionAnnotationProject:
		return "an Annotation Project"
	default:
		return "a " + collectionTitle(collectionType)
	}
}
