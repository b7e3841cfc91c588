package importer

import (
	"path/filepath"

	"github.com/tphakala/birdnet-annotations/internal/errors"
)

// Options controls a single import.
type Options struct {
	// AudioDir is the directory the document's recording paths are relative
	// to. A relative AudioDir is taken relative to BaseAudioDir; empty means
	// BaseAudioDir itself.
	AudioDir string

	// BaseAudioDir is the root that stored recording paths are relative to.
	BaseAudioDir string

	// ImportedBy is the username of the user performing the import. Tags,
	// notes and badges without a resolvable author are attributed to it.
	ImportedBy string

	// ExistingRecordingsOnly drops recordings that are not already stored
	// instead of creating them.
	ExistingRecordingsOnly bool
}

// normalize validates o and makes both directories absolute and clean.
func (o Options) normalize() (Options, error) {
	if o.ImportedBy == "" {
		return o, errors.Newf("importing user is required").
			Component("importer").
			Category(errors.CategoryValidation).
			Build()
	}

	base := o.BaseAudioDir
	if base == "" {
		base = "."
	}
	base, err := filepath.Abs(base)
	if err != nil {
		return o, errors.New(err).
			Component("importer").
			Category(errors.CategoryConfiguration).
			Context("base_audio_dir", o.BaseAudioDir).
			Build()
	}

	audio := o.AudioDir
	switch {
	case audio == "":
		audio = base
	case !filepath.IsAbs(audio):
		audio = filepath.Join(base, audio)
	}

	o.BaseAudioDir = base
	o.AudioDir = filepath.Clean(audio)
	return o, nil
}
