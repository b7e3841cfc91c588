package importer

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/tphakala/birdnet-annotations/internal/errors"
)

// errPathOutsideBase is returned for recording paths that resolve outside
// the base audio directory.
var errPathOutsideBase = errors.NewStd("path escapes base audio directory")

// pathResolver maps recording paths of a document to stored paths.
type pathResolver struct {
	audioDir string
	baseDir  string
}

// resolve converts docPath to a posix path relative to the base audio
// directory. Backslash separators are accepted regardless of platform, so
// documents exported on Windows import anywhere.
func (p pathResolver) resolve(docPath string) (string, error) {
	slashed := strings.ReplaceAll(docPath, `\`, "/")

	var abs string
	if path.IsAbs(slashed) || filepath.IsAbs(slashed) {
		abs = filepath.Clean(filepath.FromSlash(slashed))
	} else {
		abs = filepath.Join(p.audioDir, filepath.FromSlash(slashed))
	}

	return relativeTo(p.baseDir, abs)
}

// relativeTo returns target relative to base in posix form, or
// errPathOutsideBase when target is not below base.
func relativeTo(base, target string) (string, error) {
	rel, err := filepath.Rel(base, target)
	if err != nil {
		return "", errPathOutsideBase
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errPathOutsideBase
	}
	return filepath.ToSlash(rel), nil
}
