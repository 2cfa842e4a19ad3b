package sidecar

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/comicden/comicden/pkg/htmlutil"
	"github.com/pkg/errors"
)

const Filename = "series.json"

// Path returns the sidecar file path for a directory.
func Path(dir string) string {
	return filepath.Join(dir, Filename)
}

// Exists checks if a directory has a sidecar file.
func Exists(dir string) bool {
	_, err := os.Stat(Path(dir))
	return err == nil
}

// Read reads and parses a directory's sidecar file. Returns nil, nil if the
// sidecar doesn't exist. Unknown keys are ignored.
func Read(dir string) (*SeriesSidecar, error) {
	data, err := os.ReadFile(Path(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.WithStack(err)
	}

	var s SeriesSidecar
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.WithStack(err)
	}

	// Synopses exported from metadata sites often carry HTML markup and
	// trailing attribution notes.
	if s.Synopsis != nil {
		cleaned := htmlutil.StripSourceNotes(htmlutil.StripTags(*s.Synopsis))
		s.Synopsis = &cleaned
	}

	return &s, nil
}

// Write writes a sidecar file into the given directory.
func Write(dir string, s *SeriesSidecar) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return errors.WithStack(err)
	}

	// Sidecar files should be readable by users and other applications.
	return errors.WithStack(os.WriteFile(Path(dir), data, 0644)) //nolint:gosec
}
