package scanner

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var (
	volumeRE          = regexp.MustCompile(`(?i)\bv(?:ol)?\.?\s*(\d+(?:\.\d+)?)`)
	chapterRE         = regexp.MustCompile(`(?i)\b(?:c|ch|chapter|unit)\.?\s*(\d+(?:\.\d+)?)`)
	trailingNumberRE  = regexp.MustCompile(`\s(\d+(?:\.\d+)?)$`)
	numberingSuffixRE = regexp.MustCompile(`(?i)\s*(v|c|vol|chapter|ch)\s*\.?\s*\d+.*$`)
)

// IsComicFile reports whether the filename has a comic archive extension.
func IsComicFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".cbz", ".cbr":
		return true
	}
	return false
}

// ParseNumbering extracts volume and chapter numbers from a comic filename.
// A bare trailing number counts as a chapter when no explicit volume or
// chapter token is present.
func ParseNumbering(filename string) (volume, chapter *float64) {
	name := strings.TrimSuffix(filename, filepath.Ext(filename))

	if m := volumeRE.FindStringSubmatch(name); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			volume = &v
		}
	}
	if m := chapterRE.FindStringSubmatch(name); m != nil {
		if c, err := strconv.ParseFloat(m[1], 64); err == nil {
			chapter = &c
		}
	}
	if volume == nil && chapter == nil {
		if m := trailingNumberRE.FindStringSubmatch(name); m != nil {
			if c, err := strconv.ParseFloat(m[1], 64); err == nil {
				chapter = &c
			}
		}
	}

	return volume, chapter
}

// SeriesNameFromFilename strips numbering tokens from a filename to recover
// a series name, e.g. "One Piece v12.cbz" yields "One Piece".
func SeriesNameFromFilename(filename string) string {
	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	return strings.TrimSpace(numberingSuffixRE.ReplaceAllString(name, ""))
}
