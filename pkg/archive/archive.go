// Package archive inspects comic book archives (CBZ and CBR). It counts
// pages and renders a cover thumbnail from the first page in natural order.
package archive

import (
	"io"
	"path/filepath"
	"strings"

	"github.com/comicden/comicden/pkg/natsort"
	"github.com/pkg/errors"
)

// ThumbnailOptions controls cover rendering. Format is "jpeg", "png", or
// "best", which encodes both and keeps the smaller output.
type ThumbnailOptions struct {
	Width   int
	Height  int
	Quality int
	Format  string
}

// Result is the outcome of inspecting one archive. Err carries a
// human-readable failure description instead of an error value so it can be
// stored on a scan job; a failed inspection still yields a usable zero
// Result.
type Result struct {
	Pages         int
	ThumbnailData []byte
	ThumbnailExt  string
	BytesSaved    int64
	Err           string
}

// entrySource abstracts the two archive formats. ImageEntries returns page
// names in natural order.
type entrySource interface {
	ImageEntries() []string
	Open(name string) (io.ReadCloser, error)
	Close() error
}

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

func isImageEntry(name string) bool {
	base := filepath.Base(name)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "__MACOSX") {
		return false
	}
	return imageExtensions[strings.ToLower(filepath.Ext(name))]
}

func openSource(path string) (entrySource, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cbz":
		return openZipSource(path)
	case ".cbr":
		return openRarSource(path)
	default:
		return nil, errors.Errorf("unsupported archive extension: %s", filepath.Ext(path))
	}
}

// Inspect opens the archive, counts its pages, and renders a cover
// thumbnail. It never panics or returns an error; failures are reported in
// Result.Err. A nil opts skips thumbnail generation.
func Inspect(path string, opts *ThumbnailOptions) *Result {
	result := &Result{}

	src, err := openSource(path)
	if err != nil {
		result.Err = err.Error()
		return result
	}
	defer src.Close()

	entries := src.ImageEntries()
	result.Pages = len(entries)
	if len(entries) == 0 {
		result.Err = "archive contains no image entries"
		return result
	}

	if opts == nil {
		return result
	}

	data, ext, saved, err := renderThumbnail(src, entries[0], opts)
	if err != nil {
		result.Err = err.Error()
		return result
	}
	result.ThumbnailData = data
	result.ThumbnailExt = ext
	result.BytesSaved = saved

	return result
}

// CountPages returns the number of image entries in the archive.
func CountPages(path string) (int, error) {
	src, err := openSource(path)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	defer src.Close()

	return len(src.ImageEntries()), nil
}

func sortEntries(names []string) []string {
	natsort.Strings(names)
	return names
}
