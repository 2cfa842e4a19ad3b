package archive

import (
	"archive/zip"
	"io"

	"github.com/pkg/errors"
)

type zipSource struct {
	rc      *zip.ReadCloser
	byName  map[string]*zip.File
	entries []string
}

func openZipSource(path string) (*zipSource, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	src := &zipSource{
		rc:     rc,
		byName: make(map[string]*zip.File),
	}
	for _, f := range rc.File {
		if f.FileInfo().IsDir() || !isImageEntry(f.Name) {
			continue
		}
		src.byName[f.Name] = f
		src.entries = append(src.entries, f.Name)
	}
	src.entries = sortEntries(src.entries)

	return src, nil
}

func (src *zipSource) ImageEntries() []string {
	return src.entries
}

func (src *zipSource) Open(name string) (io.ReadCloser, error) {
	f, ok := src.byName[name]
	if !ok {
		return nil, errors.Errorf("entry not found: %s", name)
	}
	r, err := f.Open()
	return r, errors.WithStack(err)
}

func (src *zipSource) Close() error {
	return errors.WithStack(src.rc.Close())
}
