package archive

import (
	"io"

	"github.com/nwaples/rardecode/v2"
	"github.com/pkg/errors"
)

// rarSource lists entries up front since RAR archives only support
// sequential access. Opening an entry rescans the archive to its header.
type rarSource struct {
	path    string
	entries []string
}

func openRarSource(path string) (*rarSource, error) {
	rc, err := rardecode.OpenReader(path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer rc.Close()

	src := &rarSource{path: path}
	for {
		hdr, err := rc.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if hdr.IsDir || !isImageEntry(hdr.Name) {
			continue
		}
		src.entries = append(src.entries, hdr.Name)
	}
	src.entries = sortEntries(src.entries)

	return src, nil
}

func (src *rarSource) ImageEntries() []string {
	return src.entries
}

func (src *rarSource) Open(name string) (io.ReadCloser, error) {
	rc, err := rardecode.OpenReader(src.path)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	for {
		hdr, err := rc.Next()
		if errors.Is(err, io.EOF) {
			rc.Close()
			return nil, errors.Errorf("entry not found: %s", name)
		}
		if err != nil {
			rc.Close()
			return nil, errors.WithStack(err)
		}
		if hdr.Name == name {
			return &rarEntry{rc: rc}, nil
		}
	}
}

func (src *rarSource) Close() error {
	return nil
}

// rarEntry exposes the archive reader positioned at one entry.
type rarEntry struct {
	rc *rardecode.ReadCloser
}

func (e *rarEntry) Read(p []byte) (int, error) {
	return e.rc.Read(p)
}

func (e *rarEntry) Close() error {
	return errors.WithStack(e.rc.Close())
}
