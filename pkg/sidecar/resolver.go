package sidecar

import (
	"path/filepath"

	"github.com/pkg/errors"
)

// Resolver looks up the sidecar governing a directory, walking up parent
// directories until the library root. The nearest ancestor wins. Reads are
// cached by absolute directory path for the lifetime of the resolver, which
// is expected to span a single scan.
type Resolver struct {
	cache map[string]*SeriesSidecar
}

func NewResolver() *Resolver {
	return &Resolver{cache: make(map[string]*SeriesSidecar)}
}

// read returns the sidecar in exactly this directory, consulting the cache.
// A directory with no sidecar is cached as nil.
func (r *Resolver) read(dir string) (*SeriesSidecar, error) {
	if s, ok := r.cache[dir]; ok {
		return s, nil
	}
	s, err := Read(dir)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	r.cache[dir] = s
	return s, nil
}

// Resolve returns the sidecar that applies to dir, or nil if no directory
// between dir and root (inclusive) carries one. dir and root must both be
// absolute.
func (r *Resolver) Resolve(dir, root string) (*SeriesSidecar, error) {
	dir = filepath.Clean(dir)
	root = filepath.Clean(root)

	for {
		s, err := r.read(dir)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if s != nil {
			return s, nil
		}
		if dir == root {
			return nil, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached the filesystem root without passing the library root.
			return nil, nil
		}
		dir = parent
	}
}
