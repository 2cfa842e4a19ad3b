// Package filesystem exposes server-side directory browsing so a library
// root can be picked from the UI.
package filesystem

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/comicden/comicden/pkg/scanner"
)

type Service struct{}

func NewService() *Service {
	return &Service{}
}

// BrowseOptions has the same structure as BrowseQuery to allow direct type conversion.
type BrowseOptions BrowseQuery

// Browse lists the directories and comic archives under a path. Other files
// are hidden since browsing exists to pick and verify library roots.
func (s *Service) Browse(opts BrowseOptions) (*BrowseResponse, error) {
	path := opts.Path
	if path == "" {
		path = "/"
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	// Resolve symlinks to prevent directory traversal.
	realPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		realPath = absPath
	}

	info, err := os.Stat(realPath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, os.ErrInvalid
	}

	dirEntries, err := os.ReadDir(realPath)
	if err != nil {
		return nil, err
	}

	// Empty slice so an empty directory serializes as [] instead of null.
	entries := []Entry{}
	for _, de := range dirEntries {
		name := de.Name()

		if !opts.ShowHidden && strings.HasPrefix(name, ".") {
			continue
		}

		isComic := scanner.IsComicFile(name)
		if !de.IsDir() && !isComic {
			continue
		}

		if opts.Search != "" && !strings.Contains(strings.ToLower(name), strings.ToLower(opts.Search)) {
			continue
		}

		entries = append(entries, Entry{
			Name:    name,
			Path:    filepath.Join(realPath, name),
			IsDir:   de.IsDir(),
			IsComic: isComic,
		})
	}

	// Directories first, then comics, alphabetical within each.
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})

	total := len(entries)

	start := opts.Offset
	if start > total {
		start = total
	}
	end := start + opts.Limit
	if end > total {
		end = total
	}

	parentPath := ""
	if realPath != "/" {
		parentPath = filepath.Dir(realPath)
	}

	return &BrowseResponse{
		CurrentPath: realPath,
		ParentPath:  parentPath,
		Entries:     entries[start:end],
		Total:       total,
		HasMore:     end < total,
	}, nil
}
