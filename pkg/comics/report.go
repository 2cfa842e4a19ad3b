package comics

import (
	"context"

	"github.com/comicden/comicden/pkg/models"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// DuplicateGroup is a set of comics sharing one content hash.
type DuplicateGroup struct {
	FileHash   string          `json:"file_hash"`
	SizeBytes  int64           `json:"size_bytes"`
	Comics     []*models.Comic `json:"comics"`
	WastedSize int64           `json:"wasted_size"`
}

// DuplicateReport groups processed comics by content hash and returns the
// groups with more than one member. When fillMissing is set, comics without
// a hash are hashed first; that reads every unhashed file, so callers opt in.
func (svc *Service) DuplicateReport(ctx context.Context, fillMissing bool) ([]*DuplicateGroup, error) {
	if fillMissing {
		if err := svc.fillMissingHashes(ctx); err != nil {
			return nil, errors.WithStack(err)
		}
	}

	comics := []*models.Comic{}
	err := svc.db.NewSelect().
		Model(&comics).
		Where("c.file_hash IS NOT NULL").
		Where(`c.file_hash IN (
			SELECT file_hash FROM comics
			WHERE file_hash IS NOT NULL
			GROUP BY file_hash HAVING COUNT(*) > 1
		)`).
		Order("c.file_hash ASC", "c.path ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	groups := []*DuplicateGroup{}
	var current *DuplicateGroup
	for _, comic := range comics {
		if current == nil || current.FileHash != *comic.FileHash {
			current = &DuplicateGroup{
				FileHash:  *comic.FileHash,
				SizeBytes: comic.SizeBytes,
			}
			groups = append(groups, current)
		}
		current.Comics = append(current.Comics, comic)
	}
	for _, group := range groups {
		group.WastedSize = int64(len(group.Comics)-1) * group.SizeBytes
	}
	return groups, nil
}

// fillMissingHashes computes content hashes for comics that don't have one
// yet. A file that can't be read is skipped and stays unhashed.
func (svc *Service) fillMissingHashes(ctx context.Context) error {
	log := logger.FromContext(ctx)

	comics := []*models.Comic{}
	err := svc.db.NewSelect().
		Model(&comics).
		Column("c.id", "c.path").
		Where("c.file_hash IS NULL").
		Scan(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	for _, comic := range comics {
		hash, err := ComputeFileHash(comic.Path)
		if err != nil {
			log.Err(err).Warn("hash comic file", logger.Data{"path": comic.Path})
			continue
		}
		_, err = svc.db.NewUpdate().
			Model((*models.Comic)(nil)).
			Set("file_hash = ?", hash).
			Where("id = ?", comic.ID).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}
