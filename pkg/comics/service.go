package comics

import (
	"context"
	"crypto/md5" //nolint:gosec // duplicate grouping, not a security boundary
	"database/sql"
	"encoding/hex"
	"io"
	"os"
	"sort"
	"time"

	"github.com/comicden/comicden/pkg/errcodes"
	"github.com/comicden/comicden/pkg/models"
	"github.com/comicden/comicden/pkg/natsort"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

// upsertChunkSize bounds one INSERT statement during sync.
const upsertChunkSize = 500

type RetrieveComicOptions struct {
	ID *string
}

type ListComicsOptions struct {
	SeriesID  *int
	Processed *bool
	Limit     *int
	Offset    *int

	includeTotal bool
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) RetrieveComic(ctx context.Context, opts RetrieveComicOptions) (*models.Comic, error) {
	comic := &models.Comic{}

	q := svc.db.
		NewSelect().
		Model(comic).
		Relation("SeriesRel")

	if opts.ID != nil {
		q = q.Where("c.id = ?", *opts.ID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Comic")
		}
		return nil, errors.WithStack(err)
	}

	return comic, nil
}

func (svc *Service) ListComics(ctx context.Context, opts ListComicsOptions) ([]*models.Comic, error) {
	comics, _, err := svc.listComicsWithTotal(ctx, opts)
	return comics, errors.WithStack(err)
}

func (svc *Service) ListComicsWithTotal(ctx context.Context, opts ListComicsOptions) ([]*models.Comic, int, error) {
	opts.includeTotal = true
	return svc.listComicsWithTotal(ctx, opts)
}

func (svc *Service) listComicsWithTotal(ctx context.Context, opts ListComicsOptions) ([]*models.Comic, int, error) {
	comics := []*models.Comic{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&comics).
		Order("c.path ASC")

	if opts.SeriesID != nil {
		q = q.Where("c.series_id = ?", *opts.SeriesID)
	}
	if opts.Processed != nil {
		q = q.Where("c.processed = ?", *opts.Processed)
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	// Within a series, numbered filenames sort naturally (v2 before v10).
	if opts.SeriesID != nil {
		sort.SliceStable(comics, func(i, j int) bool {
			return natsort.Less(comics[i].Filename, comics[j].Filename)
		})
	}

	return comics, total, nil
}

// SyncInfo is the on-disk identity of one known comic, used by the sync
// phase to classify files without loading full rows.
type SyncInfo struct {
	ID        string `bun:"id"`
	Path      string `bun:"path"`
	Mtime     int64  `bun:"mtime"`
	SizeBytes int64  `bun:"size_bytes"`
}

// SnapshotSyncInfo loads the identity of every comic keyed by id.
func (svc *Service) SnapshotSyncInfo(ctx context.Context) (map[string]SyncInfo, error) {
	rows := []SyncInfo{}
	err := svc.db.NewSelect().
		TableExpr("comics").
		Column("id", "path", "mtime", "size_bytes").
		Scan(ctx, &rows)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	snapshot := make(map[string]SyncInfo, len(rows))
	for _, row := range rows {
		snapshot[row.ID] = row
	}
	return snapshot, nil
}

// BatchUpsert inserts or replaces comics in chunks. An existing row keeps
// its id; everything else is overwritten, and a changed file drops back to
// unprocessed.
func (svc *Service) BatchUpsert(ctx context.Context, comics []*models.Comic) error {
	if len(comics) == 0 {
		return nil
	}

	now := time.Now()
	for _, comic := range comics {
		if comic.CreatedAt.IsZero() {
			comic.CreatedAt = now
		}
		comic.UpdatedAt = now
		comic.SizeStr = models.HumanSize(comic.SizeBytes)
	}

	for start := 0; start < len(comics); start += upsertChunkSize {
		end := start + upsertChunkSize
		if end > len(comics) {
			end = len(comics)
		}
		chunk := comics[start:end]

		_, err := svc.db.NewInsert().
			Model(&chunk).
			On("CONFLICT (id) DO UPDATE").
			Set("path = EXCLUDED.path").
			Set("filename = EXCLUDED.filename").
			Set("series = EXCLUDED.series").
			Set("series_id = EXCLUDED.series_id").
			Set("category = EXCLUDED.category").
			Set("subcategory = EXCLUDED.subcategory").
			Set("size_bytes = EXCLUDED.size_bytes").
			Set("size_str = EXCLUDED.size_str").
			Set("mtime = EXCLUDED.mtime").
			Set("volume = EXCLUDED.volume").
			Set("chapter = EXCLUDED.chapter").
			Set("pages = NULL").
			Set("processed = ?", false).
			Set("has_thumbnail = ?", false).
			Set("thumbnail_ext = NULL").
			Set("file_hash = NULL").
			Set("updated_at = EXCLUDED.updated_at").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

// DeleteByIDs removes comics whose files disappeared. Reading progress and
// bookmarks cascade.
func (svc *Service) DeleteByIDs(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var deleted int
	for start := 0; start < len(ids); start += upsertChunkSize {
		end := start + upsertChunkSize
		if end > len(ids) {
			end = len(ids)
		}

		res, err := svc.db.NewDelete().
			Model((*models.Comic)(nil)).
			Where("id IN (?)", bun.In(ids[start:end])).
			Exec(ctx)
		if err != nil {
			return deleted, errors.WithStack(err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return deleted, errors.WithStack(err)
		}
		deleted += int(affected)
	}
	return deleted, nil
}

// FetchPending returns up to limit unprocessed comics in path order.
func (svc *Service) FetchPending(ctx context.Context, limit int) ([]*models.Comic, error) {
	comics := []*models.Comic{}
	err := svc.db.NewSelect().
		Model(&comics).
		Where("c.processed = ?", false).
		Order("c.path ASC").
		Limit(limit).
		Scan(ctx)
	return comics, errors.WithStack(err)
}

// ProcessUpdate is the outcome of inspecting one comic.
type ProcessUpdate struct {
	ID           string
	Pages        *int
	HasThumbnail bool
	ThumbnailExt *string
	FileHash     *string
}

// ApplyProcessUpdates persists one batch of processing outcomes in a single
// transaction. Every row is marked processed regardless of outcome so a
// corrupt file isn't retried forever.
func (svc *Service) ApplyProcessUpdates(ctx context.Context, updates []*ProcessUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	err := svc.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		now := time.Now()
		for _, update := range updates {
			comic := &models.Comic{
				ID:           update.ID,
				Pages:        update.Pages,
				Processed:    true,
				HasThumbnail: update.HasThumbnail,
				ThumbnailExt: update.ThumbnailExt,
				FileHash:     update.FileHash,
				UpdatedAt:    now,
			}
			_, err := tx.NewUpdate().
				Model(comic).
				Column("pages", "processed", "has_thumbnail", "thumbnail_ext", "file_hash", "updated_at").
				WherePK().
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
		}
		return nil
	})
	return errors.WithStack(err)
}

// RequeueUnpaged sends processed comics that never produced a page count
// back through processing.
func (svc *Service) RequeueUnpaged(ctx context.Context) (int, error) {
	res, err := svc.db.NewUpdate().
		Model((*models.Comic)(nil)).
		Set("processed = ?", false).
		Where("processed = ?", true).
		Where("(pages IS NULL OR pages = 0)").
		Exec(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return int(affected), nil
}

// MarkThumbnail records an on-demand thumbnail install.
func (svc *Service) MarkThumbnail(ctx context.Context, id, ext string) error {
	_, err := svc.db.NewUpdate().
		Model((*models.Comic)(nil)).
		Set("has_thumbnail = ?", true).
		Set("thumbnail_ext = ?", ext).
		Set("updated_at = ?", time.Now()).
		Where("id = ?", id).
		Exec(ctx)
	return errors.WithStack(err)
}

// ComputeFileHash hashes a comic file's contents for duplicate grouping.
func ComputeFileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.WithStack(err)
	}
	defer f.Close()

	h := md5.New() //nolint:gosec
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.WithStack(err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
