package covers

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/comicden/comicden/internal/testgen"
	"github.com/comicden/comicden/pkg/archive"
	"github.com/comicden/comicden/pkg/comics"
	"github.com/comicden/comicden/pkg/config"
	"github.com/comicden/comicden/pkg/migrations"
	"github.com/comicden/comicden/pkg/models"
	"github.com/comicden/comicden/pkg/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestService(t *testing.T, timeout time.Duration) (*Service, *bun.DB) {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	cfg := &config.Config{
		CacheDir:         t.TempDir(),
		ThumbnailTimeout: timeout,
	}
	svc := NewService(cfg, db)

	t.Cleanup(func() {
		db.Close()
	})

	return svc, db
}

func seedComic(t *testing.T, db *bun.DB, path string) *models.Comic {
	t.Helper()
	comic := &models.Comic{
		ID:       models.ComicID(path),
		Path:     path,
		Filename: filepath.Base(path),
		Series:   "Test",
		Category: "Manga",
	}
	require.NoError(t, comics.NewService(db).BatchUpsert(context.Background(), []*models.Comic{comic}))
	return comic
}

func TestEnsureThumbnailGenerates(t *testing.T) {
	svc, db := newTestService(t, 10*time.Second)
	ctx := context.Background()

	dir := testgen.TempLibraryDir(t)
	path := testgen.GenerateCBZ(t, dir, "One Piece v01.cbz", testgen.CBZOptions{PageCount: 3})
	comic := seedComic(t, db, path)

	thumb, err := svc.EnsureThumbnail(ctx, comic)
	require.NoError(t, err)
	assert.False(t, thumb.Placeholder)
	assert.True(t, testgen.FileExists(thumb.Path))

	reloaded, err := svc.comicService.RetrieveComic(ctx, comics.RetrieveComicOptions{ID: &comic.ID})
	require.NoError(t, err)
	assert.True(t, reloaded.HasThumbnail)
	require.NotNil(t, reloaded.ThumbnailExt)
	assert.Equal(t, svc.thumbPath(comic.ID, *reloaded.ThumbnailExt), thumb.Path)
}

func TestEnsureThumbnailCachedFastPath(t *testing.T) {
	svc, db := newTestService(t, 10*time.Second)
	ctx := context.Background()

	// No archive on disk at all; only the cached file matters.
	path := filepath.Join(t.TempDir(), "cached.cbz")
	comic := seedComic(t, db, path)
	comic.HasThumbnail = true
	ext := "jpg"
	comic.ThumbnailExt = &ext

	cached := svc.thumbPath(comic.ID, ext)
	require.NoError(t, os.MkdirAll(filepath.Dir(cached), 0755))
	require.NoError(t, os.WriteFile(cached, []byte("cached bytes"), 0644))

	thumb, err := svc.EnsureThumbnail(ctx, comic)
	require.NoError(t, err)
	assert.False(t, thumb.Placeholder)
	assert.Equal(t, cached, thumb.Path)
}

func TestEnsureThumbnailFirstWriterWins(t *testing.T) {
	svc, db := newTestService(t, 10*time.Second)
	ctx := context.Background()

	// Pin the output format so the final filename is predictable.
	require.NoError(t, settings.NewService(db).Set(ctx, settings.KeyThumbFormat, archive.FormatJPEG))

	dir := testgen.TempLibraryDir(t)
	path := testgen.GenerateCBZ(t, dir, "One Piece v01.cbz", testgen.CBZOptions{
		PageCount:   2,
		ImageFormat: "jpeg",
	})
	comic := seedComic(t, db, path)

	// A concurrent request already installed a cover under the final name.
	final := svc.thumbPath(comic.ID, "jpg")
	require.NoError(t, os.MkdirAll(filepath.Dir(final), 0755))
	require.NoError(t, os.WriteFile(final, []byte("winner"), 0644))

	thumb, err := svc.EnsureThumbnail(ctx, comic)
	require.NoError(t, err)
	assert.Equal(t, final, thumb.Path)

	data, err := os.ReadFile(final)
	require.NoError(t, err)
	assert.Equal(t, "winner", string(data))

	// The loser's temp file was discarded.
	entries, err := os.ReadDir(filepath.Dir(final))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestEnsureThumbnailMissingArchiveReturnsPlaceholder(t *testing.T) {
	svc, db := newTestService(t, 10*time.Second)
	ctx := context.Background()

	comic := seedComic(t, db, filepath.Join(t.TempDir(), "gone.cbz"))

	thumb, err := svc.EnsureThumbnail(ctx, comic)
	require.NoError(t, err)
	assert.True(t, thumb.Placeholder)
	assert.True(t, testgen.FileExists(thumb.Path))
}

func TestEnsureThumbnailTimeoutContinuesDetached(t *testing.T) {
	svc, db := newTestService(t, time.Nanosecond)
	ctx := context.Background()

	dir := testgen.TempLibraryDir(t)
	path := testgen.GenerateCBZ(t, dir, "One Piece v01.cbz", testgen.CBZOptions{PageCount: 3})
	comic := seedComic(t, db, path)

	thumb, err := svc.EnsureThumbnail(ctx, comic)
	require.NoError(t, err)
	assert.True(t, thumb.Placeholder)

	// The detached render finishes and installs for the next request.
	var reloaded *models.Comic
	require.Eventually(t, func() bool {
		c, err := svc.comicService.RetrieveComic(ctx, comics.RetrieveComicOptions{ID: &comic.ID})
		if err != nil || !c.HasThumbnail {
			return false
		}
		reloaded = c
		return true
	}, 5*time.Second, 20*time.Millisecond)

	require.NotNil(t, reloaded.ThumbnailExt)
	assert.True(t, testgen.FileExists(svc.thumbPath(comic.ID, *reloaded.ThumbnailExt)))
}
