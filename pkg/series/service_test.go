package series

import (
	"context"
	"database/sql"
	"testing"

	"github.com/comicden/comicden/pkg/migrations"
	"github.com/comicden/comicden/pkg/models"
	"github.com/comicden/comicden/pkg/sidecar"
	"github.com/comicden/comicden/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func createComic(t *testing.T, db *bun.DB, path string, seriesID *int, volume, chapter *float64) *models.Comic {
	t.Helper()

	comic := &models.Comic{
		ID:       models.ComicID(path),
		Path:     path,
		Filename: path,
		Series:   "Test",
		Category: "Test",
		SeriesID: seriesID,
		Volume:   volume,
		Chapter:  chapter,
	}
	_, err := db.NewInsert().Model(comic).Exec(context.Background())
	require.NoError(t, err)
	return comic
}

func TestUpsertCreatesThenFills(t *testing.T) {
	svc := NewService(newTestDB(t))
	ctx := context.Background()

	id, err := svc.Upsert(ctx, "Berserk", UpsertOptions{
		Category: testutils.StringPtr("Manga"),
	})
	require.NoError(t, err)
	require.NotZero(t, id)

	// A later sidecar fills metadata without touching what's set.
	again, err := svc.Upsert(ctx, "Berserk", UpsertOptions{
		Metadata: &sidecar.SeriesSidecar{
			Title:   "Berserk",
			Authors: []string{"Kentaro Miura"},
			Genres:  []string{"Dark Fantasy"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, id, again)

	series, err := svc.RetrieveSeries(ctx, RetrieveSeriesOptions{ID: &id})
	require.NoError(t, err)
	require.NotNil(t, series.Title)
	assert.Equal(t, "Berserk", *series.Title)
	assert.Equal(t, []string{"Kentaro Miura"}, series.AuthorsParsed)
	require.NotNil(t, series.Category)
	assert.Equal(t, "Manga", *series.Category)
}

func TestUpsertSparseDoesNotErase(t *testing.T) {
	svc := NewService(newTestDB(t))
	ctx := context.Background()

	id, err := svc.Upsert(ctx, "Berserk", UpsertOptions{
		Metadata: &sidecar.SeriesSidecar{
			Synopsis: testutils.StringPtr("A dark tale."),
			Tags:     []string{"Seinen"},
		},
	})
	require.NoError(t, err)

	// Re-sync without a sidecar.
	_, err = svc.Upsert(ctx, "Berserk", UpsertOptions{})
	require.NoError(t, err)

	series, err := svc.RetrieveSeries(ctx, RetrieveSeriesOptions{ID: &id})
	require.NoError(t, err)
	require.NotNil(t, series.Synopsis)
	assert.Equal(t, "A dark tale.", *series.Synopsis)
	assert.Equal(t, []string{"Seinen"}, series.TagsParsed)
}

func TestRetrieveSeriesComicCount(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	id, err := svc.Upsert(ctx, "Berserk", UpsertOptions{})
	require.NoError(t, err)

	createComic(t, db, "/library/berserk/v01.cbz", &id, nil, nil)
	createComic(t, db, "/library/berserk/v02.cbz", &id, nil, nil)

	series, err := svc.RetrieveSeries(ctx, RetrieveSeriesOptions{ID: &id})
	require.NoError(t, err)
	assert.Equal(t, 2, series.ComicCount)
}

func TestRenameSimple(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	id, err := svc.Upsert(ctx, "Bersrk", UpsertOptions{})
	require.NoError(t, err)
	comic := createComic(t, db, "/library/bersrk/v01.cbz", &id, nil, nil)

	finalID, err := svc.Rename(ctx, id, "Berserk")
	require.NoError(t, err)
	assert.Equal(t, id, finalID)

	stored := &models.Comic{}
	require.NoError(t, db.NewSelect().Model(stored).Where("c.id = ?", comic.ID).Scan(ctx))
	assert.Equal(t, "Berserk", stored.Series)
}

func TestRenameMergesIntoExisting(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	targetID, err := svc.Upsert(ctx, "Berserk", UpsertOptions{})
	require.NoError(t, err)
	sourceID, err := svc.Upsert(ctx, "Berserk (1989)", UpsertOptions{})
	require.NoError(t, err)

	comic := createComic(t, db, "/library/berserk-1989/v01.cbz", &sourceID, nil, nil)

	finalID, err := svc.Rename(ctx, sourceID, "Berserk")
	require.NoError(t, err)
	assert.Equal(t, targetID, finalID)

	// Source row is gone, comics repointed.
	_, err = svc.RetrieveSeries(ctx, RetrieveSeriesOptions{ID: &sourceID})
	require.Error(t, err)

	stored := &models.Comic{}
	require.NoError(t, db.NewSelect().Model(stored).Where("c.id = ?", comic.ID).Scan(ctx))
	require.NotNil(t, stored.SeriesID)
	assert.Equal(t, targetID, *stored.SeriesID)
}

func TestDeleteSeriesDetachesComics(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	id, err := svc.Upsert(ctx, "Berserk", UpsertOptions{})
	require.NoError(t, err)
	comic := createComic(t, db, "/library/berserk/v01.cbz", &id, nil, nil)

	require.NoError(t, svc.DeleteSeries(ctx, id))

	stored := &models.Comic{}
	require.NoError(t, db.NewSelect().Model(stored).Where("c.id = ?", comic.ID).Scan(ctx))
	assert.Nil(t, stored.SeriesID)
}

func TestSetCoverIfMissing(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	id, err := svc.Upsert(ctx, "Berserk", UpsertOptions{})
	require.NoError(t, err)

	require.NoError(t, svc.SetCoverIfMissing(ctx, id, "aaaa"))
	require.NoError(t, svc.SetCoverIfMissing(ctx, id, "bbbb"))

	series, err := svc.RetrieveSeries(ctx, RetrieveSeriesOptions{ID: &id})
	require.NoError(t, err)
	require.NotNil(t, series.CoverComicID)
	assert.Equal(t, "aaaa", *series.CoverComicID)
}

func TestGapsReport(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	id, err := svc.Upsert(ctx, "Test", UpsertOptions{})
	require.NoError(t, err)

	ch := testutils.Float64Ptr
	createComic(t, db, "/library/test/c001.cbz", &id, nil, ch(1))
	createComic(t, db, "/library/test/c002.cbz", &id, nil, ch(2))
	createComic(t, db, "/library/test/c005.cbz", &id, nil, ch(5))
	createComic(t, db, "/library/test/v01.cbz", &id, ch(1), nil)
	createComic(t, db, "/library/test/v04.cbz", &id, ch(4), nil)

	report, err := svc.GapsReport(ctx)
	require.NoError(t, err)
	require.Len(t, report, 2)

	byType := map[string]*Gap{}
	for _, gap := range report {
		byType[gap.Type] = gap
	}
	require.Contains(t, byType, GapTypeChapter)
	assert.Equal(t, []int{3, 4}, byType[GapTypeChapter].Gaps)
	require.Contains(t, byType, GapTypeVolume)
	assert.Equal(t, []int{2, 3}, byType[GapTypeVolume].Gaps)
}

func TestGapsReportIgnoresFractionalNeighbors(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	id, err := svc.Upsert(ctx, "Test", UpsertOptions{})
	require.NoError(t, err)

	ch := testutils.Float64Ptr
	createComic(t, db, "/library/test/c010.cbz", &id, nil, ch(10))
	createComic(t, db, "/library/test/c010.5.cbz", &id, nil, ch(10.5))
	createComic(t, db, "/library/test/c013.cbz", &id, nil, ch(13))

	report, err := svc.GapsReport(ctx)
	require.NoError(t, err)
	assert.Empty(t, report)
}
