package search

import (
	"context"
	"database/sql"
	"testing"

	"github.com/comicden/comicden/pkg/database"
	"github.com/comicden/comicden/pkg/migrations"
	"github.com/comicden/comicden/pkg/models"
	"github.com/comicden/comicden/pkg/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestService(t *testing.T) (*Service, *bun.DB) {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	svc := NewService(db, database.CheckFTS5Support(db))
	require.NoError(t, svc.EnsureTables(context.Background()))
	return svc, db
}

func createSeries(t *testing.T, db *bun.DB, svc *Service, s *models.Series) *models.Series {
	t.Helper()

	require.NoError(t, s.MarshalLists())
	_, err := db.NewInsert().Model(s).Exec(context.Background())
	require.NoError(t, err)
	require.NoError(t, svc.IndexSeries(context.Background(), s))
	return s
}

func createComic(t *testing.T, db *bun.DB, path string, seriesID int) {
	t.Helper()

	comic := &models.Comic{
		ID:       models.ComicID(path),
		Path:     path,
		Filename: path,
		Series:   "test",
		Category: "test",
		SeriesID: &seriesID,
	}
	_, err := db.NewInsert().Model(comic).Exec(context.Background())
	require.NoError(t, err)
}

func TestSearchSeriesByName(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	createSeries(t, db, svc, &models.Series{Name: "One Piece"})
	createSeries(t, db, svc, &models.Series{Name: "One Punch Man"})
	createSeries(t, db, svc, &models.Series{Name: "Berserk"})

	results, total, err := svc.SearchSeries(ctx, "one", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, results, 2)
}

func TestSearchSeriesPrefix(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	createSeries(t, db, svc, &models.Series{Name: "Berserk"})

	// Typeahead: a partial final word still matches.
	results, _, err := svc.SearchSeries(ctx, "bers", 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Berserk", results[0].Name)
}

func TestSearchSeriesByTitleAndSynonyms(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	createSeries(t, db, svc, &models.Series{
		Name:           "shingeki-no-kyojin",
		Title:          testutils.StringPtr("Shingeki no Kyojin"),
		SynonymsParsed: []string{"Attack on Titan"},
	})

	results, _, err := svc.SearchSeries(ctx, "attack", 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "shingeki-no-kyojin", results[0].Name)
}

func TestSearchSeriesByAuthor(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	createSeries(t, db, svc, &models.Series{
		Name:          "Berserk",
		AuthorsParsed: []string{"Kentaro Miura"},
	})

	results, _, err := svc.SearchSeries(ctx, "miura", 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestSearchSeriesComicCount(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	s := createSeries(t, db, svc, &models.Series{Name: "Berserk"})
	createComic(t, db, "/library/berserk/v01.cbz", s.ID)
	createComic(t, db, "/library/berserk/v02.cbz", s.ID)

	results, _, err := svc.SearchSeries(ctx, "berserk", 10, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 2, results[0].ComicCount)
}

func TestSearchSeriesEmptyQuery(t *testing.T) {
	svc, _ := newTestService(t)

	results, total, err := svc.SearchSeries(context.Background(), "   ", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.Empty(t, results)
}

func TestSearchSeriesOperatorsAreLiteral(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	createSeries(t, db, svc, &models.Series{Name: "Berserk"})

	// FTS5 operators in user input must not leak into the query language.
	for _, query := range []string{`berserk AND nothing`, `"berserk`, `NEAR(berserk)`} {
		_, _, err := svc.SearchSeries(ctx, query, 10, 0)
		require.NoError(t, err, "query %q", query)
	}
}

func countIndexed(t *testing.T, db *bun.DB, seriesID int) int {
	t.Helper()

	var count int
	err := db.NewSelect().
		TableExpr("series_fts").
		ColumnExpr("COUNT(*)").
		Where("series_id = ?", seriesID).
		Scan(context.Background(), &count)
	require.NoError(t, err)
	return count
}

func TestDeleteFromIndex(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	s := createSeries(t, db, svc, &models.Series{Name: "Berserk"})
	require.Equal(t, 1, countIndexed(t, db, s.ID))

	require.NoError(t, svc.DeleteFromIndex(ctx, s.ID))
	assert.Equal(t, 0, countIndexed(t, db, s.ID))
}

func TestRebuildIndex(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	// Insert without indexing, then rebuild.
	s := &models.Series{Name: "Vinland Saga"}
	require.NoError(t, s.MarshalLists())
	_, err := db.NewInsert().Model(s).Exec(ctx)
	require.NoError(t, err)
	require.Equal(t, 0, countIndexed(t, db, s.ID))

	require.NoError(t, svc.RebuildIndex(ctx))
	assert.Equal(t, 1, countIndexed(t, db, s.ID))

	_, total, err := svc.SearchSeries(ctx, "vinland", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestSearchSeriesFallsBackToSubstring(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	createSeries(t, db, svc, &models.Series{Name: "One Piece"})

	// "iece" is not a token prefix, so FTS misses and LIKE catches it.
	results, total, err := svc.SearchSeries(ctx, "iece", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, results, 1)
}

func TestSearchSeriesLikeFallback(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	createSeries(t, db, svc, &models.Series{Name: "One Piece"})
	createSeries(t, db, svc, &models.Series{Name: "Berserk"})

	fallback := NewService(db, false)

	results, total, err := fallback.SearchSeries(ctx, "piece", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, results, 1)
	assert.Equal(t, "One Piece", results[0].Name)

	// LIKE wildcards in input match literally.
	_, total, err = fallback.SearchSeries(ctx, "%", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}
