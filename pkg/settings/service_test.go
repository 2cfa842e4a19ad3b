package settings

import (
	"context"
	"database/sql"
	"testing"

	"github.com/comicden/comicden/pkg/archive"
	"github.com/comicden/comicden/pkg/migrations"
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

func TestGetMissingKey(t *testing.T) {
	svc := NewService(newTestDB(t))

	value, err := svc.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Equal(t, "", value)
}

func TestSetUpserts(t *testing.T) {
	svc := NewService(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, KeyThumbQuality, "80"))
	require.NoError(t, svc.Set(ctx, KeyThumbQuality, "90"))

	value, err := svc.Get(ctx, KeyThumbQuality)
	require.NoError(t, err)
	assert.Equal(t, "90", value)
}

func TestThumbnailSettingsDefaults(t *testing.T) {
	svc := NewService(newTestDB(t))

	ts, err := svc.ThumbnailSettings(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultThumbWidth, ts.Width)
	assert.Equal(t, DefaultThumbHeight, ts.Height)
	assert.Equal(t, DefaultThumbQuality, ts.Quality)
	assert.Equal(t, DefaultThumbFormat, ts.Format)
}

func TestThumbnailSettingsRoundTrip(t *testing.T) {
	svc := NewService(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, svc.UpdateThumbnailSettings(ctx, &ThumbnailSettings{
		Width:   300,
		Height:  450,
		Quality: 85,
		Format:  archive.FormatPNG,
	}))

	ts, err := svc.ThumbnailSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 300, ts.Width)
	assert.Equal(t, 450, ts.Height)
	assert.Equal(t, 85, ts.Quality)
	assert.Equal(t, archive.FormatPNG, ts.Format)
}

func TestThumbnailSettingsRejectsBadValues(t *testing.T) {
	svc := NewService(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, KeyThumbWidth, "not a number"))
	require.NoError(t, svc.Set(ctx, KeyThumbFormat, "webp"))

	ts, err := svc.ThumbnailSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, DefaultThumbWidth, ts.Width)
	assert.Equal(t, DefaultThumbFormat, ts.Format)
}

func TestNSFWRulesDefaults(t *testing.T) {
	svc := NewService(newTestDB(t))

	rules, err := svc.NSFWRules(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rules.Categories)
	assert.Empty(t, rules.Subcategories)
	assert.Contains(t, rules.TagPatterns, "ecchi")
}

func TestNSFWRulesRoundTrip(t *testing.T) {
	svc := NewService(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, svc.UpdateNSFWRules(ctx, &NSFWRules{
		Categories:  []string{"Adult"},
		TagPatterns: []string{"hentai*"},
	}))

	rules, err := svc.NSFWRules(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Adult"}, rules.Categories)
	assert.Empty(t, rules.Subcategories)
	assert.Equal(t, []string{"hentai*"}, rules.TagPatterns)
}

func TestNSFWRulesCommaSeparatedFallback(t *testing.T) {
	svc := NewService(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, svc.Set(ctx, KeyNSFWCategories, "Adult, Doujinshi"))

	rules, err := svc.NSFWRules(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Adult", "Doujinshi"}, rules.Categories)
}
