package tags

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/comicden/comicden/pkg/migrations"
	"github.com/comicden/comicden/pkg/models"
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

type seedSeries struct {
	name         string
	title        *string
	synopsis     *string
	genres       []string
	tags         []string
	demographics []string
	coverComicID *string
	isNSFW       bool
}

func createSeries(t *testing.T, db *bun.DB, seed seedSeries) *models.Series {
	t.Helper()

	s := &models.Series{
		Name:               seed.name,
		Title:              seed.title,
		Synopsis:           seed.synopsis,
		GenresParsed:       seed.genres,
		TagsParsed:         seed.tags,
		DemographicsParsed: seed.demographics,
		CoverComicID:       seed.coverComicID,
		IsNSFW:             seed.isNSFW,
	}
	require.NoError(t, s.MarshalLists())

	_, err := db.NewInsert().Model(s).Exec(context.Background())
	require.NoError(t, err)
	return s
}

func createComic(t *testing.T, db *bun.DB, path string, seriesID int) *models.Comic {
	t.Helper()

	comic := &models.Comic{
		ID:       models.ComicID(path),
		Path:     path,
		Filename: path,
		Series:   fmt.Sprintf("series-%d", seriesID),
		Category: "test",
		SeriesID: &seriesID,
	}
	_, err := db.NewInsert().Model(comic).Exec(context.Background())
	require.NoError(t, err)
	return comic
}

func tagByNorm(tags []*TagCount, norm string) *TagCount {
	for _, tag := range tags {
		if tag.Norm == norm {
			return tag
		}
	}
	return nil
}

func TestListTagsMergesVariants(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	createSeries(t, db, seedSeries{name: "Alpha", tags: []string{"Video Games"}})
	createSeries(t, db, seedSeries{name: "Beta", tags: []string{"video game"}})
	createSeries(t, db, seedSeries{name: "Gamma", genres: []string{"Action"}})

	tags, err := svc.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)

	games := tagByNorm(tags, "video game")
	require.NotNil(t, games)
	assert.Equal(t, 2, games.Count)
	assert.Equal(t, "Video Games", games.Display)

	action := tagByNorm(tags, "action")
	require.NotNil(t, action)
	assert.Equal(t, 1, action.Count)
}

func TestListTagsCountsSeriesOnce(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	// Same tag through a genre and a tag column still counts once.
	createSeries(t, db, seedSeries{
		name:   "Alpha",
		genres: []string{"Fantasy"},
		tags:   []string{"fantasy"},
	})

	tags, err := svc.ListTags(context.Background())
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, 1, tags[0].Count)
}

func TestBlacklistRemovesTag(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	createSeries(t, db, seedSeries{name: "Alpha", tags: []string{"Ecchi", "Action"}})

	_, err := svc.Blacklist(ctx, "Ecchi")
	require.NoError(t, err)

	tags, err := svc.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "action", tags[0].Norm)
}

func TestMergeCombinesCounts(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	createSeries(t, db, seedSeries{name: "Alpha", tags: []string{"Sci Fi"}})
	createSeries(t, db, seedSeries{name: "Beta", tags: []string{"Science Fiction"}})

	_, err := svc.Merge(ctx, "Sci Fi", "Science Fiction")
	require.NoError(t, err)

	tags, err := svc.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "science fiction", tags[0].Norm)
	assert.Equal(t, 2, tags[0].Count)
}

func TestMergeChainFollowsToEnd(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	createSeries(t, db, seedSeries{name: "Alpha", tags: []string{"a"}})
	createSeries(t, db, seedSeries{name: "Beta", tags: []string{"b"}})
	createSeries(t, db, seedSeries{name: "Gamma", tags: []string{"c"}})

	_, err := svc.Merge(ctx, "a", "b")
	require.NoError(t, err)
	_, err = svc.Merge(ctx, "b", "c")
	require.NoError(t, err)

	tags, err := svc.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "c", tags[0].Norm)
	assert.Equal(t, 3, tags[0].Count)
}

func TestMergeCycleDoesNotLoop(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	createSeries(t, db, seedSeries{name: "Alpha", tags: []string{"ping"}})
	createSeries(t, db, seedSeries{name: "Beta", tags: []string{"pong"}})

	_, err := svc.Merge(ctx, "ping", "pong")
	require.NoError(t, err)
	_, err = svc.Merge(ctx, "pong", "ping")
	require.NoError(t, err)

	// Resolution must terminate; each side settles on a single norm.
	tags, err := svc.ListTags(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, tags)
}

func TestMergeIntoItselfRejected(t *testing.T) {
	svc := NewService(newTestDB(t))

	_, err := svc.Merge(context.Background(), "Cats", "cat")
	require.Error(t, err)
}

func TestWhitelistOverridesDisplay(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	createSeries(t, db, seedSeries{name: "Alpha", tags: []string{"sol"}})

	mod, err := svc.Whitelist(ctx, "sol", "Slice of Life (SoL)")
	require.NoError(t, err)
	assert.Equal(t, models.TagActionWhitelist, mod.Action)

	tags, err := svc.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "Slice of Life (SoL)", tags[0].Display)
}

func TestWhitelistUpgradesToMerge(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	createSeries(t, db, seedSeries{name: "Alpha", tags: []string{"sol"}})
	createSeries(t, db, seedSeries{name: "Beta", tags: []string{"Slice of Life"}})

	// The display name normalizes to an existing tag, so the rule becomes
	// a merge into it.
	mod, err := svc.Whitelist(ctx, "sol", "Slice of Life")
	require.NoError(t, err)
	assert.Equal(t, models.TagActionMerge, mod.Action)
	require.NotNil(t, mod.TargetNorm)
	assert.Equal(t, "slice of life", *mod.TargetNorm)

	tags, err := svc.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "slice of life", tags[0].Norm)
	assert.Equal(t, 2, tags[0].Count)
}

func TestRemoveModification(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	createSeries(t, db, seedSeries{name: "Alpha", tags: []string{"Ecchi"}})

	_, err := svc.Blacklist(ctx, "Ecchi")
	require.NoError(t, err)

	require.NoError(t, svc.RemoveModification(ctx, "Ecchi"))

	tags, err := svc.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)

	err = svc.RemoveModification(ctx, "Ecchi")
	require.Error(t, err)
}

func TestSnapshotContainment(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	createSeries(t, db, seedSeries{name: "Alpha", tags: []string{"Magic", "Magic School", "School Life"}})

	snap, err := svc.cache.GetOrBuild(ctx)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"magic", "school"}, snap.Containment["magic school"])
	assert.ElementsMatch(t, []string{"school"}, snap.Containment["school life"])
	assert.Empty(t, snap.Containment["magic"])
}

func TestSnapshotContainmentNeedsWordBoundary(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)

	createSeries(t, db, seedSeries{name: "Alpha", tags: []string{"Art", "Parties"}})

	snap, err := svc.cache.GetOrBuild(context.Background())
	require.NoError(t, err)

	// "art" occurs inside "party" but not on a word boundary.
	assert.Empty(t, snap.Containment["party"])
}

func TestCacheInvalidatedByWrites(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	createSeries(t, db, seedSeries{name: "Alpha", tags: []string{"Action"}})

	snap, err := svc.cache.GetOrBuild(ctx)
	require.NoError(t, err)
	assert.Contains(t, snap.Vocab, "action")

	_, err = svc.Blacklist(ctx, "Action")
	require.NoError(t, err)

	snap, err = svc.cache.GetOrBuild(ctx)
	require.NoError(t, err)
	assert.NotContains(t, snap.Vocab, "action")
}
