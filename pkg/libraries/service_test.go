package libraries

import (
	"context"
	"database/sql"
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

func TestCreateLibraryFirstBecomesDefault(t *testing.T) {
	svc := NewService(newTestDB(t))
	ctx := context.Background()

	first := &models.Library{Name: "Main", Path: t.TempDir()}
	require.NoError(t, svc.CreateLibrary(ctx, first))
	assert.True(t, first.IsDefault)

	second := &models.Library{Name: "Extra", Path: t.TempDir()}
	require.NoError(t, svc.CreateLibrary(ctx, second))
	assert.False(t, second.IsDefault)
}

func TestCreateLibraryDefaultMovesFlag(t *testing.T) {
	svc := NewService(newTestDB(t))
	ctx := context.Background()

	first := &models.Library{Name: "Main", Path: t.TempDir()}
	require.NoError(t, svc.CreateLibrary(ctx, first))

	second := &models.Library{Name: "Extra", Path: t.TempDir(), IsDefault: true}
	require.NoError(t, svc.CreateLibrary(ctx, second))
	assert.True(t, second.IsDefault)

	reloaded, err := svc.RetrieveLibrary(ctx, RetrieveLibraryOptions{ID: &first.ID})
	require.NoError(t, err)
	assert.False(t, reloaded.IsDefault)

	def, err := svc.RetrieveLibrary(ctx, RetrieveLibraryOptions{Default: true})
	require.NoError(t, err)
	assert.Equal(t, second.ID, def.ID)
}

func TestCreateLibraryRejectsMissingPath(t *testing.T) {
	svc := NewService(newTestDB(t))

	err := svc.CreateLibrary(context.Background(), &models.Library{
		Name: "Broken",
		Path: "/does/not/exist",
	})
	require.Error(t, err)
}

func TestRetrieveLibraryNotFound(t *testing.T) {
	svc := NewService(newTestDB(t))

	id := 42
	_, err := svc.RetrieveLibrary(context.Background(), RetrieveLibraryOptions{ID: &id})
	require.Error(t, err)
}

func TestUpdateLibraryDefaultMovesFlag(t *testing.T) {
	svc := NewService(newTestDB(t))
	ctx := context.Background()

	first := &models.Library{Name: "Main", Path: t.TempDir()}
	require.NoError(t, svc.CreateLibrary(ctx, first))
	second := &models.Library{Name: "Extra", Path: t.TempDir()}
	require.NoError(t, svc.CreateLibrary(ctx, second))

	second.IsDefault = true
	require.NoError(t, svc.UpdateLibrary(ctx, second, UpdateLibraryOptions{
		Columns: []string{"is_default"},
	}))

	reloaded, err := svc.RetrieveLibrary(ctx, RetrieveLibraryOptions{ID: &first.ID})
	require.NoError(t, err)
	assert.False(t, reloaded.IsDefault)
}

func TestDeleteLibrary(t *testing.T) {
	svc := NewService(newTestDB(t))
	ctx := context.Background()

	library := &models.Library{Name: "Main", Path: t.TempDir()}
	require.NoError(t, svc.CreateLibrary(ctx, library))

	require.NoError(t, svc.DeleteLibrary(ctx, library.ID))
	require.Error(t, svc.DeleteLibrary(ctx, library.ID))

	libraries, err := svc.ListLibraries(ctx)
	require.NoError(t, err)
	assert.Empty(t, libraries)
}
