package sidecar

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSidecar(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, Filename), []byte(content), 0600))
}

func TestReadMissing(t *testing.T) {
	s, err := Read(t.TempDir())
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestReadIgnoresUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	writeSidecar(t, dir, `{"series": "One Piece", "some_future_field": {"nested": true}}`)

	s, err := Read(dir)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "One Piece", s.Series)
}

func TestReadCleansSynopsis(t *testing.T) {
	dir := t.TempDir()
	writeSidecar(t, dir, `{"series": "Hunter x Hunter", "synopsis": "<p>Gon sets out.</p><br>He finds friends.\n\n[Written by MAL Rewrite]"}`)

	s, err := Read(dir)
	require.NoError(t, err)
	require.NotNil(t, s)
	require.NotNil(t, s.Synopsis)
	assert.Equal(t, "Gon sets out.\nHe finds friends.", *s.Synopsis)
}

func TestSeriesNamePrefersSeriesOverTitle(t *testing.T) {
	s := &SeriesSidecar{Series: "Berserk", Title: "Berserk (Deluxe)"}
	assert.Equal(t, "Berserk", s.SeriesName())

	s = &SeriesSidecar{Title: "Berserk (Deluxe)"}
	assert.Equal(t, "Berserk (Deluxe)", s.SeriesName())

	assert.Equal(t, "", (*SeriesSidecar)(nil).SeriesName())
}

func TestWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	year := 1997
	require.NoError(t, Write(dir, &SeriesSidecar{
		Series:      "One Piece",
		Genres:      []string{"Action", "Adventure"},
		ReleaseYear: &year,
	}))

	s, err := Read(dir)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "One Piece", s.Series)
	assert.Equal(t, []string{"Action", "Adventure"}, s.Genres)
	require.NotNil(t, s.ReleaseYear)
	assert.Equal(t, 1997, *s.ReleaseYear)
}

func TestResolverNearestAncestorWins(t *testing.T) {
	root := t.TempDir()
	parent := filepath.Join(root, "Manga", "Shounen")
	child := filepath.Join(parent, "One Piece")
	writeSidecar(t, parent, `{"series": "Wrong"}`)
	writeSidecar(t, child, `{"series": "One Piece"}`)

	r := NewResolver()

	s, err := r.Resolve(child, root)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "One Piece", s.Series)

	// A sibling with no sidecar of its own inherits from the parent.
	sibling := filepath.Join(parent, "Naruto")
	require.NoError(t, os.MkdirAll(sibling, 0755))
	s, err = r.Resolve(sibling, root)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "Wrong", s.Series)
}

func TestResolverStopsAtRoot(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "Manga", "Seinen", "Berserk")
	require.NoError(t, os.MkdirAll(dir, 0755))

	// Sidecar above the root must not apply.
	writeSidecar(t, filepath.Dir(root), `{"series": "Outside"}`)

	r := NewResolver()
	s, err := r.Resolve(dir, root)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestResolverCaches(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "One Piece")
	writeSidecar(t, dir, `{"series": "One Piece"}`)

	r := NewResolver()
	first, err := r.Resolve(dir, root)
	require.NoError(t, err)

	// Remove the file; the cached document should still be served.
	require.NoError(t, os.Remove(filepath.Join(dir, Filename)))
	second, err := r.Resolve(dir, root)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	require.NotNil(t, second)
}
