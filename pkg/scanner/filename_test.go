package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsComicFile(t *testing.T) {
	assert.True(t, IsComicFile("One Piece v01.cbz"))
	assert.True(t, IsComicFile("BERSERK.CBR"))
	assert.False(t, IsComicFile("series.json"))
	assert.False(t, IsComicFile("cover.jpg"))
}

func TestParseNumberingVolume(t *testing.T) {
	vol, ch := ParseNumbering("One Piece v12.cbz")
	require.NotNil(t, vol)
	assert.Equal(t, 12.0, *vol)
	assert.Nil(t, ch)

	vol, _ = ParseNumbering("Berserk vol. 3.cbz")
	require.NotNil(t, vol)
	assert.Equal(t, 3.0, *vol)
}

func TestParseNumberingChapter(t *testing.T) {
	_, ch := ParseNumbering("Naruto ch. 700.cbz")
	require.NotNil(t, ch)
	assert.Equal(t, 700.0, *ch)

	_, ch = ParseNumbering("FLCL unit 5.cbz")
	require.NotNil(t, ch)
	assert.Equal(t, 5.0, *ch)
}

func TestParseNumberingVolumeAndChapter(t *testing.T) {
	vol, ch := ParseNumbering("Bleach v10 c83.cbz")
	require.NotNil(t, vol)
	require.NotNil(t, ch)
	assert.Equal(t, 10.0, *vol)
	assert.Equal(t, 83.0, *ch)
}

func TestParseNumberingTrailingNumberIsChapter(t *testing.T) {
	vol, ch := ParseNumbering("One Punch Man 3.5.cbz")
	assert.Nil(t, vol)
	require.NotNil(t, ch)
	assert.Equal(t, 3.5, *ch)
}

func TestParseNumberingNone(t *testing.T) {
	vol, ch := ParseNumbering("Anthology.cbz")
	assert.Nil(t, vol)
	assert.Nil(t, ch)
}

func TestSeriesNameFromFilename(t *testing.T) {
	assert.Equal(t, "One Piece", SeriesNameFromFilename("One Piece v12.cbz"))
	assert.Equal(t, "Berserk", SeriesNameFromFilename("Berserk vol. 3 (2020).cbz"))
	assert.Equal(t, "Naruto", SeriesNameFromFilename("Naruto ch 700.cbz"))
	assert.Equal(t, "Anthology", SeriesNameFromFilename("Anthology.cbz"))
}
