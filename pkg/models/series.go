package models

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/uptrace/bun"
)

type Series struct {
	bun.BaseModel `bun:"table:series,alias:s"`

	ID            int       `bun:",pk,nullzero" json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Name          string    `bun:",nullzero" json:"name"`
	Title         *string   `json:"title,omitempty"`
	TitleEnglish  *string   `json:"title_english,omitempty"`
	TitleJapanese *string   `json:"title_japanese,omitempty"`
	Synopsis      *string   `json:"synopsis,omitempty"`
	Status        *string   `json:"status,omitempty"`
	TotalVolumes  *int      `json:"total_volumes,omitempty"`
	TotalChapters *int      `json:"total_chapters,omitempty"`
	ReleaseYear   *int      `json:"release_year,omitempty"`
	MALID         *int      `bun:"mal_id" json:"mal_id,omitempty"`
	AnilistID     *int      `json:"anilist_id,omitempty"`
	CoverComicID  *string   `json:"cover_comic_id,omitempty"`
	Category      *string   `json:"category,omitempty"`
	Subcategory   *string   `json:"subcategory,omitempty"`
	IsAdult       bool      `json:"is_adult"`
	IsNSFW        bool      `bun:"is_nsfw" json:"is_nsfw"`
	NSFWOverride  *bool     `bun:"nsfw_override" json:"nsfw_override,omitempty"`

	// JSON-encoded list columns. Use the *Parsed fields after calling
	// UnmarshalLists.
	Synonyms     string `bun:",nullzero" json:"-"`
	Authors      string `bun:",nullzero" json:"-"`
	Genres       string `bun:",nullzero" json:"-"`
	Tags         string `bun:",nullzero" json:"-"`
	Demographics string `bun:",nullzero" json:"-"`

	SynonymsParsed     []string `bun:"-" json:"synonyms"`
	AuthorsParsed      []string `bun:"-" json:"authors"`
	GenresParsed       []string `bun:"-" json:"genres"`
	TagsParsed         []string `bun:"-" json:"tags"`
	DemographicsParsed []string `bun:"-" json:"demographics"`

	Comics     []*Comic `bun:"rel:has-many,join:id=series_id" json:"comics,omitempty"`
	ComicCount int      `bun:",scanonly" json:"comic_count"`
}

// UnmarshalLists decodes the JSON list columns into their parsed fields.
// Older rows sometimes hold a JSON string that itself contains a JSON array,
// so decoding retries one level deep before giving up.
func (s *Series) UnmarshalLists() error {
	fields := []struct {
		raw    string
		target *[]string
	}{
		{s.Synonyms, &s.SynonymsParsed},
		{s.Authors, &s.AuthorsParsed},
		{s.Genres, &s.GenresParsed},
		{s.Tags, &s.TagsParsed},
		{s.Demographics, &s.DemographicsParsed},
	}
	for _, f := range fields {
		parsed, err := DecodeStringList(f.raw)
		if err != nil {
			return errors.WithStack(err)
		}
		*f.target = parsed
	}
	return nil
}

// MarshalLists encodes the parsed list fields back into their JSON columns.
func (s *Series) MarshalLists() error {
	fields := []struct {
		parsed []string
		target *string
	}{
		{s.SynonymsParsed, &s.Synonyms},
		{s.AuthorsParsed, &s.Authors},
		{s.GenresParsed, &s.Genres},
		{s.TagsParsed, &s.Tags},
		{s.DemographicsParsed, &s.Demographics},
	}
	for _, f := range fields {
		if f.parsed == nil {
			*f.target = "[]"
			continue
		}
		data, err := json.Marshal(f.parsed)
		if err != nil {
			return errors.WithStack(err)
		}
		*f.target = string(data)
	}
	return nil
}

// DecodeStringList decodes a JSON list column, flattening one level of
// double encoding and dropping non-string elements.
func DecodeStringList(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return []string{}, nil
	}

	var wrapped string
	if err := json.Unmarshal([]byte(raw), &wrapped); err == nil {
		raw = strings.TrimSpace(wrapped)
		if raw == "" {
			return []string{}, nil
		}
	}

	var elems []interface{}
	if err := json.Unmarshal([]byte(raw), &elems); err != nil {
		// Not a list at all. Treat the value as a single entry.
		return []string{raw}, nil
	}

	out := make([]string, 0, len(elems))
	for _, e := range elems {
		if str, ok := e.(string); ok && str != "" {
			out = append(out, str)
		}
	}
	return out, nil
}
