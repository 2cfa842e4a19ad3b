package settings

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/comicden/comicden/pkg/archive"
	"github.com/comicden/comicden/pkg/models"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/uptrace/bun"
)

// Setting keys.
const (
	KeyThumbQuality      = "thumb_quality"
	KeyThumbWidth        = "thumb_width"
	KeyThumbHeight       = "thumb_height"
	KeyThumbFormat       = "thumb_format"
	KeyNSFWCategories    = "nsfw_categories"
	KeyNSFWSubcategories = "nsfw_subcategories"
	KeyNSFWTagPatterns   = "nsfw_tag_patterns"
)

// Thumbnail defaults applied when a key is absent.
const (
	DefaultThumbQuality = 70
	DefaultThumbWidth   = 225
	DefaultThumbHeight  = 350
	DefaultThumbFormat  = archive.FormatBest
)

// ThumbnailSettings is the admin-editable cover rendering configuration.
type ThumbnailSettings struct {
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Quality int    `json:"quality"`
	Format  string `json:"format"`
}

// NSFWRules is the admin-editable classifier configuration. Categories match
// by substring, subcategories by equality, and tag patterns are shell globs
// applied to normalized genres, tags, and demographics.
type NSFWRules struct {
	Categories    []string `json:"categories"`
	Subcategories []string `json:"subcategories"`
	TagPatterns   []string `json:"tag_patterns"`
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// Get returns a setting value, or "" when the key is absent.
func (svc *Service) Get(ctx context.Context, key string) (string, error) {
	setting := &models.AdminSetting{}
	err := svc.db.
		NewSelect().
		Model(setting).
		Where("st.key = ?", key).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", errors.WithStack(err)
	}
	return setting.Value, nil
}

// Set upserts a setting value.
func (svc *Service) Set(ctx context.Context, key, value string) error {
	setting := &models.AdminSetting{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	_, err := svc.db.
		NewInsert().
		Model(setting).
		On("CONFLICT (key) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return errors.WithStack(err)
}

// All returns every stored setting as a key-value map.
func (svc *Service) All(ctx context.Context) (map[string]string, error) {
	rows := []*models.AdminSetting{}
	err := svc.db.NewSelect().Model(&rows).Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

// ThumbnailSettings returns cover rendering settings with defaults filled in.
func (svc *Service) ThumbnailSettings(ctx context.Context) (*ThumbnailSettings, error) {
	all, err := svc.All(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	ts := &ThumbnailSettings{
		Width:   intSetting(all, KeyThumbWidth, DefaultThumbWidth),
		Height:  intSetting(all, KeyThumbHeight, DefaultThumbHeight),
		Quality: intSetting(all, KeyThumbQuality, DefaultThumbQuality),
		Format:  DefaultThumbFormat,
	}
	switch all[KeyThumbFormat] {
	case archive.FormatJPEG, archive.FormatPNG, archive.FormatBest:
		ts.Format = all[KeyThumbFormat]
	}
	return ts, nil
}

// UpdateThumbnailSettings persists cover rendering settings.
func (svc *Service) UpdateThumbnailSettings(ctx context.Context, ts *ThumbnailSettings) error {
	pairs := map[string]string{
		KeyThumbWidth:   strconv.Itoa(ts.Width),
		KeyThumbHeight:  strconv.Itoa(ts.Height),
		KeyThumbQuality: strconv.Itoa(ts.Quality),
		KeyThumbFormat:  ts.Format,
	}
	for key, value := range pairs {
		if err := svc.Set(ctx, key, value); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

// ArchiveOptions converts thumbnail settings to inspector options.
func (ts *ThumbnailSettings) ArchiveOptions() *archive.ThumbnailOptions {
	return &archive.ThumbnailOptions{
		Width:   ts.Width,
		Height:  ts.Height,
		Quality: ts.Quality,
		Format:  ts.Format,
	}
}

// NSFWRules returns the classifier configuration. Absent keys fall back to
// the defaults; the stored values may be JSON lists or comma-separated
// strings.
func (svc *Service) NSFWRules(ctx context.Context) (*NSFWRules, error) {
	all, err := svc.All(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	return &NSFWRules{
		Categories:    listSetting(all, KeyNSFWCategories, []string{}),
		Subcategories: listSetting(all, KeyNSFWSubcategories, []string{}),
		TagPatterns:   listSetting(all, KeyNSFWTagPatterns, DefaultNSFWTagPatterns()),
	}, nil
}

// UpdateNSFWRules persists the classifier configuration as JSON lists.
func (svc *Service) UpdateNSFWRules(ctx context.Context, rules *NSFWRules) error {
	pairs := map[string][]string{
		KeyNSFWCategories:    rules.Categories,
		KeyNSFWSubcategories: rules.Subcategories,
		KeyNSFWTagPatterns:   rules.TagPatterns,
	}
	for key, list := range pairs {
		if list == nil {
			list = []string{}
		}
		data, err := json.Marshal(list)
		if err != nil {
			return errors.WithStack(err)
		}
		if err := svc.Set(ctx, key, string(data)); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

func intSetting(all map[string]string, key string, fallback int) int {
	if raw, ok := all[key]; ok {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func listSetting(all map[string]string, key string, fallback []string) []string {
	raw, ok := all[key]
	if !ok {
		return fallback
	}

	var elems []interface{}
	if err := json.Unmarshal([]byte(raw), &elems); err == nil {
		items := make([]string, 0, len(elems))
		for _, e := range elems {
			if str, ok := e.(string); ok {
				if trimmed := strings.TrimSpace(str); trimmed != "" {
					items = append(items, trimmed)
				}
			}
		}
		return items
	}

	// Fall back to comma-separated parsing for hand-edited values.
	items := []string{}
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	if len(items) == 0 {
		return fallback
	}
	return items
}
