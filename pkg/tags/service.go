package tags

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/comicden/comicden/pkg/errcodes"
	"github.com/comicden/comicden/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type Service struct {
	db    *bun.DB
	cache *Cache
}

func NewService(db *bun.DB) *Service {
	svc := &Service{db: db}
	svc.cache = NewCache(svc.buildSnapshot)
	return svc
}

// Cache exposes the metadata cache so scan completion and series writes can
// invalidate it.
func (svc *Service) Cache() *Cache {
	return svc.cache
}

// Invalidate drops the cached snapshot.
func (svc *Service) Invalidate() {
	svc.cache.Invalidate()
}

type seriesTagRow struct {
	ID           int     `bun:"id"`
	Name         string  `bun:"name"`
	Title        *string `bun:"title"`
	Synopsis     *string `bun:"synopsis"`
	Genres       string  `bun:"genres"`
	Tags         string  `bun:"tags"`
	Demographics string  `bun:"demographics"`
	CoverComicID *string `bun:"cover_comic_id"`
	IsNSFW       bool    `bun:"is_nsfw"`
}

func (row *seriesTagRow) rawTags() ([]string, error) {
	var all []string
	for _, col := range []string{row.Genres, row.Tags, row.Demographics} {
		list, err := models.DecodeStringList(col)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		all = append(all, list...)
	}
	return all, nil
}

func (svc *Service) loadSeriesTagRows(ctx context.Context) ([]*seriesTagRow, error) {
	rows := []*seriesTagRow{}
	err := svc.db.NewSelect().
		TableExpr("series").
		Column("id", "name", "title", "synopsis", "genres", "tags", "demographics", "cover_comic_id", "is_nsfw").
		Order("name ASC").
		Scan(ctx, &rows)
	return rows, errors.WithStack(err)
}

func (svc *Service) loadModifications(ctx context.Context) (map[string]*models.TagModification, error) {
	mods := []*models.TagModification{}
	err := svc.db.NewSelect().Model(&mods).Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	byNorm := make(map[string]*models.TagModification, len(mods))
	for _, mod := range mods {
		byNorm[mod.SourceNorm] = mod
	}
	return byNorm, nil
}

// buildSnapshot loads the full vocabulary, applies modifications, and
// computes the containment map and first-word index.
func (svc *Service) buildSnapshot(ctx context.Context) (*Snapshot, error) {
	rows, err := svc.loadSeriesTagRows(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	mods, err := svc.loadModifications(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	snap := &Snapshot{
		Vocab:       map[string]string{},
		Containment: map[string][]string{},
		FirstWord:   map[string][]string{},
		Mods:        mods,
	}

	// Raw display candidates, first occurrence wins.
	displays := map[string]string{}
	for _, row := range rows {
		raws, err := row.rawTags()
		if err != nil {
			return nil, errors.WithStack(err)
		}
		for _, raw := range raws {
			n := Normalize(raw)
			if n == "" {
				continue
			}
			if _, ok := displays[n]; !ok {
				displays[n] = Sanitize(raw)
			}
		}
	}

	// Canonical vocabulary after modification resolution. A merge target
	// inherits its source's display only when it never appears directly.
	for n, display := range displays {
		resolved, ok := resolveNorm(mods, n)
		if !ok {
			continue
		}
		if resolved == n {
			snap.Vocab[resolved] = display
		} else if _, exists := snap.Vocab[resolved]; !exists {
			if direct, ok := displays[resolved]; ok {
				snap.Vocab[resolved] = direct
			} else {
				snap.Vocab[resolved] = display
			}
		}
	}

	norms := make([]string, 0, len(snap.Vocab))
	for n := range snap.Vocab {
		norms = append(norms, n)
	}
	sort.Strings(norms)

	for _, child := range norms {
		padded := " " + child + " "
		for _, parent := range norms {
			if len(parent) >= len(child) {
				continue
			}
			if strings.Contains(padded, " "+parent+" ") {
				snap.Containment[child] = append(snap.Containment[child], parent)
			}
		}
	}

	for _, n := range norms {
		if len(n) < 3 {
			continue
		}
		first, _, _ := strings.Cut(n, " ")
		snap.FirstWord[first] = append(snap.FirstWord[first], n)
	}

	return snap, nil
}

// TagCount is one vocabulary entry with its series usage count.
type TagCount struct {
	Norm    string `json:"norm"`
	Display string `json:"display"`
	Count   int    `json:"count"`
}

// ListTags returns the resolved vocabulary ranked by usage.
func (svc *Service) ListTags(ctx context.Context) ([]*TagCount, error) {
	snap, err := svc.cache.GetOrBuild(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	rows, err := svc.loadSeriesTagRows(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	counts := map[string]int{}
	for _, row := range rows {
		raws, err := row.rawTags()
		if err != nil {
			return nil, errors.WithStack(err)
		}
		for n := range resolveAll(snap.Mods, raws) {
			counts[n]++
		}
	}

	out := make([]*TagCount, 0, len(snap.Vocab))
	for n := range snap.Vocab {
		out = append(out, &TagCount{
			Norm:    n,
			Display: displayFor(snap, n),
			Count:   counts[n],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Norm < out[j].Norm
	})
	return out, nil
}

// ListModifications returns all modification rows.
func (svc *Service) ListModifications(ctx context.Context) ([]*models.TagModification, error) {
	mods := []*models.TagModification{}
	err := svc.db.NewSelect().Model(&mods).Order("source_norm ASC").Scan(ctx)
	return mods, errors.WithStack(err)
}

// Blacklist excludes a tag from the vocabulary and from matching.
func (svc *Service) Blacklist(ctx context.Context, source string) (*models.TagModification, error) {
	n := Normalize(source)
	if n == "" {
		return nil, errcodes.ValidationError("Tag normalizes to an empty string.")
	}
	mod := &models.TagModification{
		SourceNorm: n,
		Action:     models.TagActionBlacklist,
	}
	if err := svc.upsertModification(ctx, mod); err != nil {
		return nil, errors.WithStack(err)
	}
	return mod, nil
}

// Whitelist overrides a tag's display string. If the chosen display
// normalizes to a different norm that already exists in the vocabulary, the
// rule is stored as a merge into that tag instead.
func (svc *Service) Whitelist(ctx context.Context, source, display string) (*models.TagModification, error) {
	n := Normalize(source)
	if n == "" {
		return nil, errcodes.ValidationError("Tag normalizes to an empty string.")
	}
	d := Sanitize(display)
	if d == "" {
		return nil, errcodes.ValidationError("Display name can't be empty.")
	}

	mod := &models.TagModification{
		SourceNorm:  n,
		Action:      models.TagActionWhitelist,
		DisplayName: &d,
	}

	dn := Normalize(d)
	if dn != n {
		snap, err := svc.cache.GetOrBuild(ctx)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		if _, exists := snap.Vocab[dn]; exists {
			mod.Action = models.TagActionMerge
			mod.TargetNorm = &dn
		}
	}

	if err := svc.upsertModification(ctx, mod); err != nil {
		return nil, errors.WithStack(err)
	}
	return mod, nil
}

// Merge redirects a tag into another.
func (svc *Service) Merge(ctx context.Context, source, target string) (*models.TagModification, error) {
	n := Normalize(source)
	tn := Normalize(target)
	if n == "" || tn == "" {
		return nil, errcodes.ValidationError("Tag normalizes to an empty string.")
	}
	if n == tn {
		return nil, errcodes.ValidationError("A tag can't be merged into itself.")
	}
	mod := &models.TagModification{
		SourceNorm: n,
		Action:     models.TagActionMerge,
		TargetNorm: &tn,
	}
	if err := svc.upsertModification(ctx, mod); err != nil {
		return nil, errors.WithStack(err)
	}
	return mod, nil
}

// RemoveModification deletes the rule for a source tag.
func (svc *Service) RemoveModification(ctx context.Context, source string) error {
	n := Normalize(source)
	res, err := svc.db.NewDelete().
		Model((*models.TagModification)(nil)).
		Where("source_norm = ?", n).
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return errors.WithStack(err)
	}
	if affected == 0 {
		return errcodes.NotFound("Tag modification")
	}
	svc.cache.Invalidate()
	return nil
}

func (svc *Service) upsertModification(ctx context.Context, mod *models.TagModification) error {
	now := time.Now()
	mod.CreatedAt = now
	mod.UpdatedAt = now

	_, err := svc.db.NewInsert().
		Model(mod).
		On("CONFLICT (source_norm) DO UPDATE").
		Set("action = EXCLUDED.action").
		Set("target_norm = EXCLUDED.target_norm").
		Set("display_name = EXCLUDED.display_name").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	svc.cache.Invalidate()
	return nil
}
