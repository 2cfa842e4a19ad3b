package tags

import (
	"context"
	"sort"
	"strings"

	"github.com/comicden/comicden/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

const (
	facetSampleComics = 3
	facetSampleCovers = 3
	facetSampleSeries = 3
)

// FacetSeries is one matching series in a facet result.
type FacetSeries struct {
	ID           int             `json:"id"`
	Name         string          `json:"name"`
	Title        *string         `json:"title,omitempty"`
	CoverComicID *string         `json:"cover_comic_id,omitempty"`
	IsNSFW       bool            `json:"is_nsfw"`
	SampleComics []*models.Comic `json:"sample_comics"`
}

// RelatedTag is a tag carried by the matching series, ranked by how many of
// them carry it.
type RelatedTag struct {
	Norm         string   `json:"norm"`
	Display      string   `json:"display"`
	Count        int      `json:"count"`
	SampleCovers []string `json:"sample_covers"`
	SampleSeries []string `json:"sample_series"`
}

// FacetResult is the response of a tag facet query.
type FacetResult struct {
	MatchCount  int            `json:"match_count"`
	Series      []*FacetSeries `json:"series"`
	RelatedTags []*RelatedTag  `json:"related_tags"`
}

// FilterByTags returns every series whose expanded tag set contains all of
// the selected tags. The expanded set is the series' resolved tags, their
// containment parents, and any vocabulary tag appearing as a whole word in
// the series' name, title, or synopsis. An empty selection matches all
// series.
func (svc *Service) FilterByTags(ctx context.Context, selected []string) (*FacetResult, error) {
	snap, err := svc.cache.GetOrBuild(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	want := map[string]struct{}{}
	for _, raw := range selected {
		n := Normalize(raw)
		if n == "" {
			continue
		}
		if resolved, ok := resolveNorm(snap.Mods, n); ok {
			want[resolved] = struct{}{}
		} else {
			// A blacklisted selection can never match.
			return &FacetResult{Series: []*FacetSeries{}, RelatedTags: []*RelatedTag{}}, nil
		}
	}

	rows, err := svc.loadSeriesTagRows(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	result := &FacetResult{Series: []*FacetSeries{}, RelatedTags: []*RelatedTag{}}

	type relatedAgg struct {
		count  int
		covers []string
		series []string
	}
	related := map[string]*relatedAgg{}
	matchedIDs := []int{}

	for _, row := range rows {
		raws, err := row.rawTags()
		if err != nil {
			return nil, errors.WithStack(err)
		}
		explicit := resolveAll(snap.Mods, raws)

		expanded := make(map[string]struct{}, len(explicit))
		for n := range explicit {
			expanded[n] = struct{}{}
			for _, parent := range snap.Containment[n] {
				expanded[parent] = struct{}{}
			}
		}
		for n := range svc.textMatches(snap, row) {
			expanded[n] = struct{}{}
		}

		matched := true
		for n := range want {
			if _, ok := expanded[n]; !ok {
				matched = false
				break
			}
		}
		if !matched {
			continue
		}

		matchedIDs = append(matchedIDs, row.ID)
		result.Series = append(result.Series, &FacetSeries{
			ID:           row.ID,
			Name:         row.Name,
			Title:        row.Title,
			CoverComicID: row.CoverComicID,
			IsNSFW:       row.IsNSFW,
			SampleComics: []*models.Comic{},
		})

		for n := range explicit {
			if _, ok := want[n]; ok {
				continue
			}
			agg := related[n]
			if agg == nil {
				agg = &relatedAgg{}
				related[n] = agg
			}
			agg.count++
			if row.CoverComicID != nil && len(agg.covers) < facetSampleCovers {
				agg.covers = append(agg.covers, *row.CoverComicID)
			}
			if len(agg.series) < facetSampleSeries {
				agg.series = append(agg.series, row.Name)
			}
		}
	}

	result.MatchCount = len(result.Series)

	samples, err := svc.sampleComics(ctx, matchedIDs)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	for _, s := range result.Series {
		if comics, ok := samples[s.ID]; ok {
			s.SampleComics = comics
		}
	}

	for n, agg := range related {
		result.RelatedTags = append(result.RelatedTags, &RelatedTag{
			Norm:         n,
			Display:      displayFor(snap, n),
			Count:        agg.count,
			SampleCovers: agg.covers,
			SampleSeries: agg.series,
		})
	}
	sort.Slice(result.RelatedTags, func(i, j int) bool {
		a, b := result.RelatedTags[i], result.RelatedTags[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Norm < b.Norm
	})

	return result, nil
}

// textMatches finds vocabulary tags appearing as whole words in the series'
// free text, using the first-word index to keep the candidate set small.
func (svc *Service) textMatches(snap *Snapshot, row *seriesTagRow) map[string]struct{} {
	var parts []string
	parts = append(parts, row.Name)
	if row.Title != nil {
		parts = append(parts, *row.Title)
	}
	if row.Synopsis != nil {
		parts = append(parts, *row.Synopsis)
	}
	words := tokenize(stripDiacritics(strings.ToLower(strings.Join(parts, " "))))
	if len(words) == 0 {
		return nil
	}
	padded := " " + strings.Join(words, " ") + " "

	matches := map[string]struct{}{}
	for _, word := range words {
		for _, cand := range snap.FirstWord[word] {
			if strings.Contains(padded, " "+cand+" ") {
				matches[cand] = struct{}{}
			}
		}
	}
	return matches
}

// sampleComics fetches up to a few comics per series in natural path order.
func (svc *Service) sampleComics(ctx context.Context, seriesIDs []int) (map[int][]*models.Comic, error) {
	if len(seriesIDs) == 0 {
		return map[int][]*models.Comic{}, nil
	}

	comics := []*models.Comic{}
	err := svc.db.NewSelect().
		Model(&comics).
		Where("c.series_id IN (?)", bun.In(seriesIDs)).
		Where(`(
			SELECT COUNT(*) FROM comics c2
			WHERE c2.series_id = c.series_id AND c2.path < c.path
		) < ?`, facetSampleComics).
		Order("series_id ASC", "path ASC").
		Scan(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	bySeries := map[int][]*models.Comic{}
	for _, comic := range comics {
		if comic.SeriesID == nil {
			continue
		}
		bySeries[*comic.SeriesID] = append(bySeries[*comic.SeriesID], comic)
	}
	return bySeries, nil
}
