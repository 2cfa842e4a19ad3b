package search

import (
	"context"
	"strings"

	"github.com/comicden/comicden/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type Service struct {
	db  *bun.DB
	fts bool
}

// NewService returns a search service. When fts is false (the SQLite build
// lacks FTS5) every query goes through the LIKE fallback instead.
func NewService(db *bun.DB, fts bool) *Service {
	return &Service{db: db, fts: fts}
}

// EnsureTables creates the FTS index table. The virtual table lives outside
// the migration chain so a build without FTS5 still migrates cleanly.
func (svc *Service) EnsureTables(ctx context.Context) error {
	if !svc.fts {
		return nil
	}
	_, err := svc.db.ExecContext(ctx, `
		CREATE VIRTUAL TABLE IF NOT EXISTS series_fts USING fts5 (
			series_id UNINDEXED,
			name,
			title,
			title_english,
			synonyms,
			authors,
			synopsis
		)
	`)
	return errors.WithStack(err)
}

// IndexSeries adds or updates a series in the FTS index. The series' list
// columns must already be unmarshalled.
func (svc *Service) IndexSeries(ctx context.Context, series *models.Series) error {
	if !svc.fts {
		return nil
	}

	if err := svc.DeleteFromIndex(ctx, series.ID); err != nil {
		return errors.WithStack(err)
	}

	deref := func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	}
	synonyms := series.SynonymsParsed
	if series.TitleJapanese != nil {
		synonyms = append(synonyms, *series.TitleJapanese)
	}

	_, err := svc.db.ExecContext(ctx,
		`INSERT INTO series_fts (series_id, name, title, title_english, synonyms, authors, synopsis)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		series.ID,
		series.Name,
		deref(series.Title),
		deref(series.TitleEnglish),
		strings.Join(synonyms, " "),
		strings.Join(series.AuthorsParsed, " "),
		deref(series.Synopsis),
	)
	return errors.WithStack(err)
}

// DeleteFromIndex removes a series from the FTS index.
func (svc *Service) DeleteFromIndex(ctx context.Context, seriesID int) error {
	if !svc.fts {
		return nil
	}
	_, err := svc.db.NewDelete().
		TableExpr("series_fts").
		Where("series_id = ?", seriesID).
		Exec(ctx)
	return errors.WithStack(err)
}

// RebuildIndex drops and re-populates the whole FTS index. Called after a
// scan completes.
func (svc *Service) RebuildIndex(ctx context.Context) error {
	if !svc.fts {
		return nil
	}

	_, err := svc.db.ExecContext(ctx, "DELETE FROM series_fts")
	if err != nil {
		return errors.WithStack(err)
	}

	series := []*models.Series{}
	err = svc.db.NewSelect().Model(&series).Scan(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	for _, s := range series {
		if err := s.UnmarshalLists(); err != nil {
			return errors.WithStack(err)
		}
		if err := svc.IndexSeries(ctx, s); err != nil {
			return errors.WithStack(err)
		}
	}
	return nil
}

// SearchSeries runs a prefix search over series names, titles, synonyms,
// and authors. Results carry their comic counts.
func (svc *Service) SearchSeries(ctx context.Context, query string, limit, offset int) ([]SeriesSearchResult, int, error) {
	if strings.TrimSpace(query) == "" {
		return []SeriesSearchResult{}, 0, nil
	}
	if !svc.fts {
		return svc.searchSeriesLike(ctx, query, limit, offset)
	}

	ftsQuery := BuildPrefixQuery(query)
	if ftsQuery == "" {
		return []SeriesSearchResult{}, 0, nil
	}

	results := []SeriesSearchResult{}
	err := svc.db.NewSelect().
		TableExpr("series_fts").
		ColumnExpr("series_fts.series_id AS id, s.name, s.title, s.cover_comic_id, s.is_nsfw").
		ColumnExpr("(SELECT COUNT(*) FROM comics c WHERE c.series_id = series_fts.series_id) AS comic_count").
		Join("JOIN series s ON s.id = series_fts.series_id").
		Where("series_fts MATCH ?", ftsQuery).
		Order("rank").
		Limit(limit).
		Offset(offset).
		Scan(ctx, &results)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	var total int
	err = svc.db.NewSelect().
		TableExpr("series_fts").
		ColumnExpr("COUNT(*)").
		Where("series_fts MATCH ?", ftsQuery).
		Scan(ctx, &total)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	// A miss on the token index still gets a substring pass, which catches
	// mid-word fragments FTS prefix terms can't.
	if total == 0 {
		return svc.searchSeriesLike(ctx, query, limit, offset)
	}

	return results, total, nil
}

func (svc *Service) searchSeriesLike(ctx context.Context, query string, limit, offset int) ([]SeriesSearchResult, int, error) {
	pattern := "%" + escapeLike(strings.ToLower(strings.TrimSpace(query))) + "%"

	matcher := func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where(`LOWER(s.name) LIKE ? ESCAPE '\'`, pattern).
				WhereOr(`LOWER(COALESCE(s.title, '')) LIKE ? ESCAPE '\'`, pattern).
				WhereOr(`LOWER(COALESCE(s.title_english, '')) LIKE ? ESCAPE '\'`, pattern).
				WhereOr(`LOWER(COALESCE(s.synonyms, '')) LIKE ? ESCAPE '\'`, pattern).
				WhereOr(`LOWER(COALESCE(s.authors, '')) LIKE ? ESCAPE '\'`, pattern).
				WhereOr(`LOWER(COALESCE(s.synopsis, '')) LIKE ? ESCAPE '\'`, pattern)
		})
	}

	results := []SeriesSearchResult{}
	err := svc.db.NewSelect().
		TableExpr("series AS s").
		ColumnExpr("s.id, s.name, s.title, s.cover_comic_id, s.is_nsfw").
		ColumnExpr("(SELECT COUNT(*) FROM comics c WHERE c.series_id = s.id) AS comic_count").
		Apply(matcher).
		Order("s.name ASC").
		Limit(limit).
		Offset(offset).
		Scan(ctx, &results)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	var total int
	err = svc.db.NewSelect().
		TableExpr("series AS s").
		ColumnExpr("COUNT(*)").
		Apply(matcher).
		Scan(ctx, &total)
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	return results, total, nil
}
