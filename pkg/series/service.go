package series

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/comicden/comicden/pkg/errcodes"
	"github.com/comicden/comicden/pkg/models"
	"github.com/comicden/comicden/pkg/sidecar"
	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/uptrace/bun"
)

type RetrieveSeriesOptions struct {
	ID   *int
	Name *string

	IncludeComics bool
}

type ListSeriesOptions struct {
	Category    *string
	Subcategory *string
	Limit       *int
	Offset      *int

	includeTotal bool
}

type UpdateSeriesOptions struct {
	Columns []string
}

// UpsertOptions carries scan-derived fields alongside sidecar metadata.
type UpsertOptions struct {
	Metadata     *sidecar.SeriesSidecar
	Category     *string
	Subcategory  *string
	CoverComicID *string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

func (svc *Service) RetrieveSeries(ctx context.Context, opts RetrieveSeriesOptions) (*models.Series, error) {
	series := &models.Series{}

	q := svc.db.
		NewSelect().
		Model(series).
		ColumnExpr("s.*").
		ColumnExpr("(SELECT COUNT(*) FROM comics c WHERE c.series_id = s.id) AS comic_count")

	if opts.IncludeComics {
		q = q.Relation("Comics", func(sq *bun.SelectQuery) *bun.SelectQuery {
			return sq.Order("path ASC")
		})
	}

	if opts.ID != nil {
		q = q.Where("s.id = ?", *opts.ID)
	}
	if opts.Name != nil {
		q = q.Where("LOWER(s.name) = LOWER(?)", *opts.Name)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Series")
		}
		return nil, errors.WithStack(err)
	}
	if err := series.UnmarshalLists(); err != nil {
		return nil, errors.WithStack(err)
	}

	return series, nil
}

func (svc *Service) ListSeries(ctx context.Context, opts ListSeriesOptions) ([]*models.Series, error) {
	series, _, err := svc.listSeriesWithTotal(ctx, opts)
	return series, errors.WithStack(err)
}

func (svc *Service) ListSeriesWithTotal(ctx context.Context, opts ListSeriesOptions) ([]*models.Series, int, error) {
	opts.includeTotal = true
	return svc.listSeriesWithTotal(ctx, opts)
}

func (svc *Service) listSeriesWithTotal(ctx context.Context, opts ListSeriesOptions) ([]*models.Series, int, error) {
	series := []*models.Series{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&series).
		ColumnExpr("s.*").
		ColumnExpr("(SELECT COUNT(*) FROM comics c WHERE c.series_id = s.id) AS comic_count").
		Order("s.name ASC")

	if opts.Category != nil {
		q = q.Where("s.category = ?", *opts.Category)
	}
	if opts.Subcategory != nil {
		q = q.Where("s.subcategory = ?", *opts.Subcategory)
	}
	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	for _, s := range series {
		if err := s.UnmarshalLists(); err != nil {
			return nil, 0, errors.WithStack(err)
		}
	}

	return series, total, nil
}

// Upsert creates or updates a series by name. Existing columns only change
// when the incoming value is present (COALESCE), so a sparse sidecar never
// erases metadata another source filled in.
func (svc *Service) Upsert(ctx context.Context, name string, opts UpsertOptions) (int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, errcodes.ValidationError("Series name can't be empty.")
	}

	meta := opts.Metadata
	if meta == nil {
		meta = &sidecar.SeriesSidecar{}
	}

	title := nilIfEmpty(meta.Title)
	synonyms, err := jsonList(meta.Synonyms)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	authors, err := jsonList(meta.Authors)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	genres, err := jsonList(meta.Genres)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	tags, err := jsonList(meta.Tags)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	demographics, err := jsonList(meta.Demographics)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	isAdult := false
	if meta.IsAdult != nil {
		isAdult = *meta.IsAdult
	}

	var id int
	err = svc.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		err := tx.NewSelect().
			TableExpr("series").
			Column("id").
			Where("name = ?", name).
			Scan(ctx, &id)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return errors.WithStack(err)
		}

		if id != 0 {
			q := tx.NewUpdate().
				TableExpr("series").
				Set("title = COALESCE(?, title)", title).
				Set("title_english = COALESCE(?, title_english)", meta.TitleEnglish).
				Set("title_japanese = COALESCE(?, title_japanese)", meta.TitleJapanese).
				Set("synonyms = COALESCE(?, synonyms)", synonyms).
				Set("authors = COALESCE(?, authors)", authors).
				Set("synopsis = COALESCE(?, synopsis)", meta.Synopsis).
				Set("genres = COALESCE(?, genres)", genres).
				Set("tags = COALESCE(?, tags)", tags).
				Set("demographics = COALESCE(?, demographics)", demographics).
				Set("status = COALESCE(?, status)", meta.Status).
				Set("total_volumes = COALESCE(?, total_volumes)", meta.TotalVolumes).
				Set("total_chapters = COALESCE(?, total_chapters)", meta.TotalChapters).
				Set("release_year = COALESCE(?, release_year)", meta.ReleaseYear).
				Set("mal_id = COALESCE(?, mal_id)", meta.MALID).
				Set("anilist_id = COALESCE(?, anilist_id)", meta.AnilistID).
				Set("cover_comic_id = COALESCE(?, cover_comic_id)", opts.CoverComicID).
				Set("category = COALESCE(?, category)", opts.Category).
				Set("subcategory = COALESCE(?, subcategory)", opts.Subcategory).
				Set("updated_at = ?", time.Now()).
				Where("id = ?", id)
			if meta.IsAdult != nil {
				q = q.Set("is_adult = ?", isAdult)
			}
			_, err := q.Exec(ctx)
			return errors.WithStack(err)
		}

		series := &models.Series{
			Name:               name,
			Title:              title,
			TitleEnglish:       meta.TitleEnglish,
			TitleJapanese:      meta.TitleJapanese,
			Synopsis:           meta.Synopsis,
			Status:             meta.Status,
			TotalVolumes:       meta.TotalVolumes,
			TotalChapters:      meta.TotalChapters,
			ReleaseYear:        meta.ReleaseYear,
			MALID:              meta.MALID,
			AnilistID:          meta.AnilistID,
			CoverComicID:       opts.CoverComicID,
			Category:           opts.Category,
			Subcategory:        opts.Subcategory,
			IsAdult:            isAdult,
			CreatedAt:          time.Now(),
			UpdatedAt:          time.Now(),
			SynonymsParsed:     meta.Synonyms,
			AuthorsParsed:      meta.Authors,
			GenresParsed:       meta.Genres,
			TagsParsed:         meta.Tags,
			DemographicsParsed: meta.Demographics,
		}
		if err := series.MarshalLists(); err != nil {
			return errors.WithStack(err)
		}

		_, err = tx.NewInsert().
			Model(series).
			Returning("id").
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		id = series.ID
		return nil
	})
	if err != nil {
		return 0, errors.WithStack(err)
	}

	return id, nil
}

// UpdateSeries writes the given columns from an already-loaded model.
func (svc *Service) UpdateSeries(ctx context.Context, series *models.Series, opts UpdateSeriesOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}
	if err := series.MarshalLists(); err != nil {
		return errors.WithStack(err)
	}

	series.UpdatedAt = time.Now()
	columns := append([]string{"updated_at"}, opts.Columns...)

	_, err := svc.db.NewUpdate().
		Model(series).
		Column(columns...).
		WherePK().
		Exec(ctx)
	return errors.WithStack(err)
}

// Rename changes a series' name. Renaming onto an existing name merges into
// it: comics are repointed and the source row is deleted. Returns the id the
// series ended up under.
func (svc *Service) Rename(ctx context.Context, id int, newName string) (int, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return 0, errcodes.ValidationError("Series name can't be empty.")
	}

	finalID := id
	err := svc.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var existingID int
		err := tx.NewSelect().
			TableExpr("series").
			Column("id").
			Where("LOWER(name) = LOWER(?)", newName).
			Where("id != ?", id).
			Scan(ctx, &existingID)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return errors.WithStack(err)
		}

		if existingID != 0 {
			// Merge into the existing series.
			_, err = tx.NewUpdate().
				Model((*models.Comic)(nil)).
				Set("series_id = ?", existingID).
				Set("series = ?", newName).
				Where("series_id = ?", id).
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}

			_, err = tx.NewDelete().
				Model((*models.Series)(nil)).
				Where("id = ?", id).
				Exec(ctx)
			if err != nil {
				return errors.WithStack(err)
			}
			finalID = existingID
			return nil
		}

		res, err := tx.NewUpdate().
			Model((*models.Series)(nil)).
			Set("name = ?", newName).
			Set("updated_at = ?", time.Now()).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return errors.WithStack(err)
		}
		if affected == 0 {
			return errcodes.NotFound("Series")
		}

		_, err = tx.NewUpdate().
			Model((*models.Comic)(nil)).
			Set("series = ?", newName).
			Where("series_id = ?", id).
			Exec(ctx)
		return errors.WithStack(err)
	})
	if err != nil {
		return 0, errors.WithStack(err)
	}

	return finalID, nil
}

// DeleteSeries removes a series row. Its comics are detached, not deleted.
func (svc *Service) DeleteSeries(ctx context.Context, id int) error {
	err := svc.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewUpdate().
			Model((*models.Comic)(nil)).
			Set("series_id = NULL").
			Where("series_id = ?", id).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}

		res, err := tx.NewDelete().
			Model((*models.Series)(nil)).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return errors.WithStack(err)
		}
		if affected == 0 {
			return errcodes.NotFound("Series")
		}
		return nil
	})
	return errors.WithStack(err)
}

// SetCoverIfMissing fills cover_comic_id for series that don't have one yet,
// using their first comic in path order.
func (svc *Service) SetCoverIfMissing(ctx context.Context, seriesID int, comicID string) error {
	_, err := svc.db.NewUpdate().
		Model((*models.Series)(nil)).
		Set("cover_comic_id = ?", comicID).
		Where("id = ?", seriesID).
		Where("cover_comic_id IS NULL").
		Exec(ctx)
	return errors.WithStack(err)
}

func nilIfEmpty(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

func jsonList(list []string) (*string, error) {
	if list == nil {
		return nil, nil
	}
	data, err := json.Marshal(list)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	s := string(data)
	return &s, nil
}
