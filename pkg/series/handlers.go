package series

import (
	"net/http"
	"strconv"

	"github.com/comicden/comicden/pkg/errcodes"
	"github.com/comicden/comicden/pkg/models"
	"github.com/comicden/comicden/pkg/nsfw"
	"github.com/comicden/comicden/pkg/search"
	"github.com/comicden/comicden/pkg/tags"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

type handler struct {
	seriesService *Service
	searchService *search.Service
	tagService    *tags.Service
	nsfwService   *nsfw.Service
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Series")
	}

	series, err := h.seriesService.RetrieveSeries(ctx, RetrieveSeriesOptions{
		ID:            &id,
		IncludeComics: true,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, series))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListSeriesQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	series, total, err := h.seriesService.ListSeriesWithTotal(ctx, ListSeriesOptions{
		Category:    params.Category,
		Subcategory: params.Subcategory,
		Limit:       &params.Limit,
		Offset:      &params.Offset,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Series []*models.Series `json:"series"`
		Total  int              `json:"total"`
	}{series, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

//nolint:gocyclo
func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Series")
	}

	params := UpdateSeriesPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	// A rename goes through merge-aware logic first; the id may change.
	if params.Name != nil {
		id, err = h.seriesService.Rename(ctx, id, *params.Name)
		if err != nil {
			return errors.WithStack(err)
		}
	}

	series, err := h.seriesService.RetrieveSeries(ctx, RetrieveSeriesOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	// Keep track of what's been changed.
	opts := UpdateSeriesOptions{Columns: []string{}}
	tagDataChanged := params.Name != nil

	if params.Title != nil {
		series.Title = params.Title
		opts.Columns = append(opts.Columns, "title")
		tagDataChanged = true
	}
	if params.TitleEnglish != nil {
		series.TitleEnglish = params.TitleEnglish
		opts.Columns = append(opts.Columns, "title_english")
	}
	if params.TitleJapanese != nil {
		series.TitleJapanese = params.TitleJapanese
		opts.Columns = append(opts.Columns, "title_japanese")
	}
	if params.Synopsis != nil {
		series.Synopsis = params.Synopsis
		opts.Columns = append(opts.Columns, "synopsis")
		tagDataChanged = true
	}
	if params.Status != nil {
		series.Status = params.Status
		opts.Columns = append(opts.Columns, "status")
	}
	if params.TotalVolumes != nil {
		series.TotalVolumes = params.TotalVolumes
		opts.Columns = append(opts.Columns, "total_volumes")
	}
	if params.TotalChapters != nil {
		series.TotalChapters = params.TotalChapters
		opts.Columns = append(opts.Columns, "total_chapters")
	}
	if params.ReleaseYear != nil {
		series.ReleaseYear = params.ReleaseYear
		opts.Columns = append(opts.Columns, "release_year")
	}
	if params.CoverComicID != nil {
		series.CoverComicID = params.CoverComicID
		opts.Columns = append(opts.Columns, "cover_comic_id")
	}
	if params.Synonyms != nil {
		series.SynonymsParsed = *params.Synonyms
		opts.Columns = append(opts.Columns, "synonyms")
	}
	if params.Authors != nil {
		series.AuthorsParsed = *params.Authors
		opts.Columns = append(opts.Columns, "authors")
	}
	if params.Genres != nil {
		series.GenresParsed = *params.Genres
		opts.Columns = append(opts.Columns, "genres")
		tagDataChanged = true
	}
	if params.Tags != nil {
		series.TagsParsed = *params.Tags
		opts.Columns = append(opts.Columns, "tags")
		tagDataChanged = true
	}
	if params.Demographics != nil {
		series.DemographicsParsed = *params.Demographics
		opts.Columns = append(opts.Columns, "demographics")
		tagDataChanged = true
	}

	if err := h.seriesService.UpdateSeries(ctx, series, opts); err != nil {
		return errors.WithStack(err)
	}

	if params.ClearNSFWOverride || params.NSFWOverride != nil {
		override := params.NSFWOverride
		if params.ClearNSFWOverride {
			override = nil
		}
		series, err = h.nsfwService.SetOverride(ctx, id, override)
		if err != nil {
			return errors.WithStack(err)
		}
	}

	if tagDataChanged {
		h.tagService.Invalidate()
	}

	log := logger.FromContext(ctx)
	if err := h.searchService.IndexSeries(ctx, series); err != nil {
		log.Warn("failed to update search index for series", logger.Data{"series_id": series.ID, "error": err.Error()})
	}

	// Reload with counts.
	series, err = h.seriesService.RetrieveSeries(ctx, RetrieveSeriesOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, series))
}

func (h *handler) deleteSeries(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Series")
	}

	if err := h.seriesService.DeleteSeries(ctx, id); err != nil {
		return errors.WithStack(err)
	}

	h.tagService.Invalidate()

	log := logger.FromContext(ctx)
	if err := h.searchService.DeleteFromIndex(ctx, id); err != nil {
		log.Warn("failed to remove series from search index", logger.Data{"series_id": id, "error": err.Error()})
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

func (h *handler) gaps(c echo.Context) error {
	ctx := c.Request().Context()

	report, err := h.seriesService.GapsReport(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Report []*Gap `json:"report"`
	}{report}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}
