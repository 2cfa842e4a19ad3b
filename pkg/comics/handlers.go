package comics

import (
	"net/http"

	"github.com/comicden/comicden/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	comicService *Service
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	comic, err := h.comicService.RetrieveComic(ctx, RetrieveComicOptions{
		ID: &id,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, comic))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListComicsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	comics, total, err := h.comicService.ListComicsWithTotal(ctx, ListComicsOptions{
		SeriesID:  params.SeriesID,
		Processed: params.Processed,
		Limit:     &params.Limit,
		Offset:    &params.Offset,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Comics []*models.Comic `json:"comics"`
		Total  int             `json:"total"`
	}{comics, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) duplicates(c echo.Context) error {
	ctx := c.Request().Context()

	params := DuplicatesQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	groups, err := h.comicService.DuplicateReport(ctx, params.FillMissing)
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Groups []*DuplicateGroup `json:"groups"`
	}{groups}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}
