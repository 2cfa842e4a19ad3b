package search

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	searchService *Service
}

func (h *handler) searchSeries(c echo.Context) error {
	ctx := c.Request().Context()

	params := SeriesQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	series, total, err := h.searchService.SearchSeries(ctx, params.Query, params.Limit, params.Offset)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, &SeriesSearchResponse{
		Series: series,
		Total:  total,
	}))
}
