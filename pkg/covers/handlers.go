package covers

import (
	"github.com/comicden/comicden/pkg/comics"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	coverService *Service
	comicService *comics.Service
}

func (h *handler) cover(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	comic, err := h.comicService.RetrieveComic(ctx, comics.RetrieveComicOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	thumb, err := h.coverService.EnsureThumbnail(ctx, comic)
	if err != nil {
		return errors.WithStack(err)
	}
	if thumb.Placeholder {
		// Don't let clients cache the placeholder; the real cover may be
		// ready on the next request.
		c.Response().Header().Set("Cache-Control", "no-store")
	}

	return errors.WithStack(c.File(thumb.Path))
}
