package settings

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// Recomputer re-evaluates NSFW flags across the whole library after the
// rules change.
type Recomputer interface {
	RecomputeAll(ctx context.Context) (flagged, updated int, err error)
}

type handler struct {
	settingsService *Service
	recomputer      Recomputer
}

func (h *handler) thumbnails(c echo.Context) error {
	ctx := c.Request().Context()

	ts, err := h.settingsService.ThumbnailSettings(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, ts))
}

func (h *handler) updateThumbnails(c echo.Context) error {
	ctx := c.Request().Context()

	params := UpdateThumbnailPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	ts := &ThumbnailSettings{
		Width:   params.Width,
		Height:  params.Height,
		Quality: params.Quality,
		Format:  params.Format,
	}
	if err := h.settingsService.UpdateThumbnailSettings(ctx, ts); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, ts))
}

func (h *handler) nsfwRules(c echo.Context) error {
	ctx := c.Request().Context()

	rules, err := h.settingsService.NSFWRules(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, rules))
}

func (h *handler) updateNSFWRules(c echo.Context) error {
	ctx := c.Request().Context()

	params := UpdateNSFWRulesPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	rules := &NSFWRules{
		Categories:    params.Categories,
		Subcategories: params.Subcategories,
		TagPatterns:   params.TagPatterns,
	}
	if err := h.settingsService.UpdateNSFWRules(ctx, rules); err != nil {
		return errors.WithStack(err)
	}

	// New rules take effect immediately across the library.
	flagged, updated, err := h.recomputer.RecomputeAll(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Rules   *NSFWRules `json:"rules"`
		Flagged int        `json:"flagged"`
		Updated int        `json:"updated"`
	}{rules, flagged, updated}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) recomputeNSFW(c echo.Context) error {
	ctx := c.Request().Context()

	flagged, updated, err := h.recomputer.RecomputeAll(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Flagged int `json:"flagged"`
		Updated int `json:"updated"`
	}{flagged, updated}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}
