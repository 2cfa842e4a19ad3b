package tags

import (
	"net/http"

	"github.com/comicden/comicden/pkg/errcodes"
	"github.com/comicden/comicden/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type handler struct {
	tagService *Service
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	tags, err := h.tagService.ListTags(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	response := struct {
		Tags []*TagCount `json:"tags"`
	}{tags}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}

func (h *handler) filter(c echo.Context) error {
	ctx := c.Request().Context()

	params := FilterQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	result, err := h.tagService.FilterByTags(ctx, params.Tags)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, result))
}

func (h *handler) listModifications(c echo.Context) error {
	ctx := c.Request().Context()

	mods, err := h.tagService.ListModifications(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	response := struct {
		Modifications []*models.TagModification `json:"modifications"`
	}{mods}

	return errors.WithStack(c.JSON(http.StatusOK, response))
}

func (h *handler) createModification(c echo.Context) error {
	ctx := c.Request().Context()

	payload := CreateModificationPayload{}
	if err := c.Bind(&payload); err != nil {
		return errors.WithStack(err)
	}

	var mod *models.TagModification
	var err error
	switch payload.Action {
	case models.TagActionBlacklist:
		mod, err = h.tagService.Blacklist(ctx, payload.Source)
	case models.TagActionWhitelist:
		if payload.DisplayName == nil {
			return errcodes.ValidationError("display_name is required for a whitelist rule.")
		}
		mod, err = h.tagService.Whitelist(ctx, payload.Source, *payload.DisplayName)
	case models.TagActionMerge:
		if payload.Target == nil {
			return errcodes.ValidationError("target is required for a merge rule.")
		}
		mod, err = h.tagService.Merge(ctx, payload.Source, *payload.Target)
	}
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, mod))
}

func (h *handler) deleteModification(c echo.Context) error {
	ctx := c.Request().Context()

	if err := h.tagService.RemoveModification(ctx, c.Param("source")); err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}
