package settings

import (
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers admin settings routes on a
// pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, db *bun.DB, recomputer Recomputer) {
	h := &handler{
		settingsService: NewService(db),
		recomputer:      recomputer,
	}

	g.GET("/thumbnails", h.thumbnails)
	g.PUT("/thumbnails", h.updateThumbnails)
	g.GET("/nsfw", h.nsfwRules)
	g.PUT("/nsfw", h.updateNSFWRules)
	g.POST("/nsfw/recompute", h.recomputeNSFW)
}
