package covers

import (
	"github.com/comicden/comicden/pkg/comics"
	"github.com/comicden/comicden/pkg/config"
	"github.com/labstack/echo/v4"
	"github.com/uptrace/bun"
)

// RegisterRoutesWithGroup registers the cover route on the comics group.
func RegisterRoutesWithGroup(g *echo.Group, cfg *config.Config, db *bun.DB) {
	h := &handler{
		coverService: NewService(cfg, db),
		comicService: comics.NewService(db),
	}

	g.GET("/:id/cover", h.cover)
}
