package series

import (
	"github.com/comicden/comicden/pkg/nsfw"
	"github.com/comicden/comicden/pkg/search"
	"github.com/comicden/comicden/pkg/tags"
	"github.com/labstack/echo/v4"
)

// RegisterRoutesWithGroup registers series routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, seriesService *Service, searchService *search.Service, tagService *tags.Service, nsfwService *nsfw.Service) {
	h := &handler{
		seriesService: seriesService,
		searchService: searchService,
		tagService:    tagService,
		nsfwService:   nsfwService,
	}

	g.GET("", h.list)
	g.GET("/gaps", h.gaps)
	g.GET("/:id", h.retrieve)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.deleteSeries)
}
