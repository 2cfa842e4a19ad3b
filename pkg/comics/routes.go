package comics

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutesWithGroup registers comic routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, comicService *Service) {
	h := &handler{comicService: comicService}

	g.GET("", h.list)
	g.GET("/duplicates", h.duplicates)
	g.GET("/:id", h.retrieve)
}
