package tags

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutesWithGroup registers tag routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, tagService *Service) {
	h := &handler{tagService: tagService}

	g.GET("", h.list)
	g.GET("/filter", h.filter)
	g.GET("/modifications", h.listModifications)
	g.POST("/modifications", h.createModification)
	g.DELETE("/modifications/:source", h.deleteModification)
}
