package scanjobs

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutesWithGroup registers scan routes on a pre-configured group.
func RegisterRoutesWithGroup(g *echo.Group, jobService *Service, enqueuer Enqueuer) {
	h := &handler{
		jobService: jobService,
		enqueuer:   enqueuer,
	}

	g.POST("", h.create)
	g.GET("", h.status)
	g.GET("/jobs", h.list)
	g.GET("/jobs/:id", h.retrieve)
	g.POST("/jobs/:id/cancel", h.cancel)
}
