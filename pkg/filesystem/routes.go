package filesystem

import (
	"github.com/labstack/echo/v4"
)

func RegisterRoutesWithGroup(g *echo.Group) {
	h := &handler{
		filesystemService: NewService(),
	}

	g.GET("/browse", h.browse)
}
