package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/comicden/comicden/pkg/binder"
	"github.com/comicden/comicden/pkg/comics"
	"github.com/comicden/comicden/pkg/config"
	"github.com/comicden/comicden/pkg/covers"
	"github.com/comicden/comicden/pkg/errcodes"
	"github.com/comicden/comicden/pkg/filesystem"
	"github.com/comicden/comicden/pkg/libraries"
	"github.com/comicden/comicden/pkg/nsfw"
	"github.com/comicden/comicden/pkg/scanjobs"
	"github.com/comicden/comicden/pkg/search"
	"github.com/comicden/comicden/pkg/series"
	"github.com/comicden/comicden/pkg/settings"
	"github.com/comicden/comicden/pkg/tags"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/uptrace/bun"
)

// Services carries the stateful services shared between the HTTP surface and
// the scan worker.
type Services struct {
	Tags     *tags.Service
	Search   *search.Service
	Enqueuer scanjobs.Enqueuer
}

func New(cfg *config.Config, db *bun.DB, svcs Services) (*http.Server, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	e.Use(middleware.CORS())

	health.RegisterRoutes(e)

	registerRoutes(e, db, cfg, svcs)

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func registerRoutes(e *echo.Echo, db *bun.DB, cfg *config.Config, svcs Services) {
	settingsService := settings.NewService(db)
	nsfwService := nsfw.NewService(db, settingsService)

	librariesGroup := e.Group("/libraries")
	libraries.RegisterRoutesWithGroup(librariesGroup, db)

	seriesGroup := e.Group("/series")
	series.RegisterRoutesWithGroup(seriesGroup, series.NewService(db), svcs.Search, svcs.Tags, nsfwService)

	comicsGroup := e.Group("/comics")
	comics.RegisterRoutesWithGroup(comicsGroup, comics.NewService(db))
	covers.RegisterRoutesWithGroup(comicsGroup, cfg, db)

	tagsGroup := e.Group("/tags")
	tags.RegisterRoutesWithGroup(tagsGroup, svcs.Tags)

	searchGroup := e.Group("/search")
	search.RegisterRoutesWithGroup(searchGroup, svcs.Search)

	scanGroup := e.Group("/scan")
	scanjobs.RegisterRoutesWithGroup(scanGroup, scanjobs.NewService(db), svcs.Enqueuer)

	settingsGroup := e.Group("/settings")
	settings.RegisterRoutesWithGroup(settingsGroup, db, nsfwService)

	filesystemGroup := e.Group("/filesystem")
	filesystem.RegisterRoutesWithGroup(filesystemGroup)
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
