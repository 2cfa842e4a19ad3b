// Package covers serves comic cover thumbnails, generating missing ones on
// demand with a wall-clock timeout. Generation that outlives the timeout
// keeps running detached and installs its result for the next request.
package covers

import (
	"context"
	"image/color"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/comicden/comicden/pkg/archive"
	"github.com/comicden/comicden/pkg/comics"
	"github.com/comicden/comicden/pkg/config"
	"github.com/comicden/comicden/pkg/models"
	"github.com/comicden/comicden/pkg/settings"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

type Service struct {
	config          *config.Config
	log             logger.Logger
	comicService    *comics.Service
	settingsService *settings.Service

	placeholderOnce sync.Once
	placeholderErr  error
}

func NewService(cfg *config.Config, db *bun.DB) *Service {
	return &Service{
		config:          cfg,
		log:             logger.New(),
		comicService:    comics.NewService(db),
		settingsService: settings.NewService(db),
	}
}

// Thumbnail points at an image file to serve. Placeholder marks the generic
// "still generating" image rather than the comic's own cover.
type Thumbnail struct {
	Path        string
	Placeholder bool
}

func (svc *Service) thumbPath(id, ext string) string {
	return filepath.Join(svc.config.CacheDir, "thumbs", id+"."+ext)
}

// EnsureThumbnail returns a comic's cover thumbnail, generating it when the
// cached file is missing. If generation exceeds the configured timeout the
// placeholder is returned immediately; the render keeps going in the
// background and installs under the same first-writer-wins rule.
func (svc *Service) EnsureThumbnail(ctx context.Context, comic *models.Comic) (*Thumbnail, error) {
	if comic.HasThumbnail && comic.ThumbnailExt != nil {
		path := svc.thumbPath(comic.ID, *comic.ThumbnailExt)
		if _, err := os.Stat(path); err == nil {
			return &Thumbnail{Path: path}, nil
		}
	}

	thumbSettings, err := svc.settingsService.ThumbnailSettings(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	done := make(chan *Thumbnail, 1)
	go svc.generate(comic, thumbSettings.ArchiveOptions(), done)

	select {
	case thumb := <-done:
		if thumb == nil {
			return svc.placeholder()
		}
		return thumb, nil
	case <-time.After(svc.config.ThumbnailTimeout):
		return svc.placeholder()
	}
}

// generate renders a cover to a uniquely named temp file and installs it iff
// the final file doesn't exist yet; the loser of a race discards its temp
// file. Runs detached from any request, so database writes use a fresh
// context. A nil send means no thumbnail could be produced.
func (svc *Service) generate(comic *models.Comic, opts *archive.ThumbnailOptions, done chan<- *Thumbnail) {
	log := svc.log.Data(logger.Data{"comic_id": comic.ID, "path": comic.Path})

	result := archive.Inspect(comic.Path, opts)
	if len(result.ThumbnailData) == 0 {
		if result.Err != "" {
			log.Warn("cover generation failed", logger.Data{"err": result.Err})
		}
		done <- nil
		return
	}

	dir := filepath.Join(svc.config.CacheDir, "thumbs")
	if err := os.MkdirAll(dir, 0755); err != nil { //nolint:gosec
		log.Err(err).Error("create thumbs dir")
		done <- nil
		return
	}

	tmp := filepath.Join(dir, "tmp-"+uuid.NewString()+"."+result.ThumbnailExt)
	if err := os.WriteFile(tmp, result.ThumbnailData, 0644); err != nil { //nolint:gosec
		log.Err(err).Error("write temp thumbnail")
		done <- nil
		return
	}

	final := svc.thumbPath(comic.ID, result.ThumbnailExt)
	if _, err := os.Stat(final); err == nil {
		// Another request installed the cover while we rendered.
		os.Remove(tmp)
	} else if err := os.Rename(tmp, final); err != nil {
		log.Err(err).Error("install thumbnail")
		os.Remove(tmp)
		done <- nil
		return
	} else if err := svc.comicService.MarkThumbnail(context.Background(), comic.ID, result.ThumbnailExt); err != nil {
		log.Err(err).Warn("mark thumbnail")
	}

	done <- &Thumbnail{Path: final}
}

// placeholder returns the shared "generating" image, rendering it on first
// use.
func (svc *Service) placeholder() (*Thumbnail, error) {
	path := filepath.Join(svc.config.CacheDir, "_placeholder.jpg")

	svc.placeholderOnce.Do(func() {
		if _, err := os.Stat(path); err == nil {
			return
		}
		img := imaging.New(settings.DefaultThumbWidth, settings.DefaultThumbHeight, color.NRGBA{R: 0x2a, G: 0x2a, B: 0x2e, A: 0xff})
		svc.placeholderErr = imaging.Save(img, path, imaging.JPEGQuality(85))
	})

	if svc.placeholderErr != nil {
		return nil, errors.WithStack(svc.placeholderErr)
	}
	return &Thumbnail{Path: path, Placeholder: true}, nil
}
