// Package scanner walks library roots, diffs the filesystem against the
// database, and processes comic archives for page counts and cover
// thumbnails. Scans run as jobs on a single worker goroutine.
package scanner

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/comicden/comicden/pkg/comics"
	"github.com/comicden/comicden/pkg/config"
	"github.com/comicden/comicden/pkg/libraries"
	"github.com/comicden/comicden/pkg/models"
	"github.com/comicden/comicden/pkg/nsfw"
	"github.com/comicden/comicden/pkg/scanjobs"
	"github.com/comicden/comicden/pkg/search"
	"github.com/comicden/comicden/pkg/series"
	"github.com/comicden/comicden/pkg/settings"
	"github.com/comicden/comicden/pkg/tags"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/uptrace/bun"
)

var processID = randStringBytes(8)

var errScanCancelled = errors.New("scan cancelled")

type Worker struct {
	config *config.Config
	log    logger.Logger

	comicService    *comics.Service
	seriesService   *series.Service
	libraryService  *libraries.Service
	jobService      *scanjobs.Service
	settingsService *settings.Service
	tagService      *tags.Service
	searchService   *search.Service
	nsfwService     *nsfw.Service

	queue          chan *models.ScanJob
	shutdown       chan struct{}
	doneProcessing chan struct{}
}

func New(cfg *config.Config, db *bun.DB, tagService *tags.Service, searchService *search.Service) *Worker {
	settingsService := settings.NewService(db)

	return &Worker{
		config: cfg,
		log:    logger.New(),

		comicService:    comics.NewService(db),
		seriesService:   series.NewService(db),
		libraryService:  libraries.NewService(db),
		jobService:      scanjobs.NewService(db),
		settingsService: settingsService,
		tagService:      tagService,
		searchService:   searchService,
		nsfwService:     nsfw.NewService(db, settingsService),

		queue:          make(chan *models.ScanJob, 1),
		shutdown:       make(chan struct{}),
		doneProcessing: make(chan struct{}),
	}
}

// Start fails over any job left running by a previous process, then begins
// accepting scans.
func (w *Worker) Start() error {
	orphaned, err := w.jobService.FailOrphans(context.Background())
	if err != nil {
		return errors.WithStack(err)
	}
	if orphaned > 0 {
		w.log.Warn("failed orphaned scan jobs", logger.Data{"count": orphaned})
	}

	go w.processJobs()
	return nil
}

// Enqueue hands a running job to the worker goroutine. A full queue fails
// the job immediately instead of leaving it in the running state forever.
func (w *Worker) Enqueue(job *models.ScanJob) {
	select {
	case w.queue <- job:
	default:
		w.log.Error("scan queue full", logger.Data{"job_id": job.ID})
		job.ErrorsParsed = append(job.ErrorsParsed, "scan queue full")
		if err := w.jobService.Finish(context.Background(), job, models.ScanJobStatusFailed); err != nil {
			w.log.Err(err).Error("finish job error")
		}
	}
}

func (w *Worker) processJobs() {
	for {
		select {
		case <-w.shutdown:
			w.doneProcessing <- struct{}{}
			return
		case job := <-w.queue:
			id, err := uuid.NewRandom()
			if err != nil {
				w.log.Err(err).Error("new uuid error")
				continue
			}
			log := w.log.ID(id.String()).Root(logger.Data{"job_id": job.ID, "scan_type": job.ScanType, "process_id": processID})
			ctx := log.WithContext(context.Background())

			w.runJob(ctx, job)
		}
	}
}

// runJob owns the job's terminal status. A panic anywhere in a scan is
// recorded on the job instead of taking the worker down.
func (w *Worker) runJob(ctx context.Context, job *models.ScanJob) {
	log := logger.FromContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			log.Error("scan panic", logger.Data{"panic": fmt.Sprintf("%v", r)})
			job.ErrorsParsed = append(job.ErrorsParsed, fmt.Sprintf("panic: %v", r))
			if err := w.jobService.Finish(ctx, job, models.ScanJobStatusFailed); err != nil {
				log.Err(err).Error("finish job error")
			}
		}
	}()

	err := w.runScan(ctx, job)
	switch {
	case err == nil:
		err = w.jobService.Finish(ctx, job, models.ScanJobStatusCompleted)
	case errors.Is(err, errScanCancelled):
		log.Info("scan cancelled")
		err = w.jobService.Finish(ctx, job, models.ScanJobStatusCancelled)
	default:
		log.Err(err).Error("scan error")
		job.ErrorsParsed = append(job.ErrorsParsed, err.Error())
		err = w.jobService.Finish(ctx, job, models.ScanJobStatusFailed)
	}
	if err != nil {
		log.Err(err).Error("finish job error")
	}
}

func (w *Worker) runScan(ctx context.Context, job *models.ScanJob) error {
	if job.ScanType == models.ScanTypeFull {
		requeued, err := w.comicService.RequeueUnpaged(ctx)
		if err != nil {
			return errors.WithStack(err)
		}
		if requeued > 0 {
			logger.FromContext(ctx).Info("requeued comics with no pages", logger.Data{"count": requeued})
		}

		if err := w.sync(ctx, job); err != nil {
			return errors.WithStack(err)
		}
	}

	return errors.WithStack(w.process(ctx, job))
}

func (w *Worker) Shutdown() {
	close(w.shutdown)
	<-w.doneProcessing
}

const letterBytes = "abcdef0123456789"

func randStringBytes(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letterBytes[rand.Intn(len(letterBytes))]
	}
	return string(b)
}
