package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/comicden/comicden/pkg/archive"
	"github.com/comicden/comicden/pkg/comics"
	"github.com/comicden/comicden/pkg/models"
	"github.com/comicden/comicden/pkg/scanjobs"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// inspectOutcome is the result of inspecting one comic in the pool.
type inspectOutcome struct {
	update       *comics.ProcessUpdate
	bytesWritten int64
	bytesSaved   int64
	errMsg       string
}

// process is phase 2: drain the unprocessed comics in batches, inspecting
// each archive on a fixed worker pool and committing every batch as one
// transaction. Cancellation is honored at batch boundaries.
func (w *Worker) process(ctx context.Context, job *models.ScanJob) error {
	log := logger.FromContext(ctx)

	thumbSettings, err := w.settingsService.ThumbnailSettings(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	opts := thumbSettings.ArchiveOptions()

	thumbsDir := filepath.Join(w.config.CacheDir, "thumbs")
	if err := os.MkdirAll(thumbsDir, 0755); err != nil { //nolint:gosec
		return errors.WithStack(err)
	}

	phase := models.ScanPhaseProcess
	job.Phase = &phase

	unprocessed := false
	one := 1
	_, total, err := w.comicService.ListComicsWithTotal(ctx, comics.ListComicsOptions{Processed: &unprocessed, Limit: &one})
	if err != nil {
		return errors.WithStack(err)
	}
	job.TotalFiles = total
	job.ProcessedFiles = 0
	err = w.jobService.UpdateJob(ctx, job, scanjobs.UpdateJobOptions{
		Columns: []string{"phase", "total_files", "processed_files"},
	})
	if err != nil {
		return errors.WithStack(err)
	}

	for {
		cancelled, err := w.jobService.CancelRequested(ctx, job.ID)
		if err != nil {
			return errors.WithStack(err)
		}
		if cancelled {
			return errScanCancelled
		}

		batch, err := w.comicService.FetchPending(ctx, w.config.ScanBatchSize)
		if err != nil {
			return errors.WithStack(err)
		}
		if len(batch) == 0 {
			break
		}

		outcomes := w.inspectBatch(ctx, batch, opts, thumbsDir)

		updates := make([]*comics.ProcessUpdate, 0, len(outcomes))
		for _, outcome := range outcomes {
			updates = append(updates, outcome.update)
			job.ProcessedFiles++
			if outcome.update.Pages != nil && *outcome.update.Pages > 0 {
				job.ProcessedPages++
			} else {
				job.PageErrors++
			}
			if outcome.update.HasThumbnail {
				job.ProcessedThumbnails++
			} else {
				job.ThumbnailErrors++
			}
			job.ThumbBytesWritten += outcome.bytesWritten
			job.ThumbBytesSaved += outcome.bytesSaved
			if outcome.errMsg != "" {
				job.ErrorsParsed = append(job.ErrorsParsed, outcome.errMsg)
			}
		}

		if err := w.comicService.ApplyProcessUpdates(ctx, updates); err != nil {
			return errors.WithStack(err)
		}

		last := batch[len(batch)-1].Filename
		job.CurrentFile = &last
		err = w.jobService.UpdateJob(ctx, job, scanjobs.UpdateJobOptions{
			Columns: []string{
				"processed_files", "current_file", "processed_pages", "page_errors",
				"processed_thumbnails", "thumbnail_errors", "thumb_bytes_written",
				"thumb_bytes_saved", "errors",
			},
		})
		if err != nil {
			return errors.WithStack(err)
		}
	}

	log.Info("processing complete", logger.Data{
		"processed":  job.ProcessedFiles,
		"pages":      job.ProcessedPages,
		"page_errs":  job.PageErrors,
		"thumbnails": job.ProcessedThumbnails,
		"thumb_errs": job.ThumbnailErrors,
	})
	return nil
}

// inspectBatch fans one batch out to the worker pool and gathers every
// outcome before returning.
func (w *Worker) inspectBatch(ctx context.Context, batch []*models.Comic, opts *archive.ThumbnailOptions, thumbsDir string) []*inspectOutcome {
	queue := make(chan *models.Comic)
	results := make(chan *inspectOutcome)

	var wg sync.WaitGroup
	for i := 0; i < w.config.ScanWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for comic := range queue {
				results <- w.inspectComic(ctx, comic, opts, thumbsDir)
			}
		}()
	}
	go func() {
		for _, comic := range batch {
			queue <- comic
		}
		close(queue)
		wg.Wait()
		close(results)
	}()

	outcomes := make([]*inspectOutcome, 0, len(batch))
	for outcome := range results {
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// inspectComic inspects one archive and writes its thumbnail. A panic below
// the inspector's boundary becomes an item error, never a dead worker.
func (w *Worker) inspectComic(ctx context.Context, comic *models.Comic, opts *archive.ThumbnailOptions, thumbsDir string) (outcome *inspectOutcome) {
	log := logger.FromContext(ctx)

	pages := 0
	outcome = &inspectOutcome{update: &comics.ProcessUpdate{ID: comic.ID, Pages: &pages}}

	defer func() {
		if r := recover(); r != nil {
			outcome.errMsg = fmt.Sprintf("%s: panic: %v", comic.Path, r)
			outcome.update.HasThumbnail = false
			outcome.update.ThumbnailExt = nil
		}
	}()

	result := archive.Inspect(comic.Path, opts)
	pages = result.Pages
	if result.Err != "" {
		outcome.errMsg = comic.Path + ": " + result.Err
	}

	if len(result.ThumbnailData) > 0 {
		dest := filepath.Join(thumbsDir, comic.ID+"."+result.ThumbnailExt)
		if err := os.WriteFile(dest, result.ThumbnailData, 0644); err != nil { //nolint:gosec
			log.Err(err).Warn("write thumbnail", logger.Data{"path": dest})
			outcome.errMsg = comic.Path + ": " + err.Error()
		} else {
			ext := result.ThumbnailExt
			outcome.update.HasThumbnail = true
			outcome.update.ThumbnailExt = &ext
			outcome.bytesWritten = int64(len(result.ThumbnailData))
			outcome.bytesSaved = result.BytesSaved
		}
	}

	return outcome
}
