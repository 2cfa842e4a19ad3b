package scanner

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/comicden/comicden/pkg/models"
	"github.com/comicden/comicden/pkg/scanjobs"
	"github.com/comicden/comicden/pkg/series"
	"github.com/comicden/comicden/pkg/sidecar"
	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

// progressInterval is how many walked files pass between job progress writes
// and cancellation polls.
const progressInterval = 50

// Files can have any extension, so the detected mime type is checked against
// what the extension claims before the file is treated as a comic.
var comicMimeTypes = map[string]map[string]struct{}{
	".cbz": {"application/zip": {}, "application/vnd.comicbook+zip": {}},
	".cbr": {"application/x-rar-compressed": {}, "application/vnd.comicbook-rar": {}},
}

// pendingSeries collects what the walk learned about one series so it can be
// upserted before its comics are inserted.
type pendingSeries struct {
	metadata    *sidecar.SeriesSidecar
	category    string
	subcategory *string
	coverID     string
}

// sync is phase 1: walk every library root, classify each comic file as new,
// changed, or unchanged against the database snapshot, delete rows whose
// files disappeared, and upsert series and comics. An unreadable root fails
// the scan; individual unreadable files are logged and skipped.
func (w *Worker) sync(ctx context.Context, job *models.ScanJob) error {
	log := logger.FromContext(ctx)

	snapshot, err := w.comicService.SnapshotSyncInfo(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	libs, err := w.libraryService.ListLibraries(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	phase := models.ScanPhaseSync
	job.Phase = &phase

	resolver := sidecar.NewResolver()
	onDisk := make(map[string]struct{}, len(snapshot))
	pending := []*models.Comic{}
	seriesMap := map[string]*pendingSeries{}
	fileCount := 0

	for _, library := range libs {
		root, err := filepath.Abs(library.Path)
		if err != nil {
			return errors.WithStack(err)
		}
		log.Info("scanning library root", logger.Data{"library_id": library.ID, "path": root})

		err = filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return errors.WithStack(err)
			}
			if entry.IsDir() || !IsComicFile(entry.Name()) {
				return nil
			}

			expected := comicMimeTypes[strings.ToLower(filepath.Ext(path))]
			mtype, err := mimetype.DetectFile(path)
			if err != nil {
				log.Warn("can't detect the mime type of a comic file", logger.Data{"path": path, "err": err.Error()})
				return nil
			}
			if _, ok := expected[mtype.String()]; !ok {
				log.Warn("mime type is not expected for extension", logger.Data{"path": path, "mimetype": mtype.String()})
				return nil
			}

			fileCount++
			info, err := entry.Info()
			if err != nil {
				log.Err(err).Warn("stat comic file", logger.Data{"path": path})
				job.ErrorsParsed = append(job.ErrorsParsed, path+": "+err.Error())
				return w.syncProgress(ctx, job, fileCount, entry.Name())
			}

			id := models.ComicID(path)
			onDisk[id] = struct{}{}

			mtime := info.ModTime().Unix()
			size := info.Size()
			prev, known := snapshot[id]
			if known && prev.Mtime == mtime && prev.SizeBytes == size {
				return w.syncProgress(ctx, job, fileCount, entry.Name())
			}
			if known {
				job.ChangedComics++
			} else {
				job.NewComics++
			}

			meta, err := resolver.Resolve(filepath.Dir(path), root)
			if err != nil {
				log.Err(err).Warn("read series sidecar", logger.Data{"path": path})
				job.ErrorsParsed = append(job.ErrorsParsed, path+": "+err.Error())
			}

			comic := buildComic(id, path, root, entry.Name(), size, mtime, meta)
			pending = append(pending, comic)

			if _, ok := seriesMap[comic.Series]; !ok {
				seriesMap[comic.Series] = &pendingSeries{
					metadata:    meta,
					category:    comic.Category,
					subcategory: comic.Subcategory,
					coverID:     id,
				}
			}

			return w.syncProgress(ctx, job, fileCount, entry.Name())
		})
		if err != nil {
			return errors.WithStack(err)
		}
	}

	job.TotalFiles = fileCount
	job.ProcessedFiles = fileCount

	missing := make([]string, 0)
	for id := range snapshot {
		if _, ok := onDisk[id]; !ok {
			missing = append(missing, id)
		}
	}
	deleted, err := w.comicService.DeleteByIDs(ctx, missing)
	if err != nil {
		return errors.WithStack(err)
	}
	job.DeletedComics = deleted

	seriesIDs := make(map[string]int, len(seriesMap))
	for name, ps := range seriesMap {
		var category *string
		if ps.category != "" {
			category = &ps.category
		}
		seriesID, err := w.seriesService.Upsert(ctx, name, series.UpsertOptions{
			Metadata:     ps.metadata,
			Category:     category,
			Subcategory:  ps.subcategory,
			CoverComicID: &ps.coverID,
		})
		if err != nil {
			return errors.WithStack(err)
		}
		seriesIDs[name] = seriesID
	}
	for _, comic := range pending {
		if seriesID, ok := seriesIDs[comic.Series]; ok {
			sid := seriesID
			comic.SeriesID = &sid
		}
	}

	if err := w.comicService.BatchUpsert(ctx, pending); err != nil {
		return errors.WithStack(err)
	}

	err = w.jobService.UpdateJob(ctx, job, scanjobs.UpdateJobOptions{
		Columns: []string{"phase", "total_files", "processed_files", "new_comics", "changed_comics", "deleted_comics", "errors"},
	})
	if err != nil {
		return errors.WithStack(err)
	}

	// Tag vocabulary, search index, and NSFW flags all derive from series
	// metadata, which may have changed on disk.
	w.tagService.Invalidate()
	if err := w.searchService.RebuildIndex(ctx); err != nil {
		return errors.WithStack(err)
	}
	flagged, updated, err := w.nsfwService.RecomputeAll(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	log.Info("sync complete", logger.Data{
		"files":        fileCount,
		"new":          job.NewComics,
		"changed":      job.ChangedComics,
		"deleted":      job.DeletedComics,
		"nsfw_flagged": flagged,
		"nsfw_updated": updated,
	})
	return nil
}

// syncProgress records walk progress on the job every progressInterval files
// and polls the cancellation flag on the same cadence.
func (w *Worker) syncProgress(ctx context.Context, job *models.ScanJob, fileCount int, filename string) error {
	if fileCount%progressInterval != 0 {
		return nil
	}

	cancelled, err := w.jobService.CancelRequested(ctx, job.ID)
	if err != nil {
		return errors.WithStack(err)
	}
	if cancelled {
		return errScanCancelled
	}

	job.TotalFiles = fileCount
	job.ProcessedFiles = fileCount
	job.CurrentFile = &filename
	return errors.WithStack(w.jobService.UpdateJob(ctx, job, scanjobs.UpdateJobOptions{
		Columns: []string{"phase", "total_files", "processed_files", "new_comics", "changed_comics", "current_file", "errors"},
	}))
}

// buildComic derives a comic row from its location on disk. The path layout
// is category/subcategory/series/file; shallower files fall back to a series
// name recovered from the filename. A sidecar overrides the series name for
// everything beneath it.
func buildComic(id, path, root, filename string, size, mtime int64, meta *sidecar.SeriesSidecar) *models.Comic {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = filename
	}

	var parts []string
	if dir := filepath.Dir(rel); dir != "." {
		parts = strings.Split(filepath.ToSlash(dir), "/")
	}

	category := "Uncategorized"
	if len(parts) > 0 {
		category = parts[0]
	}
	var subcategory *string
	if len(parts) > 1 {
		subcategory = &parts[1]
	}

	name := ""
	if len(parts) > 2 {
		name = parts[2]
	} else {
		name = SeriesNameFromFilename(filename)
	}
	if s := meta.SeriesName(); s != "" {
		name = s
	}

	volume, chapter := ParseNumbering(filename)

	return &models.Comic{
		ID:          id,
		Path:        path,
		Filename:    filename,
		Series:      name,
		Category:    category,
		Subcategory: subcategory,
		SizeBytes:   size,
		Mtime:       mtime,
		Volume:      volume,
		Chapter:     chapter,
	}
}
