package models

import (
	"time"

	"github.com/pkg/errors"
	"github.com/segmentio/encoding/json"
	"github.com/uptrace/bun"
)

const (
	ScanJobStatusRunning   = "running"
	ScanJobStatusCompleted = "completed"
	ScanJobStatusFailed    = "failed"
	ScanJobStatusCancelled = "cancelled"
)

const (
	ScanTypeFull    = "full"
	ScanTypeProcess = "process"
)

const (
	ScanPhaseSync    = "sync"
	ScanPhaseProcess = "process"
)

// MaxScanJobErrors bounds the errors column so a pathological library can't
// grow a job row without limit.
const MaxScanJobErrors = 100

type ScanJob struct {
	bun.BaseModel `bun:"table:scan_jobs,alias:sj"`

	ID                  int        `bun:",pk,nullzero" json:"id"`
	StartedAt           time.Time  `json:"started_at"`
	CompletedAt         *time.Time `json:"completed_at,omitempty"`
	Status              string     `bun:",nullzero" json:"status"`
	ScanType            string     `bun:",nullzero" json:"scan_type"`
	Phase               *string    `json:"phase,omitempty"`
	CurrentFile         *string    `json:"current_file,omitempty"`
	TotalFiles          int        `json:"total_files"`
	ProcessedFiles      int        `json:"processed_files"`
	NewComics           int        `json:"new_comics"`
	ChangedComics       int        `json:"changed_comics"`
	DeletedComics       int        `json:"deleted_comics"`
	ProcessedPages      int        `json:"processed_pages"`
	PageErrors          int        `json:"page_errors"`
	ProcessedThumbnails int        `json:"processed_thumbnails"`
	ThumbnailErrors     int        `json:"thumbnail_errors"`
	ThumbBytesWritten   int64      `json:"thumb_bytes_written"`
	ThumbBytesSaved     int64      `json:"thumb_bytes_saved"`
	CancelRequested     bool       `json:"cancel_requested"`
	ProcessID           *string    `json:"process_id,omitempty"`

	Errors       string   `bun:",nullzero" json:"-"`
	ErrorsParsed []string `bun:"-" json:"errors"`
}

func (job *ScanJob) UnmarshalErrors() error {
	job.ErrorsParsed = []string{}
	if job.Errors == "" {
		return nil
	}
	err := json.Unmarshal([]byte(job.Errors), &job.ErrorsParsed)
	if err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func (job *ScanJob) MarshalErrors() error {
	if len(job.ErrorsParsed) > MaxScanJobErrors {
		job.ErrorsParsed = job.ErrorsParsed[:MaxScanJobErrors]
	}
	data, err := json.Marshal(job.ErrorsParsed)
	if err != nil {
		return errors.WithStack(err)
	}
	job.Errors = string(data)
	return nil
}

// Terminal reports whether the job has reached a final status.
func (job *ScanJob) Terminal() bool {
	return job.Status == ScanJobStatusCompleted ||
		job.Status == ScanJobStatusFailed ||
		job.Status == ScanJobStatusCancelled
}
