package scanjobs

import (
	"context"
	"database/sql"
	"time"

	"github.com/comicden/comicden/pkg/errcodes"
	"github.com/comicden/comicden/pkg/models"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type RetrieveJobOptions struct {
	ID *int
}

type ListJobsOptions struct {
	Limit    *int
	Offset   *int
	Statuses []string

	includeTotal bool
}

type UpdateJobOptions struct {
	Columns []string
}

type Service struct {
	db *bun.DB
}

func NewService(db *bun.DB) *Service {
	return &Service{db}
}

// CreateJob starts a new scan job. Only one job may run at a time; the check
// and the insert are separate statements, so two simultaneous requests can
// in principle both pass, which is accepted as harmless.
func (svc *Service) CreateJob(ctx context.Context, job *models.ScanJob) error {
	running, err := svc.RunningJob(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if running != nil {
		return errcodes.Conflict("A scan is already running.")
	}

	if job.StartedAt.IsZero() {
		job.StartedAt = time.Now()
	}
	job.Status = models.ScanJobStatusRunning
	if err := job.MarshalErrors(); err != nil {
		return errors.WithStack(err)
	}

	_, err = svc.db.
		NewInsert().
		Model(job).
		Returning("*").
		Exec(ctx)
	return errors.WithStack(err)
}

// RunningJob returns the currently running job, or nil.
func (svc *Service) RunningJob(ctx context.Context) (*models.ScanJob, error) {
	job := &models.ScanJob{}
	err := svc.db.
		NewSelect().
		Model(job).
		Where("sj.status = ?", models.ScanJobStatusRunning).
		Order("sj.started_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.WithStack(err)
	}
	if err := job.UnmarshalErrors(); err != nil {
		return nil, errors.WithStack(err)
	}
	return job, nil
}

func (svc *Service) RetrieveJob(ctx context.Context, opts RetrieveJobOptions) (*models.ScanJob, error) {
	job := &models.ScanJob{}

	q := svc.db.
		NewSelect().
		Model(job)

	if opts.ID != nil {
		q = q.Where("sj.id = ?", *opts.ID)
	}

	err := q.Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errcodes.NotFound("Scan job")
		}
		return nil, errors.WithStack(err)
	}

	if err := job.UnmarshalErrors(); err != nil {
		return nil, errors.WithStack(err)
	}

	return job, nil
}

func (svc *Service) ListJobs(ctx context.Context, opts ListJobsOptions) ([]*models.ScanJob, error) {
	jobs, _, err := svc.listJobsWithTotal(ctx, opts)
	return jobs, errors.WithStack(err)
}

func (svc *Service) ListJobsWithTotal(ctx context.Context, opts ListJobsOptions) ([]*models.ScanJob, int, error) {
	opts.includeTotal = true
	return svc.listJobsWithTotal(ctx, opts)
}

func (svc *Service) listJobsWithTotal(ctx context.Context, opts ListJobsOptions) ([]*models.ScanJob, int, error) {
	jobs := []*models.ScanJob{}
	var total int
	var err error

	q := svc.db.
		NewSelect().
		Model(&jobs).
		Order("sj.started_at DESC")

	if opts.Limit != nil {
		q = q.Limit(*opts.Limit)
	}
	if opts.Offset != nil {
		q = q.Offset(*opts.Offset)
	}
	if opts.Statuses != nil {
		q = q.WhereGroup(" AND ", func(sq *bun.SelectQuery) *bun.SelectQuery {
			for _, s := range opts.Statuses {
				sq = sq.WhereOr("sj.status = ?", s)
			}
			return sq
		})
	}

	if opts.includeTotal {
		total, err = q.ScanAndCount(ctx)
	} else {
		err = q.Scan(ctx)
	}
	if err != nil {
		return nil, 0, errors.WithStack(err)
	}

	for _, job := range jobs {
		if err := job.UnmarshalErrors(); err != nil {
			return nil, 0, errors.WithStack(err)
		}
	}

	return jobs, total, nil
}

// UpdateJob writes the given columns from an already-loaded model.
func (svc *Service) UpdateJob(ctx context.Context, job *models.ScanJob, opts UpdateJobOptions) error {
	if len(opts.Columns) == 0 {
		return nil
	}
	if err := job.MarshalErrors(); err != nil {
		return errors.WithStack(err)
	}

	_, err := svc.db.
		NewUpdate().
		Model(job).
		Column(opts.Columns...).
		WherePK().
		Exec(ctx)
	return errors.WithStack(err)
}

// Finish moves a job to a terminal status.
func (svc *Service) Finish(ctx context.Context, job *models.ScanJob, status string) error {
	now := time.Now()
	job.Status = status
	job.CompletedAt = &now
	job.CurrentFile = nil
	return errors.WithStack(svc.UpdateJob(ctx, job, UpdateJobOptions{
		Columns: []string{"status", "completed_at", "current_file", "errors"},
	}))
}

// RequestCancel flags a running job. The scan loop honors it at its next
// poll boundary.
func (svc *Service) RequestCancel(ctx context.Context, id int) (*models.ScanJob, error) {
	job, err := svc.RetrieveJob(ctx, RetrieveJobOptions{ID: &id})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if job.Terminal() {
		return nil, errcodes.Conflict("Scan job has already finished.")
	}

	job.CancelRequested = true
	err = svc.UpdateJob(ctx, job, UpdateJobOptions{Columns: []string{"cancel_requested"}})
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return job, nil
}

// CancelRequested re-reads just the cancel flag for a job.
func (svc *Service) CancelRequested(ctx context.Context, id int) (bool, error) {
	var flag bool
	err := svc.db.
		NewSelect().
		TableExpr("scan_jobs").
		Column("cancel_requested").
		Where("id = ?", id).
		Scan(ctx, &flag)
	return flag, errors.WithStack(err)
}

// FailOrphans marks any job left running by a previous process as failed.
// Called once on startup, before the worker accepts new scans.
func (svc *Service) FailOrphans(ctx context.Context) (int, error) {
	now := time.Now()
	res, err := svc.db.
		NewUpdate().
		Model((*models.ScanJob)(nil)).
		Set("status = ?", models.ScanJobStatusFailed).
		Set("completed_at = ?", now).
		Set("errors = ?", `["scan interrupted by restart"]`).
		Where("status = ?", models.ScanJobStatusRunning).
		Exec(ctx)
	if err != nil {
		return 0, errors.WithStack(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, errors.WithStack(err)
	}
	return int(affected), nil
}
