package scanjobs

import (
	"net/http"
	"strconv"

	"github.com/comicden/comicden/pkg/errcodes"
	"github.com/comicden/comicden/pkg/models"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

// Enqueuer hands a freshly created job to whatever runs scans.
type Enqueuer interface {
	Enqueue(job *models.ScanJob)
}

type handler struct {
	jobService *Service
	enqueuer   Enqueuer
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()

	params := CreateScanPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}
	if params.ScanType == "" {
		params.ScanType = models.ScanTypeFull
	}

	job := &models.ScanJob{ScanType: params.ScanType}
	if err := h.jobService.CreateJob(ctx, job); err != nil {
		return errors.WithStack(err)
	}

	h.enqueuer.Enqueue(job)

	return errors.WithStack(c.JSON(http.StatusOK, job))
}

func (h *handler) retrieve(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Scan job")
	}

	job, err := h.jobService.RetrieveJob(ctx, RetrieveJobOptions{ID: &id})
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, job))
}

func (h *handler) status(c echo.Context) error {
	ctx := c.Request().Context()

	job, err := h.jobService.RunningJob(ctx)
	if err != nil {
		return errors.WithStack(err)
	}
	if job == nil {
		// Fall back to the most recent job of any status.
		limit := 1
		jobs, err := h.jobService.ListJobs(ctx, ListJobsOptions{Limit: &limit})
		if err != nil {
			return errors.WithStack(err)
		}
		if len(jobs) == 0 {
			return errcodes.NotFound("Scan job")
		}
		job = jobs[0]
	}

	return errors.WithStack(c.JSON(http.StatusOK, job))
}

func (h *handler) list(c echo.Context) error {
	ctx := c.Request().Context()

	params := ListJobsQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	jobs, total, err := h.jobService.ListJobsWithTotal(ctx, ListJobsOptions{
		Limit:  &params.Limit,
		Offset: &params.Offset,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	resp := struct {
		Jobs  []*models.ScanJob `json:"jobs"`
		Total int               `json:"total"`
	}{jobs, total}

	return errors.WithStack(c.JSON(http.StatusOK, resp))
}

func (h *handler) cancel(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return errcodes.NotFound("Scan job")
	}

	job, err := h.jobService.RequestCancel(ctx, id)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, job))
}
