package scanjobs

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/comicden/comicden/pkg/migrations"
	"github.com/comicden/comicden/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)

	db := bun.NewDB(sqldb, sqlitedialect.New())

	_, err = migrations.BringUpToDate(context.Background(), db)
	require.NoError(t, err)

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestCreateJobRejectsSecondRunning(t *testing.T) {
	svc := NewService(newTestDB(t))
	ctx := context.Background()

	first := &models.ScanJob{ScanType: models.ScanTypeFull}
	require.NoError(t, svc.CreateJob(ctx, first))
	assert.Equal(t, models.ScanJobStatusRunning, first.Status)
	assert.NotZero(t, first.ID)

	second := &models.ScanJob{ScanType: models.ScanTypeFull}
	err := svc.CreateJob(ctx, second)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already running")

	require.NoError(t, svc.Finish(ctx, first, models.ScanJobStatusCompleted))
	require.NoError(t, svc.CreateJob(ctx, second))
}

func TestRunningJobNilWhenNoneRunning(t *testing.T) {
	svc := NewService(newTestDB(t))
	ctx := context.Background()

	job, err := svc.RunningJob(ctx)
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestFinishSetsTerminalFields(t *testing.T) {
	svc := NewService(newTestDB(t))
	ctx := context.Background()

	job := &models.ScanJob{ScanType: models.ScanTypeFull}
	require.NoError(t, svc.CreateJob(ctx, job))

	file := "/library/One Piece/v01.cbz"
	job.CurrentFile = &file
	job.ErrorsParsed = []string{"bad page in v03.cbz"}
	require.NoError(t, svc.Finish(ctx, job, models.ScanJobStatusCompleted))

	reloaded, err := svc.RetrieveJob(ctx, RetrieveJobOptions{ID: &job.ID})
	require.NoError(t, err)
	assert.Equal(t, models.ScanJobStatusCompleted, reloaded.Status)
	assert.NotNil(t, reloaded.CompletedAt)
	assert.Nil(t, reloaded.CurrentFile)
	assert.Equal(t, []string{"bad page in v03.cbz"}, reloaded.ErrorsParsed)
	assert.True(t, reloaded.Terminal())
}

func TestRequestCancel(t *testing.T) {
	svc := NewService(newTestDB(t))
	ctx := context.Background()

	job := &models.ScanJob{ScanType: models.ScanTypeFull}
	require.NoError(t, svc.CreateJob(ctx, job))

	flagged, err := svc.CancelRequested(ctx, job.ID)
	require.NoError(t, err)
	assert.False(t, flagged)

	_, err = svc.RequestCancel(ctx, job.ID)
	require.NoError(t, err)

	flagged, err = svc.CancelRequested(ctx, job.ID)
	require.NoError(t, err)
	assert.True(t, flagged)
}

func TestRequestCancelRejectsFinishedJob(t *testing.T) {
	svc := NewService(newTestDB(t))
	ctx := context.Background()

	job := &models.ScanJob{ScanType: models.ScanTypeFull}
	require.NoError(t, svc.CreateJob(ctx, job))
	require.NoError(t, svc.Finish(ctx, job, models.ScanJobStatusCancelled))

	_, err := svc.RequestCancel(ctx, job.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already finished")
}

func TestFailOrphans(t *testing.T) {
	svc := NewService(newTestDB(t))
	ctx := context.Background()

	job := &models.ScanJob{ScanType: models.ScanTypeFull}
	require.NoError(t, svc.CreateJob(ctx, job))

	affected, err := svc.FailOrphans(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, affected)

	reloaded, err := svc.RetrieveJob(ctx, RetrieveJobOptions{ID: &job.ID})
	require.NoError(t, err)
	assert.Equal(t, models.ScanJobStatusFailed, reloaded.Status)
	assert.Equal(t, []string{"scan interrupted by restart"}, reloaded.ErrorsParsed)
	assert.NotNil(t, reloaded.CompletedAt)

	affected, err = svc.FailOrphans(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, affected)
}

func TestListJobsNewestFirst(t *testing.T) {
	svc := NewService(newTestDB(t))
	ctx := context.Background()

	older := &models.ScanJob{ScanType: models.ScanTypeFull, StartedAt: time.Now().Add(-time.Hour)}
	require.NoError(t, svc.CreateJob(ctx, older))
	require.NoError(t, svc.Finish(ctx, older, models.ScanJobStatusCompleted))

	newer := &models.ScanJob{ScanType: models.ScanTypeProcess}
	require.NoError(t, svc.CreateJob(ctx, newer))
	require.NoError(t, svc.Finish(ctx, newer, models.ScanJobStatusFailed))

	jobs, total, err := svc.ListJobsWithTotal(ctx, ListJobsOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, jobs, 2)
	assert.Equal(t, newer.ID, jobs[0].ID)
	assert.Equal(t, older.ID, jobs[1].ID)

	failed, err := svc.ListJobs(ctx, ListJobsOptions{Statuses: []string{models.ScanJobStatusFailed}})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, newer.ID, failed[0].ID)
}

func TestUpdateJobCounters(t *testing.T) {
	svc := NewService(newTestDB(t))
	ctx := context.Background()

	job := &models.ScanJob{ScanType: models.ScanTypeFull}
	require.NoError(t, svc.CreateJob(ctx, job))

	phase := models.ScanPhaseSync
	job.Phase = &phase
	job.TotalFiles = 120
	job.ProcessedFiles = 50
	job.NewComics = 12
	require.NoError(t, svc.UpdateJob(ctx, job, UpdateJobOptions{
		Columns: []string{"phase", "total_files", "processed_files", "new_comics"},
	}))

	reloaded, err := svc.RetrieveJob(ctx, RetrieveJobOptions{ID: &job.ID})
	require.NoError(t, err)
	require.NotNil(t, reloaded.Phase)
	assert.Equal(t, models.ScanPhaseSync, *reloaded.Phase)
	assert.Equal(t, 120, reloaded.TotalFiles)
	assert.Equal(t, 50, reloaded.ProcessedFiles)
	assert.Equal(t, 12, reloaded.NewComics)
}
