package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/timmy/mirai/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestJobRepo(t *testing.T) *JobRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "jobs.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&domain.GenerationJob{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return NewJobRepository(db)
}

func createJob(t *testing.T, repo *JobRepository, id string) *domain.GenerationJob {
	t.Helper()
	job := &domain.GenerationJob{
		ID:          id,
		UserID:      "user-1",
		Prompt:      "a witch on a rooftop at dusk",
		Quality:     domain.TierFast,
		Guidance:    7.5,
		Steps:       28,
		AspectRatio: "1:1",
		Width:       1024,
		Height:      1024,
		Status:      domain.JobStatusPending,
	}
	if err := repo.Create(context.Background(), job); err != nil {
		t.Fatalf("failed to create job: %v", err)
	}
	return job
}

func mustSetProcessing(t *testing.T, repo *JobRepository, id string) {
	t.Helper()
	claimed, err := repo.SetProcessing(context.Background(), id)
	if err != nil {
		t.Fatalf("SetProcessing: %v", err)
	}
	if !claimed {
		t.Fatalf("pending job %s was not claimed", id)
	}
}

func mustStatus(t *testing.T, repo *JobRepository, id string, want domain.JobStatus) *domain.GenerationJob {
	t.Helper()
	job, err := repo.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("failed to load job: %v", err)
	}
	if job.Status != want {
		t.Fatalf("job status = %q, want %q", job.Status, want)
	}
	return job
}

func TestJobLifecycleHappyPath(t *testing.T) {
	repo := newTestJobRepo(t)
	ctx := context.Background()
	job := createJob(t, repo, "job-1")

	mustSetProcessing(t, repo, job.ID)
	mustStatus(t, repo, job.ID, domain.JobStatusProcessing)

	if err := repo.SetCompleted(ctx, job.ID, "img-1"); err != nil {
		t.Fatalf("SetCompleted: %v", err)
	}
	got := mustStatus(t, repo, job.ID, domain.JobStatusCompleted)
	if got.ImageID == nil || *got.ImageID != "img-1" {
		t.Errorf("ImageID = %v, want img-1", got.ImageID)
	}
}

func TestCompletedRequiresProcessing(t *testing.T) {
	repo := newTestJobRepo(t)
	ctx := context.Background()
	job := createJob(t, repo, "job-2")

	// Completing straight from pending must not take effect
	if err := repo.SetCompleted(ctx, job.ID, "img-x"); err != nil {
		t.Fatalf("SetCompleted: %v", err)
	}
	mustStatus(t, repo, job.ID, domain.JobStatusPending)
}

func TestSetProcessingClaimsPendingOnly(t *testing.T) {
	repo := newTestJobRepo(t)
	ctx := context.Background()

	job := createJob(t, repo, "job-claim")
	claimed, err := repo.SetProcessing(ctx, job.ID)
	if err != nil {
		t.Fatalf("SetProcessing: %v", err)
	}
	if !claimed {
		t.Fatal("pending job was not claimed")
	}

	// A second claim attempt must report no effect
	claimed, err = repo.SetProcessing(ctx, job.ID)
	if err != nil {
		t.Fatalf("SetProcessing: %v", err)
	}
	if claimed {
		t.Fatal("processing job was claimed twice")
	}

	// A job failed before its continuation starts must not be claimable
	failed := createJob(t, repo, "job-claim-failed")
	if err := repo.SetFailed(ctx, failed.ID, "generation timed out"); err != nil {
		t.Fatalf("SetFailed: %v", err)
	}
	claimed, err = repo.SetProcessing(ctx, failed.ID)
	if err != nil {
		t.Fatalf("SetProcessing: %v", err)
	}
	if claimed {
		t.Fatal("failed job was claimed")
	}
	mustStatus(t, repo, failed.ID, domain.JobStatusFailed)
}

func TestTerminalStatesAreFinal(t *testing.T) {
	repo := newTestJobRepo(t)
	ctx := context.Background()

	completed := createJob(t, repo, "job-3")
	mustSetProcessing(t, repo, completed.ID)
	if err := repo.SetCompleted(ctx, completed.ID, "img-1"); err != nil {
		t.Fatalf("SetCompleted: %v", err)
	}
	if err := repo.SetFailed(ctx, completed.ID, "late failure"); err != nil {
		t.Fatalf("SetFailed: %v", err)
	}
	got := mustStatus(t, repo, completed.ID, domain.JobStatusCompleted)
	if got.Error != "" {
		t.Errorf("completed job gained an error message: %q", got.Error)
	}

	failed := createJob(t, repo, "job-4")
	if err := repo.SetFailed(ctx, failed.ID, "boom"); err != nil {
		t.Fatalf("SetFailed: %v", err)
	}
	if _, err := repo.SetProcessing(ctx, failed.ID); err != nil {
		t.Fatalf("SetProcessing: %v", err)
	}
	mustStatus(t, repo, failed.ID, domain.JobStatusFailed)
}

func TestFailStaleProcessing(t *testing.T) {
	repo := newTestJobRepo(t)
	ctx := context.Background()

	job := createJob(t, repo, "job-5")
	mustSetProcessing(t, repo, job.ID)

	// Cutoff in the past: the recently-updated job is not stale yet
	reconciled, err := repo.FailStaleProcessing(ctx, job.ID, time.Now().Add(-time.Minute), "generation timed out")
	if err != nil {
		t.Fatalf("FailStaleProcessing: %v", err)
	}
	if reconciled {
		t.Fatal("fresh processing job was reconciled")
	}
	mustStatus(t, repo, job.ID, domain.JobStatusProcessing)

	// Cutoff in the future: the job now counts as stale
	reconciled, err = repo.FailStaleProcessing(ctx, job.ID, time.Now().Add(time.Minute), "generation timed out")
	if err != nil {
		t.Fatalf("FailStaleProcessing: %v", err)
	}
	if !reconciled {
		t.Fatal("stale processing job was not reconciled")
	}
	got := mustStatus(t, repo, job.ID, domain.JobStatusFailed)
	if got.Error != "generation timed out" {
		t.Errorf("error = %q, want timeout message", got.Error)
	}

	// Pending jobs are never touched by the stale sweep
	pending := createJob(t, repo, "job-6")
	reconciled, err = repo.FailStaleProcessing(ctx, pending.ID, time.Now().Add(time.Minute), "generation timed out")
	if err != nil {
		t.Fatalf("FailStaleProcessing: %v", err)
	}
	if reconciled {
		t.Fatal("pending job was reconciled")
	}
	mustStatus(t, repo, pending.ID, domain.JobStatusPending)
}
