package repository

import (
	"context"
	"time"

	"github.com/timmy/mirai/internal/domain"
	"gorm.io/gorm"
)

// JobRepository handles generation job data operations.
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new JobRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *JobRepository: repository instance bound to db.
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create inserts a new job record.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - job: job record to persist.
// Returns:
//   - error: non-nil if the insert fails.
func (r *JobRepository) Create(ctx context.Context, job *domain.GenerationJob) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// GetByID retrieves a job by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: job ID.
// Returns:
//   - *domain.GenerationJob: job record if found.
//   - error: non-nil if lookup fails (gorm.ErrRecordNotFound for unknown ids).
func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.GenerationJob, error) {
	var job domain.GenerationJob
	if err := r.db.WithContext(ctx).First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// SetProcessing transitions a pending job to processing. The status
// guard means the transition is a no-op when the job already left
// pending (reconciled to failed, or claimed elsewhere).
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: job ID.
// Returns:
//   - bool: true if the pending -> processing transition took effect.
//   - error: non-nil if the update fails.
func (r *JobRepository) SetProcessing(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.GenerationJob{}).
		Where("id = ? AND status = ?", id, domain.JobStatusPending).
		Update("status", domain.JobStatusProcessing)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// SetCompleted transitions a job to completed, recording the produced image.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: job ID.
//   - imageID: ID of the produced Image record.
// Returns:
//   - error: non-nil if the update fails.
func (r *JobRepository) SetCompleted(ctx context.Context, id, imageID string) error {
	return r.db.WithContext(ctx).Model(&domain.GenerationJob{}).
		Where("id = ? AND status = ?", id, domain.JobStatusProcessing).
		Updates(map[string]interface{}{
			"status":   domain.JobStatusCompleted,
			"image_id": imageID,
		}).Error
}

// SetFailed transitions a non-terminal job to failed with a human-readable
// message. The status guard keeps terminal states final.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: job ID.
//   - message: failure description recorded on the job row.
// Returns:
//   - error: non-nil if the update fails.
func (r *JobRepository) SetFailed(ctx context.Context, id, message string) error {
	return r.db.WithContext(ctx).Model(&domain.GenerationJob{}).
		Where("id = ? AND status IN ?", id, []domain.JobStatus{domain.JobStatusPending, domain.JobStatusProcessing}).
		Updates(map[string]interface{}{
			"status": domain.JobStatusFailed,
			"error":  message,
		}).Error
}

// FailStaleProcessing fails processing jobs whose last update is older
// than the cutoff. Used by the status-read path to reconcile jobs whose
// background routine died without reaching a terminal state.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: job ID.
//   - cutoff: updated_at threshold; older processing rows are failed.
//   - message: failure description recorded on the job row.
// Returns:
//   - bool: true if the job was reconciled to failed.
//   - error: non-nil if the update fails.
func (r *JobRepository) FailStaleProcessing(ctx context.Context, id string, cutoff time.Time, message string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&domain.GenerationJob{}).
		Where("id = ? AND status = ? AND updated_at < ?", id, domain.JobStatusProcessing, cutoff).
		Updates(map[string]interface{}{
			"status": domain.JobStatusFailed,
			"error":  message,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ListByUser retrieves a user's jobs, newest first, with pagination.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - userID: owner ID.
//   - limit: maximum number of records to return.
//   - offset: number of records to skip.
// Returns:
//   - []domain.GenerationJob: matching job records.
//   - error: non-nil if the query fails.
func (r *JobRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.GenerationJob, error) {
	var jobs []domain.GenerationJob
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}
