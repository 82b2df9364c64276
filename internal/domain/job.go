package domain

import "time"

// JobStatus represents the lifecycle state of a generation job.
// Values include JobStatusPending, JobStatusProcessing, JobStatusCompleted,
// and JobStatusFailed.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// QualityTier selects the model used for generation and the rate-limit
// budget charged for it.
type QualityTier string

const (
	TierFast    QualityTier = "fast"
	TierQuality QualityTier = "quality"
)

// GenerationJob represents one tracked request to produce a generated
// image. Rows are created by the submit endpoint, mutated only by the
// orchestrator's background routine, and retained as an audit trail.
//
// Invariants: ImageID is set iff status = completed; Error is set iff
// status = failed; transitions are monotonic (no terminal -> non-terminal).
type GenerationJob struct {
	ID             string      `gorm:"type:text;primaryKey" json:"id"`
	UserID         string      `gorm:"type:text;not null;index:idx_jobs_user" json:"user_id"`
	Prompt         string      `gorm:"type:text;not null" json:"prompt"`
	NegativePrompt string      `gorm:"type:text" json:"negative_prompt,omitempty"`
	Quality        QualityTier `gorm:"type:text;not null;default:fast" json:"quality"`
	Guidance       float64     `json:"guidance"`
	Steps          int         `json:"steps"`
	Seed           *int64      `json:"seed,omitempty"`
	AspectRatio    string      `gorm:"type:text" json:"aspect_ratio"`
	Width          int         `json:"width"`
	Height         int         `json:"height"`
	Tags           StringArray `gorm:"type:text" json:"tags"`
	IsPrivate      bool        `gorm:"default:false" json:"is_private"`
	ParentImageID  *string     `gorm:"type:text" json:"parent_image_id,omitempty"`
	Status         JobStatus   `gorm:"type:text;index:idx_jobs_status;default:pending" json:"status"`
	ImageID        *string     `gorm:"type:text" json:"image_id,omitempty"`
	Error          string      `gorm:"type:text" json:"error,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// TableName returns the database table name for GenerationJob.
func (GenerationJob) TableName() string {
	return "generation_jobs"
}
