package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"image"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/google/uuid"
	"github.com/timmy/mirai/internal/domain"
	"github.com/timmy/mirai/internal/inference"
	"github.com/timmy/mirai/internal/logger"
	"github.com/timmy/mirai/internal/ratelimit"
	"github.com/timmy/mirai/internal/repository"
	"github.com/timmy/mirai/internal/storage"
	"github.com/timmy/mirai/internal/tagger"
	"gorm.io/gorm"
)

// Identity describes the acting caller of a submission. UserID is empty
// for anonymous callers; ClientIP is used (hashed) as the anonymous
// rate-limit identity.
type Identity struct {
	UserID   string
	ClientIP string
}

// GenerationConfig holds orchestrator tunables.
type GenerationConfig struct {
	AnonPerHour          int
	UserFastPerWindow    int
	UserQualityPerWindow int
	UserWindow           time.Duration
	// StaleAfter is how long a processing job may go without an update
	// before the status-read path reconciles it to failed.
	StaleAfter time.Duration
}

// GenerationService owns the full lifecycle of a generation request
// from submission to terminal state. Submissions return immediately;
// the slow inference call runs in a background goroutine that is the
// only writer of the job row after creation.
type GenerationService struct {
	jobs    *repository.JobRepository
	images  *repository.ImageRepository
	users   *repository.UserRepository
	store   storage.ObjectStorage
	gateway *inference.Client
	tags    *tagger.Tagger
	embed   *EmbeddingService
	vectors *repository.VectorRepository // nil when semantic indexing is disabled
	limiter *ratelimit.Limiter
	urlFor  URLResolver
	cfg     GenerationConfig
}

// NewGenerationService creates a new GenerationService.
// Parameters:
//   - jobs, images, users: repositories.
//   - store: blob storage for generated images.
//   - gateway: inference gateway client.
//   - tags: prompt tag classifier (best-effort).
//   - embed: embedding service for prompt indexing (best-effort).
//   - vectors: vector repository; nil disables semantic indexing.
//   - limiter: fixed-window rate limiter.
//   - urlFor: storage key to public URL resolver.
//   - cfg: orchestrator tunables.
// Returns:
//   - *GenerationService: initialized service.
func NewGenerationService(
	jobs *repository.JobRepository,
	images *repository.ImageRepository,
	users *repository.UserRepository,
	store storage.ObjectStorage,
	gateway *inference.Client,
	tags *tagger.Tagger,
	embed *EmbeddingService,
	vectors *repository.VectorRepository,
	limiter *ratelimit.Limiter,
	urlFor URLResolver,
	cfg GenerationConfig,
) *GenerationService {
	return &GenerationService{
		jobs:    jobs,
		images:  images,
		users:   users,
		store:   store,
		gateway: gateway,
		tags:    tags,
		embed:   embed,
		vectors: vectors,
		limiter: limiter,
		urlFor:  urlFor,
		cfg:     cfg,
	}
}

// Submit validates a generation request, charges the rate limit,
// persists a pending job, and schedules the background continuation.
// It never awaits the inference call.
// Parameters:
//   - ctx: request context.
//   - ident: acting identity (anonymous when UserID is empty).
//   - params: generation parameters.
// Returns:
//   - *domain.GenerationJob: the created pending job.
//   - error: *ValidationError, *RateLimitError, or an internal error.
func (s *GenerationService) Submit(ctx context.Context, ident Identity, params *GenerateParams) (*domain.GenerationJob, error) {
	return s.submit(ctx, ident, params, nil)
}

// SubmitRemix submits a generation job derived from an existing image.
// Requires an authenticated identity; the parent must exist and be
// visible to the caller.
// Parameters:
//   - ctx: request context.
//   - ident: acting identity; UserID must be set.
//   - params: generation parameters.
//   - parentImageID: image the new job derives from.
// Returns:
//   - *domain.GenerationJob: the created pending job.
//   - error: ErrNotFound for an unknown parent, ErrForbidden for a
//     private parent not owned by the caller, or any Submit error.
func (s *GenerationService) SubmitRemix(ctx context.Context, ident Identity, params *GenerateParams, parentImageID string) (*domain.GenerationJob, error) {
	parent, err := s.images.GetByID(ctx, parentImageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("parent image: %w", ErrNotFound)
		}
		return nil, err
	}
	if parent.IsPrivate && parent.UserID != ident.UserID {
		return nil, fmt.Errorf("parent image is private: %w", ErrForbidden)
	}
	return s.submit(ctx, ident, params, &parent.ID)
}

func (s *GenerationService) submit(ctx context.Context, ident Identity, params *GenerateParams, parentImageID *string) (*domain.GenerationJob, error) {
	if err := ValidateParams(params); err != nil {
		return nil, err
	}

	if err := s.checkRateLimit(ctx, ident, params.Quality); err != nil {
		return nil, err
	}

	ownerID, err := s.resolveOwner(ctx, ident)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve identity: %w", err)
	}

	width, height, _ := DimensionsFor(params.AspectRatio)
	job := &domain.GenerationJob{
		ID:             uuid.New().String(),
		UserID:         ownerID,
		Prompt:         params.Prompt,
		NegativePrompt: params.NegativePrompt,
		Quality:        params.Quality,
		Guidance:       params.Guidance,
		Steps:          params.Steps,
		Seed:           params.Seed,
		AspectRatio:    params.AspectRatio,
		Width:          width,
		Height:         height,
		Tags:           domain.StringArray(MergeTags(params.Tags, nil, MaxUserTags)),
		IsPrivate:      params.IsPrivate,
		ParentImageID:  parentImageID,
		Status:         domain.JobStatusPending,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	// The continuation runs on a detached context: it must outlive the
	// submitting request and is never awaited by it.
	bgCtx := logger.SetJobID(context.Background(), job.ID)
	bgCtx = logger.SetComponent(bgCtx, "orchestrator")
	go s.runJob(bgCtx, job.ID)

	logger.CtxInfo(ctx, "Generation job submitted: job_id=%s, tier=%s", job.ID, job.Quality)
	return job, nil
}

// checkRateLimit charges one request against the caller's budget.
// Anonymous callers share one hourly pool keyed by hashed client IP;
// authenticated callers get per-tier budgets per shorter window.
func (s *GenerationService) checkRateLimit(ctx context.Context, ident Identity, tier domain.QualityTier) error {
	var (
		scope    string
		identity string
		tierKey  string
		budget   ratelimit.Budget
	)
	if ident.UserID == "" {
		scope = "anon"
		identity = ratelimit.HashIdentity(ident.ClientIP)
		tierKey = "all"
		budget = ratelimit.Budget{Limit: s.cfg.AnonPerHour, Window: time.Hour}
	} else {
		scope = "user"
		identity = ident.UserID
		tierKey = string(tier)
		limit := s.cfg.UserFastPerWindow
		if tier == domain.TierQuality {
			limit = s.cfg.UserQualityPerWindow
		}
		budget = ratelimit.Budget{Limit: limit, Window: s.cfg.UserWindow}
	}

	decision, err := s.limiter.Allow(ctx, scope, identity, tierKey, budget)
	if err != nil {
		return fmt.Errorf("rate limit check failed: %w", err)
	}
	if !decision.Allowed {
		return &RateLimitError{ResetTime: decision.ResetTime}
	}
	return nil
}

// resolveOwner returns the owning user ID for a submission, creating
// the user row when needed so every job has an owner reference.
func (s *GenerationService) resolveOwner(ctx context.Context, ident Identity) (string, error) {
	if ident.UserID != "" {
		exists, err := s.users.Exists(ctx, ident.UserID)
		if err != nil {
			return "", err
		}
		if !exists {
			// First submission from a platform-provisioned identity
			user := &domain.User{
				ID:       ident.UserID,
				Username: "user-" + shortID(ident.UserID),
			}
			if err := s.users.Create(ctx, user); err != nil {
				return "", err
			}
		}
		return ident.UserID, nil
	}

	anon := &domain.User{
		ID:          uuid.New().String(),
		IsAnonymous: true,
	}
	anon.Username = "anon-" + shortID(anon.ID)
	if err := s.users.Create(ctx, anon); err != nil {
		return "", err
	}
	return anon.ID, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// errJobNotRunnable means the job left the pending state before the
// background continuation could claim it (e.g. reconciled to failed).
var errJobNotRunnable = errors.New("job is no longer pending")

// runJob drives one job to a terminal state. Every failure anywhere in
// the sequence is caught here and recorded on the job row; the client
// has no other way to learn the outcome except by polling.
func (s *GenerationService) runJob(ctx context.Context, jobID string) {
	start := time.Now()
	if err := s.processJob(ctx, jobID); err != nil {
		if errors.Is(err, errJobNotRunnable) {
			logger.CtxWarn(ctx, "Generation job skipped: job_id=%s, error=%v", jobID, err)
			return
		}
		logger.CtxError(ctx, "Generation job failed: job_id=%s, error=%v", jobID, err)
		if ferr := s.jobs.SetFailed(ctx, jobID, err.Error()); ferr != nil {
			logger.CtxError(ctx, "Failed to record job failure: job_id=%s, error=%v", jobID, ferr)
		}
		return
	}
	logger.CtxInfo(ctx, "Generation job completed: job_id=%s, duration_ms=%d", jobID, time.Since(start).Milliseconds())
}

func (s *GenerationService) processJob(ctx context.Context, jobID string) error {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to load job: %w", err)
	}

	claimed, err := s.jobs.SetProcessing(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("failed to mark job processing: %w", err)
	}
	if !claimed {
		return fmt.Errorf("job %s: %w", job.ID, errJobNotRunnable)
	}

	raw, err := s.gateway.Generate(ctx, string(job.Quality), &inference.Request{
		Prompt:         job.Prompt,
		NegativePrompt: job.NegativePrompt,
		GuidanceScale:  job.Guidance,
		Steps:          job.Steps,
		Seed:           job.Seed,
		Width:          job.Width,
		Height:         job.Height,
	})
	if err != nil {
		return err
	}

	hash := sha256.Sum256(raw.Bytes)
	width, height := job.Width, job.Height
	if w, h, err := probeDimensions(raw.Bytes); err == nil {
		width, height = w, h
	}

	imageID := uuid.New().String()
	key := storage.GeneratedImageKey(imageID, storage.ExtForContentType(raw.ContentType), time.Now())
	if err := s.store.Upload(ctx, key, bytes.NewReader(raw.Bytes), int64(len(raw.Bytes)), raw.ContentType); err != nil {
		return fmt.Errorf("failed to store image: %w", err)
	}

	img := &domain.Image{
		ID:             imageID,
		UserID:         job.UserID,
		StorageKey:     key,
		FileSize:       int64(len(raw.Bytes)),
		SHA256Hash:     hex.EncodeToString(hash[:]),
		ContentType:    raw.ContentType,
		Width:          width,
		Height:         height,
		Prompt:         job.Prompt,
		NegativePrompt: job.NegativePrompt,
		Model:          s.gateway.ModelFor(string(job.Quality)),
		Guidance:       job.Guidance,
		Steps:          job.Steps,
		Seed:           job.Seed,
		AspectRatio:    job.AspectRatio,
		Tags:           domain.StringArray(s.enrichTags(ctx, job)),
		IsPrivate:      job.IsPrivate,
		ParentID:       job.ParentImageID,
	}
	if err := s.images.CreateWithOwnerCount(ctx, img); err != nil {
		return fmt.Errorf("failed to create image record: %w", err)
	}

	s.indexPrompt(ctx, img)

	if err := s.jobs.SetCompleted(ctx, job.ID, img.ID); err != nil {
		return fmt.Errorf("failed to mark job completed: %w", err)
	}
	return nil
}

// enrichTags merges the user's tags with classifier-derived ones.
// Classification is best-effort: its failure never fails the job.
func (s *GenerationService) enrichTags(ctx context.Context, job *domain.GenerationJob) []string {
	var derived []string
	if s.tags != nil && s.tags.IsEnabled() {
		tagCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
		defer cancel()
		var err error
		derived, err = s.tags.ClassifyPrompt(tagCtx, job.Prompt)
		if err != nil {
			logger.CtxWarn(ctx, "Tag classification failed: job_id=%s, error=%v", job.ID, err)
			derived = nil
		}
	}
	return MergeTags(job.Tags, derived, MaxTagsPerImage)
}

// indexPrompt indexes the image's prompt embedding for semantic search.
// Best-effort, public images only.
func (s *GenerationService) indexPrompt(ctx context.Context, img *domain.Image) {
	if s.vectors == nil || s.embed == nil || img.IsPrivate {
		return
	}
	vector, err := s.embed.Embed(ctx, img.Prompt)
	if err != nil {
		logger.CtxWarn(ctx, "Prompt embedding failed: image_id=%s, error=%v", img.ID, err)
		return
	}
	if err := s.vectors.Upsert(ctx, img.ID, vector, &repository.PromptPayload{
		ImageID: img.ID,
		Prompt:  img.Prompt,
		Tags:    img.Tags,
	}); err != nil {
		logger.CtxWarn(ctx, "Prompt indexing failed: image_id=%s, error=%v", img.ID, err)
	}
}

// probeDimensions reads the pixel dimensions from encoded image bytes.
func probeDimensions(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// ImagePayload is the resolved image portion of a status response.
type ImagePayload struct {
	ID          string   `json:"id"`
	URL         string   `json:"url"`
	AspectRatio string   `json:"aspectRatio"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	Tags        []string `json:"tags"`
	ParentID    *string  `json:"parentId,omitempty"`
}

// JobStatusResult is the caller-observable state of a job.
type JobStatusResult struct {
	JobID     string           `json:"jobId"`
	Status    domain.JobStatus `json:"status"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
	Error     string           `json:"error,omitempty"`
	Image     *ImagePayload    `json:"image,omitempty"`
}

// ListJobs returns the acting user's generation history, newest first.
// Job rows are never deleted, so this is a full audit trail even for
// images removed later.
// Parameters:
//   - ctx: request context.
//   - userID: acting user ID.
//   - limit, offset: pagination.
// Returns:
//   - []domain.GenerationJob: the user's jobs.
//   - error: non-nil if the query fails.
func (s *GenerationService) ListJobs(ctx context.Context, userID string, limit, offset int) ([]domain.GenerationJob, error) {
	limit, offset = clampPage(limit, offset)
	return s.jobs.ListByUser(ctx, userID, limit, offset)
}

// GetStatus returns the observable state of a job. A processing job
// whose last update is older than the stale threshold is reconciled to
// failed here, so a killed background routine cannot strand a job in
// processing forever.
// Parameters:
//   - ctx: request context.
//   - jobID: job ID to look up.
// Returns:
//   - *JobStatusResult: status payload; image present iff completed,
//     error present iff failed.
//   - error: ErrNotFound for unknown ids, or an internal error.
func (s *GenerationService) GetStatus(ctx context.Context, jobID string) (*JobStatusResult, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("job %s: %w", jobID, ErrNotFound)
		}
		return nil, err
	}

	if job.Status == domain.JobStatusProcessing && s.cfg.StaleAfter > 0 {
		cutoff := time.Now().Add(-s.cfg.StaleAfter)
		if job.UpdatedAt.Before(cutoff) {
			reconciled, rerr := s.jobs.FailStaleProcessing(ctx, job.ID, cutoff, "generation timed out")
			if rerr != nil {
				logger.CtxWarn(ctx, "Stale job reconciliation failed: job_id=%s, error=%v", job.ID, rerr)
			} else if reconciled {
				logger.CtxWarn(ctx, "Stale processing job failed by timeout: job_id=%s", job.ID)
				job, err = s.jobs.GetByID(ctx, job.ID)
				if err != nil {
					return nil, err
				}
			}
		}
	}

	result := &JobStatusResult{
		JobID:     job.ID,
		Status:    job.Status,
		CreatedAt: job.CreatedAt,
		UpdatedAt: job.UpdatedAt,
		Error:     job.Error,
	}

	if job.Status == domain.JobStatusCompleted && job.ImageID != nil {
		img, err := s.images.GetByID(ctx, *job.ImageID)
		if err != nil {
			return nil, fmt.Errorf("failed to load result image: %w", err)
		}
		result.Image = &ImagePayload{
			ID:          img.ID,
			URL:         s.urlFor(img.StorageKey),
			AspectRatio: img.AspectRatio,
			Width:       img.Width,
			Height:      img.Height,
			Tags:        img.Tags,
			ParentID:    img.ParentID,
		}
	}

	return result, nil
}
