package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/timmy/mirai/internal/api/middleware"
	"github.com/timmy/mirai/internal/domain"
	"github.com/timmy/mirai/internal/service"
)

// GenerateHandler handles generation submission and status polling.
type GenerateHandler struct {
	generation *service.GenerationService
}

// NewGenerateHandler creates a new generation handler.
// Parameters:
//   - generation: generation service instance.
// Returns:
//   - *GenerateHandler: initialized handler.
func NewGenerateHandler(generation *service.GenerationService) *GenerateHandler {
	return &GenerateHandler{generation: generation}
}

// generateRequest is the submission body. Absent optional fields fall
// back to the documented defaults; supplied values pass through
// untouched, so an explicit out-of-range zero still fails validation.
type generateRequest struct {
	Prompt         string   `json:"prompt"`
	NegativePrompt string   `json:"negativePrompt"`
	Quality        string   `json:"quality"`
	Guidance       *float64 `json:"guidance"`
	Steps          *int     `json:"steps"`
	Seed           *int64   `json:"seed"`
	AspectRatio    string   `json:"aspectRatio"`
	Tags           []string `json:"tags"`
	IsPrivate      bool     `json:"isPrivate"`
	ParentImageID  string   `json:"parentImageId"`
}

const (
	defaultGuidance = 7.5
	defaultSteps    = 28
)

func (r *generateRequest) toParams() *service.GenerateParams {
	quality := r.Quality
	if quality == "" {
		quality = string(domain.TierFast)
	}
	guidance := defaultGuidance
	if r.Guidance != nil {
		guidance = *r.Guidance
	}
	steps := defaultSteps
	if r.Steps != nil {
		steps = *r.Steps
	}
	aspectRatio := r.AspectRatio
	if aspectRatio == "" {
		aspectRatio = "1:1"
	}
	return &service.GenerateParams{
		Prompt:         r.Prompt,
		NegativePrompt: r.NegativePrompt,
		Quality:        domain.QualityTier(quality),
		Guidance:       guidance,
		Steps:          steps,
		Seed:           r.Seed,
		AspectRatio:    aspectRatio,
		Tags:           r.Tags,
		IsPrivate:      r.IsPrivate,
	}
}

// submitResponse acknowledges an accepted job.
type submitResponse struct {
	JobID   string `json:"jobId"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Submit handles POST /api/v1/generate.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *GenerateHandler) Submit(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body: " + err.Error(),
		})
		return
	}

	ident := service.Identity{
		UserID:   middleware.UserID(c),
		ClientIP: c.ClientIP(),
	}
	job, err := h.generation.Submit(c.Request.Context(), ident, req.toParams())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, submitResponse{
		JobID:   job.ID,
		Status:  string(job.Status),
		Message: "Generation started, poll the status endpoint for the result",
	})
}

// Remix handles POST /api/v1/images/remix.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *GenerateHandler) Remix(c *gin.Context) {
	userID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body: " + err.Error(),
		})
		return
	}
	if req.ParentImageID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "parentImageId is required",
		})
		return
	}

	ident := service.Identity{UserID: userID, ClientIP: c.ClientIP()}
	job, err := h.generation.SubmitRemix(c.Request.Context(), ident, req.toParams(), req.ParentImageID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, submitResponse{
		JobID:   job.ID,
		Status:  string(job.Status),
		Message: "Remix started, poll the status endpoint for the result",
	})
}

// ListJobs handles GET /api/v1/generate/jobs.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *GenerateHandler) ListJobs(c *gin.Context) {
	userID, ok := middleware.RequireUser(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	jobs, err := h.generation.ListJobs(c.Request.Context(), userID, limit, offset)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// Status handles GET /api/v1/generate/status/:jobId.
// Parameters:
//   - c: Gin request context.
// Returns: none (writes JSON response).
func (h *GenerateHandler) Status(c *gin.Context) {
	jobID := c.Param("jobId")
	if jobID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Job ID is required",
		})
		return
	}

	result, err := h.generation.GetStatus(c.Request.Context(), jobID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
