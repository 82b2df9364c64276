// Package genclient is a small client for the generation API: submit a
// job, then poll its status until it reaches a terminal state.
package genclient

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultPollInterval = 2 * time.Second
	defaultMaxWait      = 5 * time.Minute
)

// StatusPending through StatusFailed mirror the server's job states.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Config holds client configuration.
type Config struct {
	BaseURL      string
	UserID       string        // optional; empty submits anonymously
	PollInterval time.Duration // default 2s
	MaxWait      time.Duration // default 5m
}

// Client talks to the generation API.
type Client struct {
	http     *resty.Client
	interval time.Duration
	maxWait  time.Duration
}

// GenerateRequest is the submission payload.
type GenerateRequest struct {
	Prompt         string   `json:"prompt"`
	NegativePrompt string   `json:"negativePrompt,omitempty"`
	Quality        string   `json:"quality,omitempty"`
	Guidance       float64  `json:"guidance,omitempty"`
	Steps          int      `json:"steps,omitempty"`
	Seed           *int64   `json:"seed,omitempty"`
	AspectRatio    string   `json:"aspectRatio,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	IsPrivate      bool     `json:"isPrivate,omitempty"`
}

// Image is the resolved image portion of a completed job.
type Image struct {
	ID          string   `json:"id"`
	URL         string   `json:"url"`
	AspectRatio string   `json:"aspectRatio"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	Tags        []string `json:"tags"`
	ParentID    *string  `json:"parentId,omitempty"`
}

// JobStatus is one observation of a job's state.
type JobStatus struct {
	JobID  string `json:"jobId"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Image  *Image `json:"image,omitempty"`
}

// Terminal reports whether the job has finished, one way or the other.
func (s *JobStatus) Terminal() bool {
	return s.Status == StatusCompleted || s.Status == StatusFailed
}

type apiError struct {
	Error string `json:"error"`
}

// New creates a new Client.
// Parameters:
//   - cfg: client configuration; zero durations use the defaults.
// Returns:
//   - *Client: initialized client.
func New(cfg *Config) *Client {
	http := resty.New().SetBaseURL(cfg.BaseURL)
	if cfg.UserID != "" {
		http.SetHeader("X-User-ID", cfg.UserID)
	}

	interval := cfg.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	maxWait := cfg.MaxWait
	if maxWait <= 0 {
		maxWait = defaultMaxWait
	}

	return &Client{http: http, interval: interval, maxWait: maxWait}
}

// Submit sends a generation request and returns the accepted job ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - req: generation payload.
// Returns:
//   - string: job ID to poll.
//   - error: non-nil if the submission is rejected or fails.
func (c *Client) Submit(ctx context.Context, req *GenerateRequest) (string, error) {
	var (
		accepted struct {
			JobID  string `json:"jobId"`
			Status string `json:"status"`
		}
		apiErr apiError
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&accepted).
		SetError(&apiErr).
		Post("/api/v1/generate")
	if err != nil {
		return "", fmt.Errorf("failed to submit generation: %w", err)
	}
	if resp.IsError() {
		if apiErr.Error != "" {
			return "", fmt.Errorf("generation rejected: HTTP %d: %s", resp.StatusCode(), apiErr.Error)
		}
		return "", fmt.Errorf("generation rejected: HTTP %d", resp.StatusCode())
	}
	if accepted.JobID == "" {
		return "", fmt.Errorf("server accepted the job but returned no job ID")
	}
	return accepted.JobID, nil
}

// Status fetches the current state of a job.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - jobID: job to look up.
// Returns:
//   - *JobStatus: current observation.
//   - error: non-nil if the lookup fails.
func (c *Client) Status(ctx context.Context, jobID string) (*JobStatus, error) {
	var (
		status JobStatus
		apiErr apiError
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&status).
		SetError(&apiErr).
		Get("/api/v1/generate/status/" + jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch job status: %w", err)
	}
	if resp.IsError() {
		if apiErr.Error != "" {
			return nil, fmt.Errorf("status lookup failed: HTTP %d: %s", resp.StatusCode(), apiErr.Error)
		}
		return nil, fmt.Errorf("status lookup failed: HTTP %d", resp.StatusCode())
	}
	return &status, nil
}

// Wait polls a job until it reaches a terminal state. If the job is
// still running after the max wait, a synthesized failed status is
// returned; the server may still finish the job later.
// Parameters:
//   - ctx: context for cancellation; cancelling stops the poll loop.
//   - jobID: job to wait for.
// Returns:
//   - *JobStatus: terminal (or synthesized) status.
//   - error: non-nil on context cancellation or a failed lookup.
func (c *Client) Wait(ctx context.Context, jobID string) (*JobStatus, error) {
	deadline := time.Now().Add(c.maxWait)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		status, err := c.Status(ctx, jobID)
		if err != nil {
			return nil, err
		}
		if status.Terminal() {
			return status, nil
		}
		if time.Now().After(deadline) {
			return &JobStatus{
				JobID:  jobID,
				Status: StatusFailed,
				Error:  fmt.Sprintf("gave up waiting after %s", c.maxWait),
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Generate submits a request and waits for the outcome.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - req: generation payload.
// Returns:
//   - *JobStatus: terminal (or synthesized) status.
//   - error: non-nil if submission or polling fails.
func (c *Client) Generate(ctx context.Context, req *GenerateRequest) (*JobStatus, error) {
	jobID, err := c.Submit(ctx, req)
	if err != nil {
		return nil, err
	}
	return c.Wait(ctx, jobID)
}
