package inference

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client calls the external diffusion API. The gateway is opaque: a
// structured prompt payload goes in, image bytes come out.
type Client struct {
	client       *resty.Client
	endpoint     string
	fastModel    string
	qualityModel string
}

// Config holds configuration for the inference gateway.
type Config struct {
	BaseURL      string
	APIKey       string
	FastModel    string
	QualityModel string
	Timeout      time.Duration
}

// Request is the structured prompt payload for one generation.
// Optional fields are included only when present.
type Request struct {
	Prompt         string  `json:"prompt"`
	NegativePrompt string  `json:"negative_prompt,omitempty"`
	GuidanceScale  float64 `json:"guidance_scale"`
	Steps          int     `json:"steps"`
	Seed           *int64  `json:"seed,omitempty"`
	Width          int     `json:"width"`
	Height         int     `json:"height"`
}

type generateRequest struct {
	Model string `json:"model"`
	Request
}

// inlineResponse is the JSON response shape: a base64 payload,
// optionally carrying a data-URL header.
type inlineResponse struct {
	Image string `json:"image"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// NewClient creates a new inference gateway client.
// Parameters:
//   - cfg: gateway configuration including models per tier and API key.
// Returns:
//   - *Client: initialized client.
func NewClient(cfg *Config) *Client {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	client.SetTimeout(timeout)

	return &Client{
		client:       client,
		endpoint:     strings.TrimSuffix(cfg.BaseURL, "/") + "/images/generations",
		fastModel:    cfg.FastModel,
		qualityModel: cfg.QualityModel,
	}
}

// ModelFor returns the model used for a quality tier.
func (c *Client) ModelFor(tier string) string {
	if tier == "quality" {
		return c.qualityModel
	}
	return c.fastModel
}

// Generate invokes the diffusion API and normalizes the response into
// raw image bytes. Two response shapes are supported: a raw byte stream
// (image/* content type) and a JSON object carrying a base64 string.
// Any other shape is a fatal error for the calling job.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - tier: quality tier selecting the model.
//   - req: structured prompt payload.
// Returns:
//   - *RawImage: decoded image bytes with content type.
//   - error: non-nil if the API request fails or the shape is unknown.
func (c *Client) Generate(ctx context.Context, tier string, req *Request) (*RawImage, error) {
	body := generateRequest{Model: c.ModelFor(tier), Request: *req}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to call inference API: %w", err)
	}

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, fmt.Errorf("inference API returned error: HTTP %d: %s", resp.StatusCode(), truncate(string(resp.Body()), 200))
	}

	return DecodeResponse(resp.Header().Get("Content-Type"), resp.Body())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
