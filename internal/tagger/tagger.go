package tagger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/mirai/internal/prompts"
)

// Tagger classifies generation prompts into catalog tags using an
// OpenAI-compatible chat completion API. Callers treat it as
// best-effort: a failure here never fails the surrounding job.
type Tagger struct {
	client   *resty.Client
	model    string
	endpoint string
	enabled  bool
}

// Config holds configuration for the tagger.
type Config struct {
	Enabled bool
	Model   string
	APIKey  string
	BaseURL string
}

// OpenAI-compatible Chat Completion API request/response structures
type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// NewTagger creates a new Tagger.
// Parameters:
//   - cfg: tagger configuration including model and API key.
// Returns:
//   - *Tagger: initialized tagger client wrapper.
func NewTagger(cfg *Config) *Tagger {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")
	client.SetTimeout(30 * time.Second)

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	return &Tagger{
		client:   client,
		model:    cfg.Model,
		endpoint: strings.TrimSuffix(baseURL, "/") + "/chat/completions",
		enabled:  cfg.Enabled,
	}
}

// IsEnabled reports whether classification is configured.
func (t *Tagger) IsEnabled() bool {
	return t.enabled
}

// ClassifyPrompt derives catalog tags from a generation prompt.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - prompt: the user's generation prompt.
// Returns:
//   - []string: tags from the fixed vocabulary (may be empty).
//   - error: non-nil if the API request fails.
func (t *Tagger) ClassifyPrompt(ctx context.Context, prompt string) ([]string, error) {
	if !t.enabled {
		return nil, nil
	}

	req := chatRequest{
		Model: t.model,
		Messages: []chatMessage{
			{Role: "system", Content: prompts.TaggerSystemPrompt},
			{
				Role: "user",
				Content: fmt.Sprintf(prompts.TaggerUserPromptTemplate,
					strings.Join(prompts.TagVocabulary, ", "), prompt),
			},
		},
		MaxTokens: 100,
	}

	var resp chatResponse
	httpResp, err := t.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		Post(t.endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to call tagger API: %w", err)
	}

	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		if resp.Error != nil {
			return nil, fmt.Errorf("tagger API returned error: HTTP %d: %s", httpResp.StatusCode(), resp.Error.Message)
		}
		return nil, fmt.Errorf("tagger API returned error: HTTP %d", httpResp.StatusCode())
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("tagger API error: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from tagger API")
	}

	return ParseTagList(resp.Choices[0].Message.Content), nil
}

// ParseTagList parses the model's comma-separated answer, keeping only
// vocabulary tags.
func ParseTagList(answer string) []string {
	vocab := make(map[string]struct{}, len(prompts.TagVocabulary))
	for _, tag := range prompts.TagVocabulary {
		vocab[tag] = struct{}{}
	}

	var tags []string
	for _, part := range strings.Split(answer, ",") {
		tag := strings.ToLower(strings.TrimSpace(part))
		if tag == "" {
			continue
		}
		if _, ok := vocab[tag]; ok {
			tags = append(tags, tag)
		}
	}
	return tags
}
