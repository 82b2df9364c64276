package handler

import (
	"encoding/json"
	"testing"

	"github.com/timmy/mirai/internal/domain"
	"github.com/timmy/mirai/internal/service"
)

func decodeRequest(t *testing.T, body string) *generateRequest {
	t.Helper()
	var req generateRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("failed to decode request: %v", err)
	}
	return &req
}

func TestToParamsDefaultsAbsentFields(t *testing.T) {
	req := decodeRequest(t, `{"prompt":"a knight under cherry blossoms"}`)
	params := req.toParams()

	if params.Quality != domain.TierFast {
		t.Errorf("quality = %q, want %q", params.Quality, domain.TierFast)
	}
	if params.Guidance != defaultGuidance {
		t.Errorf("guidance = %v, want %v", params.Guidance, defaultGuidance)
	}
	if params.Steps != defaultSteps {
		t.Errorf("steps = %d, want %d", params.Steps, defaultSteps)
	}
	if params.AspectRatio != "1:1" {
		t.Errorf("aspectRatio = %q, want 1:1", params.AspectRatio)
	}
	if err := service.ValidateParams(params); err != nil {
		t.Errorf("defaulted params failed validation: %v", err)
	}
}

func TestToParamsKeepsExplicitZeroValues(t *testing.T) {
	// An explicit 0 is out-of-range input, not a request for the
	// default; it must reach validation and be rejected there.
	tests := []struct {
		name string
		body string
	}{
		{"guidance zero", `{"prompt":"x","guidance":0}`},
		{"steps zero", `{"prompt":"x","steps":0}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := decodeRequest(t, tt.body)
			params := req.toParams()
			err := service.ValidateParams(params)
			if err == nil {
				t.Fatal("explicit zero passed validation")
			}
			if !service.IsValidationError(err) {
				t.Fatalf("expected ValidationError, got %T: %v", err, err)
			}
		})
	}
}

func TestToParamsPassesSuppliedValues(t *testing.T) {
	req := decodeRequest(t, `{"prompt":"x","quality":"quality","guidance":12.5,"steps":40,"seed":7,"aspectRatio":"16:9"}`)
	params := req.toParams()

	if params.Quality != domain.TierQuality {
		t.Errorf("quality = %q, want %q", params.Quality, domain.TierQuality)
	}
	if params.Guidance != 12.5 {
		t.Errorf("guidance = %v, want 12.5", params.Guidance)
	}
	if params.Steps != 40 {
		t.Errorf("steps = %d, want 40", params.Steps)
	}
	if params.Seed == nil || *params.Seed != 7 {
		t.Errorf("seed = %v, want 7", params.Seed)
	}
	if params.AspectRatio != "16:9" {
		t.Errorf("aspectRatio = %q, want 16:9", params.AspectRatio)
	}
}
