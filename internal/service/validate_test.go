package service

import (
	"strings"
	"testing"

	"github.com/timmy/mirai/internal/domain"
)

func validParams() *GenerateParams {
	return &GenerateParams{
		Prompt:      "a silver-haired mage with glowing runes",
		Quality:     domain.TierFast,
		Guidance:    7.5,
		Steps:       28,
		AspectRatio: "1:1",
	}
}

func TestValidateParamsAccepted(t *testing.T) {
	seed := int64(42)
	params := validParams()
	params.Seed = &seed
	params.NegativePrompt = "blurry, extra fingers"
	params.Tags = []string{"fantasy", "mage"}

	if err := ValidateParams(params); err != nil {
		t.Fatalf("expected valid params, got %v", err)
	}
}

func TestValidateParamsRejected(t *testing.T) {
	negSeed := int64(-1)
	hugeSeed := int64(MaxSeed) + 1

	tests := []struct {
		name   string
		mutate func(p *GenerateParams)
	}{
		{"empty prompt", func(p *GenerateParams) { p.Prompt = "" }},
		{"prompt too long", func(p *GenerateParams) { p.Prompt = strings.Repeat("a", MaxPromptLen+1) }},
		{"negative prompt too long", func(p *GenerateParams) { p.NegativePrompt = strings.Repeat("b", MaxNegativeLen+1) }},
		{"unknown quality tier", func(p *GenerateParams) { p.Quality = "ultra" }},
		{"guidance zero", func(p *GenerateParams) { p.Guidance = 0 }},
		{"guidance below minimum", func(p *GenerateParams) { p.Guidance = 0.5 }},
		{"guidance above maximum", func(p *GenerateParams) { p.Guidance = 30.1 }},
		{"steps zero", func(p *GenerateParams) { p.Steps = 0 }},
		{"steps above maximum", func(p *GenerateParams) { p.Steps = MaxSteps + 1 }},
		{"negative seed", func(p *GenerateParams) { p.Seed = &negSeed }},
		{"seed above maximum", func(p *GenerateParams) { p.Seed = &hugeSeed }},
		{"unsupported aspect ratio", func(p *GenerateParams) { p.AspectRatio = "4:3" }},
		{"too many tags", func(p *GenerateParams) { p.Tags = make([]string, MaxUserTags+1) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := validParams()
			tt.mutate(params)
			err := ValidateParams(params)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			if !IsValidationError(err) {
				t.Fatalf("expected ValidationError, got %T: %v", err, err)
			}
		})
	}
}

func TestDimensionsFor(t *testing.T) {
	tests := []struct {
		ratio  string
		width  int
		height int
	}{
		{"1:1", 1024, 1024},
		{"2:3", 832, 1248},
		{"3:2", 1248, 832},
		{"9:16", 768, 1344},
		{"16:9", 1344, 768},
	}
	for _, tt := range tests {
		w, h, ok := DimensionsFor(tt.ratio)
		if !ok {
			t.Fatalf("DimensionsFor(%q) not supported", tt.ratio)
		}
		if w != tt.width || h != tt.height {
			t.Errorf("DimensionsFor(%q) = %dx%d, want %dx%d", tt.ratio, w, h, tt.width, tt.height)
		}
	}

	if _, _, ok := DimensionsFor("21:9"); ok {
		t.Error("expected 21:9 to be unsupported")
	}
}

func TestClampPage(t *testing.T) {
	tests := []struct {
		limit, offset         int
		wantLimit, wantOffset int
	}{
		{0, 0, 20, 0},
		{-5, -3, 20, 0},
		{50, 10, 50, 10},
		{500, 0, 100, 0},
	}
	for _, tt := range tests {
		limit, offset := clampPage(tt.limit, tt.offset)
		if limit != tt.wantLimit || offset != tt.wantOffset {
			t.Errorf("clampPage(%d, %d) = (%d, %d), want (%d, %d)",
				tt.limit, tt.offset, limit, offset, tt.wantLimit, tt.wantOffset)
		}
	}
}
