package service

import (
	"github.com/timmy/mirai/internal/domain"
)

// Documented parameter ranges for generation requests.
const (
	MinGuidance     = 1.0
	MaxGuidance     = 30.0
	MinSteps        = 1
	MaxSteps        = 50
	MaxSeed         = 1<<31 - 1
	MaxPromptLen    = 1000
	MaxNegativeLen  = 500
	MaxUserTags     = 10
	MaxTagsPerImage = 15
	MaxCommentLen   = 500
)

// GenerateParams is the validated input for one generation request.
type GenerateParams struct {
	Prompt         string
	NegativePrompt string
	Quality        domain.QualityTier
	Guidance       float64
	Steps          int
	Seed           *int64
	AspectRatio    string
	Tags           []string
	IsPrivate      bool
}

// aspectRatioDims maps each supported aspect-ratio tag to fixed pixel
// dimensions.
var aspectRatioDims = map[string][2]int{
	"1:1":  {1024, 1024},
	"2:3":  {832, 1248},
	"3:2":  {1248, 832},
	"9:16": {768, 1344},
	"16:9": {1344, 768},
}

// DimensionsFor resolves an aspect-ratio tag to pixel dimensions.
// Parameters:
//   - aspectRatio: aspect-ratio tag.
// Returns:
//   - int: width in pixels.
//   - int: height in pixels.
//   - bool: false if the tag is not supported.
func DimensionsFor(aspectRatio string) (int, int, bool) {
	dims, ok := aspectRatioDims[aspectRatio]
	if !ok {
		return 0, 0, false
	}
	return dims[0], dims[1], true
}

// ValidateParams checks a generation request against the documented
// ranges. Returns a *ValidationError describing the first violation.
func ValidateParams(p *GenerateParams) error {
	if p.Prompt == "" {
		return validationErrorf("prompt is required")
	}
	if len(p.Prompt) > MaxPromptLen {
		return validationErrorf("prompt exceeds %d characters", MaxPromptLen)
	}
	if len(p.NegativePrompt) > MaxNegativeLen {
		return validationErrorf("negative prompt exceeds %d characters", MaxNegativeLen)
	}
	if p.Quality != domain.TierFast && p.Quality != domain.TierQuality {
		return validationErrorf("quality must be %q or %q", domain.TierFast, domain.TierQuality)
	}
	if p.Guidance < MinGuidance || p.Guidance > MaxGuidance {
		return validationErrorf("guidance must be between %g and %g", MinGuidance, MaxGuidance)
	}
	if p.Steps < MinSteps || p.Steps > MaxSteps {
		return validationErrorf("steps must be between %d and %d", MinSteps, MaxSteps)
	}
	if p.Seed != nil && (*p.Seed < 0 || *p.Seed > MaxSeed) {
		return validationErrorf("seed must be between 0 and %d", MaxSeed)
	}
	if _, _, ok := DimensionsFor(p.AspectRatio); !ok {
		return validationErrorf("unsupported aspect ratio %q", p.AspectRatio)
	}
	if len(p.Tags) > MaxUserTags {
		return validationErrorf("at most %d tags allowed", MaxUserTags)
	}
	return nil
}

// clampPage normalizes pagination inputs to sane bounds.
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
