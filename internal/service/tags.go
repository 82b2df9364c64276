package service

import "strings"

// MergeTags merges user-supplied tags with classifier-derived tags,
// deduplicated case-insensitively with user tags taking precedence,
// capped at max total.
// Parameters:
//   - userTags: tags supplied on the generation request.
//   - derivedTags: tags from the prompt classifier (may be nil).
//   - max: maximum number of tags kept.
// Returns:
//   - []string: normalized merged tag list.
func MergeTags(userTags, derivedTags []string, max int) []string {
	seen := make(map[string]struct{}, len(userTags)+len(derivedTags))
	merged := make([]string, 0, max)

	add := func(tags []string) {
		for _, tag := range tags {
			if len(merged) >= max {
				return
			}
			normalized := strings.ToLower(strings.TrimSpace(tag))
			if normalized == "" {
				continue
			}
			if _, ok := seen[normalized]; ok {
				continue
			}
			seen[normalized] = struct{}{}
			merged = append(merged, normalized)
		}
	}

	add(userTags)
	add(derivedTags)
	return merged
}
