package service

import (
	"context"
	"strings"

	"github.com/timmy/mirai/internal/domain"
	"github.com/timmy/mirai/internal/logger"
	"github.com/timmy/mirai/internal/repository"
)

// ExploreService serves the public feed and search. Search is semantic
// when a vector index and embedding service are configured, with a
// plain substring fallback otherwise (and whenever the semantic path
// errors, so search degrades instead of failing).
type ExploreService struct {
	images  *repository.ImageRepository
	vectors *repository.VectorRepository // nil when semantic search is disabled
	embed   *EmbeddingService
	render  *ImageService
}

// NewExploreService creates a new ExploreService.
// Parameters:
//   - images: image repository.
//   - vectors: vector repository; nil disables semantic search.
//   - embed: embedding service for query vectors.
//   - render: image service used to resolve listing URLs.
// Returns:
//   - *ExploreService: initialized service.
func NewExploreService(
	images *repository.ImageRepository,
	vectors *repository.VectorRepository,
	embed *EmbeddingService,
	render *ImageService,
) *ExploreService {
	return &ExploreService{images: images, vectors: vectors, embed: embed, render: render}
}

// Feed returns public images, newest first, optionally filtered by tag.
// Parameters:
//   - ctx: request context.
//   - tag: tag filter; empty means all.
//   - limit, offset: pagination.
// Returns:
//   - []ImageView: resolved image representations.
//   - error: non-nil if the query fails.
func (s *ExploreService) Feed(ctx context.Context, tag string, limit, offset int) ([]ImageView, error) {
	limit, offset = clampPage(limit, offset)
	images, err := s.images.ListPublic(ctx, strings.ToLower(strings.TrimSpace(tag)), limit, offset)
	if err != nil {
		return nil, err
	}
	return s.render.toViews(images), nil
}

// Search finds public images matching a free-text query.
// Parameters:
//   - ctx: request context.
//   - q: search query.
//   - limit, offset: pagination.
// Returns:
//   - []ImageView: resolved image representations, best match first on
//     the semantic path, newest first on the fallback.
//   - error: *ValidationError for empty queries; non-nil if both paths
//     fail.
func (s *ExploreService) Search(ctx context.Context, q string, limit, offset int) ([]ImageView, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, validationErrorf("search query is required")
	}
	limit, offset = clampPage(limit, offset)

	if s.vectors != nil && s.embed != nil {
		views, err := s.semanticSearch(ctx, q, limit, offset)
		if err == nil {
			return views, nil
		}
		logger.CtxWarn(ctx, "Semantic search failed, falling back to substring: error=%v", err)
	}

	images, err := s.images.SearchPublic(ctx, q, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.render.toViews(images), nil
}

// semanticSearch embeds the query, searches the vector index, and
// hydrates the hits from the database in score order. Hits whose rows
// are gone (deleted images) or turned private are dropped.
func (s *ExploreService) semanticSearch(ctx context.Context, q string, limit, offset int) ([]ImageView, error) {
	vector, err := s.embed.EmbedQuery(ctx, q)
	if err != nil {
		return nil, err
	}

	hits, err := s.vectors.Search(ctx, vector, limit+offset)
	if err != nil {
		return nil, err
	}
	if offset >= len(hits) {
		return []ImageView{}, nil
	}
	hits = hits[offset:]

	ids := make([]string, 0, len(hits))
	for _, hit := range hits {
		ids = append(ids, hit.ImageID)
	}
	images, err := s.images.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*domain.Image, len(images))
	for i := range images {
		byID[images[i].ID] = &images[i]
	}

	ordered := make([]domain.Image, 0, len(hits))
	for _, hit := range hits {
		img, ok := byID[hit.ImageID]
		if !ok || img.IsPrivate {
			continue
		}
		ordered = append(ordered, *img)
	}
	return s.render.toViews(ordered), nil
}
