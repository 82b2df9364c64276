package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/timmy/mirai/internal/domain"
	"github.com/timmy/mirai/internal/logger"
	"github.com/timmy/mirai/internal/repository"
	"github.com/timmy/mirai/internal/storage"
	"gorm.io/gorm"
)

// ImageView is the external representation of an image, with the
// storage key resolved to a fetchable URL.
type ImageView struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	URL          string    `json:"url"`
	Prompt       string    `json:"prompt"`
	Model        string    `json:"model"`
	AspectRatio  string    `json:"aspectRatio"`
	Width        int       `json:"width"`
	Height       int       `json:"height"`
	Tags         []string  `json:"tags"`
	IsPrivate    bool      `json:"isPrivate"`
	ParentID     *string   `json:"parentId,omitempty"`
	LikeCount    int       `json:"likeCount"`
	CommentCount int       `json:"commentCount"`
	Liked        bool      `json:"liked"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ImageService exposes read and delete operations on generated images.
type ImageService struct {
	images  *repository.ImageRepository
	social  *repository.SocialRepository
	store   storage.ObjectStorage
	vectors *repository.VectorRepository // nil when semantic indexing is disabled
	urlFor  URLResolver
}

// NewImageService creates a new ImageService.
// Parameters:
//   - images: image repository.
//   - social: social repository for like lookups.
//   - store: blob storage holding the image bytes.
//   - vectors: vector repository; nil disables index cleanup.
//   - urlFor: storage key to public URL resolver.
// Returns:
//   - *ImageService: initialized service.
func NewImageService(
	images *repository.ImageRepository,
	social *repository.SocialRepository,
	store storage.ObjectStorage,
	vectors *repository.VectorRepository,
	urlFor URLResolver,
) *ImageService {
	return &ImageService{
		images:  images,
		social:  social,
		store:   store,
		vectors: vectors,
		urlFor:  urlFor,
	}
}

// Get retrieves an image visible to the viewer. Private images are
// visible to their owner only; to anyone else they are indistinguishable
// from images that don't exist.
// Parameters:
//   - ctx: request context.
//   - viewerID: acting user ID; may be empty for anonymous viewers.
//   - imageID: image ID.
// Returns:
//   - *ImageView: resolved image representation.
//   - error: ErrNotFound for unknown ids and hidden private images.
func (s *ImageService) Get(ctx context.Context, viewerID, imageID string) (*ImageView, error) {
	img, err := s.images.GetByID(ctx, imageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("image %s: %w", imageID, ErrNotFound)
		}
		return nil, err
	}
	if img.IsPrivate && img.UserID != viewerID {
		return nil, fmt.Errorf("image %s: %w", imageID, ErrNotFound)
	}
	return s.toView(ctx, viewerID, img), nil
}

// Delete removes an image the acting user owns: the database row, the
// stored blob, and the search index entry. Blob and index removal are
// best-effort once the row is gone.
// Parameters:
//   - ctx: request context.
//   - userID: acting user ID.
//   - imageID: image ID.
// Returns:
//   - error: ErrNotFound for unknown ids, ErrForbidden when not owner.
func (s *ImageService) Delete(ctx context.Context, userID, imageID string) error {
	img, err := s.images.GetByID(ctx, imageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("image %s: %w", imageID, ErrNotFound)
		}
		return err
	}
	if img.UserID != userID {
		return fmt.Errorf("not the image owner: %w", ErrForbidden)
	}

	if err := s.images.DeleteWithOwnerCount(ctx, img); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("image %s: %w", imageID, ErrNotFound)
		}
		return fmt.Errorf("failed to delete image record: %w", err)
	}

	if err := s.store.Delete(ctx, img.StorageKey); err != nil {
		logger.CtxWarn(ctx, "Blob deletion failed: image_id=%s, key=%s, error=%v", img.ID, img.StorageKey, err)
	}
	if s.vectors != nil {
		if err := s.vectors.Delete(ctx, img.ID); err != nil {
			logger.CtxWarn(ctx, "Index deletion failed: image_id=%s, error=%v", img.ID, err)
		}
	}

	logger.CtxInfo(ctx, "Image deleted: image_id=%s", img.ID)
	return nil
}

// toView resolves an image record into its external representation,
// including whether the viewer has liked it.
func (s *ImageService) toView(ctx context.Context, viewerID string, img *domain.Image) *ImageView {
	liked := false
	if viewerID != "" {
		var err error
		liked, err = s.social.HasLiked(ctx, viewerID, img.ID)
		if err != nil {
			logger.CtxWarn(ctx, "Like lookup failed: image_id=%s, error=%v", img.ID, err)
			liked = false
		}
	}
	return &ImageView{
		ID:           img.ID,
		UserID:       img.UserID,
		URL:          s.urlFor(img.StorageKey),
		Prompt:       img.Prompt,
		Model:        img.Model,
		AspectRatio:  img.AspectRatio,
		Width:        img.Width,
		Height:       img.Height,
		Tags:         img.Tags,
		IsPrivate:    img.IsPrivate,
		ParentID:     img.ParentID,
		LikeCount:    img.LikeCount,
		CommentCount: img.CommentCount,
		Liked:        liked,
		CreatedAt:    img.CreatedAt,
	}
}

// toViews maps a slice of image records without per-image like lookups;
// used by listing endpoints where the extra queries are not worth it.
func (s *ImageService) toViews(images []domain.Image) []ImageView {
	views := make([]ImageView, 0, len(images))
	for i := range images {
		img := &images[i]
		views = append(views, ImageView{
			ID:           img.ID,
			UserID:       img.UserID,
			URL:          s.urlFor(img.StorageKey),
			Prompt:       img.Prompt,
			Model:        img.Model,
			AspectRatio:  img.AspectRatio,
			Width:        img.Width,
			Height:       img.Height,
			Tags:         img.Tags,
			IsPrivate:    img.IsPrivate,
			ParentID:     img.ParentID,
			LikeCount:    img.LikeCount,
			CommentCount: img.CommentCount,
			CreatedAt:    img.CreatedAt,
		})
	}
	return views
}
