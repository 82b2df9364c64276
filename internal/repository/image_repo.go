package repository

import (
	"context"
	"fmt"

	"github.com/timmy/mirai/internal/domain"
	"gorm.io/gorm"
)

// ImageRepository handles image data operations.
type ImageRepository struct {
	db *gorm.DB
}

// NewImageRepository creates a new ImageRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *ImageRepository: repository instance bound to db.
func NewImageRepository(db *gorm.DB) *ImageRepository {
	return &ImageRepository{db: db}
}

// CreateWithOwnerCount inserts an image and increments the owner's image
// count in the same transaction.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - image: image record to persist.
// Returns:
//   - error: non-nil if the insert or counter update fails.
func (r *ImageRepository) CreateWithOwnerCount(ctx context.Context, image *domain.Image) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(image).Error; err != nil {
			return err
		}
		return tx.Model(&domain.User{}).
			Where("id = ?", image.UserID).
			Update("image_count", gorm.Expr("image_count + 1")).Error
	})
}

// GetByID retrieves an image by its ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: image ID.
// Returns:
//   - *domain.Image: image record if found.
//   - error: non-nil if lookup fails (gorm.ErrRecordNotFound for unknown ids).
func (r *ImageRepository) GetByID(ctx context.Context, id string) (*domain.Image, error) {
	var image domain.Image
	if err := r.db.WithContext(ctx).First(&image, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &image, nil
}

// DeleteWithOwnerCount removes an image row and decrements the owner's
// image count in the same transaction. The blob is removed separately.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - image: image record to delete.
// Returns:
//   - error: non-nil if the delete or counter update fails.
func (r *ImageRepository) DeleteWithOwnerCount(ctx context.Context, image *domain.Image) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&domain.Image{}, "id = ?", image.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&domain.User{}).
			Where("id = ? AND image_count > 0", image.UserID).
			Update("image_count", gorm.Expr("image_count - 1")).Error
	})
}

// ListByUser retrieves a user's images, newest first, with pagination.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - userID: owner ID.
//   - includePrivate: whether private images are included.
//   - limit: maximum number of records to return.
//   - offset: number of records to skip.
// Returns:
//   - []domain.Image: matching image records.
//   - error: non-nil if the query fails.
func (r *ImageRepository) ListByUser(ctx context.Context, userID string, includePrivate bool, limit, offset int) ([]domain.Image, error) {
	var images []domain.Image
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if !includePrivate {
		query = query.Where("is_private = ?", false)
	}
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}

// ListPublic retrieves public images, newest first, optionally filtered
// by tag, with pagination.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - tag: tag to filter by; empty means all.
//   - limit: maximum number of records to return.
//   - offset: number of records to skip.
// Returns:
//   - []domain.Image: matching image records.
//   - error: non-nil if the query fails.
func (r *ImageRepository) ListPublic(ctx context.Context, tag string, limit, offset int) ([]domain.Image, error) {
	var images []domain.Image
	query := r.db.WithContext(ctx).Where("is_private = ?", false)
	if tag != "" {
		// Tags are stored as a JSON array; match the quoted element
		query = query.Where("tags LIKE ?", fmt.Sprintf("%%%q%%", tag))
	}
	if err := query.
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}

// SearchPublic performs a substring search over prompt and tags of
// public images. Fallback path when semantic search is disabled.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - q: search query.
//   - limit: maximum number of records to return.
//   - offset: number of records to skip.
// Returns:
//   - []domain.Image: matching image records.
//   - error: non-nil if the query fails.
func (r *ImageRepository) SearchPublic(ctx context.Context, q string, limit, offset int) ([]domain.Image, error) {
	var images []domain.Image
	pattern := "%" + q + "%"
	if err := r.db.WithContext(ctx).
		Where("is_private = ?", false).
		Where("prompt LIKE ? OR tags LIKE ?", pattern, pattern).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&images).Error; err != nil {
		return nil, err
	}
	return images, nil
}

// GetByIDs retrieves images by a list of IDs, preserving no particular order.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - ids: list of image IDs.
// Returns:
//   - []domain.Image: matching image records.
//   - error: non-nil if the query fails.
func (r *ImageRepository) GetByIDs(ctx context.Context, ids []string) ([]domain.Image, error) {
	if len(ids) == 0 {
		return []domain.Image{}, nil
	}
	var images []domain.Image
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&images).Error; err != nil {
		return nil, fmt.Errorf("failed to get images by IDs: %w", err)
	}
	return images, nil
}
