package repository

import (
	"context"
	"errors"

	"github.com/timmy/mirai/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrAlreadyExists is returned when a unique social relation (like,
// follow) already exists for the acting user.
var ErrAlreadyExists = errors.New("relation already exists")

// SocialRepository handles likes, comments, and follows. Every mutation
// maintains the corresponding denormalized counter in the same
// transaction so the fast read path never recomputes aggregates.
type SocialRepository struct {
	db *gorm.DB
}

// NewSocialRepository creates a new SocialRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *SocialRepository: repository instance bound to db.
func NewSocialRepository(db *gorm.DB) *SocialRepository {
	return &SocialRepository{db: db}
}

// CreateLike inserts a like and increments the image's like count.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - like: like record to persist.
// Returns:
//   - error: ErrAlreadyExists if the user already liked the image;
//     otherwise non-nil if the insert or counter update fails.
func (r *SocialRepository) CreateLike(ctx context.Context, like *domain.Like) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(like)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyExists
		}
		return tx.Model(&domain.Image{}).
			Where("id = ?", like.ImageID).
			Update("like_count", gorm.Expr("like_count + 1")).Error
	})
}

// DeleteLike removes a like and decrements the image's like count.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - userID: liking user ID.
//   - imageID: liked image ID.
// Returns:
//   - error: gorm.ErrRecordNotFound if no like exists; otherwise non-nil
//     if the delete or counter update fails.
func (r *SocialRepository) DeleteLike(ctx context.Context, userID, imageID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&domain.Like{}, "user_id = ? AND image_id = ?", userID, imageID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&domain.Image{}).
			Where("id = ? AND like_count > 0", imageID).
			Update("like_count", gorm.Expr("like_count - 1")).Error
	})
}

// HasLiked checks whether the user already liked the image.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - userID: user ID.
//   - imageID: image ID.
// Returns:
//   - bool: true if a like exists.
//   - error: non-nil if the lookup fails.
func (r *SocialRepository) HasLiked(ctx context.Context, userID, imageID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Like{}).
		Where("user_id = ? AND image_id = ?", userID, imageID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateComment inserts a comment and increments the image's comment count.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - comment: comment record to persist.
// Returns:
//   - error: non-nil if the insert or counter update fails.
func (r *SocialRepository) CreateComment(ctx context.Context, comment *domain.Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return tx.Model(&domain.Image{}).
			Where("id = ?", comment.ImageID).
			Update("comment_count", gorm.Expr("comment_count + 1")).Error
	})
}

// GetComment retrieves a comment by ID.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - id: comment ID.
// Returns:
//   - *domain.Comment: comment record if found.
//   - error: non-nil if lookup fails (gorm.ErrRecordNotFound for unknown ids).
func (r *SocialRepository) GetComment(ctx context.Context, id string) (*domain.Comment, error) {
	var comment domain.Comment
	if err := r.db.WithContext(ctx).First(&comment, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

// DeleteComment removes a comment and decrements the image's comment count.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - comment: comment record to delete.
// Returns:
//   - error: non-nil if the delete or counter update fails.
func (r *SocialRepository) DeleteComment(ctx context.Context, comment *domain.Comment) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&domain.Comment{}, "id = ?", comment.ID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Model(&domain.Image{}).
			Where("id = ? AND comment_count > 0", comment.ImageID).
			Update("comment_count", gorm.Expr("comment_count - 1")).Error
	})
}

// ListComments retrieves comments on an image, oldest first, with pagination.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - imageID: image ID.
//   - limit: maximum number of records to return.
//   - offset: number of records to skip.
// Returns:
//   - []domain.Comment: matching comment records.
//   - error: non-nil if the query fails.
func (r *SocialRepository) ListComments(ctx context.Context, imageID string, limit, offset int) ([]domain.Comment, error) {
	var comments []domain.Comment
	if err := r.db.WithContext(ctx).
		Where("image_id = ?", imageID).
		Order("created_at ASC").
		Limit(limit).
		Offset(offset).
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}

// CreateFollow inserts a follow relation and updates both users' counters.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - follow: follow record to persist.
// Returns:
//   - error: ErrAlreadyExists if the relation exists; otherwise non-nil
//     if the insert or counter updates fail.
func (r *SocialRepository) CreateFollow(ctx context.Context, follow *domain.Follow) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(follow)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrAlreadyExists
		}
		if err := tx.Model(&domain.User{}).
			Where("id = ?", follow.FolloweeID).
			Update("follower_count", gorm.Expr("follower_count + 1")).Error; err != nil {
			return err
		}
		return tx.Model(&domain.User{}).
			Where("id = ?", follow.FollowerID).
			Update("following_count", gorm.Expr("following_count + 1")).Error
	})
}

// DeleteFollow removes a follow relation and updates both users' counters.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - followerID: following user ID.
//   - followeeID: followed user ID.
// Returns:
//   - error: gorm.ErrRecordNotFound if no relation exists; otherwise
//     non-nil if the delete or counter updates fail.
func (r *SocialRepository) DeleteFollow(ctx context.Context, followerID, followeeID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&domain.Follow{}, "follower_id = ? AND followee_id = ?", followerID, followeeID)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		if err := tx.Model(&domain.User{}).
			Where("id = ? AND follower_count > 0", followeeID).
			Update("follower_count", gorm.Expr("follower_count - 1")).Error; err != nil {
			return err
		}
		return tx.Model(&domain.User{}).
			Where("id = ? AND following_count > 0", followerID).
			Update("following_count", gorm.Expr("following_count - 1")).Error
	})
}
