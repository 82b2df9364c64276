package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/timmy/mirai/internal/domain"
	"github.com/timmy/mirai/internal/logger"
	"github.com/timmy/mirai/internal/repository"
	"gorm.io/gorm"
)

// SocialService implements likes, comments, and follows. All mutations
// require an authenticated user; visibility checks mirror the image
// read path (private images only interact with their owner).
type SocialService struct {
	social *repository.SocialRepository
	images *repository.ImageRepository
	users  *repository.UserRepository
}

// NewSocialService creates a new SocialService.
// Parameters:
//   - social: social repository.
//   - images: image repository for visibility checks.
//   - users: user repository for follow target checks.
// Returns:
//   - *SocialService: initialized service.
func NewSocialService(
	social *repository.SocialRepository,
	images *repository.ImageRepository,
	users *repository.UserRepository,
) *SocialService {
	return &SocialService{social: social, images: images, users: users}
}

// visibleImage loads an image and checks the actor may interact with it.
func (s *SocialService) visibleImage(ctx context.Context, userID, imageID string) (*domain.Image, error) {
	img, err := s.images.GetByID(ctx, imageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("image %s: %w", imageID, ErrNotFound)
		}
		return nil, err
	}
	if img.IsPrivate && img.UserID != userID {
		return nil, fmt.Errorf("image is private: %w", ErrForbidden)
	}
	return img, nil
}

// Like records that the user likes an image. Idempotent: liking twice
// is not an error and does not double-count.
// Parameters:
//   - ctx: request context.
//   - userID: acting user ID.
//   - imageID: image to like.
// Returns:
//   - error: ErrNotFound or ErrForbidden from visibility, or an
//     internal error.
func (s *SocialService) Like(ctx context.Context, userID, imageID string) error {
	if _, err := s.visibleImage(ctx, userID, imageID); err != nil {
		return err
	}
	err := s.social.CreateLike(ctx, &domain.Like{
		ID:      uuid.New().String(),
		UserID:  userID,
		ImageID: imageID,
	})
	if errors.Is(err, repository.ErrAlreadyExists) {
		return nil
	}
	return err
}

// Unlike removes the user's like. Idempotent: unliking an image the
// user never liked is not an error.
// Parameters:
//   - ctx: request context.
//   - userID: acting user ID.
//   - imageID: image to unlike.
// Returns:
//   - error: ErrNotFound or ErrForbidden from visibility, or an
//     internal error.
func (s *SocialService) Unlike(ctx context.Context, userID, imageID string) error {
	if _, err := s.visibleImage(ctx, userID, imageID); err != nil {
		return err
	}
	err := s.social.DeleteLike(ctx, userID, imageID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}

// Comment posts a comment on an image.
// Parameters:
//   - ctx: request context.
//   - userID: acting user ID.
//   - imageID: image being commented on.
//   - body: comment text.
// Returns:
//   - *domain.Comment: persisted comment.
//   - error: *ValidationError for empty or oversized bodies, ErrNotFound
//     or ErrForbidden from visibility, or an internal error.
func (s *SocialService) Comment(ctx context.Context, userID, imageID, body string) (*domain.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, validationErrorf("comment body is required")
	}
	if len(body) > MaxCommentLen {
		return nil, validationErrorf("comment exceeds %d characters", MaxCommentLen)
	}
	if _, err := s.visibleImage(ctx, userID, imageID); err != nil {
		return nil, err
	}

	comment := &domain.Comment{
		ID:      uuid.New().String(),
		UserID:  userID,
		ImageID: imageID,
		Body:    body,
	}
	if err := s.social.CreateComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	logger.CtxInfo(ctx, "Comment created: image_id=%s, comment_id=%s", imageID, comment.ID)
	return comment, nil
}

// DeleteComment removes a comment. Allowed for the comment author and
// for the owner of the commented image.
// Parameters:
//   - ctx: request context.
//   - userID: acting user ID.
//   - commentID: comment to delete.
// Returns:
//   - error: ErrNotFound for unknown comments, ErrForbidden when the
//     actor is neither author nor image owner.
func (s *SocialService) DeleteComment(ctx context.Context, userID, commentID string) error {
	comment, err := s.social.GetComment(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("comment %s: %w", commentID, ErrNotFound)
		}
		return err
	}
	if comment.UserID != userID {
		img, err := s.images.GetByID(ctx, comment.ImageID)
		if err != nil || img.UserID != userID {
			return fmt.Errorf("not the comment author or image owner: %w", ErrForbidden)
		}
	}
	return s.social.DeleteComment(ctx, comment)
}

// ListComments returns comments on a visible image, oldest first.
// Parameters:
//   - ctx: request context.
//   - viewerID: acting user ID; may be empty.
//   - imageID: image whose comments to list.
//   - limit, offset: pagination.
// Returns:
//   - []domain.Comment: comments in posting order.
//   - error: ErrNotFound or ErrForbidden from visibility.
func (s *SocialService) ListComments(ctx context.Context, viewerID, imageID string, limit, offset int) ([]domain.Comment, error) {
	if _, err := s.visibleImage(ctx, viewerID, imageID); err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)
	return s.social.ListComments(ctx, imageID, limit, offset)
}

// Follow makes the actor follow another user. Idempotent.
// Parameters:
//   - ctx: request context.
//   - followerID: acting user ID.
//   - followeeID: user to follow.
// Returns:
//   - error: *ValidationError on self-follow, ErrNotFound for unknown
//     targets, or an internal error.
func (s *SocialService) Follow(ctx context.Context, followerID, followeeID string) error {
	if followerID == followeeID {
		return validationErrorf("cannot follow yourself")
	}
	exists, err := s.users.Exists(ctx, followeeID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("user %s: %w", followeeID, ErrNotFound)
	}
	err = s.social.CreateFollow(ctx, &domain.Follow{
		ID:         uuid.New().String(),
		FollowerID: followerID,
		FolloweeID: followeeID,
	})
	if errors.Is(err, repository.ErrAlreadyExists) {
		return nil
	}
	return err
}

// Unfollow removes a follow relation. Idempotent.
// Parameters:
//   - ctx: request context.
//   - followerID: acting user ID.
//   - followeeID: user to unfollow.
// Returns:
//   - error: ErrNotFound for unknown targets, or an internal error.
func (s *SocialService) Unfollow(ctx context.Context, followerID, followeeID string) error {
	exists, err := s.users.Exists(ctx, followeeID)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("user %s: %w", followeeID, ErrNotFound)
	}
	err = s.social.DeleteFollow(ctx, followerID, followeeID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	return err
}
