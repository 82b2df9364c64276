package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/timmy/mirai/internal/domain"
	"github.com/timmy/mirai/internal/repository"
	"gorm.io/gorm"
)

// ProfileUpdate carries the mutable profile fields. Nil means "leave
// unchanged".
type ProfileUpdate struct {
	DisplayName *string
	AvatarURL   *string
	Bio         *string
}

// UserService exposes profile reads and updates plus per-user listings.
type UserService struct {
	users  *repository.UserRepository
	images *repository.ImageRepository
	render *ImageService
}

// NewUserService creates a new UserService.
// Parameters:
//   - users: user repository.
//   - images: image repository for per-user listings.
//   - render: image service used to resolve listing URLs.
// Returns:
//   - *UserService: initialized service.
func NewUserService(users *repository.UserRepository, images *repository.ImageRepository, render *ImageService) *UserService {
	return &UserService{users: users, images: images, render: render}
}

// GetProfile retrieves a user's public profile.
// Parameters:
//   - ctx: request context.
//   - userID: user ID.
// Returns:
//   - *domain.User: profile record.
//   - error: ErrNotFound for unknown ids.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return nil, err
	}
	return user, nil
}

// UpdateProfile updates the acting user's own profile fields.
// Parameters:
//   - ctx: request context.
//   - userID: acting user ID.
//   - update: fields to change; nil fields are untouched.
// Returns:
//   - *domain.User: profile after the update.
//   - error: *ValidationError for oversized fields, ErrNotFound for
//     unknown users.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, update *ProfileUpdate) (*domain.User, error) {
	if _, err := s.GetProfile(ctx, userID); err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if update.DisplayName != nil {
		name := strings.TrimSpace(*update.DisplayName)
		if len(name) > 100 {
			return nil, validationErrorf("display name exceeds 100 characters")
		}
		fields["display_name"] = name
	}
	if update.AvatarURL != nil {
		fields["avatar_url"] = strings.TrimSpace(*update.AvatarURL)
	}
	if update.Bio != nil {
		if len(*update.Bio) > 500 {
			return nil, validationErrorf("bio exceeds 500 characters")
		}
		fields["bio"] = *update.Bio
	}
	if len(fields) > 0 {
		if err := s.users.UpdateProfile(ctx, userID, fields); err != nil {
			return nil, fmt.Errorf("failed to update profile: %w", err)
		}
	}
	return s.GetProfile(ctx, userID)
}

// ListImages returns a user's gallery, newest first. Private images are
// included only when the viewer is the owner.
// Parameters:
//   - ctx: request context.
//   - viewerID: acting user ID; may be empty.
//   - userID: gallery owner.
//   - limit, offset: pagination.
// Returns:
//   - []ImageView: resolved image representations.
//   - error: ErrNotFound for unknown owners.
func (s *UserService) ListImages(ctx context.Context, viewerID, userID string, limit, offset int) ([]ImageView, error) {
	if _, err := s.GetProfile(ctx, userID); err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)
	images, err := s.images.ListByUser(ctx, userID, viewerID == userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.render.toViews(images), nil
}
