package domain

import "time"

// User represents an account, either authenticated (provisioned by the
// surrounding platform) or synthesized for an anonymous submission so
// that every job has an owner reference. ImageCount, FollowerCount and
// FollowingCount are denormalized counters.
type User struct {
	ID             string    `gorm:"type:text;primaryKey" json:"id"`
	Username       string    `gorm:"type:text;uniqueIndex:idx_users_username" json:"username"`
	DisplayName    string    `gorm:"type:text" json:"display_name,omitempty"`
	AvatarURL      string    `gorm:"type:text" json:"avatar_url,omitempty"`
	Bio            string    `gorm:"type:text" json:"bio,omitempty"`
	IsAnonymous    bool      `gorm:"default:false" json:"is_anonymous"`
	ImageCount     int       `gorm:"default:0" json:"image_count"`
	FollowerCount  int       `gorm:"default:0" json:"follower_count"`
	FollowingCount int       `gorm:"default:0" json:"following_count"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName returns the database table name for User.
func (User) TableName() string {
	return "users"
}
