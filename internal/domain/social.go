package domain

import "time"

// Like records that a user liked an image. One row per (user, image).
type Like struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	UserID    string    `gorm:"type:text;not null;index:idx_likes_user_image,unique" json:"user_id"`
	ImageID   string    `gorm:"type:text;not null;index:idx_likes_user_image,unique" json:"image_id"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Like.
func (Like) TableName() string {
	return "likes"
}

// Comment is a user comment on an image.
type Comment struct {
	ID        string    `gorm:"type:text;primaryKey" json:"id"`
	UserID    string    `gorm:"type:text;not null;index:idx_comments_user" json:"user_id"`
	ImageID   string    `gorm:"type:text;not null;index:idx_comments_image" json:"image_id"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Comment.
func (Comment) TableName() string {
	return "comments"
}

// Follow records that FollowerID follows FolloweeID.
type Follow struct {
	ID         string    `gorm:"type:text;primaryKey" json:"id"`
	FollowerID string    `gorm:"type:text;not null;index:idx_follows_pair,unique" json:"follower_id"`
	FolloweeID string    `gorm:"type:text;not null;index:idx_follows_pair,unique" json:"followee_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName returns the database table name for Follow.
func (Follow) TableName() string {
	return "follows"
}
