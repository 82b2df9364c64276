package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// StringArray is a custom type for storing string arrays as JSON in the database.
type StringArray []string

// Value implements the driver.Valuer interface for database serialization.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
// Parameters:
//   - value: raw database value to decode.
// Returns:
//   - error: non-nil if decoding fails or the type is unexpected.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan StringArray")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, a)
}

// Image represents a durable generated artifact. Created exactly once
// by the orchestrator on successful job completion; deleted only by
// explicit owner action. ParentID forms a non-cyclic remix chain (root
// images have no parent). LikeCount and CommentCount are denormalized
// counters maintained alongside the owning writes.
type Image struct {
	ID             string      `gorm:"type:text;primaryKey" json:"id"`
	UserID         string      `gorm:"type:text;not null;index:idx_images_user" json:"user_id"`
	StorageKey     string      `gorm:"type:text;not null" json:"storage_key"`
	FileSize       int64       `json:"file_size"`
	SHA256Hash     string      `gorm:"type:text;index:idx_images_sha256" json:"sha256_hash"`
	ContentType    string      `gorm:"type:text" json:"content_type"`
	Width          int         `json:"width"`
	Height         int         `json:"height"`
	Prompt         string      `gorm:"type:text;not null" json:"prompt"`
	NegativePrompt string      `gorm:"type:text" json:"negative_prompt,omitempty"`
	Model          string      `gorm:"type:text" json:"model"`
	Guidance       float64     `json:"guidance"`
	Steps          int         `json:"steps"`
	Seed           *int64      `json:"seed,omitempty"`
	AspectRatio    string      `gorm:"type:text" json:"aspect_ratio"`
	Tags           StringArray `gorm:"type:text" json:"tags"`
	IsPrivate      bool        `gorm:"default:false;index:idx_images_private" json:"is_private"`
	ParentID       *string     `gorm:"type:text;index:idx_images_parent" json:"parent_id,omitempty"`
	LikeCount      int         `gorm:"default:0" json:"like_count"`
	CommentCount   int         `gorm:"default:0" json:"comment_count"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// TableName returns the database table name for Image.
func (Image) TableName() string {
	return "images"
}
