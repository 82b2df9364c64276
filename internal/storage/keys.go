package storage

import (
	"fmt"
	"time"
)

// GeneratedImageKey builds the storage key for a generated image:
// generated/YYYY/MM/DD/<imageID>.<ext>. Namespacing by date keeps
// bucket listings and lifecycle rules manageable.
func GeneratedImageKey(imageID, ext string, now time.Time) string {
	return fmt.Sprintf("generated/%s/%s.%s", now.UTC().Format("2006/01/02"), imageID, ext)
}

// ExtForContentType maps an image MIME type to a file extension.
func ExtForContentType(contentType string) string {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return "png"
	}
}
