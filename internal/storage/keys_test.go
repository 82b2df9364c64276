package storage

import (
	"testing"
	"time"
)

func TestGeneratedImageKey(t *testing.T) {
	now := time.Date(2026, 3, 7, 23, 59, 0, 0, time.UTC)
	key := GeneratedImageKey("0b8e7f1c-2d34-4a56-9b78-123456789abc", "png", now)

	want := "generated/2026/03/07/0b8e7f1c-2d34-4a56-9b78-123456789abc.png"
	if key != want {
		t.Errorf("unexpected key: got %s, want %s", key, want)
	}
}

func TestGeneratedImageKeyUsesUTC(t *testing.T) {
	// 23:30 on the 7th in UTC+5 is still the 7th in UTC
	loc := time.FixedZone("plus5", 5*3600)
	now := time.Date(2026, 3, 8, 3, 30, 0, 0, loc)

	key := GeneratedImageKey("img", "png", now)
	want := "generated/2026/03/07/img.png"
	if key != want {
		t.Errorf("key not date-namespaced in UTC: got %s, want %s", key, want)
	}
}

func TestExtForContentType(t *testing.T) {
	cases := []struct {
		contentType string
		want        string
	}{
		{"image/png", "png"},
		{"image/jpeg", "jpg"},
		{"image/jpg", "jpg"},
		{"image/webp", "webp"},
		{"image/gif", "gif"},
		{"application/octet-stream", "png"},
		{"", "png"},
	}

	for _, tc := range cases {
		if got := ExtForContentType(tc.contentType); got != tc.want {
			t.Errorf("ExtForContentType(%q) = %q, want %q", tc.contentType, got, tc.want)
		}
	}
}
