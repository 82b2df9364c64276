package storage

import "testing"

func TestClassifyEndpoint(t *testing.T) {
	tests := []struct {
		endpoint string
		want     StorageType
	}{
		{"abc123.r2.cloudflarestorage.com", StorageTypeR2},
		{"https://abc123.r2.cloudflarestorage.com", StorageTypeR2},
		{"s3.us-east-1.amazonaws.com", StorageTypeS3},
		{"https://s3.eu-west-1.amazonaws.com/", StorageTypeS3},
		{"minio:9000", StorageTypeS3Compatible},
		{"localhost:9000", StorageTypeS3Compatible},
		{"storage.example.com", StorageTypeS3Compatible},
	}

	for _, tt := range tests {
		if got := classifyEndpoint(tt.endpoint); got != tt.want {
			t.Errorf("classifyEndpoint(%q) = %q, want %q", tt.endpoint, got, tt.want)
		}
	}
}
