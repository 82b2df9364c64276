package service

import "testing"

func TestURLResolver(t *testing.T) {
	tests := []struct {
		name       string
		publicURL  string
		serverBase string
		key        string
		want       string
	}{
		{
			name:       "public bucket URL preferred",
			publicURL:  "https://cdn.example.com",
			serverBase: "http://localhost:8080",
			key:        "generated/2026/08/30/abc.png",
			want:       "https://cdn.example.com/generated/2026/08/30/abc.png",
		},
		{
			name:       "trailing slash trimmed",
			publicURL:  "https://cdn.example.com/",
			serverBase: "http://localhost:8080",
			key:        "generated/2026/08/30/abc.png",
			want:       "https://cdn.example.com/generated/2026/08/30/abc.png",
		},
		{
			name:       "serve route fallback",
			publicURL:  "",
			serverBase: "http://localhost:8080",
			key:        "generated/2026/08/30/abc.png",
			want:       "http://localhost:8080/api/v1/serve/generated/2026/08/30/abc.png",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolve := NewURLResolver(tt.publicURL, tt.serverBase)
			if got := resolve(tt.key); got != tt.want {
				t.Errorf("resolve(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}
