package tagger

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
)

func TestParseTagList(t *testing.T) {
	cases := []struct {
		name   string
		answer string
		want   []string
	}{
		{
			name:   "clean list",
			answer: "anime, blue-hair, portrait",
			want:   []string{"anime", "blue-hair", "portrait"},
		},
		{
			name:   "mixed case and spacing",
			answer: " Anime ,BLUE-HAIR,  chibi",
			want:   []string{"anime", "blue-hair", "chibi"},
		},
		{
			name:   "off-vocabulary entries dropped",
			answer: "anime, spaceship, not-a-tag, witch",
			want:   []string{"anime", "witch"},
		},
		{
			name:   "empty answer",
			answer: "",
			want:   nil,
		},
		{
			name:   "only commas",
			answer: ", , ,",
			want:   nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseTagList(tc.answer)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("ParseTagList(%q) = %v, want %v", tc.answer, got, tc.want)
			}
		})
	}
}

func TestClassifyPrompt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if len(req.Messages) != 2 {
			t.Errorf("message count = %d, want 2", len(req.Messages))
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]string{"content": "anime, blue-hair"}},
			},
		})
	}))
	defer srv.Close()

	tagger := NewTagger(&Config{Enabled: true, Model: "gpt-4o-mini", BaseURL: srv.URL})
	tags, err := tagger.ClassifyPrompt(context.Background(), "anime girl with blue hair")
	if err != nil {
		t.Fatalf("ClassifyPrompt returned error: %v", err)
	}
	if !reflect.DeepEqual(tags, []string{"anime", "blue-hair"}) {
		t.Errorf("tags = %v, want [anime blue-hair]", tags)
	}
}

func TestClassifyPromptDisabled(t *testing.T) {
	tagger := NewTagger(&Config{Enabled: false})
	tags, err := tagger.ClassifyPrompt(context.Background(), "whatever")
	if err != nil {
		t.Fatalf("disabled tagger returned error: %v", err)
	}
	if tags != nil {
		t.Errorf("disabled tagger returned tags: %v", tags)
	}
}
