package genclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestServer(t *testing.T, submitStatus int, submitBody interface{}, statusFn func(polls int64) JobStatus) (*httptest.Server, *int64) {
	t.Helper()
	var polls int64

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/generate", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(submitStatus)
		json.NewEncoder(w).Encode(submitBody)
	})
	mux.HandleFunc("/api/v1/generate/status/", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&polls, 1)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(statusFn(n))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &polls
}

func TestGeneratePollsUntilCompleted(t *testing.T) {
	server, polls := newTestServer(t, http.StatusAccepted,
		map[string]string{"jobId": "job-1", "status": "pending"},
		func(n int64) JobStatus {
			switch {
			case n <= 2:
				return JobStatus{JobID: "job-1", Status: StatusPending}
			default:
				return JobStatus{
					JobID:  "job-1",
					Status: StatusCompleted,
					Image:  &Image{ID: "img-1", URL: "http://example.com/img-1.png"},
				}
			}
		})

	client := New(&Config{
		BaseURL:      server.URL,
		PollInterval: 5 * time.Millisecond,
		MaxWait:      time.Second,
	})

	status, err := client.Generate(context.Background(), &GenerateRequest{Prompt: "a fox girl in the rain"})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if status.Status != StatusCompleted {
		t.Errorf("status = %q, want %q", status.Status, StatusCompleted)
	}
	if status.Image == nil || status.Image.ID != "img-1" {
		t.Errorf("unexpected image payload: %+v", status.Image)
	}
	if got := atomic.LoadInt64(polls); got < 3 {
		t.Errorf("expected at least 3 polls, got %d", got)
	}
}

func TestGenerateSurfacesFailedJob(t *testing.T) {
	server, _ := newTestServer(t, http.StatusAccepted,
		map[string]string{"jobId": "job-2", "status": "pending"},
		func(n int64) JobStatus {
			return JobStatus{JobID: "job-2", Status: StatusFailed, Error: "inference API returned error: HTTP 502"}
		})

	client := New(&Config{
		BaseURL:      server.URL,
		PollInterval: 5 * time.Millisecond,
		MaxWait:      time.Second,
	})

	status, err := client.Generate(context.Background(), &GenerateRequest{Prompt: "x"})
	if err != nil {
		t.Fatalf("Generate() error: %v", err)
	}
	if status.Status != StatusFailed {
		t.Errorf("status = %q, want %q", status.Status, StatusFailed)
	}
	if status.Error == "" {
		t.Error("expected an error message on the failed status")
	}
}

func TestWaitGivesUpAfterMaxWait(t *testing.T) {
	server, _ := newTestServer(t, http.StatusAccepted,
		map[string]string{"jobId": "job-3", "status": "pending"},
		func(n int64) JobStatus {
			return JobStatus{JobID: "job-3", Status: StatusProcessing}
		})

	client := New(&Config{
		BaseURL:      server.URL,
		PollInterval: 5 * time.Millisecond,
		MaxWait:      30 * time.Millisecond,
	})

	status, err := client.Wait(context.Background(), "job-3")
	if err != nil {
		t.Fatalf("Wait() error: %v", err)
	}
	if status.Status != StatusFailed {
		t.Errorf("status = %q, want synthesized %q", status.Status, StatusFailed)
	}
	if status.Error == "" {
		t.Error("expected a give-up message on the synthesized status")
	}
}

func TestSubmitRejection(t *testing.T) {
	server, _ := newTestServer(t, http.StatusTooManyRequests,
		map[string]string{"error": "Rate limit exceeded"},
		func(n int64) JobStatus { return JobStatus{} })

	client := New(&Config{BaseURL: server.URL})

	_, err := client.Submit(context.Background(), &GenerateRequest{Prompt: "x"})
	if err == nil {
		t.Fatal("expected an error for a 429 submission")
	}
}

func TestWaitStopsOnContextCancel(t *testing.T) {
	server, _ := newTestServer(t, http.StatusAccepted,
		map[string]string{"jobId": "job-4", "status": "pending"},
		func(n int64) JobStatus {
			return JobStatus{JobID: "job-4", Status: StatusPending}
		})

	client := New(&Config{
		BaseURL:      server.URL,
		PollInterval: 50 * time.Millisecond,
		MaxWait:      time.Minute,
	})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := client.Wait(ctx, "job-4")
	if err == nil {
		t.Fatal("expected a context cancellation error")
	}
}
