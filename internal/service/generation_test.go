package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/timmy/mirai/internal/domain"
	"github.com/timmy/mirai/internal/inference"
	"github.com/timmy/mirai/internal/ratelimit"
	"github.com/timmy/mirai/internal/repository"
	"github.com/timmy/mirai/internal/storage"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// memCounters is an in-memory ratelimit.CounterStore.
type memCounters struct {
	mu     sync.Mutex
	counts map[string]int64
}

func newMemCounters() *memCounters {
	return &memCounters{counts: make(map[string]int64)}
}

func (m *memCounters) GetCount(_ context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[key], nil
}

func (m *memCounters) IncrCount(_ context.Context, key string, _ time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[key]++
	return m.counts[key], nil
}

// memStorage is an in-memory storage.ObjectStorage.
type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{objects: make(map[string][]byte)}
}

func (m *memStorage) Upload(_ context.Context, key string, reader io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memStorage) Download(_ context.Context, key string) (io.ReadCloser, *storage.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, nil, fmt.Errorf("object not found: %s", key)
	}
	return io.NopCloser(bytes.NewReader(data)), &storage.ObjectInfo{Size: int64(len(data))}, nil
}

func (m *memStorage) GetURL(key string) string {
	return "mem://" + key
}

func (m *memStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memStorage) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *memStorage) EnsureBucket(_ context.Context) error {
	return nil
}

func (m *memStorage) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// testPNG returns an encoded 2x3 PNG so dimension probing has real
// pixels to read.
func testPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 3))); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

// newImageGateway serves image bytes after an optional delay, standing
// in for the diffusion API.
func newImageGateway(t *testing.T, delay time.Duration) *httptest.Server {
	t.Helper()
	body := testPNG(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if delay > 0 {
			time.Sleep(delay)
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newFailingGateway(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model overloaded", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	return srv
}

type generationEnv struct {
	svc      *GenerationService
	jobs     *repository.JobRepository
	counters *memCounters
	store    *memStorage
}

func newGenerationEnv(t *testing.T, gatewayURL string, mutate func(*GenerationConfig)) *generationEnv {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "generation.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	// One connection keeps the background routine and the test's polling
	// serialized on the same sqlite handle.
	sqlDB.SetMaxOpenConns(1)
	if err := db.AutoMigrate(&domain.User{}, &domain.GenerationJob{}, &domain.Image{}); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	gateway := inference.NewClient(&inference.Config{
		BaseURL:      gatewayURL,
		APIKey:       "test-key",
		FastModel:    "animagen-fast",
		QualityModel: "animagen-xl",
		Timeout:      5 * time.Second,
	})

	cfg := GenerationConfig{
		AnonPerHour:          100,
		UserFastPerWindow:    100,
		UserQualityPerWindow: 100,
		UserWindow:           15 * time.Minute,
		StaleAfter:           10 * time.Minute,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	counters := newMemCounters()
	store := newMemStorage()
	jobs := repository.NewJobRepository(db)
	svc := NewGenerationService(
		jobs,
		repository.NewImageRepository(db),
		repository.NewUserRepository(db),
		store,
		gateway,
		nil, // no tag classifier
		nil, // no embedding service
		nil, // semantic indexing disabled
		ratelimit.NewLimiter(counters),
		NewURLResolver("", "http://localhost:8080"),
		cfg,
	)
	return &generationEnv{svc: svc, jobs: jobs, counters: counters, store: store}
}

func waitTerminal(t *testing.T, svc *GenerationService, jobID string) *JobStatusResult {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		result, err := svc.GetStatus(context.Background(), jobID)
		if err != nil {
			t.Fatalf("GetStatus: %v", err)
		}
		if result.Status.Terminal() {
			return result
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s never reached a terminal state", jobID)
	return nil
}

func TestSubmitReturnsBeforeGeneration(t *testing.T) {
	srv := newImageGateway(t, 500*time.Millisecond)
	env := newGenerationEnv(t, srv.URL, nil)
	ctx := context.Background()

	start := time.Now()
	job, err := env.svc.Submit(ctx, Identity{UserID: "user-fast"}, validParams())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 250*time.Millisecond {
		t.Fatalf("Submit took %v, waited on the gateway", elapsed)
	}
	if job.Status != domain.JobStatusPending {
		t.Errorf("submitted job status = %q, want pending", job.Status)
	}

	// Before the gateway responds the job is observable but incomplete
	result, err := env.svc.GetStatus(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if result.Status.Terminal() {
		t.Errorf("job already terminal: %q", result.Status)
	}
	if result.Image != nil {
		t.Error("non-terminal status carried an image payload")
	}
	if result.Error != "" {
		t.Errorf("non-terminal status carried an error: %q", result.Error)
	}

	waitTerminal(t, env.svc, job.ID)
}

func TestSubmitRunsJobToCompleted(t *testing.T) {
	srv := newImageGateway(t, 0)
	env := newGenerationEnv(t, srv.URL, nil)
	ctx := context.Background()

	job, err := env.svc.Submit(ctx, Identity{ClientIP: "203.0.113.7"}, validParams())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	result := waitTerminal(t, env.svc, job.ID)
	if result.Status != domain.JobStatusCompleted {
		t.Fatalf("status = %q (error %q), want completed", result.Status, result.Error)
	}
	if result.Error != "" {
		t.Errorf("completed job carried an error: %q", result.Error)
	}
	if result.Image == nil {
		t.Fatal("completed job has no image payload")
	}
	if !strings.Contains(result.Image.URL, "/api/v1/serve/") {
		t.Errorf("image URL = %q, want serve-route fallback", result.Image.URL)
	}
	// Dimensions come from the decoded bytes, not the requested ratio
	if result.Image.Width != 2 || result.Image.Height != 3 {
		t.Errorf("image dimensions = %dx%d, want probed 2x3", result.Image.Width, result.Image.Height)
	}
	if env.store.count() != 1 {
		t.Errorf("stored object count = %d, want 1", env.store.count())
	}
}

func TestFailedGenerationRecordsError(t *testing.T) {
	srv := newFailingGateway(t)
	env := newGenerationEnv(t, srv.URL, nil)

	job, err := env.svc.Submit(context.Background(), Identity{UserID: "user-err"}, validParams())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}

	result := waitTerminal(t, env.svc, job.ID)
	if result.Status != domain.JobStatusFailed {
		t.Fatalf("status = %q, want failed", result.Status)
	}
	if result.Error == "" {
		t.Error("failed job has no error message")
	}
	if result.Image != nil {
		t.Error("failed job carried an image payload")
	}
	if env.store.count() != 0 {
		t.Errorf("stored object count = %d, want 0", env.store.count())
	}
}

func TestGetStatusUnknownJob(t *testing.T) {
	srv := newImageGateway(t, 0)
	env := newGenerationEnv(t, srv.URL, nil)

	_, err := env.svc.GetStatus(context.Background(), "no-such-job")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestAnonymousBudgetExhausted(t *testing.T) {
	srv := newImageGateway(t, 0)
	env := newGenerationEnv(t, srv.URL, func(cfg *GenerationConfig) {
		cfg.AnonPerHour = 1
	})
	ctx := context.Background()
	ident := Identity{ClientIP: "198.51.100.9"}

	job, err := env.svc.Submit(ctx, ident, validParams())
	if err != nil {
		t.Fatalf("first Submit: %v", err)
	}

	_, err = env.svc.Submit(ctx, ident, validParams())
	rle, ok := AsRateLimitError(err)
	if !ok {
		t.Fatalf("err = %v, want RateLimitError", err)
	}
	if !rle.ResetTime.After(time.Now()) {
		t.Errorf("reset time %v is not in the future", rle.ResetTime)
	}

	waitTerminal(t, env.svc, job.ID)
}

func TestRemixRecordsLineage(t *testing.T) {
	srv := newImageGateway(t, 0)
	env := newGenerationEnv(t, srv.URL, nil)
	ctx := context.Background()
	ident := Identity{UserID: "user-remix"}

	parentJob, err := env.svc.Submit(ctx, ident, validParams())
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	parent := waitTerminal(t, env.svc, parentJob.ID)
	if parent.Status != domain.JobStatusCompleted {
		t.Fatalf("parent status = %q (error %q), want completed", parent.Status, parent.Error)
	}

	remixJob, err := env.svc.SubmitRemix(ctx, ident, validParams(), parent.Image.ID)
	if err != nil {
		t.Fatalf("SubmitRemix: %v", err)
	}
	remix := waitTerminal(t, env.svc, remixJob.ID)
	if remix.Status != domain.JobStatusCompleted {
		t.Fatalf("remix status = %q (error %q), want completed", remix.Status, remix.Error)
	}
	if remix.Image.ParentID == nil || *remix.Image.ParentID != parent.Image.ID {
		t.Errorf("remix parent = %v, want %s", remix.Image.ParentID, parent.Image.ID)
	}

	_, err = env.svc.SubmitRemix(ctx, ident, validParams(), "no-such-image")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown parent err = %v, want ErrNotFound", err)
	}
}

func TestRunJobSkipsNonPendingJob(t *testing.T) {
	srv := newImageGateway(t, 0)
	env := newGenerationEnv(t, srv.URL, nil)
	ctx := context.Background()

	// A job reconciled to failed before its continuation starts: the
	// continuation must not resurrect it or produce an image.
	job := &domain.GenerationJob{
		ID:          "job-reconciled",
		UserID:      "user-late",
		Prompt:      "a fox spirit in a paper lantern festival",
		Quality:     domain.TierFast,
		Guidance:    7.5,
		Steps:       28,
		AspectRatio: "1:1",
		Width:       1024,
		Height:      1024,
		Status:      domain.JobStatusPending,
	}
	if err := env.jobs.Create(ctx, job); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := env.jobs.SetFailed(ctx, job.ID, "generation timed out"); err != nil {
		t.Fatalf("SetFailed: %v", err)
	}

	env.svc.runJob(ctx, job.ID)

	result, err := env.svc.GetStatus(ctx, job.ID)
	if err != nil {
		t.Fatalf("GetStatus: %v", err)
	}
	if result.Status != domain.JobStatusFailed {
		t.Errorf("status = %q, want failed", result.Status)
	}
	if result.Error != "generation timed out" {
		t.Errorf("error = %q, want original timeout message", result.Error)
	}
	if result.Image != nil {
		t.Error("skipped job carried an image payload")
	}
	if env.store.count() != 0 {
		t.Errorf("stored object count = %d, want 0", env.store.count())
	}
}
