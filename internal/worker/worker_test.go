package worker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Tempus/internal/domain"
	"github.com/shaiso/Tempus/internal/store"
)

// fakeExecutor возвращает заранее заданную ошибку.
type fakeExecutor struct {
	err   error
	calls int
}

func (e *fakeExecutor) Execute(ctx context.Context, job *domain.Job) error {
	e.calls++
	return e.err
}

// fakeJobStore — датастор в памяти для тестов воркера.
type fakeJobStore struct {
	mu    sync.Mutex
	jobs  []domain.Job
	tasks map[string]*domain.Task

	results []domain.JobResult
}

func (f *fakeJobStore) AcquireJobs(ctx context.Context, workerID string, limit int, ignoredTasks []string) ([]domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.jobs
	f.jobs = nil
	return out, nil
}

func (f *fakeJobStore) ReleaseJob(ctx context.Context, workerID string, taskID string, result *domain.JobResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results = append(f.results, *result)
	return nil
}

func (f *fakeJobStore) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	task, ok := f.tasks[taskID]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return task, nil
}

func (f *fakeJobStore) takeResults() []domain.JobResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := f.results
	f.results = nil
	return out
}

func newTestWorker(fs *fakeJobStore, registry *Registry) *Worker {
	return New(Config{
		Store:     fs,
		Registry:  registry,
		ID:        "worker-test",
		ResultTTL: time.Minute,
	})
}

// runOne прогоняет один job через execute синхронно.
func runOne(w *Worker, job domain.Job) {
	w.sem <- struct{}{}
	w.wg.Add(1)
	w.execute(context.Background(), job)
}

func TestExecuteSuccess(t *testing.T) {
	fs := &fakeJobStore{tasks: map[string]*domain.Task{"t1": {ID: "t1", Executor: "fake"}}}
	exec := &fakeExecutor{}
	registry := NewRegistry()
	registry.Register("fake", exec)
	w := newTestWorker(fs, registry)

	job := domain.Job{ID: uuid.New(), TaskID: "t1"}
	runOne(w, job)

	if exec.calls != 1 {
		t.Fatalf("expected 1 executor call, got %d", exec.calls)
	}
	results := fs.takeResults()
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	result := results[0]
	if result.JobID != job.ID {
		t.Errorf("result for wrong job: %s", result.JobID)
	}
	if result.Outcome != domain.OutcomeSuccess {
		t.Errorf("expected success, got %s", result.Outcome)
	}
	if result.Error != "" {
		t.Errorf("unexpected error message: %q", result.Error)
	}
	if !result.ExpiresAt.Equal(result.FinishedAt.Add(time.Minute)) {
		t.Errorf("expected expires_at = finished_at + ttl, got %v", result.ExpiresAt)
	}
}

func TestExecuteFailure(t *testing.T) {
	fs := &fakeJobStore{tasks: map[string]*domain.Task{"t1": {ID: "t1", Executor: "fake"}}}
	registry := NewRegistry()
	registry.Register("fake", &fakeExecutor{err: errors.New("boom")})
	w := newTestWorker(fs, registry)

	runOne(w, domain.Job{ID: uuid.New(), TaskID: "t1"})

	results := fs.takeResults()
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].Outcome != domain.OutcomeError {
		t.Errorf("expected error outcome, got %s", results[0].Outcome)
	}
	if results[0].Error != "boom" {
		t.Errorf("expected error message 'boom', got %q", results[0].Error)
	}
}

func TestExecuteUnknownExecutor(t *testing.T) {
	fs := &fakeJobStore{tasks: map[string]*domain.Task{"t1": {ID: "t1", Executor: "nope"}}}
	w := newTestWorker(fs, NewRegistry())

	runOne(w, domain.Job{ID: uuid.New(), TaskID: "t1"})

	results := fs.takeResults()
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	// Невыполнимый job всё равно финализируется результатом
	if results[0].Outcome != domain.OutcomeError {
		t.Errorf("expected error outcome, got %s", results[0].Outcome)
	}
}

func TestExecuteMissingTask(t *testing.T) {
	fs := &fakeJobStore{tasks: map[string]*domain.Task{}}
	w := newTestWorker(fs, NewRegistry())

	runOne(w, domain.Job{ID: uuid.New(), TaskID: "ghost"})

	results := fs.takeResults()
	if len(results) != 1 || results[0].Outcome != domain.OutcomeError {
		t.Fatalf("expected error result, got %+v", results)
	}
}

func TestRunProcessesAcquiredJobs(t *testing.T) {
	fs := &fakeJobStore{
		tasks: map[string]*domain.Task{"t1": {ID: "t1", Executor: "fake"}},
		jobs: []domain.Job{
			{ID: uuid.New(), TaskID: "t1"},
			{ID: uuid.New(), TaskID: "t1"},
		},
	}
	exec := &fakeExecutor{}
	registry := NewRegistry()
	registry.Register("fake", exec)

	w := New(Config{
		Store:        fs,
		Registry:     registry,
		ID:           "worker-test",
		PollInterval: 5 * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	for {
		fs.mu.Lock()
		n := len(fs.results)
		fs.mu.Unlock()
		if n == 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("timed out waiting for jobs to finish")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

// Registry Tests

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	// Executors по умолчанию
	for _, name := range []string{"http", "delay"} {
		if _, err := r.Get(name); err != nil {
			t.Errorf("default registry should have %s: %v", name, err)
		}
	}

	// Несуществующее имя
	_, err := r.Get("unknown")
	if !errors.Is(err, ErrUnknownExecutor) {
		t.Errorf("expected ErrUnknownExecutor, got %v", err)
	}

	// Регистрация
	r.Register("fake", &fakeExecutor{})
	if _, err := r.Get("fake"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// Executor Tests

func TestDelayExecutor(t *testing.T) {
	exec := &DelayExecutor{}
	job := &domain.Job{Args: map[string]any{"duration_sec": 0.05}}

	start := time.Now()
	if err := exec.Execute(context.Background(), job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("delay was too short: %v", elapsed)
	}
}

func TestDelayExecutorCancellation(t *testing.T) {
	exec := &DelayExecutor{}
	job := &domain.Job{Args: map[string]any{"duration_sec": 60}}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := exec.Execute(ctx, job); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
}

func TestHTTPExecutor(t *testing.T) {
	var gotMethod, gotHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotHeader = r.Header.Get("X-Token")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	exec := &HTTPExecutor{}
	job := &domain.Job{Args: map[string]any{
		"method":  "POST",
		"url":     srv.URL,
		"headers": map[string]any{"X-Token": "secret"},
		"body":    map[string]any{"key": "value"},
	}}

	if err := exec.Execute(context.Background(), job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotMethod != "POST" {
		t.Errorf("expected POST, got %s", gotMethod)
	}
	if gotHeader != "secret" {
		t.Errorf("expected header to be set, got %q", gotHeader)
	}
}

func TestHTTPExecutorErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	exec := &HTTPExecutor{}
	job := &domain.Job{Args: map[string]any{"url": srv.URL}}

	if err := exec.Execute(context.Background(), job); !errors.Is(err, ErrHTTPRequest) {
		t.Errorf("expected ErrHTTPRequest, got %v", err)
	}
}

func TestHTTPExecutorMissingURL(t *testing.T) {
	exec := &HTTPExecutor{}
	job := &domain.Job{Args: map[string]any{}}

	if err := exec.Execute(context.Background(), job); !errors.Is(err, ErrHTTPRequest) {
		t.Errorf("expected ErrHTTPRequest, got %v", err)
	}
}
