package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Tempus/internal/domain"
	"github.com/shaiso/Tempus/internal/telemetry"
)

// Default configuration values.
const (
	defaultPollInterval = 5 * time.Second
	defaultBatchSize    = 50
	defaultConcurrency  = 10
	defaultResultTTL    = 5 * time.Minute
)

// DataStore — операции датастора, нужные воркеру.
type DataStore interface {
	AcquireJobs(ctx context.Context, workerID string, limit int, ignoredTasks []string) ([]domain.Job, error)
	ReleaseJob(ctx context.Context, workerID string, taskID string, result *domain.JobResult) error
	GetTask(ctx context.Context, taskID string) (*domain.Task, error)
}

// Worker — цикл выполнения jobs.
type Worker struct {
	store    DataStore
	registry *Registry
	logger   *slog.Logger

	id           string
	pollInterval time.Duration
	batchSize    int
	resultTTL    time.Duration

	// sem ограничивает число одновременно выполняемых jobs
	// внутри процесса; межпроцессные лимиты обеспечивает
	// admission control датастора.
	sem chan struct{}
	wg  sync.WaitGroup

	// now подменяется в тестах.
	now func() time.Time
}

// Config — конфигурация Worker.
type Config struct {
	Store  DataStore
	Logger *slog.Logger

	// Registry — реестр executor'ов (default: NewRegistry()).
	Registry *Registry

	// ID — идентификатор процесса в lease-полях (default: случайный UUID).
	ID string

	// PollInterval — пауза между опросами датастора (default: 5s).
	PollInterval time.Duration

	// BatchSize — количество jobs за один acquire (default: 50).
	BatchSize int

	// Concurrency — число одновременно выполняемых jobs (default: 10).
	Concurrency int

	// ResultTTL — срок хранения результата job (default: 5m).
	ResultTTL time.Duration
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	id := cfg.ID
	if id == "" {
		id = "worker-" + uuid.NewString()
	}

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	resultTTL := cfg.ResultTTL
	if resultTTL <= 0 {
		resultTTL = defaultResultTTL
	}

	registry := cfg.Registry
	if registry == nil {
		registry = NewRegistry()
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		store:        cfg.Store,
		registry:     registry,
		logger:       telemetry.WithWorkerID(logger, id),
		id:           id,
		pollInterval: pollInterval,
		batchSize:    batchSize,
		resultTTL:    resultTTL,
		sem:          make(chan struct{}, concurrency),
		now:          time.Now,
	}
}

// ID возвращает идентификатор процесса воркера.
func (w *Worker) ID() string {
	return w.id
}

// Run крутит цикл захвата и выполнения jobs до отмены контекста.
// Перед возвратом дожидается завершения выполняемых jobs.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("starting worker",
		"poll_interval", w.pollInterval,
		"batch_size", w.batchSize,
		"concurrency", cap(w.sem),
	)

	defer w.wg.Wait()

	for {
		jobs, err := w.store.AcquireJobs(ctx, w.id, w.batchSize, nil)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.logger.Error("failed to acquire jobs", "error", err)
		}

		if len(jobs) > 0 {
			telemetry.JobsAcquired.Add(float64(len(jobs)))
			w.logger.Debug("acquired jobs", "count", len(jobs))
		}

		for i := range jobs {
			select {
			case w.sem <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
			w.wg.Add(1)
			go w.execute(ctx, jobs[i])
		}

		// Полный batch — вероятно, в очереди есть ещё; опрашиваем сразу.
		if len(jobs) == w.batchSize {
			continue
		}

		timer := time.NewTimer(w.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// execute выполняет один job и финализирует его результатом.
func (w *Worker) execute(ctx context.Context, job domain.Job) {
	defer func() {
		<-w.sem
		w.wg.Done()
	}()

	logger := telemetry.WithJobID(w.logger, job.ID.String())
	started := w.now()

	runErr := w.runJob(ctx, &job)

	finished := w.now().UTC()
	result := &domain.JobResult{
		JobID:      job.ID,
		Outcome:    domain.OutcomeSuccess,
		FinishedAt: finished,
		ExpiresAt:  finished.Add(w.resultTTL),
	}
	if runErr != nil {
		result.Outcome = domain.OutcomeError
		result.Error = runErr.Error()
		logger.Error("job failed", "task_id", job.TaskID, "error", runErr)
	} else {
		logger.Info("job completed",
			"task_id", job.TaskID,
			"duration", finished.Sub(started),
		)
	}

	telemetry.JobsCompleted.WithLabelValues(string(result.Outcome)).Inc()
	telemetry.JobDuration.Observe(finished.Sub(started).Seconds())

	// Release выполняется и при остановке процесса: иначе результат
	// потеряется, а job вернётся в оборот только по истечении lease.
	if err := w.store.ReleaseJob(context.WithoutCancel(ctx), w.id, job.TaskID, result); err != nil {
		logger.Error("failed to release job", "error", err)
	}
}

// runJob находит executor для task job'а и выполняет его.
func (w *Worker) runJob(ctx context.Context, job *domain.Job) error {
	task, err := w.store.GetTask(ctx, job.TaskID)
	if err != nil {
		return err
	}

	executor, err := w.registry.Get(task.Executor)
	if err != nil {
		return err
	}

	return executor.Execute(ctx, job)
}
