package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Tempus/internal/domain"
	"github.com/shaiso/Tempus/internal/store"
	"github.com/shaiso/Tempus/internal/telemetry"
)

// Default configuration values.
const (
	defaultBatchSize    = 100
	defaultPollInterval = 10 * time.Second
)

// DataStore — операции датастора, нужные планировщику.
type DataStore interface {
	AcquireSchedules(ctx context.Context, schedulerID string, limit int) ([]domain.Schedule, error)
	ReleaseSchedules(ctx context.Context, schedulerID string, schedules []domain.Schedule) error
	AddJob(ctx context.Context, job *domain.Job) error
	GetTask(ctx context.Context, taskID string) (*domain.Task, error)
	NextScheduleRunTime(ctx context.Context) (*time.Time, error)
}

// Scheduler — планировщик, обрабатывающий due schedules.
type Scheduler struct {
	store        DataStore
	logger       *slog.Logger
	id           string
	batchSize    int
	pollInterval time.Duration

	// now подменяется в тестах.
	now func() time.Time
}

// Config — конфигурация Scheduler.
type Config struct {
	Store  DataStore
	Logger *slog.Logger

	// ID — идентификатор процесса в lease-полях (default: случайный UUID).
	ID string

	// BatchSize — количество schedules за один тик (default: 100).
	BatchSize int

	// PollInterval — максимальная пауза между тиками (default: 10s).
	// Реальная пауза короче, если ближайший next_fire_time раньше.
	PollInterval time.Duration
}

// New создаёт новый Scheduler.
func New(cfg Config) *Scheduler {
	id := cfg.ID
	if id == "" {
		id = "scheduler-" + uuid.NewString()
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	pollInterval := cfg.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		store:        cfg.Store,
		logger:       telemetry.WithSchedulerID(logger, id),
		id:           id,
		batchSize:    batchSize,
		pollInterval: pollInterval,
		now:          time.Now,
	}
}

// ID возвращает идентификатор процесса планировщика.
func (s *Scheduler) ID() string {
	return s.id
}

// Run крутит цикл тиков до отмены контекста.
// Ошибка одного тика логируется и не останавливает цикл.
func (s *Scheduler) Run(ctx context.Context) error {
	s.logger.Info("starting scheduler",
		"batch_size", s.batchSize,
		"poll_interval", s.pollInterval,
	)

	for {
		if err := s.Tick(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error("scheduler tick failed", "error", err)
		}

		if err := s.wait(ctx); err != nil {
			return err
		}
	}
}

// Tick выполняет один тик планировщика.
//
//  1. Захватывает due schedules (lease на время обработки)
//  2. Для каждого schedule создаёт jobs по сработавшим временам
//     и вычисляет новый next_fire_time
//  3. Освобождает schedules: перевзвод либо удаление исчерпанных
//
// Ошибки одного schedule не блокируют обработку остальных.
func (s *Scheduler) Tick(ctx context.Context) error {
	schedules, err := s.store.AcquireSchedules(ctx, s.id, s.batchSize)
	if err != nil {
		return fmt.Errorf("acquire schedules: %w", err)
	}
	if len(schedules) == 0 {
		return nil
	}

	telemetry.SchedulesAcquired.Add(float64(len(schedules)))
	s.logger.Debug("acquired due schedules", "count", len(schedules))

	now := s.now().UTC()
	var spawned int
	for i := range schedules {
		n, err := s.processSchedule(ctx, &schedules[i], now)
		if err != nil {
			s.logger.Error("failed to process schedule",
				"schedule_id", schedules[i].ID,
				"error", err,
			)
			// Schedule всё равно уходит в release: лучше перевзвести
			// со старым next_fire_time, чем держать lease до истечения.
			continue
		}
		spawned += n
	}

	if err := s.store.ReleaseSchedules(ctx, s.id, schedules); err != nil {
		return fmt.Errorf("release schedules: %w", err)
	}

	telemetry.SchedulesReleased.Add(float64(len(schedules)))
	telemetry.JobsSpawned.Add(float64(spawned))
	s.logger.Info("scheduler tick completed",
		"due", len(schedules),
		"jobs_spawned", spawned,
	)
	return nil
}

// processSchedule создаёт jobs для всех сработавших времён schedule
// и продвигает next_fire_time. Возвращает количество созданных jobs.
//
// Срабатывание, опоздавшее сильнее misfire_grace_time своего task,
// пропускается без создания job.
func (s *Scheduler) processSchedule(ctx context.Context, schedule *domain.Schedule, now time.Time) (int, error) {
	if schedule.NextFireTime == nil {
		return 0, nil
	}

	var grace *time.Duration
	task, err := s.store.GetTask(ctx, schedule.TaskID)
	switch {
	case errors.Is(err, store.ErrTaskNotFound):
		// Schedule ссылается на несуществующий task: jobs создавать
		// некому, но время продвигаем, иначе schedule застрянет в due.
		s.logger.Warn("task not found for schedule",
			"schedule_id", schedule.ID,
			"task_id", schedule.TaskID,
		)
		task = nil
	case err != nil:
		return 0, fmt.Errorf("get task %s: %w", schedule.TaskID, err)
	default:
		grace = task.MisfireGraceTime
	}

	spawned := 0
	fire := *schedule.NextFireTime
	for !fire.After(now) {
		lastFire := fire
		schedule.LastFireTime = &lastFire

		if task != nil {
			if grace != nil && now.Sub(fire) > *grace {
				s.logger.Warn("missed fire time beyond grace, skipping",
					"schedule_id", schedule.ID,
					"fire_time", fire,
				)
			} else {
				job := &domain.Job{
					ID:         uuid.New(),
					TaskID:     schedule.TaskID,
					ScheduleID: schedule.ID,
					Args:       schedule.Args,
					CreatedAt:  now,
				}
				if err := s.store.AddJob(ctx, job); err != nil {
					return spawned, fmt.Errorf("add job: %w", err)
				}
				spawned++
			}
		}

		next, ok := schedule.Trigger.Next(fire)
		if !ok {
			// Trigger исчерпан: release удалит schedule.
			schedule.NextFireTime = nil
			return spawned, nil
		}
		fire = next
	}

	schedule.NextFireTime = &fire
	return spawned, nil
}

// wait спит до ближайшего next_fire_time, но не дольше pollInterval.
func (s *Scheduler) wait(ctx context.Context) error {
	delay := s.pollInterval

	next, err := s.store.NextScheduleRunTime(ctx)
	if err != nil {
		s.logger.Warn("failed to query next schedule run time", "error", err)
	} else if next != nil {
		if until := time.Until(*next); until < delay {
			delay = until
		}
	}
	if delay < 0 {
		delay = 0
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
