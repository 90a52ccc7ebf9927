package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/shaiso/Tempus/internal/domain"
	"github.com/shaiso/Tempus/internal/events"
)

const jobColumns = `id, task_id, schedule_id, args, tags, created_at, started_at, acquired_by, acquired_until, lock_expiration_sec`

// AddJob вставляет job и публикует job.added.
func (s *DataStore) AddJob(ctx context.Context, job *domain.Job) error {
	argsJSON, err := json.Marshal(job.Args)
	if err != nil {
		return fmt.Errorf("marshal job args: %w", err)
	}

	tags := job.Tags
	if tags == nil {
		tags = []string{}
	}

	var lockSec *float64
	if job.LockExpirationDelay > 0 {
		sec := job.LockExpirationDelay.Seconds()
		lockSec = &sec
	}

	err = s.withRetry(ctx, func() error {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO jobs (id, task_id, schedule_id, args, tags, created_at,
			                  started_at, acquired_by, acquired_until, lock_expiration_sec)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`,
			job.ID,
			job.TaskID,
			nullString(job.ScheduleID),
			argsJSON,
			tags,
			job.CreatedAt,
			job.StartedAt,
			nullString(job.AcquiredBy),
			job.AcquiredUntil,
			lockSec,
		)
		if err != nil {
			return fmt.Errorf("insert job: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	event := events.New(events.KindJobAdded)
	event.JobID = job.ID
	event.TaskID = job.TaskID
	event.ScheduleID = job.ScheduleID
	event.Tags = job.Tags
	s.publish(ctx, event)
	return nil
}

// GetJobs возвращает jobs по списку ID (nil — все), отсортированные по ID.
func (s *DataStore) GetJobs(ctx context.Context, ids []uuid.UUID) ([]domain.Job, error) {
	var jobs []domain.Job
	err := s.withRetry(ctx, func() error {
		rows, err := s.pool.Query(ctx, `
			SELECT `+jobColumns+`
			FROM jobs
			WHERE ($1::uuid[] IS NULL OR id = ANY($1))
			ORDER BY id ASC
		`, ids)
		if err != nil {
			return fmt.Errorf("list jobs: %w", err)
		}
		defer rows.Close()

		jobs = jobs[:0]
		for rows.Next() {
			job, err := scanJob(rows)
			if err != nil {
				return err
			}
			jobs = append(jobs, *job)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// AcquireJobs захватывает до limit jobs для worker'а workerID с учётом
// потолка одновременности каждого task.
//
// Один transaction-scope покрывает всю последовательность: выборку
// кандидатов (FIFO по created_at, lease отсутствует или истёк,
// ignoredTasks исключаются), чтение лимитов tasks с FOR UPDATE,
// admission-обход, простановку lease со started_at и инкремент
// running_jobs. Блокировка строк tasks делает «прочитали счётчик —
// увеличили счётчик» атомарным относительно конкурентов, поэтому
// потолок не превышается даже при гонке нескольких worker'ов.
func (s *DataStore) AcquireJobs(ctx context.Context, workerID string, limit int, ignoredTasks []string) ([]domain.Job, error) {
	var acquired []domain.Job
	err := s.withRetry(ctx, func() error {
		return s.inTx(ctx, func(tx pgx.Tx) error {
			rows, err := tx.Query(ctx, `
				SELECT `+jobColumns+`
				FROM jobs
				WHERE (acquired_until IS NULL OR acquired_until < now())
				  AND ($2::text[] IS NULL OR NOT (task_id = ANY($2)))
				ORDER BY created_at ASC
				LIMIT $1
				FOR UPDATE SKIP LOCKED
			`, limit, ignoredTasks)
			if err != nil {
				return fmt.Errorf("select candidate jobs: %w", err)
			}

			var candidates []domain.Job
			for rows.Next() {
				job, err := scanJob(rows)
				if err != nil {
					rows.Close()
					return err
				}
				candidates = append(candidates, *job)
			}
			rows.Close()
			if err := rows.Err(); err != nil {
				return err
			}

			acquired = nil
			if len(candidates) == 0 {
				return nil
			}

			taskIDs := distinctTaskIDs(candidates)
			slotsLeft, err := queryTaskSlots(ctx, tx, taskIDs)
			if err != nil {
				return err
			}

			var increments map[string]int
			acquired, increments = admitJobs(candidates, slotsLeft)
			if len(acquired) == 0 {
				return nil
			}

			now := time.Now().UTC()
			batch := &pgx.Batch{}
			for i := range acquired {
				job := &acquired[i]
				acquiredUntil := now.Add(job.LeaseDuration(s.lockExpirationDelay))
				batch.Queue(`
					UPDATE jobs
					SET acquired_by = $2, acquired_until = $3,
					    started_at = COALESCE(started_at, $4)
					WHERE id = $1
				`, job.ID, workerID, acquiredUntil, now)

				job.AcquiredBy = workerID
				job.AcquiredUntil = &acquiredUntil
				if job.StartedAt == nil {
					startedAt := now
					job.StartedAt = &startedAt
				}
			}
			for taskID, inc := range increments {
				batch.Queue(`
					UPDATE tasks SET running_jobs = running_jobs + $2 WHERE id = $1
				`, taskID, inc)
			}

			results := tx.SendBatch(ctx, batch)
			for i := 0; i < batch.Len(); i++ {
				if _, err := results.Exec(); err != nil {
					results.Close()
					return fmt.Errorf("stamp job lease: %w", err)
				}
			}
			return results.Close()
		})
	})
	if err != nil {
		return nil, err
	}

	for i := range acquired {
		event := events.New(events.KindJobAcquired)
		event.JobID = acquired[i].ID
		event.TaskID = acquired[i].TaskID
		event.AcquiredBy = workerID
		s.publish(ctx, event)
	}
	return acquired, nil
}

// ReleaseJob финализирует завершённый job:
//  1. сохраняет результат, если тот не истёк в момент создания;
//     повторная запись того же job_id — write-once, дубликат
//     логируется и глотается
//  2. удаляет job; исчезнувший job (параллельно вычищен) — аномалия,
//     которая логируется, но не пробрасывается
//  3. при успешном удалении декрементирует running_jobs task'а —
//     единственный путь декремента, парный инкременту в AcquireJobs
func (s *DataStore) ReleaseJob(ctx context.Context, workerID string, taskID string, result *domain.JobResult) error {
	return s.withRetry(ctx, func() error {
		return s.inTx(ctx, func(tx pgx.Tx) error {
			if !result.Expired() {
				tag, err := tx.Exec(ctx, `
					INSERT INTO job_results (job_id, outcome, error, finished_at, expires_at)
					VALUES ($1, $2, $3, $4, $5)
					ON CONFLICT (job_id) DO NOTHING
				`,
					result.JobID,
					string(result.Outcome),
					nullString(result.Error),
					result.FinishedAt,
					result.ExpiresAt,
				)
				if err != nil {
					return fmt.Errorf("insert job result: %w", err)
				}
				if tag.RowsAffected() == 0 {
					s.logger.Error("job result already recorded, keeping existing record",
						"job_id", result.JobID,
						"worker_id", workerID,
					)
				}
			}

			tag, err := tx.Exec(ctx, `DELETE FROM jobs WHERE id = $1`, result.JobID)
			if err != nil {
				return fmt.Errorf("delete job: %w", err)
			}
			if tag.RowsAffected() == 0 {
				s.logger.Error("job not found on release, skipping counter decrement",
					"job_id", result.JobID,
					"task_id", taskID,
					"worker_id", workerID,
				)
				return nil
			}

			if _, err := tx.Exec(ctx, `
				UPDATE tasks
				SET running_jobs = GREATEST(running_jobs - $2, 0)
				WHERE id = $1
			`, taskID, tag.RowsAffected()); err != nil {
				return fmt.Errorf("decrement running jobs: %w", err)
			}
			return nil
		})
	})
}

// GetJobResult возвращает результат job и удаляет его: результат
// читается ровно один раз, второй читатель получает (nil, nil).
// Отсутствие результата — не ошибка, а нормальный пустой исход.
func (s *DataStore) GetJobResult(ctx context.Context, jobID uuid.UUID) (*domain.JobResult, error) {
	var result *domain.JobResult
	err := s.withRetry(ctx, func() error {
		var (
			r       domain.JobResult
			outcome string
			errText *string
		)
		err := s.pool.QueryRow(ctx, `
			DELETE FROM job_results WHERE job_id = $1
			RETURNING job_id, outcome, error, finished_at, expires_at
		`, jobID).Scan(&r.JobID, &outcome, &errText, &r.FinishedAt, &r.ExpiresAt)
		if errors.Is(err, pgx.ErrNoRows) {
			result = nil
			return nil
		}
		if err != nil {
			return fmt.Errorf("consume job result: %w", err)
		}

		r.Outcome = domain.JobOutcome(outcome)
		if errText != nil {
			r.Error = *errText
		}
		result = &r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// --- Helpers ---

func scanJob(row pgx.Row) (*domain.Job, error) {
	var job domain.Job
	var scheduleID, acquiredBy *string
	var argsJSON []byte
	var lockSec *float64

	err := row.Scan(
		&job.ID,
		&job.TaskID,
		&scheduleID,
		&argsJSON,
		&job.Tags,
		&job.CreatedAt,
		&job.StartedAt,
		&acquiredBy,
		&job.AcquiredUntil,
		&lockSec,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan job: %w", err)
	}

	if scheduleID != nil {
		job.ScheduleID = *scheduleID
	}
	if acquiredBy != nil {
		job.AcquiredBy = *acquiredBy
	}
	if argsJSON != nil {
		if err := json.Unmarshal(argsJSON, &job.Args); err != nil {
			return nil, fmt.Errorf("unmarshal job args: %w", err)
		}
	}
	if lockSec != nil {
		job.LockExpirationDelay = time.Duration(*lockSec * float64(time.Second))
	}
	return &job, nil
}

func distinctTaskIDs(jobs []domain.Job) []string {
	seen := make(map[string]struct{}, len(jobs))
	ids := make([]string, 0, len(jobs))
	for i := range jobs {
		if _, ok := seen[jobs[i].TaskID]; ok {
			continue
		}
		seen[jobs[i].TaskID] = struct{}{}
		ids = append(ids, jobs[i].TaskID)
	}
	return ids
}

// queryTaskSlots возвращает свободные слоты по tasks с заданным
// потолком. Строки блокируются FOR UPDATE: до конца транзакции
// счётчики не изменит никакой конкурирующий acquire или release.
func queryTaskSlots(ctx context.Context, tx pgx.Tx, taskIDs []string) (map[string]int, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, max_running_jobs, running_jobs
		FROM tasks
		WHERE id = ANY($1) AND max_running_jobs IS NOT NULL
		FOR UPDATE
	`, taskIDs)
	if err != nil {
		return nil, fmt.Errorf("query task limits: %w", err)
	}
	defer rows.Close()

	slots := make(map[string]int)
	for rows.Next() {
		var id string
		var maxRunning, running int
		if err := rows.Scan(&id, &maxRunning, &running); err != nil {
			return nil, fmt.Errorf("scan task limits: %w", err)
		}
		left := maxRunning - running
		if left < 0 {
			left = 0
		}
		slots[id] = left
	}
	return slots, rows.Err()
}
