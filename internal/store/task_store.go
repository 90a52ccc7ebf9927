package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/shaiso/Tempus/internal/domain"
	"github.com/shaiso/Tempus/internal/events"
)

const taskColumns = `id, executor, max_running_jobs, running_jobs, misfire_grace_sec`

// AddTask вставляет или обновляет task.
//
// При первой вставке running_jobs инициализируется нулём; обновление
// счётчик не трогает — им владеют только acquire/release jobs.
func (s *DataStore) AddTask(ctx context.Context, task *domain.Task) error {
	var existed bool
	err := s.withRetry(ctx, func() error {
		return s.inTx(ctx, func(tx pgx.Tx) error {
			if err := tx.QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)`, task.ID,
			).Scan(&existed); err != nil {
				return fmt.Errorf("check task existence: %w", err)
			}

			if existed {
				_, err := tx.Exec(ctx, `
					UPDATE tasks
					SET executor = $2, max_running_jobs = $3, misfire_grace_sec = $4
					WHERE id = $1
				`, task.ID, task.Executor, task.MaxRunningJobs, durationToSeconds(task.MisfireGraceTime))
				if err != nil {
					return fmt.Errorf("update task: %w", err)
				}
				return nil
			}

			_, err := tx.Exec(ctx, `
				INSERT INTO tasks (id, executor, max_running_jobs, running_jobs, misfire_grace_sec)
				VALUES ($1, $2, $3, 0, $4)
			`, task.ID, task.Executor, task.MaxRunningJobs, durationToSeconds(task.MisfireGraceTime))
			if err != nil {
				return fmt.Errorf("insert task: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return err
	}

	kind := events.KindTaskAdded
	if existed {
		kind = events.KindTaskUpdated
	}
	event := events.New(kind)
	event.TaskID = task.ID
	s.publish(ctx, event)
	return nil
}

// RemoveTask удаляет task. Возвращает ErrTaskNotFound, если task нет.
func (s *DataStore) RemoveTask(ctx context.Context, taskID string) error {
	err := s.withRetry(ctx, func() error {
		result, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, taskID)
		if err != nil {
			return fmt.Errorf("delete task: %w", err)
		}
		if result.RowsAffected() == 0 {
			return ErrTaskNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}

	event := events.New(events.KindTaskRemoved)
	event.TaskID = taskID
	s.publish(ctx, event)
	return nil
}

// GetTask возвращает task по ID.
func (s *DataStore) GetTask(ctx context.Context, taskID string) (*domain.Task, error) {
	var task *domain.Task
	err := s.withRetry(ctx, func() error {
		row := s.pool.QueryRow(ctx,
			`SELECT `+taskColumns+` FROM tasks WHERE id = $1`, taskID)

		t, err := scanTask(row)
		if err != nil {
			return err
		}
		task = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

// GetTasks возвращает все tasks, отсортированные по ID.
func (s *DataStore) GetTasks(ctx context.Context) ([]domain.Task, error) {
	var tasks []domain.Task
	err := s.withRetry(ctx, func() error {
		rows, err := s.pool.Query(ctx,
			`SELECT `+taskColumns+` FROM tasks ORDER BY id ASC`)
		if err != nil {
			return fmt.Errorf("list tasks: %w", err)
		}
		defer rows.Close()

		tasks = tasks[:0]
		for rows.Next() {
			task, err := scanTask(rows)
			if err != nil {
				return err
			}
			tasks = append(tasks, *task)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return tasks, nil
}

// --- Helpers ---

func scanTask(row pgx.Row) (*domain.Task, error) {
	var task domain.Task
	var misfireSec *float64

	err := row.Scan(
		&task.ID,
		&task.Executor,
		&task.MaxRunningJobs,
		&task.RunningJobs,
		&misfireSec,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan task: %w", err)
	}

	task.MisfireGraceTime = secondsToDuration(misfireSec)
	return &task, nil
}
