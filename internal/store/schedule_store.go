package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/shaiso/Tempus/internal/domain"
	"github.com/shaiso/Tempus/internal/events"
	"github.com/shaiso/Tempus/internal/trigger"
)

const scheduleColumns = `id, task_id, trigger, args, next_fire_time, last_fire_time, acquired_by, acquired_until`

// AddSchedule вставляет schedule. Поведение при занятом ID определяет
// политика конфликтов:
//   - fail — ErrConflictingID, без мутаций и событий
//   - replace — полная перезапись, событие schedule.updated
//   - skip — вставка молча отбрасывается
func (s *DataStore) AddSchedule(ctx context.Context, schedule *domain.Schedule, policy domain.ConflictPolicy) error {
	if err := policy.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConflictPolicy, err)
	}

	triggerJSON, err := trigger.Marshal(schedule.Trigger)
	if err != nil {
		return fmt.Errorf("serialize trigger: %w", err)
	}
	argsJSON, err := json.Marshal(schedule.Args)
	if err != nil {
		return fmt.Errorf("marshal args: %w", err)
	}

	err = s.withRetry(ctx, func() error {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO schedules (id, task_id, trigger, args, next_fire_time,
			                       last_fire_time, acquired_by, acquired_until)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`,
			schedule.ID,
			schedule.TaskID,
			triggerJSON,
			argsJSON,
			schedule.NextFireTime,
			schedule.LastFireTime,
			nullString(schedule.AcquiredBy),
			schedule.AcquiredUntil,
		)
		if err != nil {
			return fmt.Errorf("insert schedule: %w", err)
		}
		return nil
	})

	if err != nil && isUniqueViolation(err) {
		switch policy {
		case domain.ConflictPolicyFail:
			return fmt.Errorf("%w: %s", ErrConflictingID, schedule.ID)
		case domain.ConflictPolicySkip:
			return nil
		case domain.ConflictPolicyReplace:
			err = s.withRetry(ctx, func() error {
				_, err := s.pool.Exec(ctx, `
					UPDATE schedules
					SET task_id = $2, trigger = $3, args = $4, next_fire_time = $5,
					    last_fire_time = $6, acquired_by = $7, acquired_until = $8
					WHERE id = $1
				`,
					schedule.ID,
					schedule.TaskID,
					triggerJSON,
					argsJSON,
					schedule.NextFireTime,
					schedule.LastFireTime,
					nullString(schedule.AcquiredBy),
					schedule.AcquiredUntil,
				)
				if err != nil {
					return fmt.Errorf("replace schedule: %w", err)
				}
				return nil
			})
			if err != nil {
				return err
			}

			event := events.New(events.KindScheduleUpdated)
			event.ScheduleID = schedule.ID
			event.TaskID = schedule.TaskID
			event.NextFireTime = schedule.NextFireTime
			s.publish(ctx, event)
			return nil
		}
	}
	if err != nil {
		return err
	}

	event := events.New(events.KindScheduleAdded)
	event.ScheduleID = schedule.ID
	event.TaskID = schedule.TaskID
	event.NextFireTime = schedule.NextFireTime
	s.publish(ctx, event)
	return nil
}

// GetSchedules возвращает schedules по списку ID (nil — все),
// отсортированные по ID. Записи с нечитаемым trigger'ом пропускаются
// с warning'ом.
func (s *DataStore) GetSchedules(ctx context.Context, ids []string) ([]domain.Schedule, error) {
	var schedules []domain.Schedule
	err := s.withRetry(ctx, func() error {
		rows, err := s.pool.Query(ctx, `
			SELECT `+scheduleColumns+`
			FROM schedules
			WHERE ($1::text[] IS NULL OR id = ANY($1))
			ORDER BY id ASC
		`, ids)
		if err != nil {
			return fmt.Errorf("list schedules: %w", err)
		}
		defer rows.Close()

		schedules = schedules[:0]
		for rows.Next() {
			schedule, triggerJSON, err := scanSchedule(rows)
			if err != nil {
				return err
			}
			schedule.Trigger, err = trigger.Unmarshal(triggerJSON)
			if err != nil {
				s.logger.Warn("failed to deserialize schedule trigger, skipping",
					"schedule_id", schedule.ID,
					"error", err,
				)
				continue
			}
			schedules = append(schedules, *schedule)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return schedules, nil
}

// RemoveSchedules удаляет schedules по списку ID (nil — все) и
// публикует schedule.removed для каждой реально удалённой записи.
func (s *DataStore) RemoveSchedules(ctx context.Context, ids []string) error {
	var removed []string
	err := s.withRetry(ctx, func() error {
		return s.inTx(ctx, func(tx pgx.Tx) error {
			rows, err := tx.Query(ctx, `
				SELECT id FROM schedules
				WHERE ($1::text[] IS NULL OR id = ANY($1))
				FOR UPDATE
			`, ids)
			if err != nil {
				return fmt.Errorf("select schedule ids: %w", err)
			}
			removed = removed[:0]
			for rows.Next() {
				var id string
				if err := rows.Scan(&id); err != nil {
					rows.Close()
					return fmt.Errorf("scan schedule id: %w", err)
				}
				removed = append(removed, id)
			}
			rows.Close()
			if err := rows.Err(); err != nil {
				return err
			}

			if len(removed) == 0 {
				return nil
			}
			if _, err := tx.Exec(ctx,
				`DELETE FROM schedules WHERE id = ANY($1)`, removed,
			); err != nil {
				return fmt.Errorf("delete schedules: %w", err)
			}
			return nil
		})
	})
	if err != nil {
		return err
	}

	for _, id := range removed {
		event := events.New(events.KindScheduleRemoved)
		event.ScheduleID = id
		s.publish(ctx, event)
	}
	return nil
}

// AcquireSchedules захватывает до limit due schedules для scheduler'а
// schedulerID: выбирает записи с наступившим next_fire_time и
// отсутствующим либо истёкшим lease и в той же транзакции проставляет
// acquired_by/acquired_until.
//
// FOR UPDATE SKIP LOCKED исключает выдачу одной записи двум
// конкурентам даже внутри окна «выбрали, но ещё не застолбили».
//
// Записи с нечитаемым trigger'ом невозможно ни выполнить, ни
// перевзвести — они удаляются с событием schedule.removed, чтобы не
// зависать в due-состоянии навсегда.
func (s *DataStore) AcquireSchedules(ctx context.Context, schedulerID string, limit int) ([]domain.Schedule, error) {
	var (
		schedules []domain.Schedule
		corrupt   []string
	)
	err := s.withRetry(ctx, func() error {
		return s.inTx(ctx, func(tx pgx.Tx) error {
			rows, err := tx.Query(ctx, `
				SELECT `+scheduleColumns+`
				FROM schedules
				WHERE next_fire_time IS NOT NULL
				  AND next_fire_time <= now()
				  AND (acquired_until IS NULL OR acquired_until < now())
				ORDER BY next_fire_time ASC
				LIMIT $1
				FOR UPDATE SKIP LOCKED
			`, limit)
			if err != nil {
				return fmt.Errorf("select due schedules: %w", err)
			}

			schedules = schedules[:0]
			corrupt = corrupt[:0]
			for rows.Next() {
				schedule, triggerJSON, err := scanSchedule(rows)
				if err != nil {
					rows.Close()
					return err
				}
				schedule.Trigger, err = trigger.Unmarshal(triggerJSON)
				if err != nil {
					s.logger.Error("failed to deserialize schedule trigger, removing from data store",
						"schedule_id", schedule.ID,
						"error", err,
					)
					corrupt = append(corrupt, schedule.ID)
					continue
				}
				schedules = append(schedules, *schedule)
			}
			rows.Close()
			if err := rows.Err(); err != nil {
				return err
			}

			if len(corrupt) > 0 {
				if _, err := tx.Exec(ctx,
					`DELETE FROM schedules WHERE id = ANY($1)`, corrupt,
				); err != nil {
					return fmt.Errorf("delete corrupt schedules: %w", err)
				}
			}

			if len(schedules) == 0 {
				return nil
			}

			now := time.Now().UTC()
			acquiredUntil := now.Add(s.lockExpirationDelay)
			acquiredIDs := make([]string, len(schedules))
			for i := range schedules {
				acquiredIDs[i] = schedules[i].ID
			}

			if _, err := tx.Exec(ctx, `
				UPDATE schedules
				SET acquired_by = $1, acquired_until = $2
				WHERE id = ANY($3)
			`, schedulerID, acquiredUntil, acquiredIDs); err != nil {
				return fmt.Errorf("stamp schedule lease: %w", err)
			}

			for i := range schedules {
				schedules[i].AcquiredBy = schedulerID
				schedules[i].AcquiredUntil = &acquiredUntil
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	for _, id := range corrupt {
		event := events.New(events.KindScheduleRemoved)
		event.ScheduleID = id
		s.publish(ctx, event)
	}
	return schedules, nil
}

// ReleaseSchedules освобождает schedules, захваченные scheduler'ом
// schedulerID. Schedule с будущим next_fire_time перевзводится
// (trigger и время перезаписываются, lease снимается); schedule без
// next_fire_time удаляется. Schedule, чей trigger не сериализуется,
// удаляется, не блокируя освобождение остальных.
//
// Каждая запись ограничена фильтром (id, acquired_by): если lease уже
// истёк и запись перехвачена другим процессом, операция по ней —
// тихий no-op без события.
func (s *DataStore) ReleaseSchedules(ctx context.Context, schedulerID string, schedules []domain.Schedule) error {
	type intent struct {
		schedule *domain.Schedule
		remove   bool
		trigger  []byte
	}

	intents := make([]intent, 0, len(schedules))
	for i := range schedules {
		schedule := &schedules[i]
		if schedule.NextFireTime == nil {
			intents = append(intents, intent{schedule: schedule, remove: true})
			continue
		}

		triggerJSON, err := trigger.Marshal(schedule.Trigger)
		if err != nil {
			s.logger.Error("failed to serialize schedule trigger, removing from data store",
				"schedule_id", schedule.ID,
				"error", err,
			)
			intents = append(intents, intent{schedule: schedule, remove: true})
			continue
		}
		intents = append(intents, intent{schedule: schedule, trigger: triggerJSON})
	}

	if len(intents) == 0 {
		return nil
	}

	affected := make([]bool, len(intents))
	err := s.withRetry(ctx, func() error {
		return s.inTx(ctx, func(tx pgx.Tx) error {
			batch := &pgx.Batch{}
			for _, in := range intents {
				if in.remove {
					batch.Queue(
						`DELETE FROM schedules WHERE id = $1 AND acquired_by = $2`,
						in.schedule.ID, schedulerID,
					)
					continue
				}
				batch.Queue(`
					UPDATE schedules
					SET trigger = $3, next_fire_time = $4, last_fire_time = $5,
					    acquired_by = NULL, acquired_until = NULL
					WHERE id = $1 AND acquired_by = $2
				`,
					in.schedule.ID,
					schedulerID,
					in.trigger,
					in.schedule.NextFireTime,
					in.schedule.LastFireTime,
				)
			}

			results := tx.SendBatch(ctx, batch)
			for i := range intents {
				tag, err := results.Exec()
				if err != nil {
					results.Close()
					return fmt.Errorf("release schedule %s: %w", intents[i].schedule.ID, err)
				}
				affected[i] = tag.RowsAffected() > 0
			}
			return results.Close()
		})
	})
	if err != nil {
		return err
	}

	for i, in := range intents {
		if !affected[i] {
			continue
		}
		if in.remove {
			event := events.New(events.KindScheduleRemoved)
			event.ScheduleID = in.schedule.ID
			s.publish(ctx, event)
			continue
		}
		event := events.New(events.KindScheduleUpdated)
		event.ScheduleID = in.schedule.ID
		event.TaskID = in.schedule.TaskID
		event.NextFireTime = in.schedule.NextFireTime
		s.publish(ctx, event)
	}
	return nil
}

// NextScheduleRunTime возвращает ближайшее next_fire_time среди всех
// schedules или nil, если ни один schedule не взведён.
func (s *DataStore) NextScheduleRunTime(ctx context.Context) (*time.Time, error) {
	var next *time.Time
	err := s.withRetry(ctx, func() error {
		var t time.Time
		err := s.pool.QueryRow(ctx, `
			SELECT next_fire_time FROM schedules
			WHERE next_fire_time IS NOT NULL
			ORDER BY next_fire_time ASC
			LIMIT 1
		`).Scan(&t)
		if errors.Is(err, pgx.ErrNoRows) {
			next = nil
			return nil
		}
		if err != nil {
			return fmt.Errorf("query next schedule run time: %w", err)
		}
		next = &t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

// --- Helpers ---

// scanSchedule читает строку schedules. Trigger возвращается сырым
// JSON'ом: решение о судьбе нечитаемого trigger'а принимает вызывающий
// код.
func scanSchedule(row pgx.Row) (*domain.Schedule, []byte, error) {
	var s domain.Schedule
	var triggerJSON, argsJSON []byte
	var acquiredBy *string

	err := row.Scan(
		&s.ID,
		&s.TaskID,
		&triggerJSON,
		&argsJSON,
		&s.NextFireTime,
		&s.LastFireTime,
		&acquiredBy,
		&s.AcquiredUntil,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("scan schedule: %w", err)
	}

	if acquiredBy != nil {
		s.AcquiredBy = *acquiredBy
	}
	if argsJSON != nil {
		if err := json.Unmarshal(argsJSON, &s.Args); err != nil {
			return nil, nil, fmt.Errorf("unmarshal schedule args: %w", err)
		}
	}
	return &s, triggerJSON, nil
}
