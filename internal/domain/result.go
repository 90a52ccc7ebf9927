package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobOutcome — исход выполнения job.
type JobOutcome string

const (
	// OutcomeSuccess — job выполнен успешно.
	OutcomeSuccess JobOutcome = "success"

	// OutcomeError — выполнение завершилось ошибкой.
	OutcomeError JobOutcome = "error"

	// OutcomeMissedStartDeadline — job не был взят в работу вовремя.
	OutcomeMissedStartDeadline JobOutcome = "missed_start_deadline"
)

// JobResult — результат выполнения job.
//
// Результат записывается ровно один раз при завершении job и читается
// ровно один раз: чтение удаляет запись (single-use семантика).
type JobResult struct {
	// JobID — идентификатор завершённого job.
	JobID uuid.UUID `json:"job_id"`

	// Outcome — исход выполнения.
	Outcome JobOutcome `json:"outcome"`

	// Error — текст ошибки при Outcome == OutcomeError.
	Error string `json:"error,omitempty"`

	// FinishedAt — время завершения.
	FinishedAt time.Time `json:"finished_at"`

	// ExpiresAt — время, после которого результат никому не нужен.
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired возвращает true, если результат истёк уже в момент создания
// и сохранять его не нужно.
func (r *JobResult) Expired() bool {
	return !r.ExpiresAt.After(r.FinishedAt)
}
