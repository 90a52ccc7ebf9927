package domain

import (
	"time"

	"github.com/google/uuid"
)

// Job — единица работы, ожидающая выполнения worker'ом.
//
// Job создаётся scheduler'ом при срабатывании schedule (или вручную
// через CLI) и забирается worker'ом через lease с учётом потолка
// одновременности task'а.
type Job struct {
	// ID — уникальный идентификатор job.
	ID uuid.UUID `json:"id"`

	// TaskID — ссылка на task.
	TaskID string `json:"task_id"`

	// ScheduleID — schedule, породивший job. Пустая строка для
	// jobs, созданных вручную.
	ScheduleID string `json:"schedule_id,omitempty"`

	// Args — входные параметры выполнения.
	Args map[string]any `json:"args,omitempty"`

	// Tags — произвольные метки для фильтрации и поиска.
	Tags []string `json:"tags,omitempty"`

	// CreatedAt — время создания. Jobs выдаются worker'ам строго
	// в порядке CreatedAt (FIFO).
	CreatedAt time.Time `json:"created_at"`

	// StartedAt — время первого захвата worker'ом.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// AcquiredBy — идентификатор worker-процесса, держащего lease.
	AcquiredBy string `json:"acquired_by,omitempty"`

	// AcquiredUntil — момент истечения lease.
	AcquiredUntil *time.Time `json:"acquired_until,omitempty"`

	// LockExpirationDelay — индивидуальная длительность lease.
	// 0 — используется длительность по умолчанию из датастора.
	LockExpirationDelay time.Duration `json:"lock_expiration_delay,omitempty"`
}

// EligibleForAcquisition возвращает true, если job можно захватить:
// lease отсутствует или истёк. Потолок одновременности проверяется
// отдельно, на этапе admission.
func (j *Job) EligibleForAcquisition(now time.Time) bool {
	return LeaseExpired(j.AcquiredUntil, now)
}

// LeaseDuration возвращает действующую длительность lease для job.
func (j *Job) LeaseDuration(defaultDelay time.Duration) time.Duration {
	if j.LockExpirationDelay > 0 {
		return j.LockExpirationDelay
	}
	return defaultDelay
}
