package domain

import "time"

// Task — определение задачи, к которой привязываются schedules и jobs.
//
// Task описывает, ЧТО выполнять (имя executor'а на стороне worker'а)
// и СКОЛЬКО экземпляров может выполняться одновременно.
// Счётчик RunningJobs ведётся датастором: инкремент при acquire jobs,
// декремент при release job.
type Task struct {
	// ID — уникальный идентификатор task.
	ID string `json:"id"`

	// Executor — имя executor'а, которым worker выполняет jobs этого task.
	Executor string `json:"executor"`

	// MaxRunningJobs — потолок одновременно выполняемых jobs.
	// nil означает отсутствие ограничения.
	MaxRunningJobs *int `json:"max_running_jobs,omitempty"`

	// RunningJobs — текущее количество выполняемых jobs.
	// Инвариант: 0 <= RunningJobs <= MaxRunningJobs (если потолок задан).
	// Поле принадлежит датастору; локальные изменения ни на что не влияют.
	RunningJobs int `json:"running_jobs"`

	// MisfireGraceTime — допустимое опоздание срабатывания schedule.
	// Если срабатывание опоздало сильнее, job не создаётся.
	// nil — опоздание не ограничено.
	MisfireGraceTime *time.Duration `json:"misfire_grace_time,omitempty"`
}

// SlotsLeft возвращает количество свободных слотов и признак того,
// что потолок задан. Для task без потолка возвращает (0, false).
func (t *Task) SlotsLeft() (int, bool) {
	if t.MaxRunningJobs == nil {
		return 0, false
	}
	left := *t.MaxRunningJobs - t.RunningJobs
	if left < 0 {
		left = 0
	}
	return left, true
}
