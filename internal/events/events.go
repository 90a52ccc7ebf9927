package events

import (
	"time"

	"github.com/google/uuid"
)

// Kind — вид события датастора.
type Kind string

// Виды событий. Каждое успешное изменение в датасторе порождает
// ровно одно событие на затронутую запись.
const (
	KindTaskAdded       Kind = "task.added"
	KindTaskUpdated     Kind = "task.updated"
	KindTaskRemoved     Kind = "task.removed"
	KindScheduleAdded   Kind = "schedule.added"
	KindScheduleUpdated Kind = "schedule.updated"
	KindScheduleRemoved Kind = "schedule.removed"
	KindJobAdded        Kind = "job.added"
	KindJobAcquired     Kind = "job.acquired"
)

// Event — событие датастора.
//
// События публикуются строго ПОСЛЕ фиксации соответствующей мутации
// и никогда при её неудаче. Атомарность относительно подписчиков не
// гарантируется: события одной логической операции доставляются по
// одному, в порядке обработки записей.
type Event struct {
	// ID — уникальный идентификатор события.
	ID uuid.UUID `json:"id"`

	// Kind — вид события.
	Kind Kind `json:"kind"`

	// Timestamp — время публикации.
	Timestamp time.Time `json:"timestamp"`

	// TaskID — идентификатор задействованного task (task.* и job.*).
	TaskID string `json:"task_id,omitempty"`

	// ScheduleID — идентификатор schedule (schedule.* и job.added).
	ScheduleID string `json:"schedule_id,omitempty"`

	// JobID — идентификатор job (job.*).
	JobID uuid.UUID `json:"job_id,omitempty"`

	// NextFireTime — новое время срабатывания (schedule.added/updated).
	NextFireTime *time.Time `json:"next_fire_time,omitempty"`

	// AcquiredBy — идентификатор worker'а, захватившего job (job.acquired).
	AcquiredBy string `json:"acquired_by,omitempty"`

	// Tags — метки job (job.added).
	Tags []string `json:"tags,omitempty"`
}

// New создаёт событие с заполненными ID и Timestamp.
func New(kind Kind) Event {
	return Event{
		ID:        uuid.New(),
		Kind:      kind,
		Timestamp: time.Now().UTC(),
	}
}
