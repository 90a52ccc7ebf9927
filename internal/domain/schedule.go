package domain

import "time"

// Schedule — расписание порождения jobs для task.
//
// Schedule хранится в общей БД и разыгрывается между конкурирующими
// scheduler-процессами через lease: процесс, успевший проставить
// acquired_by/acquired_until, владеет schedule до истечения lease.
type Schedule struct {
	// ID — уникальный идентификатор schedule.
	ID string `json:"id"`

	// TaskID — ссылка на task, для которого создаются jobs.
	// Жёсткого foreign key нет: schedule с несуществующим task
	// просто не сможет породить выполнимый job.
	TaskID string `json:"task_id"`

	// Trigger — источник времён срабатывания.
	Trigger Trigger `json:"-"`

	// Args — входные параметры, передаваемые в каждый созданный job.
	Args map[string]any `json:"args,omitempty"`

	// NextFireTime — время следующего срабатывания.
	// nil означает, что trigger исчерпан и schedule подлежит удалению.
	NextFireTime *time.Time `json:"next_fire_time,omitempty"`

	// LastFireTime — время последнего срабатывания.
	LastFireTime *time.Time `json:"last_fire_time,omitempty"`

	// AcquiredBy — идентификатор scheduler-процесса, держащего lease.
	// Пустая строка — lease не держится.
	AcquiredBy string `json:"acquired_by,omitempty"`

	// AcquiredUntil — момент истечения lease.
	AcquiredUntil *time.Time `json:"acquired_until,omitempty"`
}

// EligibleForAcquisition возвращает true, если schedule можно захватить:
// время срабатывания наступило, а lease отсутствует или истёк.
//
// Чистая функция (now, schedule) → bool; сам захват выполняется
// условной записью в датасторе.
func (s *Schedule) EligibleForAcquisition(now time.Time) bool {
	if s.NextFireTime == nil || s.NextFireTime.After(now) {
		return false
	}
	return LeaseExpired(s.AcquiredUntil, now)
}

// LeaseExpired возвращает true, если lease отсутствует или истёк к now.
func LeaseExpired(acquiredUntil *time.Time, now time.Time) bool {
	return acquiredUntil == nil || acquiredUntil.Before(now)
}
