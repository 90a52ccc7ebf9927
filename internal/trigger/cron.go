package trigger

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Cron — trigger, срабатывающий по стандартному cron-выражению
// (5 полей: минуты часы дни месяцы дни_недели).
type Cron struct {
	// Expr — исходное cron-выражение.
	Expr string

	// End — последний допустимый момент срабатывания (включительно).
	End *time.Time

	sched cron.Schedule
}

// NewCron парсит cron-выражение и создаёт trigger.
func NewCron(expr string, end *time.Time) (*Cron, error) {
	sched, err := cron.ParseStandard(expr)
	if err != nil {
		return nil, fmt.Errorf("parse cron expression %q: %w", expr, err)
	}
	return &Cron{Expr: expr, End: end, sched: sched}, nil
}

// Next возвращает ближайшее срабатывание строго после after.
func (t *Cron) Next(after time.Time) (time.Time, bool) {
	next := t.sched.Next(after)
	if next.IsZero() {
		return time.Time{}, false
	}
	if t.End != nil && next.After(*t.End) {
		return time.Time{}, false
	}
	return next, true
}
