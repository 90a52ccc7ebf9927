package trigger

import (
	"fmt"
	"time"
)

// Interval — trigger, срабатывающий каждые Every от точки Start.
//
// Времена срабатывания: Start, Start+Every, Start+2*Every, …
// Если задан End, срабатывания позже End не происходят.
type Interval struct {
	// Start — точка отсчёта (первое срабатывание).
	Start time.Time

	// Every — период между срабатываниями. Должен быть > 0.
	Every time.Duration

	// End — последний допустимый момент срабатывания (включительно).
	End *time.Time
}

// NewInterval создаёт interval-trigger с валидацией периода.
func NewInterval(start time.Time, every time.Duration, end *time.Time) (*Interval, error) {
	if every <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %s", every)
	}
	return &Interval{Start: start, Every: every, End: end}, nil
}

// Next возвращает ближайшее срабатывание строго после after.
func (t *Interval) Next(after time.Time) (time.Time, bool) {
	if t.Every <= 0 {
		return time.Time{}, false
	}

	next := t.Start
	if !after.Before(t.Start) {
		// Количество целых периодов, прошедших к after,
		// плюс один — первое срабатывание строго после.
		elapsed := after.Sub(t.Start)
		periods := elapsed/t.Every + 1
		next = t.Start.Add(periods * t.Every)
	}

	if t.End != nil && next.After(*t.End) {
		return time.Time{}, false
	}
	return next, true
}
