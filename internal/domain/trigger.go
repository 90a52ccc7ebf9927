package domain

import "time"

// Trigger вычисляет времена срабатывания schedule.
//
// Датастор трактует trigger как непрозрачное сериализуемое значение:
// он сохраняет и восстанавливает его, но интерпретацией занимается
// scheduler. Реализации живут в internal/trigger.
type Trigger interface {
	// Next возвращает ближайшее время срабатывания строго после after.
	// ok == false означает, что trigger исчерпан и срабатываний
	// больше не будет.
	Next(after time.Time) (t time.Time, ok bool)
}
