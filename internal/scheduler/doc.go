// Package scheduler реализует цикл планировщика.
//
// Scheduler захватывает due schedules через lease-протокол датастора,
// создаёт jobs для сработавших времён и освобождает schedules с новым
// next_fire_time (или на удаление, если trigger исчерпан).
//
// Структура:
//   - scheduler.go — основная логика (Tick, processSchedule, Run)
//
// Использование:
//
//	sched := scheduler.New(scheduler.Config{
//	    Store:  dataStore,
//	    Logger: logger,
//	})
//	if err := sched.Run(ctx); err != nil {
//	    logger.Error("scheduler stopped", "error", err)
//	}
//
// Координация:
//
// Лидер не выбирается — несколько scheduler-процессов работают
// одновременно, разыгрывая schedules между собой через lease в БД.
// Schedule, захваченный упавшим процессом, возвращается в оборот
// после истечения acquired_until.
package scheduler
