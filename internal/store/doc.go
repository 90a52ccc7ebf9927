// Package store — общий датастор и слой координации планировщика.
//
// Несколько независимых scheduler- и worker-процессов работают с одной
// базой Postgres; никакой общей памяти и внутрипроцессных блокировок
// нет. Взаимное исключение выражено через lease: захват — это условная
// запись acquired_by/acquired_until, освобождение — условная запись,
// ограниченная владельцем. Упавший процесс ничего не чистит: его lease
// истекает по времени, и записи снова становятся доступными.
//
// Ответственность пакета:
//   - CRUD для tasks, schedules, jobs, job results
//   - lease-протокол захвата/освобождения schedules и jobs
//   - admission control: потолок одновременных jobs на task
//   - политика конфликтов при вставке schedule
//   - публикация событий после фиксации мутаций
//
// Временные ошибки связи с БД повторяются по retry.Policy; постоянные
// пробрасываются вызывающему коду.
package store
