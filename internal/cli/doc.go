// Package cli реализует команды инструмента tempus: управление
// tasks, schedules и jobs напрямую через датастор, чтение результатов
// и наблюдение за потоком событий из RabbitMQ.
package cli
