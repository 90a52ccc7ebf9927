// Package trigger содержит реализации domain.Trigger и их
// (де)сериализацию в JSON для хранения в датасторе.
//
// Поддерживаются два вида trigger'ов:
//   - interval — срабатывание каждые N секунд от точки отсчёта
//   - cron — срабатывание по cron-выражению
//
// Датастор хранит trigger как непрозрачный JSON-конверт {kind, data};
// Marshal/Unmarshal — единственные точки, знающие конкретные типы.
package trigger
