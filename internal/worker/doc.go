// Package worker выполняет jobs, захваченные из датастора.
//
// Worker — stateless компонент, который:
//   - Периодически захватывает порцию jobs (AcquireJobs, FIFO,
//     с учётом потолка одновременности task'ов)
//   - Выполняет каждый job executor'ом, указанным в его task
//   - Финализирует job через ReleaseJob с результатом
//
// Workers масштабируются горизонтально: admission control в датасторе
// гарантирует, что суммарное число выполняемых jobs одного task не
// превысит max_running_jobs, сколько бы worker'ов ни работало.
//
// Executor — интерфейс выполнения:
//
//	type Executor interface {
//	    Execute(ctx context.Context, job *domain.Job) error
//	}
//
// Реализации: HTTPExecutor (запрос по конфигурации из job.Args),
// DelayExecutor (пауза, для нагрузочных прогонов и тестов).
//
// Пакет различает два уровня ошибок: инфраструктурные ошибки работы
// с датастором (логируются, цикл продолжается) и ошибки выполнения
// job (фиксируются в JobResult с outcome=error).
package worker
