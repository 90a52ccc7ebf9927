package store

// schemaStatements — DDL датастора. Выполняется в Initialize;
// все выражения идемпотентны.
//
// Индексы обслуживают горячие выборки:
//   - schedules.next_fire_time — поиск due schedules
//   - jobs.created_at — FIFO-выдача jobs
//   - jobs.task_id — admission и учёт по task
//   - jobs.tags — фильтрация по меткам
//   - job_results.finished_at / expires_at — чистка устаревших результатов
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS tasks (
		id                text PRIMARY KEY,
		executor          text NOT NULL DEFAULT '',
		max_running_jobs  int,
		running_jobs      int NOT NULL DEFAULT 0,
		misfire_grace_sec double precision
	)`,
	`CREATE TABLE IF NOT EXISTS schedules (
		id             text PRIMARY KEY,
		task_id        text NOT NULL,
		trigger        jsonb NOT NULL,
		args           jsonb,
		next_fire_time timestamptz,
		last_fire_time timestamptz,
		acquired_by    text,
		acquired_until timestamptz
	)`,
	`CREATE TABLE IF NOT EXISTS jobs (
		id                  uuid PRIMARY KEY,
		task_id             text NOT NULL,
		schedule_id         text,
		args                jsonb,
		tags                text[] NOT NULL DEFAULT '{}',
		created_at          timestamptz NOT NULL,
		started_at          timestamptz,
		acquired_by         text,
		acquired_until      timestamptz,
		lock_expiration_sec double precision
	)`,
	`CREATE TABLE IF NOT EXISTS job_results (
		job_id      uuid PRIMARY KEY,
		outcome     text NOT NULL,
		error       text,
		finished_at timestamptz NOT NULL,
		expires_at  timestamptz NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_schedules_next_fire_time ON schedules (next_fire_time)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_task_id ON jobs (task_id)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs (created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_jobs_tags ON jobs USING gin (tags)`,
	`CREATE INDEX IF NOT EXISTS idx_job_results_finished_at ON job_results (finished_at)`,
	`CREATE INDEX IF NOT EXISTS idx_job_results_expires_at ON job_results (expires_at)`,
}

// truncateStatements — очистка всех таблиц для start-from-scratch режима.
var truncateStatements = []string{
	`TRUNCATE tasks, schedules, jobs, job_results`,
}
