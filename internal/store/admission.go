package store

import "github.com/shaiso/Tempus/internal/domain"

// admitJobs — чистая часть admission control.
//
// Обходит кандидатов в FIFO-порядке (порядок среза сохраняется) и
// допускает job, пока у его task остаются свободные слоты. Task без
// записи в slotsLeft считается неограниченным. Недопущенный job
// остаётся без lease и вернётся кандидатом в следующем раунде.
//
// slotsLeft мутируется по ходу обхода; увеличения счётчиков
// running_jobs по task возвращаются отдельной картой.
func admitJobs(candidates []domain.Job, slotsLeft map[string]int) ([]domain.Job, map[string]int) {
	admitted := make([]domain.Job, 0, len(candidates))
	increments := make(map[string]int)

	for _, job := range candidates {
		left, capped := slotsLeft[job.TaskID]
		if capped {
			if left == 0 {
				continue
			}
			slotsLeft[job.TaskID] = left - 1
		}
		admitted = append(admitted, job)
		increments[job.TaskID]++
	}
	return admitted, increments
}
