package store

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Tempus/internal/domain"
)

func makeJobs(taskIDs ...string) []domain.Job {
	jobs := make([]domain.Job, len(taskIDs))
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, taskID := range taskIDs {
		jobs[i] = domain.Job{
			ID:        uuid.New(),
			TaskID:    taskID,
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
	}
	return jobs
}

func TestAdmitJobsUnlimitedTask(t *testing.T) {
	candidates := makeJobs("t1", "t1", "t1")

	// Task без записи в slotsLeft не ограничен
	admitted, increments := admitJobs(candidates, map[string]int{})
	if len(admitted) != 3 {
		t.Fatalf("expected all 3 admitted, got %d", len(admitted))
	}
	if increments["t1"] != 3 {
		t.Errorf("expected increment 3, got %d", increments["t1"])
	}
}

func TestAdmitJobsRespectsCeiling(t *testing.T) {
	// Один свободный слот, два кандидата FIFO: допущен только первый,
	// второй остаётся кандидатом следующего раунда.
	candidates := makeJobs("t1", "t1")

	admitted, increments := admitJobs(candidates, map[string]int{"t1": 1})
	if len(admitted) != 1 {
		t.Fatalf("expected 1 admitted, got %d", len(admitted))
	}
	if admitted[0].ID != candidates[0].ID {
		t.Error("expected the oldest job to be admitted")
	}
	if increments["t1"] != 1 {
		t.Errorf("expected increment 1, got %d", increments["t1"])
	}
}

func TestAdmitJobsZeroSlots(t *testing.T) {
	candidates := makeJobs("t1", "t1")

	admitted, increments := admitJobs(candidates, map[string]int{"t1": 0})
	if len(admitted) != 0 {
		t.Fatalf("expected none admitted, got %d", len(admitted))
	}
	if len(increments) != 0 {
		t.Errorf("expected no increments, got %v", increments)
	}
}

func TestAdmitJobsMixedTasks(t *testing.T) {
	// t1 ограничен одним слотом, t2 двумя, t3 не ограничен
	candidates := makeJobs("t1", "t2", "t1", "t3", "t2", "t2")

	admitted, increments := admitJobs(candidates, map[string]int{"t1": 1, "t2": 2})
	if len(admitted) != 4 {
		t.Fatalf("expected 4 admitted, got %d", len(admitted))
	}

	// Недопущенные: третий (t1 исчерпан) и шестой (t2 исчерпан)
	want := []string{"t1", "t2", "t3", "t2"}
	for i, job := range admitted {
		if job.TaskID != want[i] {
			t.Errorf("admitted[%d].TaskID = %s, want %s", i, job.TaskID, want[i])
		}
	}

	if increments["t1"] != 1 || increments["t2"] != 2 || increments["t3"] != 1 {
		t.Errorf("unexpected increments: %v", increments)
	}
}

func TestAdmitJobsPreservesFIFO(t *testing.T) {
	candidates := makeJobs("t1", "t2", "t1", "t2")

	admitted, _ := admitJobs(candidates, map[string]int{})
	for i := 1; i < len(admitted); i++ {
		if admitted[i].CreatedAt.Before(admitted[i-1].CreatedAt) {
			t.Fatal("admitted jobs out of FIFO order")
		}
	}
}
