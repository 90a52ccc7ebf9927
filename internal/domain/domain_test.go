package domain

import (
	"testing"
	"time"
)

// Schedule Tests

func TestScheduleEligibleForAcquisition(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	tests := []struct {
		name     string
		schedule Schedule
		want     bool
	}{
		{
			name:     "due and unleased",
			schedule: Schedule{NextFireTime: &past},
			want:     true,
		},
		{
			name:     "not yet due",
			schedule: Schedule{NextFireTime: &future},
			want:     false,
		},
		{
			name:     "exhausted trigger",
			schedule: Schedule{NextFireTime: nil},
			want:     false,
		},
		{
			name: "held by live lease",
			schedule: Schedule{
				NextFireTime:  &past,
				AcquiredBy:    "scheduler-a",
				AcquiredUntil: &future,
			},
			want: false,
		},
		{
			name: "lease expired",
			schedule: Schedule{
				NextFireTime:  &past,
				AcquiredBy:    "scheduler-a",
				AcquiredUntil: &past,
			},
			want: true,
		},
		{
			name: "due exactly now",
			schedule: Schedule{
				NextFireTime: &now,
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.schedule.EligibleForAcquisition(now); got != tt.want {
				t.Errorf("EligibleForAcquisition() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Job Tests

func TestJobEligibleForAcquisition(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	future := now.Add(time.Second)

	// Без lease
	job := Job{}
	if !job.EligibleForAcquisition(now) {
		t.Error("unleased job should be eligible")
	}

	// Живой lease
	job = Job{AcquiredBy: "worker-a", AcquiredUntil: &future}
	if job.EligibleForAcquisition(now) {
		t.Error("job with live lease should not be eligible")
	}

	// Истёкший lease — процесс-владелец считается умершим
	job = Job{AcquiredBy: "worker-a", AcquiredUntil: &past}
	if !job.EligibleForAcquisition(now) {
		t.Error("job with expired lease should be eligible")
	}
}

func TestJobLeaseDuration(t *testing.T) {
	def := 30 * time.Second

	job := Job{}
	if got := job.LeaseDuration(def); got != def {
		t.Errorf("expected default %v, got %v", def, got)
	}

	job = Job{LockExpirationDelay: 2 * time.Minute}
	if got := job.LeaseDuration(def); got != 2*time.Minute {
		t.Errorf("expected 2m, got %v", got)
	}
}

// Task Tests

func TestTaskSlotsLeft(t *testing.T) {
	// Без потолка
	task := Task{RunningJobs: 7}
	if _, capped := task.SlotsLeft(); capped {
		t.Error("task without ceiling should not be capped")
	}

	// Свободные слоты
	max := 3
	task = Task{MaxRunningJobs: &max, RunningJobs: 1}
	left, capped := task.SlotsLeft()
	if !capped || left != 2 {
		t.Errorf("expected (2, true), got (%d, %v)", left, capped)
	}

	// Потолок исчерпан
	task = Task{MaxRunningJobs: &max, RunningJobs: 3}
	if left, _ := task.SlotsLeft(); left != 0 {
		t.Errorf("expected 0 slots, got %d", left)
	}

	// Счётчик выше потолка не уводит слоты в минус
	task = Task{MaxRunningJobs: &max, RunningJobs: 5}
	if left, _ := task.SlotsLeft(); left != 0 {
		t.Errorf("expected 0 slots, got %d", left)
	}
}

// ConflictPolicy Tests

func TestParseConflictPolicy(t *testing.T) {
	for _, s := range []string{"fail", "replace", "skip"} {
		p, err := ParseConflictPolicy(s)
		if err != nil {
			t.Errorf("ParseConflictPolicy(%q) unexpected error: %v", s, err)
		}
		if string(p) != s {
			t.Errorf("expected %q, got %q", s, p)
		}
	}

	// Множество закрытое: неизвестная политика отклоняется
	if _, err := ParseConflictPolicy("update"); err == nil {
		t.Error("expected error for unknown policy")
	}
	if _, err := ParseConflictPolicy(""); err == nil {
		t.Error("expected error for empty policy")
	}
}
