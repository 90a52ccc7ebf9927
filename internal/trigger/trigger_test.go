package trigger

import (
	"errors"
	"testing"
	"time"
)

// Interval Tests

func TestIntervalNext(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	trig, err := NewInterval(start, 10*time.Second, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name  string
		after time.Time
		want  time.Time
	}{
		{"before start", start.Add(-time.Hour), start},
		{"exactly at start", start, start.Add(10 * time.Second)},
		{"mid period", start.Add(3 * time.Second), start.Add(10 * time.Second)},
		{"on period boundary", start.Add(20 * time.Second), start.Add(30 * time.Second)},
		{"far in the future", start.Add(95 * time.Second), start.Add(100 * time.Second)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := trig.Next(tt.after)
			if !ok {
				t.Fatal("expected a fire time")
			}
			if !got.Equal(tt.want) {
				t.Errorf("Next(%v) = %v, want %v", tt.after, got, tt.want)
			}
		})
	}
}

func TestIntervalNextRespectsEnd(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(25 * time.Second)
	trig, err := NewInterval(start, 10*time.Second, &end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Последнее срабатывание в пределах end
	got, ok := trig.Next(start.Add(15 * time.Second))
	if !ok || !got.Equal(start.Add(20*time.Second)) {
		t.Errorf("expected fire at start+20s, got %v, %v", got, ok)
	}

	// За end — trigger исчерпан
	if _, ok := trig.Next(start.Add(20 * time.Second)); ok {
		t.Error("expected exhausted trigger past end")
	}
}

func TestNewIntervalValidation(t *testing.T) {
	start := time.Now()

	if _, err := NewInterval(start, 0, nil); err == nil {
		t.Error("expected error for zero interval")
	}
	if _, err := NewInterval(start, -time.Second, nil); err == nil {
		t.Error("expected error for negative interval")
	}
}

// Cron Tests

func TestCronNext(t *testing.T) {
	trig, err := NewCron("*/5 * * * *", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	after := time.Date(2026, 3, 1, 12, 3, 0, 0, time.UTC)
	got, ok := trig.Next(after)
	if !ok {
		t.Fatal("expected a fire time")
	}
	want := time.Date(2026, 3, 1, 12, 5, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Next() = %v, want %v", got, want)
	}
}

func TestCronNextRespectsEnd(t *testing.T) {
	end := time.Date(2026, 3, 1, 12, 4, 0, 0, time.UTC)
	trig, err := NewCron("*/5 * * * *", &end)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := trig.Next(time.Date(2026, 3, 1, 12, 3, 0, 0, time.UTC)); ok {
		t.Error("expected exhausted trigger past end")
	}
}

func TestNewCronValidation(t *testing.T) {
	if _, err := NewCron("not a cron", nil); err == nil {
		t.Error("expected error for invalid expression")
	}
	if _, err := NewCron("* * * *", nil); err == nil {
		t.Error("expected error for wrong field count")
	}
}

// Codec Tests

func TestCodecInterval(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(time.Hour)
	orig, _ := NewInterval(start, 90*time.Second, &end)

	data, err := Marshal(orig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	restored, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	got := restored.(*Interval)
	if !got.Start.Equal(orig.Start) || got.Every != orig.Every {
		t.Errorf("restored %+v differs from original %+v", got, orig)
	}
	if got.End == nil || !got.End.Equal(end) {
		t.Errorf("end not preserved: %v", got.End)
	}

	// Восстановленный trigger даёт те же срабатывания
	want, _ := orig.Next(start)
	have, _ := got.Next(start)
	if !have.Equal(want) {
		t.Errorf("restored trigger fires at %v, original at %v", have, want)
	}
}

func TestCodecCron(t *testing.T) {
	orig, _ := NewCron("0 9 * * 1-5", nil)

	data, err := Marshal(orig)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	restored, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	got := restored.(*Cron)
	if got.Expr != orig.Expr {
		t.Errorf("expected expr %q, got %q", orig.Expr, got.Expr)
	}

	after := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	want, _ := orig.Next(after)
	have, _ := got.Next(after)
	if !have.Equal(want) {
		t.Errorf("restored trigger fires at %v, original at %v", have, want)
	}
}

func TestUnmarshalUnknownKind(t *testing.T) {
	// Данные, записанные более новой версией системы
	_, err := Unmarshal([]byte(`{"kind":"calendar","data":{}}`))
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func TestMarshalUnknownType(t *testing.T) {
	_, err := Marshal(fakeTrigger{})
	if !errors.Is(err, ErrNotSerializable) {
		t.Errorf("expected ErrNotSerializable, got %v", err)
	}
}

type fakeTrigger struct{}

func (fakeTrigger) Next(after time.Time) (time.Time, bool) { return after, true }
