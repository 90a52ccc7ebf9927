package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTransient = errors.New("transient")

func alwaysRetryable(error) bool { return true }

func fastPolicy(attempts int) Policy {
	return Policy{
		MaxAttempts: attempts,
		BaseDelay:   time.Millisecond,
		MaxDelay:    5 * time.Millisecond,
	}
}

func TestDoSucceedsFirstTry(t *testing.T) {
	calls := 0
	err := fastPolicy(3).Do(context.Background(), alwaysRetryable, func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := fastPolicy(5).Do(context.Background(), alwaysRetryable, func() error {
		calls++
		if calls < 3 {
			return errTransient
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDoGivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	err := fastPolicy(3).Do(context.Background(), alwaysRetryable, func() error {
		calls++
		return errTransient
	})
	if !errors.Is(err, errTransient) {
		t.Errorf("expected wrapped errTransient, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestDoPermanentErrorNotRetried(t *testing.T) {
	errPermanent := errors.New("permanent")
	calls := 0
	err := fastPolicy(5).Do(context.Background(), func(error) bool { return false }, func() error {
		calls++
		return errPermanent
	})
	if !errors.Is(err, errPermanent) {
		t.Errorf("expected errPermanent, got %v", err)
	}
	if calls != 1 {
		t.Errorf("permanent error should not be retried, got %d calls", calls)
	}
}

func TestDoContextCancelStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	p := Policy{MaxAttempts: 10, BaseDelay: time.Hour}
	err := p.Do(ctx, alwaysRetryable, func() error {
		cancel()
		return errTransient
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDelayGrowsAndCaps(t *testing.T) {
	p := Policy{MaxAttempts: 10, BaseDelay: 10 * time.Millisecond, MaxDelay: 40 * time.Millisecond}

	// Без jitter задержка детерминирована: 10, 20, 40, 40, ...
	if d := p.delay(1); d != 10*time.Millisecond {
		t.Errorf("delay(1) = %v", d)
	}
	if d := p.delay(2); d != 20*time.Millisecond {
		t.Errorf("delay(2) = %v", d)
	}
	if d := p.delay(5); d != 40*time.Millisecond {
		t.Errorf("delay(5) = %v, expected cap", d)
	}
}
