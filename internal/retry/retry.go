// Package retry реализует политику повторов с ограниченным числом
// попыток и экспоненциальной задержкой.
//
// Датастор применяет политику к операциям, упавшим из-за временных
// проблем связи с БД; постоянные ошибки пробрасываются сразу.
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Policy — параметры повторов.
type Policy struct {
	// MaxAttempts — максимальное число попыток (включая первую).
	MaxAttempts int

	// BaseDelay — задержка перед второй попыткой.
	BaseDelay time.Duration

	// MaxDelay — потолок задержки между попытками.
	MaxDelay time.Duration

	// Jitter — доля случайного разброса задержки (0..1).
	Jitter float64
}

// DefaultPolicy возвращает политику по умолчанию:
// 5 попыток, задержка от 100ms до 5s, jitter 20%.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts: 5,
		BaseDelay:   100 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		Jitter:      0.2,
	}
}

// Do выполняет op, повторяя её при ошибках, для которых retryable
// возвращает true. После исчерпания попыток возвращает последнюю
// ошибку. Отмена контекста прерывает ожидание между попытками.
func (p Policy) Do(ctx context.Context, retryable func(error) bool, op func() error) error {
	attempts := p.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}

	var err error
	for attempt := 1; ; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if !retryable(err) {
			return err
		}
		if attempt >= attempts {
			return fmt.Errorf("giving up after %d attempts: %w", attempt, err)
		}

		timer := time.NewTimer(p.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("retry interrupted: %w", ctx.Err())
		case <-timer.C:
		}
	}
}

// delay возвращает задержку перед следующей попыткой:
// BaseDelay * 2^(attempt-1) с потолком MaxDelay и случайным разбросом.
func (p Policy) delay(attempt int) time.Duration {
	d := p.BaseDelay
	if d <= 0 {
		d = 100 * time.Millisecond
	}
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			d = p.MaxDelay
			break
		}
	}
	if p.Jitter > 0 {
		spread := float64(d) * p.Jitter
		d = time.Duration(float64(d) - spread/2 + rand.Float64()*spread)
	}
	return d
}
