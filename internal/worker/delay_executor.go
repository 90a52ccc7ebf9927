package worker

import (
	"context"
	"time"

	"github.com/shaiso/Tempus/internal/domain"
)

// DelayExecutor — executor типа "delay".
//
// Ожидает указанное количество секунд. Поддерживает отмену через context.
//
// Args:
//   - duration_sec (number): длительность задержки в секундах (default: 1)
type DelayExecutor struct{}

// Execute выполняет задержку.
func (e *DelayExecutor) Execute(ctx context.Context, job *domain.Job) error {
	durationSec := 1.0
	if val, ok := job.Args["duration_sec"]; ok {
		switch v := val.(type) {
		case float64:
			durationSec = v
		case int:
			durationSec = float64(v)
		}
	}

	if durationSec <= 0 {
		durationSec = 1
	}

	select {
	case <-time.After(time.Duration(durationSec * float64(time.Second))):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
