package trigger

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shaiso/Tempus/internal/domain"
)

// Ошибки (де)сериализации trigger'ов.
var (
	// ErrUnknownKind — в конверте неизвестный kind (например, данные
	// записаны более новой версией системы).
	ErrUnknownKind = errors.New("unknown trigger kind")

	// ErrNotSerializable — тип trigger'а не зарегистрирован в кодеке.
	ErrNotSerializable = errors.New("trigger is not serializable")
)

// Виды trigger'ов в конверте.
const (
	kindInterval = "interval"
	kindCron     = "cron"
)

// envelope — хранимая форма trigger'а.
type envelope struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// intervalWire — wire-форма Interval. Период хранится в секундах
// (float64), чтобы формат не зависел от представления time.Duration.
type intervalWire struct {
	Start    time.Time  `json:"start"`
	EverySec float64    `json:"every_sec"`
	End      *time.Time `json:"end,omitempty"`
}

// cronWire — wire-форма Cron.
type cronWire struct {
	Expr string     `json:"expr"`
	End  *time.Time `json:"end,omitempty"`
}

// Marshal сериализует trigger в JSON-конверт {kind, data}.
func Marshal(t domain.Trigger) ([]byte, error) {
	var env envelope

	switch tr := t.(type) {
	case *Interval:
		data, err := json.Marshal(intervalWire{
			Start:    tr.Start,
			EverySec: tr.Every.Seconds(),
			End:      tr.End,
		})
		if err != nil {
			return nil, fmt.Errorf("marshal interval trigger: %w", err)
		}
		env = envelope{Kind: kindInterval, Data: data}
	case *Cron:
		data, err := json.Marshal(cronWire{Expr: tr.Expr, End: tr.End})
		if err != nil {
			return nil, fmt.Errorf("marshal cron trigger: %w", err)
		}
		env = envelope{Kind: kindCron, Data: data}
	default:
		return nil, fmt.Errorf("%w: %T", ErrNotSerializable, t)
	}

	return json.Marshal(env)
}

// Unmarshal восстанавливает trigger из JSON-конверта.
func Unmarshal(data []byte) (domain.Trigger, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal trigger envelope: %w", err)
	}

	switch env.Kind {
	case kindInterval:
		var w intervalWire
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, fmt.Errorf("unmarshal interval trigger: %w", err)
		}
		return NewInterval(w.Start, time.Duration(w.EverySec*float64(time.Second)), w.End)
	case kindCron:
		var w cronWire
		if err := json.Unmarshal(env.Data, &w); err != nil {
			return nil, fmt.Errorf("unmarshal cron trigger: %w", err)
		}
		return NewCron(w.Expr, w.End)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, env.Kind)
	}
}
