package events

import (
	"context"
	"log/slog"
	"sync"
)

// Broker — приёмник событий датастора.
//
// Реализации: LocalBroker (внутрипроцессная доставка) и mq.Publisher
// (RabbitMQ). Ошибка публикации не откатывает зафиксированную мутацию.
type Broker interface {
	Publish(ctx context.Context, event Event) error
}

// LocalBroker — внутрипроцессный broker с fan-out по подписчикам.
//
// Используется в тестах и в однопроцессных развёртываниях, где
// внешний транспорт не нужен.
type LocalBroker struct {
	logger *slog.Logger

	mu   sync.RWMutex
	subs map[int]chan Event
	next int
}

// NewLocalBroker создаёт LocalBroker.
func NewLocalBroker(logger *slog.Logger) *LocalBroker {
	if logger == nil {
		logger = slog.Default()
	}
	return &LocalBroker{
		logger: logger,
		subs:   make(map[int]chan Event),
	}
}

// Publish доставляет событие всем подписчикам.
// Подписчик с переполненным буфером событие теряет: доставка
// не блокирует вызывающий код датастора.
func (b *LocalBroker) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subs {
		select {
		case ch <- event:
		default:
			b.logger.Warn("subscriber buffer full, dropping event",
				"subscriber", id,
				"kind", event.Kind,
			)
		}
	}
	return nil
}

// Subscribe возвращает канал событий и функцию отписки.
func (b *LocalBroker) Subscribe(buffer int) (<-chan Event, func()) {
	if buffer <= 0 {
		buffer = 64
	}

	b.mu.Lock()
	id := b.next
	b.next++
	ch := make(chan Event, buffer)
	b.subs[id] = ch
	b.mu.Unlock()

	unsubscribe := func() {
		b.mu.Lock()
		if _, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, unsubscribe
}
