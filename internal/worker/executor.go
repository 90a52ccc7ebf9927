package worker

import (
	"context"
	"fmt"

	"github.com/shaiso/Tempus/internal/domain"
)

// Executor — интерфейс выполнения job.
//
// job.Args содержит параметры выполнения, заданные при создании
// schedule или job. Ошибка Execute фиксируется в JobResult
// с outcome=error.
type Executor interface {
	Execute(ctx context.Context, job *domain.Job) error
}

// Registry — реестр executor'ов по имени из task.Executor.
type Registry struct {
	executors map[string]Executor
}

// NewRegistry создаёт реестр с зарегистрированными executor'ами
// по умолчанию: http, delay.
func NewRegistry() *Registry {
	r := &Registry{executors: make(map[string]Executor)}
	r.Register("http", &HTTPExecutor{})
	r.Register("delay", &DelayExecutor{})
	return r
}

// Register добавляет executor под именем name.
func (r *Registry) Register(name string, executor Executor) {
	r.executors[name] = executor
}

// Get возвращает executor по имени.
func (r *Registry) Get(name string) (Executor, error) {
	executor, ok := r.executors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownExecutor, name)
	}
	return executor, nil
}
