package cli

import (
	"context"
	"log/slog"

	"github.com/shaiso/Tempus/internal/mq"
	"github.com/shaiso/Tempus/internal/store"
)

// Env связывает команды CLI с внешним миром. Команды не открывают
// соединения сами: main собирает Env один раз, а каждая команда
// запрашивает ровно то, что ей нужно.
type Env struct {
	// Store открывает датастор. fromScratch=true очищает таблицы
	// при инициализации (используется только командой db init).
	// Возвращённая функция закрывает пул соединений.
	Store func(ctx context.Context, fromScratch bool) (*store.DataStore, func(), error)

	// MQ открывает соединение с RabbitMQ (команда events watch).
	MQ func() (*mq.Connection, error)

	// Output создаёт форматтер вывода с учётом флага --json.
	Output func() *Output

	// Logger — логгер команд.
	Logger *slog.Logger
}
