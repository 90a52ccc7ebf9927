package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Tempus/internal/events"
	"github.com/shaiso/Tempus/internal/retry"
)

// Default configuration values.
const (
	defaultLockExpirationDelay = 30 * time.Second
	minServerVersion           = 120000 // Postgres 12
)

// DataStore — датастор планировщика поверх Postgres.
//
// Все операции могут блокироваться на сетевом I/O и прозрачно
// повторяются при временных ошибках связи. Многошаговые операции
// (acquire, release) выполняются в одной транзакции, так что
// «прочитать-затем-застолбить» атомарно относительно конкурентов.
type DataStore struct {
	pool   *pgxpool.Pool
	broker events.Broker
	logger *slog.Logger
	retry  retry.Policy

	lockExpirationDelay time.Duration
	startFromScratch    bool
}

// Config — конфигурация DataStore.
type Config struct {
	// Pool — пул соединений с Postgres.
	Pool *pgxpool.Pool

	// Broker — приёмник событий. Опционален: nil отключает публикацию.
	Broker events.Broker

	// Logger — логгер (default: slog.Default()).
	Logger *slog.Logger

	// Retry — политика повторов при временных ошибках связи.
	Retry retry.Policy

	// LockExpirationDelay — длительность lease по умолчанию (default: 30s).
	// Для jobs переопределяется полем LockExpirationDelay.
	LockExpirationDelay time.Duration

	// StartFromScratch — очистить все таблицы при инициализации.
	StartFromScratch bool
}

// New создаёт DataStore.
func New(cfg Config) *DataStore {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	policy := cfg.Retry
	if policy.MaxAttempts == 0 {
		policy = retry.DefaultPolicy()
	}

	delay := cfg.LockExpirationDelay
	if delay <= 0 {
		delay = defaultLockExpirationDelay
	}

	return &DataStore{
		pool:                cfg.Pool,
		broker:              cfg.Broker,
		logger:              logger,
		retry:               policy,
		lockExpirationDelay: delay,
		startFromScratch:    cfg.StartFromScratch,
	}
}

// Initialize подготавливает БД: проверяет версию сервера, при
// StartFromScratch очищает таблицы и создаёт схему с индексами.
func (s *DataStore) Initialize(ctx context.Context) error {
	return s.withRetry(ctx, func() error {
		var version int
		err := s.pool.QueryRow(ctx,
			`SELECT current_setting('server_version_num')::int`,
		).Scan(&version)
		if err != nil {
			return fmt.Errorf("query server version: %w", err)
		}
		if version < minServerVersion {
			return fmt.Errorf("postgres server too old: %d < %d", version, minServerVersion)
		}

		return s.inTx(ctx, func(tx pgx.Tx) error {
			if s.startFromScratch {
				for _, stmt := range truncateStatements {
					if _, err := tx.Exec(ctx, stmt); err != nil {
						// При первом запуске таблиц ещё нет.
						if !isUndefinedTable(err) {
							return fmt.Errorf("truncate: %w", err)
						}
					}
				}
			}
			for _, stmt := range schemaStatements {
				if _, err := tx.Exec(ctx, stmt); err != nil {
					return fmt.Errorf("create schema: %w", err)
				}
			}
			return nil
		})
	})
}

// --- Helpers ---

// withRetry выполняет op с повторами при временных ошибках связи.
func (s *DataStore) withRetry(ctx context.Context, op func() error) error {
	return s.retry.Do(ctx, isTransient, op)
}

// inTx выполняет fn в транзакции с commit/rollback.
func (s *DataStore) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// publish отправляет событие в broker. Мутация к этому моменту уже
// зафиксирована, поэтому ошибка публикации только логируется.
func (s *DataStore) publish(ctx context.Context, event events.Event) {
	if s.broker == nil {
		return
	}
	if err := s.broker.Publish(ctx, event); err != nil {
		s.logger.Warn("failed to publish event",
			"kind", event.Kind,
			"error", err,
		)
	}
}

// isTransient определяет, стоит ли повторять операцию после ошибки.
// Временными считаются сетевые ошибки, ошибки класса 08 (connection
// exception), обрыв со стороны сервера (57P0x) и конфликты
// сериализации/deadlock (40001, 40P01).
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if pgconn.SafeToRetry(err) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case strings.HasPrefix(pgErr.Code, "08"):
			return true
		case pgErr.Code == "57P01", pgErr.Code == "57P02", pgErr.Code == "57P03":
			return true
		case pgErr.Code == "40001", pgErr.Code == "40P01":
			return true
		}
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}

// isUniqueViolation — нарушение уникальности (duplicate key).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// isUndefinedTable — обращение к несуществующей таблице.
func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42P01"
}

// nullString возвращает nil для пустой строки.
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// secondsToDuration конвертирует опциональные секунды из БД в Duration.
func secondsToDuration(sec *float64) *time.Duration {
	if sec == nil {
		return nil
	}
	d := time.Duration(*sec * float64(time.Second))
	return &d
}

// durationToSeconds конвертирует опциональный Duration в секунды для БД.
func durationToSeconds(d *time.Duration) *float64 {
	if d == nil {
		return nil
	}
	sec := d.Seconds()
	return &sec
}
