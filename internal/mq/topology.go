package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// ExchangeEvents — единственный exchange системы: topic с routing key,
// равным виду события.
const ExchangeEvents Exchange = "tempus.events"

// QueueEventsAudit — durable очередь со всеми событиями для внешних
// потребителей (аудит, интеграции).
const QueueEventsAudit Queue = "events.audit"

// SetupTopology объявляет exchange и постоянные очереди.
// Все объявления идемпотентны.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.ExchangeDeclare(
			string(ExchangeEvents), // name
			"topic",                // kind
			true,                   // durable
			false,                  // auto-deleted
			false,                  // internal
			false,                  // no-wait
			nil,                    // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ExchangeEvents, err)
		}

		if _, err := ch.QueueDeclare(
			string(QueueEventsAudit), // name
			true,                     // durable
			false,                    // delete when unused
			false,                    // exclusive
			false,                    // no-wait
			nil,                      // arguments
		); err != nil {
			return fmt.Errorf("declare queue %s: %w", QueueEventsAudit, err)
		}

		if err := ch.QueueBind(
			string(QueueEventsAudit), // queue
			"#",                      // routing key: все события
			string(ExchangeEvents),   // exchange
			false,                    // no-wait
			nil,                      // arguments
		); err != nil {
			return fmt.Errorf("bind queue %s: %w", QueueEventsAudit, err)
		}
		return nil
	})
}

// DeclareWatchQueue объявляет временную эксклюзивную очередь,
// привязанную к паттерну routing key (например, "job.*" или "#").
// Очередь исчезает вместе с соединением; используется командой
// events watch в CLI.
func DeclareWatchQueue(ctx context.Context, conn *Connection, pattern string) (Queue, error) {
	var name string
	err := conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		q, err := ch.QueueDeclare(
			"",    // имя генерирует сервер
			false, // durable
			true,  // delete when unused
			true,  // exclusive
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			return fmt.Errorf("declare watch queue: %w", err)
		}
		if err := ch.QueueBind(q.Name, pattern, string(ExchangeEvents), false, nil); err != nil {
			return fmt.Errorf("bind watch queue: %w", err)
		}
		name = q.Name
		return nil
	})
	if err != nil {
		return "", err
	}
	return Queue(name), nil
}
