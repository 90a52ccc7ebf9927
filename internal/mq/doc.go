// Package mq — транспорт событий датастора поверх RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением (reconnect, graceful shutdown)
//   - topology.go   — объявление exchange и очередей
//   - publisher.go  — events.Broker поверх AMQP
//   - consumer.go   — потребление событий из очереди
//
// Все события публикуются в topic-exchange tempus.events с routing key,
// равным виду события (task.added, schedule.updated, job.acquired, …),
// так что подписчик выбирает интересующее подмножество паттерном
// (например, "job.*" или "#").
package mq
