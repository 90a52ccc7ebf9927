// Tempus Scheduler — процесс, порождающий jobs из schedules.
//
// Scheduler:
//   - Захватывает due schedules через lease в общем датасторе
//   - Создаёт jobs по сработавшим временам trigger'ов
//   - Перевзводит schedules на следующее срабатывание
//
// Несколько экземпляров могут работать с одной БД: lease гарантирует,
// что каждое срабатывание обрабатывается ровно одним процессом.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Tempus/internal/events"
	"github.com/shaiso/Tempus/internal/mq"
	"github.com/shaiso/Tempus/internal/scheduler"
	"github.com/shaiso/Tempus/internal/store"
	"github.com/shaiso/Tempus/internal/telemetry"
)

func main() {
	logger := telemetry.SetupLogger()
	logger.Info("starting tempus-scheduler")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := store.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	// RabbitMQ: без него события просто не публикуются
	var broker events.Broker
	mqConn, err := mq.NewConnection(mq.DefaultURL(), logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, events disabled", "error", err)
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}
		broker = mq.NewPublisher(mqConn, logger)
	}

	ds := store.New(store.Config{
		Pool:   pool,
		Broker: broker,
		Logger: logger,
	})
	if err := ds.Initialize(ctx); err != nil {
		logger.Error("failed to initialize datastore", "error", err)
		os.Exit(1)
	}

	sched := scheduler.New(scheduler.Config{
		Store:  ds,
		Logger: logger,
	})

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8081"
	if v := os.Getenv("SCHEDULER_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	if err := sched.Run(ctx); err != nil && ctx.Err() == nil {
		logger.Error("scheduler stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("tempus-scheduler stopped")
}
