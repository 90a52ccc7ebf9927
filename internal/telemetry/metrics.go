package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики координационного слоя. Регистрируются в глобальном
// реестре prometheus; /metrics поднимает promhttp в каждом бинарнике.
var (
	// SchedulesAcquired — сколько schedules захвачено этим процессом.
	SchedulesAcquired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tempus",
		Name:      "schedules_acquired_total",
		Help:      "Number of schedules acquired by this process.",
	})

	// SchedulesReleased — сколько schedules освобождено.
	SchedulesReleased = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tempus",
		Name:      "schedules_released_total",
		Help:      "Number of schedules released by this process.",
	})

	// JobsSpawned — сколько jobs создано из сработавших schedules.
	JobsSpawned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tempus",
		Name:      "jobs_spawned_total",
		Help:      "Number of jobs spawned from due schedules.",
	})

	// JobsAcquired — сколько jobs захвачено этим worker'ом.
	JobsAcquired = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "tempus",
		Name:      "jobs_acquired_total",
		Help:      "Number of jobs acquired by this worker.",
	})

	// JobsCompleted — завершённые jobs по исходам.
	JobsCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "tempus",
		Name:      "jobs_completed_total",
		Help:      "Number of completed jobs by outcome.",
	}, []string{"outcome"})

	// JobDuration — длительность выполнения jobs.
	JobDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "tempus",
		Name:      "job_duration_seconds",
		Help:      "Job execution duration.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 14),
	})
)
