package aggregator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================
// Prometheus метрики агрегатора уведомлений
// ============================================================
//
// Использование:
// - Grafana дашборды для визуализации
// - Alertmanager для уведомлений о проблемах

// ============ Метрики циклов проверки ============

// CheckCycleDuration - длительность полного цикла проверки поездки
var CheckCycleDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "tripsentry",
		Subsystem: "aggregator",
		Name:      "check_cycle_duration_ms",
		Help:      "Duration of a full trip check cycle in milliseconds",
		Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
	},
)

// SourcePollDuration - длительность опроса одного источника
var SourcePollDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: "tripsentry",
		Subsystem: "aggregator",
		Name:      "source_poll_duration_ms",
		Help:      "Duration of a single source poll in milliseconds",
		Buckets:   []float64{10, 50, 100, 250, 500, 1000, 2500, 5000},
	},
	[]string{"source"},
)

// ============ Счётчики событий ============

// NotificationsCreated - созданные уведомления по типу и важности
var NotificationsCreated = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tripsentry",
		Subsystem: "aggregator",
		Name:      "notifications_created_total",
		Help:      "Total number of notifications created",
	},
	[]string{"type", "severity"},
)

// NotificationsDeduplicated - отброшенные дубликаты по типу
var NotificationsDeduplicated = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tripsentry",
		Subsystem: "aggregator",
		Name:      "notifications_deduplicated_total",
		Help:      "Total number of notifications dropped as duplicates",
	},
	[]string{"type"},
)

// SourceErrors - ошибки опроса источников по категории
var SourceErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tripsentry",
		Subsystem: "aggregator",
		Name:      "source_errors_total",
		Help:      "Total number of source poll failures",
	},
	[]string{"source", "category"}, // category: network, service
)

// WeatherChecksSkipped - пропуски погодной проверки по причине
var WeatherChecksSkipped = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "tripsentry",
		Subsystem: "aggregator",
		Name:      "weather_checks_skipped_total",
		Help:      "Weather checks skipped by reason",
	},
	[]string{"reason"}, // already_checked_today, no_activities
)

// CheckCyclesSkipped - пропущенные циклы (предыдущий еще идет)
var CheckCyclesSkipped = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "tripsentry",
		Subsystem: "aggregator",
		Name:      "check_cycles_skipped_total",
		Help:      "Check cycles skipped because the previous one is still running",
	},
)

// ============ Метрики состояния ============

// TrackedTrips - количество отслеживаемых поездок по состоянию
var TrackedTrips = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "tripsentry",
		Subsystem: "aggregator",
		Name:      "tracked_trips",
		Help:      "Number of tracked trips by state",
	},
	[]string{"state"}, // uninitialized, initializing, initialized
)

// SchedulerQueueSize - размер очереди пула воркеров планировщика
var SchedulerQueueSize = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "tripsentry",
		Subsystem: "scheduler",
		Name:      "queue_size",
		Help:      "Current number of pending trip checks in the worker queue",
	},
)

// ============ Вспомогательные функции ============

// RecordNotificationCreated записывает созданное уведомление
func RecordNotificationCreated(notifType, severity string) {
	NotificationsCreated.WithLabelValues(notifType, severity).Inc()
}

// RecordDuplicate записывает отброшенный дубликат
func RecordDuplicate(notifType string) {
	NotificationsDeduplicated.WithLabelValues(notifType).Inc()
}

// RecordSourceError записывает ошибку источника
func RecordSourceError(sourceName, category string) {
	SourceErrors.WithLabelValues(sourceName, category).Inc()
}

// RecordSourcePoll записывает длительность опроса источника
func RecordSourcePoll(sourceName string, latencyMs float64) {
	SourcePollDuration.WithLabelValues(sourceName).Observe(latencyMs)
}

// RecordWeatherSkip записывает пропуск погодной проверки
func RecordWeatherSkip(reason string) {
	WeatherChecksSkipped.WithLabelValues(reason).Inc()
}
