package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "acadease"

var (
	once sync.Once

	remindersFired = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reminders_fired_total",
			Help:      "Count of reminders fired by reason (due, snooze).",
		},
		[]string{"reason"},
	)

	channelOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notification_channel_outcomes_total",
			Help:      "Count of notification channel attempts by channel and outcome.",
		},
		[]string{"channel", "outcome"},
	)

	persistFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_failures_total",
			Help:      "Count of failed record writes by record kind.",
		},
		[]string{"record"},
	)

	tickDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reminder_tick_duration_seconds",
			Help:      "Time to evaluate and dispatch one reminder tick.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .5, 1},
		},
	)

	activeAlerts = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "active_alerts",
			Help:      "Reminders currently shown as toasts.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Count of dashboard API requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	assistantRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assistant_requests_total",
			Help:      "Count of language model requests by status.",
		},
		[]string{"status"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(
			remindersFired,
			channelOutcomes,
			persistFailures,
			tickDuration,
			activeAlerts,
			httpRequests,
			assistantRequests,
		)
	})
}

func IncReminderFired(reason string) {
	remindersFired.WithLabelValues(reason).Inc()
}

func IncChannelOutcome(channel, outcome string) {
	channelOutcomes.WithLabelValues(channel, outcome).Inc()
}

func IncPersistFailure(record string) {
	persistFailures.WithLabelValues(record).Inc()
}

func ObserveTickDuration(seconds float64) {
	tickDuration.Observe(seconds)
}

func SetActiveAlerts(n int) {
	activeAlerts.Set(float64(n))
}

func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncAssistantRequest(status string) {
	assistantRequests.WithLabelValues(status).Inc()
}
