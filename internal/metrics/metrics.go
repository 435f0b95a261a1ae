package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "surfside"

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingOperations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "booking_operations_total",
			Help:      "Booking mutations by operation and result.",
		},
		[]string{"operation", "result"},
	)

	availabilityChecks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "availability_checks_total",
			Help:      "Availability verdicts by check kind.",
		},
		[]string{"check", "verdict"},
	)

	syncTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sheets_sync_tasks_total",
			Help:      "Sheets sync task outcomes.",
		},
		[]string{"task", "result"},
	)

	botCommands = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bot_commands_total",
			Help:      "Staff bot commands by command and result.",
		},
		[]string{"command", "result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingOperations, availabilityChecks, syncTasks, botCommands)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// ObserveBooking records a booking mutation; result is "ok" or an error class.
func ObserveBooking(operation, result string) {
	bookingOperations.WithLabelValues(operation, result).Inc()
}

// ObserveCheck records an availability verdict.
func ObserveCheck(check string, available bool) {
	verdict := "unavailable"
	if available {
		verdict = "available"
	}
	availabilityChecks.WithLabelValues(check, verdict).Inc()
}

// ObserveSync records the outcome of a sheets task.
func ObserveSync(task, result string) {
	syncTasks.WithLabelValues(task, result).Inc()
}

// ObserveBotCommand records a staff bot command.
func ObserveBotCommand(command, result string) {
	botCommands.WithLabelValues(command, result).Inc()
}
