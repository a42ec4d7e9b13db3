package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"medbook/internal/events"
)

var (
	once sync.Once

	appointmentEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medbook",
			Name:      "appointment_events_total",
			Help:      "Count of appointment store mutations by event type.",
		},
		[]string{"type"},
	)

	persistenceErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medbook",
			Name:      "persistence_errors_total",
			Help:      "Count of failed storage operations by operation.",
		},
		[]string{"op"},
	)

	wizardSubmits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medbook",
			Name:      "wizard_submit_total",
			Help:      "Count of booking wizard submissions by result.",
		},
		[]string{"result"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "medbook",
			Name:      "http_requests_total",
			Help:      "Count of API requests by route and status code.",
		},
		[]string{"route", "code"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(appointmentEvents, persistenceErrors, wizardSubmits, httpRequests)
	})
}

// Observe counts every event published on bus.
func Observe(bus *events.EventBus) {
	bus.SubscribeAll(func(e events.Event) error {
		appointmentEvents.WithLabelValues(e.Type).Inc()
		return nil
	})
}

func IncPersistenceError(op string) {
	persistenceErrors.WithLabelValues(op).Inc()
}

func IncWizardSubmit(result string) {
	wizardSubmits.WithLabelValues(result).Inc()
}

func IncHTTPRequest(route string, code int) {
	httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
