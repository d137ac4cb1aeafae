// Package metrics exposes the lifecycle counters served at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backoffice_bookings_created_total",
		Help: "Bookings successfully created (hold placed).",
	})

	BookingTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backoffice_booking_transitions_total",
		Help: "Booking state transitions by target status.",
	}, []string{"status"})

	BookingConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backoffice_booking_conflicts_total",
		Help: "Create attempts rejected because the ticket was already held.",
	})

	SweepRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backoffice_expiry_sweep_runs_total",
		Help: "Expiry sweep executions.",
	})

	NotificationsSent = promauto.NewCounter(prometheus.CounterOpts{
		Name: "backoffice_notifications_sent_total",
		Help: "Scheduled notifications dispatched.",
	})
)
