package lib

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	purchasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_purchases_total",
			Help: "Purchase attempts by outcome",
		},
		[]string{"outcome"},
	)

	validationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_validations_total",
			Help: "Validation attempts by method and outcome",
		},
		[]string{"method", "outcome"},
	)

	lockedSectionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ticket_locked_section_duration_seconds",
			Help:    "Time spent holding a ticket type or ticket lock",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)

	remainingTickets = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ticket_type_remaining",
			Help: "Remaining capacity per ticket type",
		},
		[]string{"ticket_type_id"},
	)
)

func TrackPurchase(outcome string) {
	purchasesTotal.WithLabelValues(outcome).Inc()
}

func TrackValidation(method, outcome string) {
	validationsTotal.WithLabelValues(method, outcome).Inc()
}

// TrackLockedSection is deferred right after a lock is granted.
func TrackLockedSection(operation string, start time.Time) {
	lockedSectionDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

func SetRemainingTickets(ticketTypeID string, remaining int64) {
	RemainingTickets(ticketTypeID).Set(float64(remaining))
}

func RemainingTickets(ticketTypeID string) prometheus.Gauge {
	return remainingTickets.WithLabelValues(ticketTypeID)
}
