package lib

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestTrackPurchase(t *testing.T) {
	before := testutil.ToFloat64(purchasesTotal.WithLabelValues("capacity_exhausted"))
	TrackPurchase("capacity_exhausted")
	TrackPurchase("capacity_exhausted")
	assert.Equal(t, before+2, testutil.ToFloat64(purchasesTotal.WithLabelValues("capacity_exhausted")))
}

func TestSetRemainingTickets(t *testing.T) {
	SetRemainingTickets("tt-1", 7)
	assert.Equal(t, float64(7), testutil.ToFloat64(remainingTickets.WithLabelValues("tt-1")))
	SetRemainingTickets("tt-1", 0)
	assert.Equal(t, float64(0), testutil.ToFloat64(remainingTickets.WithLabelValues("tt-1")))
}
