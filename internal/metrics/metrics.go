// Package metrics holds the Prometheus collectors for the download pipeline.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcomes used as the "outcome" label.
const (
	OutcomeSuccess      = "success"
	OutcomeRejected     = "rejected"
	OutcomeUnsupported  = "unsupported"
	OutcomeFetchFailed  = "fetch_failed"
	OutcomeTooLarge     = "too_large"
	OutcomeDeliveryFail = "delivery_failed"
)

var (
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clipdrop_requests_total",
			Help: "Link requests by platform and outcome",
		},
		[]string{"platform", "outcome"},
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "clipdrop_fetch_duration_seconds",
			Help:    "Time spent in the extraction call",
			Buckets: []float64{1, 2.5, 5, 10, 20, 40, 80, 160},
		},
		[]string{"platform"},
	)

	DeliveredBytes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clipdrop_delivered_bytes_total",
			Help: "Bytes of video sent to users",
		},
		[]string{"platform"},
	)

	InFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "clipdrop_requests_in_flight",
			Help: "Link requests currently being processed",
		},
	)

	UpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clipdrop_updates_total",
			Help: "Telegram updates received by kind",
		},
		[]string{"kind"},
	)
)
