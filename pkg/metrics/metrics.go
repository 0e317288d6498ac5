// Package metrics exposes the booking core's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evently_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "evently_http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	BookingsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evently_bookings_total",
		Help: "Booking lifecycle outcomes",
	}, []string{"outcome"})

	WaitlistTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evently_waitlist_total",
		Help: "Waitlist lifecycle outcomes",
	}, []string{"outcome"})

	LedgerConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "evently_ledger_version_conflicts_total",
		Help: "Optimistic version conflicts on the capacity ledger",
	})

	LockTimeoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evently_lock_timeouts_total",
		Help: "Advisory lock acquisitions that exhausted their wait budget",
	}, []string{"scope"})

	EventsPublishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evently_events_published_total",
		Help: "Domain events published to the bus",
	}, []string{"channel"})

	EventsConsumedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evently_events_consumed_total",
		Help: "Inbound catalog events by handling result",
	}, []string{"channel", "result"})

	EmailJobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evently_email_jobs_total",
		Help: "Email jobs enqueued and processed",
	}, []string{"type", "result"})

	SweepRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evently_sweep_runs_total",
		Help: "Sweeper cycles executed",
	}, []string{"sweeper"})

	SweepProcessedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "evently_sweep_processed_total",
		Help: "Rows transitioned by sweepers",
	}, []string{"sweeper"})
)

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
