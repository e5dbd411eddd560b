// Package metrics holds the Prometheus collectors shared by the API server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TokenRegistrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contactbook_device_token_registrations_total",
		Help: "Device token upserts by platform",
	}, []string{"platform"})

	PushesSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contactbook_pushes_total",
		Help: "Push deliveries by provider and result",
	}, []string{"provider", "result"})

	AlertsDeduplicated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "contactbook_alerts_deduplicated_total",
		Help: "Alerts skipped because the message was already pushed to the recipient",
	})

	SocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "contactbook_socket_clients",
		Help: "Currently connected websocket clients",
	})

	DispatchQueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "contactbook_dispatch_queue_depth",
		Help: "Jobs waiting in the alert dispatch queue",
	})

	DispatchActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "contactbook_dispatch_active_workers",
		Help: "Workers currently running a dispatch job",
	})

	DispatchJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "contactbook_dispatch_jobs_total",
		Help: "Dispatch jobs by outcome",
	}, []string{"outcome"})

	DispatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "contactbook_dispatch_job_duration_seconds",
		Help:    "Time taken to run a dispatch job",
		Buckets: []float64{.01, .05, .1, .25, .5, 1, 2.5, 5, 10},
	})
)

// Handler exposes the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
