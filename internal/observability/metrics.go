package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Upstream outcome label values.
const (
	OutcomeOK          = "ok"
	OutcomeRateLimited = "rate_limited"
	OutcomeServerError = "server_error"
	OutcomeClientError = "client_error"
	OutcomeTimeout     = "timeout"
	OutcomeTransport   = "transport_error"
	OutcomeCircuitOpen = "circuit_open"
)

var (
	// upstreamReqs counts every attempt against a provider host. Labels are
	// bounded: host comes from a fixed set of provider base URLs.
	upstreamReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civics_upstream_requests_total",
			Help: "Upstream HTTP attempts by host and outcome.",
		},
		[]string{"host", "outcome"},
	)

	upstreamLat = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "civics_upstream_request_duration_seconds",
			Help:    "Duration of upstream HTTP attempts in seconds.",
			Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10},
		},
		[]string{"host"},
	)

	circuitOpen = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "civics_circuit_open",
			Help: "1 while the circuit for a host is open, else 0.",
		},
		[]string{"host"},
	)

	cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "civics_cache_lookups_total",
			Help: "Cache lookups by cache name and result (hit|miss).",
		},
		[]string{"cache", "result"},
	)
)

func init() {
	prometheus.MustRegister(upstreamReqs, upstreamLat, circuitOpen, cacheLookups)
}

// ObserveUpstream records one upstream attempt.
func ObserveUpstream(host, outcome string, d time.Duration) {
	upstreamReqs.WithLabelValues(host, outcome).Inc()
	if outcome != OutcomeCircuitOpen {
		upstreamLat.WithLabelValues(host).Observe(d.Seconds())
	}
}

// SetCircuitOpen flips the circuit gauge for host.
func SetCircuitOpen(host string, open bool) {
	v := 0.0
	if open {
		v = 1
	}
	circuitOpen.WithLabelValues(host).Set(v)
}

// CacheLookup records a hit or miss against the named cache.
func CacheLookup(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(cache, result).Inc()
}
