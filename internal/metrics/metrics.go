// Package metrics exposes Prometheus collectors for the HTTP API and AI gateway.
package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// httpRequests counts served requests.
	// Labels: method, route (path with numeric ids collapsed), status
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jerrygfit",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "Total HTTP requests served",
	}, []string{"method", "route", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "jerrygfit",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// aiRequests counts generation attempts.
	// Labels: request_type, outcome (success, unavailable, provider_error)
	aiRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jerrygfit",
		Subsystem: "ai",
		Name:      "requests_total",
		Help:      "Total AI generation requests by outcome",
	}, []string{"request_type", "outcome"})

	aiTokens = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "jerrygfit",
		Subsystem: "ai",
		Name:      "tokens_total",
		Help:      "Total provider tokens consumed",
	}, []string{"request_type"})
)

const (
	OutcomeSuccess       = "success"
	OutcomeUnavailable   = "unavailable"
	OutcomeProviderError = "provider_error"
)

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ObserveRequest records one served HTTP request.
func ObserveRequest(method, path string, status int, elapsed time.Duration) {
	route := Route(path)
	httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveAI records one AI generation attempt.
func ObserveAI(requestType, outcome string, tokens int) {
	aiRequests.WithLabelValues(requestType, outcome).Inc()
	if tokens > 0 {
		aiTokens.WithLabelValues(requestType).Add(float64(tokens))
	}
}

// Route collapses numeric path segments so labels stay bounded.
func Route(path string) string {
	parts := strings.Split(path, "/")
	for i, part := range parts {
		if part == "" {
			continue
		}
		if _, err := strconv.ParseInt(part, 10, 64); err == nil {
			parts[i] = "{id}"
		}
	}
	return strings.Join(parts, "/")
}
