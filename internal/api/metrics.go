package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sandforce_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sandforce_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	dmlOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sandforce_dml_operations_total",
			Help: "Total number of DML operations by sobject type and operation",
		},
		[]string{"sobject", "operation"},
	)

	queriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sandforce_queries_total",
			Help: "Total number of SOQL queries executed",
		},
	)
)

// Metrics returns middleware that records request counts and latencies.
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w, code: http.StatusOK}
			next.ServeHTTP(sw, r)

			httpRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(sw.code)).Inc()
			httpRequestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
		})
	}
}

// RecordDML counts one DML operation against an sobject type.
func RecordDML(sobject, operation string) {
	dmlOperationsTotal.WithLabelValues(sobject, operation).Inc()
}

// RecordQuery counts one executed SOQL query.
func RecordQuery() {
	queriesTotal.Inc()
}
