package metrics

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"code", "method", "path"},
	)
	httpRequestsDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	httpRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current Number of HTTP requests being processed.",
		},
	)

	ordersCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "orders_created_total",
			Help: "Total number of orders created at checkout.",
		},
	)

	paymentVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_verifications_total",
			Help: "Total number of payment verifications by outcome.",
		},
		[]string{"result"},
	)

	orderRevenueTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "order_revenue_total",
			Help: "Sum of verified order totals in the store currency.",
		},
	)

	orderStatusChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "order_status_changes_total",
			Help: "Total number of admin order status changes by target status.",
		},
		[]string{"status"},
	)
)

// Payment verification outcomes.
const (
	VerificationPaid      = "paid"
	VerificationDuplicate = "duplicate"
	VerificationDeclined  = "declined"
	VerificationError     = "error"
)

func OrderCreated() {
	ordersCreatedTotal.Inc()
}

func PaymentVerified(result string) {
	paymentVerificationsTotal.WithLabelValues(result).Inc()
}

func RevenueRecorded(amount float64) {
	orderRevenueTotal.Add(amount)
}

func OrderStatusChanged(status string) {
	orderStatusChangesTotal.WithLabelValues(status).Inc()
}

func init() {
	if err := prometheus.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})); err != nil {
		slog.Debug("ProcessCollector registration skipped (likely already registered)",
			slog.String("error", err.Error()))
	}

	if err := prometheus.Register(collectors.NewGoCollector()); err != nil {
		slog.Debug("GoCollector registration skipped (likely already registered)",
			slog.String("error", err.Error()))
	}
}

// wrapper around http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{w, http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		start := time.Now()
		httpRequestsInFlight.Inc()

		rw := newResponseWriter(w)

		defer func() {

			// the mux records the matched pattern on r; unmatched paths share one label
			pathPattern := r.Pattern
			if pathPattern == "" {
				pathPattern = "unmatched"
			}

			duration := time.Since(start)
			statusCodeStr := strconv.Itoa(rw.statusCode)

			httpRequestsTotal.WithLabelValues(statusCodeStr, r.Method, pathPattern).Inc()
			httpRequestsDuration.WithLabelValues(r.Method, pathPattern).Observe(duration.Seconds())
			httpRequestsInFlight.Dec()

		}()

		next.ServeHTTP(rw, r)

	})
}

// http.Handler for the Prometheus /metrics endpoint
func Handler() http.Handler {

	return promhttp.Handler()
}
