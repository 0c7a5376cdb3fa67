// Package metrics registers the Prometheus collectors shared by the API and
// the scheduler.
package metrics

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registerOnce sync.Once

	httpRequestsTotal   *prometheus.CounterVec
	httpLatencySeconds  *prometheus.HistogramVec
	automationRunsTotal *prometheus.CounterVec
	automationSkipped   *prometheus.CounterVec
	automationActions   *prometheus.CounterVec
	leadStatusChanges   *prometheus.CounterVec
	tourBookingsTotal   *prometheus.CounterVec
	sideEffectFailures  *prometheus.CounterVec
)

// Register initialises the collectors on the default registry. Safe to call
// more than once.
func Register() {
	registerOnce.Do(func() {
		httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dojoflow_http_requests_total",
			Help: "HTTP requests served, by method, route and status.",
		}, []string{"method", "route", "status"})

		httpLatencySeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dojoflow_http_latency_seconds",
			Help:    "HTTP request latency.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route"})

		automationRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dojoflow_automation_runs_total",
			Help: "Automation engine invocations, by trigger.",
		}, []string{"trigger"})

		automationSkipped = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dojoflow_automation_skipped_total",
			Help: "Automations skipped before executing actions, by reason.",
		}, []string{"reason"})

		automationActions = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dojoflow_automation_actions_total",
			Help: "Automation actions executed, by action type and outcome.",
		}, []string{"action", "status"})

		leadStatusChanges = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dojoflow_lead_status_changes_total",
			Help: "Lead status writes, by target status.",
		}, []string{"status"})

		tourBookingsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dojoflow_tour_bookings_total",
			Help: "Tour booking attempts, by result.",
		}, []string{"result"})

		sideEffectFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dojoflow_side_effect_failures_total",
			Help: "Best-effort steps that failed without failing their parent operation.",
		}, []string{"operation"})

		prometheus.MustRegister(
			httpRequestsTotal, httpLatencySeconds,
			automationRunsTotal, automationSkipped, automationActions,
			leadStatusChanges, tourBookingsTotal, sideEffectFailures,
		)
	})
}

// Handler returns the scrape endpoint as a gin handler.
func Handler() gin.HandlerFunc {
	Register()
	return gin.WrapH(promhttp.Handler())
}

// Middleware records request counts and latency per matched route.
func Middleware() gin.HandlerFunc {
	Register()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		httpLatencySeconds.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// AutomationRun counts one engine invocation.
func AutomationRun(trigger string) {
	Register()
	automationRunsTotal.WithLabelValues(trigger).Inc()
}

// AutomationSkipped counts an automation filtered out before execution.
func AutomationSkipped(reason string) {
	Register()
	automationSkipped.WithLabelValues(reason).Inc()
}

// AutomationAction counts one attempted action.
func AutomationAction(action, status string) {
	Register()
	automationActions.WithLabelValues(action, status).Inc()
}

// LeadStatusChanged counts a successful status write.
func LeadStatusChanged(status string) {
	Register()
	leadStatusChanges.WithLabelValues(status).Inc()
}

// TourBooking counts a booking attempt.
func TourBooking(result string) {
	Register()
	tourBookingsTotal.WithLabelValues(result).Inc()
}

// SideEffectFailed counts a swallowed best-effort failure.
func SideEffectFailed(operation string) {
	Register()
	sideEffectFailures.WithLabelValues(operation).Inc()
}

// AutomationActions exposes the action counter for tests.
func AutomationActions() *prometheus.CounterVec {
	Register()
	return automationActions
}
