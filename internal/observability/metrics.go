package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics stores Prometheus collectors used by the API, matching and dispatch flows.
type Metrics struct {
	registry *prometheus.Registry

	httpRequestsTotal        *prometheus.CounterVec
	httpRequestDuration      *prometheus.HistogramVec
	smsBatchesTotal          *prometheus.CounterVec
	smsRecipientsSentTotal   *prometheus.CounterVec
	smsRecipientsSkipped     *prometheus.CounterVec
	smsBatchDuration         *prometheus.HistogramVec
	smsDispatchInflight      *prometheus.GaugeVec
	donorMatchRequestsTotal  *prometheus.CounterVec
	donorMatchCandidateCount *prometheus.HistogramVec
}

const metricsNamespace = "donor_dispatch"

var matchCandidateBuckets = []float64{0, 1, 5, 10, 25, 50, 100, 250}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		httpRequestsTotal: counterVec("http_requests_total",
			"Total number of HTTP requests processed by method, path, and status.",
			"method", "path", "status"),
		httpRequestDuration: histogramVec("http_request_duration_seconds",
			"HTTP request duration in seconds by method and path.",
			prometheus.DefBuckets, "method", "path"),

		smsBatchesTotal: counterVec("sms_batches_total",
			"Provider batches by outcome (sent, failed, timeout, rate_limited, canceled).",
			"provider", "outcome"),
		smsRecipientsSentTotal: counterVec("sms_recipients_sent_total",
			"Recipients confirmed sent by the provider.",
			"provider"),
		smsRecipientsSkipped: counterVec("sms_recipients_skipped_total",
			"Recipients never handed to the provider, by reason (invalid, over_cap).",
			"provider", "reason"),
		smsBatchDuration: histogramVec("sms_batch_duration_seconds",
			"Provider batch duration in seconds.",
			prometheus.DefBuckets, "provider"),
		smsDispatchInflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "sms_dispatch_inflight",
			Help:      "Provider batches currently in flight.",
		}, []string{"provider"}),

		donorMatchRequestsTotal: counterVec("donor_match_requests_total",
			"Donor ranking requests by mode (exact, compatible).",
			"mode"),
		donorMatchCandidateCount: histogramVec("donor_match_candidates",
			"Ranked candidates returned per request.",
			matchCandidateBuckets, "mode"),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequestsTotal,
		m.httpRequestDuration,
		m.smsBatchesTotal,
		m.smsRecipientsSentTotal,
		m.smsRecipientsSkipped,
		m.smsBatchDuration,
		m.smsDispatchInflight,
		m.donorMatchRequestsTotal,
		m.donorMatchCandidateCount,
	)

	return m
}

func counterVec(name, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      name,
		Help:      help,
	}, labels)
}

func histogramVec(name, help string, buckets []float64, labels ...string) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      name,
		Help:      help,
		Buckets:   buckets,
	}, labels)
}

func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) HTTPMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		path := routePath(c)
		// Avoid self-scrape noise for request counters.
		if path == "/metrics" {
			return err
		}

		m.recordHTTPRequest(c.Method(), path, statusFromResult(c, err), time.Since(start))
		return err
	}
}

func (m *Metrics) IncBatch(provider string, outcome string) {
	if m == nil {
		return
	}
	m.smsBatchesTotal.WithLabelValues(normalizeLabel(provider), normalizeLabel(outcome)).Inc()
}

func (m *Metrics) AddRecipientsSent(provider string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.smsRecipientsSentTotal.WithLabelValues(normalizeLabel(provider)).Add(float64(count))
}

func (m *Metrics) AddRecipientsSkipped(provider string, reason string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.smsRecipientsSkipped.WithLabelValues(normalizeLabel(provider), normalizeLabel(reason)).Add(float64(count))
}

func (m *Metrics) ObserveBatchDuration(provider string, duration time.Duration) {
	if m == nil {
		return
	}
	seconds := duration.Seconds()
	if seconds < 0 {
		seconds = 0
	}
	m.smsBatchDuration.WithLabelValues(normalizeLabel(provider)).Observe(seconds)
}

func (m *Metrics) IncDispatchInFlight(provider string) {
	if m == nil {
		return
	}
	m.smsDispatchInflight.WithLabelValues(normalizeLabel(provider)).Inc()
}

func (m *Metrics) DecDispatchInFlight(provider string) {
	if m == nil {
		return
	}
	m.smsDispatchInflight.WithLabelValues(normalizeLabel(provider)).Dec()
}

func (m *Metrics) ObserveMatch(mode string, candidates int) {
	if m == nil {
		return
	}
	label := normalizeLabel(mode)
	m.donorMatchRequestsTotal.WithLabelValues(label).Inc()
	m.donorMatchCandidateCount.WithLabelValues(label).Observe(float64(candidates))
}

func (m *Metrics) recordHTTPRequest(method string, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	methodLabel := strings.ToUpper(strings.TrimSpace(method))
	if methodLabel == "" {
		methodLabel = "UNKNOWN"
	}
	pathLabel := strings.TrimSpace(path)
	if pathLabel == "" {
		pathLabel = "unmatched"
	}

	m.httpRequestsTotal.WithLabelValues(methodLabel, pathLabel, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(methodLabel, pathLabel).Observe(duration.Seconds())
}

func routePath(c *fiber.Ctx) string {
	if c == nil {
		return "unmatched"
	}

	if route := c.Route(); route != nil {
		if path := strings.TrimSpace(route.Path); path != "" {
			return path
		}
	}
	return "unmatched"
}

func statusFromResult(c *fiber.Ctx, err error) int {
	if err != nil {
		if fiberErr, ok := err.(*fiber.Error); ok {
			return fiberErr.Code
		}
		return fiber.StatusInternalServerError
	}

	if c == nil {
		return fiber.StatusOK
	}

	status := c.Response().StatusCode()
	if status == 0 {
		return fiber.StatusOK
	}
	return status
}

func normalizeLabel(value string) string {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "unknown"
	}
	return normalized
}
