package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/amoylab/ragtrack/internal/common/config"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry   *prometheus.Registry
	namespace  string
	httpReqCnt *prometheus.CounterVec
	httpDur    *prometheus.HistogramVec
	httpInfl   *prometheus.GaugeVec
	reportCnt  *prometheus.CounterVec
	purgedCnt  prometheus.Counter
	digestCnt  *prometheus.CounterVec
	emailCnt   *prometheus.CounterVec
}

func New(cfg config.MetricsConfig) *Metrics {
	ns := cfg.Namespace
	r := prometheus.NewRegistry()
	// Register standard process and Go collectors
	r.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	r.MustRegister(collectors.NewGoCollector())

	// Register basic HTTP metrics
	httpReqCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "http_requests_total"}, []string{"method", "route", "status"})
	httpDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: ns, Name: "http_request_duration_seconds", Buckets: cfg.Buckets}, []string{"method", "route", "status"})
	httpInfl := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: ns, Name: "http_requests_inflight"}, []string{"route"})
	r.MustRegister(httpReqCnt, httpDur, httpInfl)

	// Domain metrics
	reportCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "weekly_reports_submitted_total"}, []string{"rag"})
	purgedCnt := prometheus.NewCounter(prometheus.CounterOpts{Namespace: ns, Name: "weekly_reports_purged_total"})
	digestCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "digests_dispatched_total"}, []string{"kind"})
	emailCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "digest_emails_total"}, []string{"kind", "status"})
	r.MustRegister(reportCnt, purgedCnt, digestCnt, emailCnt)

	return &Metrics{
		registry:   r,
		namespace:  ns,
		httpReqCnt: httpReqCnt,
		httpDur:    httpDur,
		httpInfl:   httpInfl,
		reportCnt:  reportCnt,
		purgedCnt:  purgedCnt,
		digestCnt:  digestCnt,
		emailCnt:   emailCnt,
	}
}

// ReportSubmitted records one accepted weekly report upsert.
func (m *Metrics) ReportSubmitted(rag string) {
	m.reportCnt.WithLabelValues(rag).Inc()
}

// ReportsPurged records reports removed by retention expiry.
func (m *Metrics) ReportsPurged(n int64) {
	m.purgedCnt.Add(float64(n))
}

// DigestDispatched records one digest pipeline run of the given kind.
func (m *Metrics) DigestDispatched(kind string) {
	m.digestCnt.WithLabelValues(kind).Inc()
}

// EmailResult records a per-recipient delivery outcome.
func (m *Metrics) EmailResult(kind string, sent bool) {
	status := "sent"
	if !sent {
		status = "failed"
	}
	m.emailCnt.WithLabelValues(kind, status).Inc()
}

func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		m.httpInfl.WithLabelValues(route).Inc()
		start := time.Now()
		c.Next()
		status := httpStatus(c.Writer.Status())
		m.httpReqCnt.WithLabelValues(c.Request.Method, route, status).Inc()
		m.httpDur.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		m.httpInfl.WithLabelValues(route).Dec()
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func httpStatus(code int) string { return strconv.Itoa(code) }
