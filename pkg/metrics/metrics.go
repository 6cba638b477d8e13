package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/billora/billora/internal/common/config"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry    *prometheus.Registry
	namespace   string
	httpReqCnt  *prometheus.CounterVec
	httpDur     *prometheus.HistogramVec
	httpInfl    *prometheus.GaugeVec
	loginCnt    *prometheus.CounterVec
	userOpCnt   *prometheus.CounterVec
	tenantCache *prometheus.CounterVec
}

func New(cfg config.MetricsConfig) *Metrics {
	ns := cfg.Namespace
	r := prometheus.NewRegistry()
	// Register standard process and Go collectors
	r.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	r.MustRegister(collectors.NewGoCollector())

	httpReqCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "http_requests_total"}, []string{"method", "route", "status"})
	httpDur := prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: ns, Name: "http_request_duration_seconds", Buckets: cfg.Buckets}, []string{"method", "route", "status"})
	httpInfl := prometheus.NewGaugeVec(prometheus.GaugeOpts{Namespace: ns, Name: "http_requests_inflight"}, []string{"route"})
	r.MustRegister(httpReqCnt, httpDur, httpInfl)

	loginCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "login_attempts_total"}, []string{"status"})
	userOpCnt := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "user_operations_total"}, []string{"operation", "status"})
	tenantCache := prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: ns, Name: "tenant_cache_total"}, []string{"result"})
	r.MustRegister(loginCnt, userOpCnt, tenantCache)

	return &Metrics{
		registry:    r,
		namespace:   ns,
		httpReqCnt:  httpReqCnt,
		httpDur:     httpDur,
		httpInfl:    httpInfl,
		loginCnt:    loginCnt,
		userOpCnt:   userOpCnt,
		tenantCache: tenantCache,
	}
}

// LoginAttempt records the outcome of a login attempt ("success" or "failure")
func (m *Metrics) LoginAttempt(status string) {
	m.loginCnt.WithLabelValues(status).Inc()
}

// UserOp records a user lifecycle operation and its outcome
func (m *Metrics) UserOp(operation, status string) {
	m.userOpCnt.WithLabelValues(operation, status).Inc()
}

// TenantCache records a tenant cache lookup result ("hit" or "miss")
func (m *Metrics) TenantCache(result string) {
	m.tenantCache.WithLabelValues(result).Inc()
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
		status := strconv.Itoa(c.Writer.Status())
		m.httpReqCnt.WithLabelValues(c.Request.Method, route, status).Inc()
		m.httpDur.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		m.httpInfl.WithLabelValues(route).Dec()
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
