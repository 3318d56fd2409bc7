package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 监控指标
type Metrics struct {
	registry *prometheus.Registry

	// HTTP 请求指标
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// 表单指标
	SessionsMounted  prometheus.Counter
	GateOutcomes     *prometheus.CounterVec
	SubmissionDwell  prometheus.Histogram
	DeliveryDuration *prometheus.HistogramVec
	DeliveryFailures *prometheus.CounterVec

	// 错误指标
	PanicsTotal prometheus.Counter

	// 限流指标
	RateLimitBlocks *prometheus.CounterVec
}

// NewMetrics 在给定注册表上创建监控指标
//
// registry 为 nil 时新建一个独立注册表。
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "photosite_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "photosite_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		SessionsMounted: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "photosite_contact_sessions_mounted_total",
				Help: "Total number of contact form sessions mounted",
			},
		),

		GateOutcomes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "photosite_contact_outcomes_total",
				Help: "Contact submissions by outcome",
			},
			[]string{"outcome"},
		),

		SubmissionDwell: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "photosite_contact_submitted_in_seconds",
				Help:    "Seconds between form mount and accepted submission",
				Buckets: []float64{3, 5, 10, 20, 30, 60, 120, 300, 600},
			},
		),

		DeliveryDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "photosite_delivery_duration_seconds",
				Help:    "Email relay send duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"notification"},
		),

		DeliveryFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "photosite_delivery_failures_total",
				Help: "Email relay send failures",
			},
			[]string{"notification"},
		),

		PanicsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "photosite_panics_total",
				Help: "Total number of recovered panics",
			},
		),

		RateLimitBlocks: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "photosite_rate_limit_blocks_total",
				Help: "Requests blocked by rate limiting",
			},
			[]string{"limit_type"},
		),
	}
}

// Registry 返回指标注册表
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// RecordHTTPRequest 记录 HTTP 请求
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordSessionMounted 记录表单挂载
func (m *Metrics) RecordSessionMounted() {
	m.SessionsMounted.Inc()
}

// RecordOutcome 记录提交结果（accepted/spam/rate/validation-error/in-flight/delivery-failure）
func (m *Metrics) RecordOutcome(outcome string) {
	m.GateOutcomes.WithLabelValues(outcome).Inc()
}

// RecordDwell 记录通过闸门的提交耗时
func (m *Metrics) RecordDwell(seconds int64) {
	m.SubmissionDwell.Observe(float64(seconds))
}

// RecordDelivery 记录一次通知发送
func (m *Metrics) RecordDelivery(notification string, duration time.Duration, err error) {
	m.DeliveryDuration.WithLabelValues(notification).Observe(duration.Seconds())
	if err != nil {
		m.DeliveryFailures.WithLabelValues(notification).Inc()
	}
}

// RecordPanic 记录 panic
func (m *Metrics) RecordPanic() {
	m.PanicsTotal.Inc()
}

// RecordRateLimitBlock 记录限流阻止
func (m *Metrics) RecordRateLimitBlock(limitType string) {
	m.RateLimitBlocks.WithLabelValues(limitType).Inc()
}

// HTTPHandler 返回 Prometheus HTTP 处理器
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
