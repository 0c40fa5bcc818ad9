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
	// HTTP 请求指标
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPRequestSize     *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// 信件指标
	LettersCreated prometheus.Counter
	LetterOpens    prometheus.Counter
	FirstOpens     prometheus.Counter
	LettersMissed  prometheus.Counter

	// 附件指标
	AttachmentsSaved   *prometheus.CounterVec
	AttachmentsSkipped *prometheus.CounterVec
	AttachmentFailures *prometheus.CounterVec
	AttachmentSize     *prometheus.HistogramVec

	// 系统指标
	SystemUptime        prometheus.Gauge
	DatabaseConnections prometheus.Gauge
	RedisConnections    prometheus.Gauge

	// 错误指标
	ErrorsTotal *prometheus.CounterVec
	PanicsTotal prometheus.Counter

	// 限流指标
	RateLimitHits   *prometheus.CounterVec
	RateLimitBlocks *prometheus.CounterVec
}

// NewMetrics 创建监控指标
func NewMetrics() *Metrics {
	return &Metrics{
		// HTTP 请求指标
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nakupenda_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status_code"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nakupenda_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),

		HTTPRequestSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nakupenda_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "endpoint"},
		),

		HTTPResponseSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nakupenda_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "endpoint"},
		),

		// 信件指标
		LettersCreated: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "nakupenda_letters_created_total",
				Help: "Total number of letters created",
			},
		),

		LetterOpens: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "nakupenda_letter_opens_total",
				Help: "Total number of letter reads",
			},
		),

		FirstOpens: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "nakupenda_letter_first_opens_total",
				Help: "Total number of letters opened for the first time",
			},
		),

		LettersMissed: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "nakupenda_letters_missed_total",
				Help: "Total number of lookups for unknown slugs",
			},
		),

		// 附件指标
		AttachmentsSaved: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nakupenda_attachments_saved_total",
				Help: "Total number of attachments stored",
			},
			[]string{"type"},
		),

		AttachmentsSkipped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nakupenda_attachments_skipped_total",
				Help: "Total number of attachments skipped by validation",
			},
			[]string{"type"},
		),

		AttachmentFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nakupenda_attachment_failures_total",
				Help: "Total number of attachment upload or insert failures",
			},
			[]string{"type"},
		),

		AttachmentSize: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "nakupenda_attachment_size_bytes",
				Help:    "Attachment size in bytes",
				Buckets: prometheus.ExponentialBuckets(1024, 2, 16),
			},
			[]string{"type"},
		),

		// 系统指标
		SystemUptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "nakupenda_system_uptime_seconds",
				Help: "System uptime in seconds",
			},
		),

		DatabaseConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "nakupenda_database_connections",
				Help: "Number of database connections",
			},
		),

		RedisConnections: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "nakupenda_redis_connections",
				Help: "Number of Redis connections",
			},
		),

		// 错误指标
		ErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nakupenda_errors_total",
				Help: "Total number of errors",
			},
			[]string{"type", "component"},
		),

		PanicsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "nakupenda_panics_total",
				Help: "Total number of panics",
			},
		),

		// 限流指标
		RateLimitHits: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nakupenda_rate_limit_hits_total",
				Help: "Total number of rate limit hits",
			},
			[]string{"type"},
		),

		RateLimitBlocks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "nakupenda_rate_limit_blocks_total",
				Help: "Total number of rate limit blocks",
			},
			[]string{"type"},
		),
	}
}

// RecordHTTPRequest 记录 HTTP 请求指标
func (m *Metrics) RecordHTTPRequest(method, endpoint, statusCode string, duration time.Duration, requestSize, responseSize int64) {
	m.HTTPRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
	m.HTTPRequestSize.WithLabelValues(method, endpoint).Observe(float64(requestSize))
	m.HTTPResponseSize.WithLabelValues(method, endpoint).Observe(float64(responseSize))
}

// RecordLetterCreated 记录信件创建
func (m *Metrics) RecordLetterCreated() {
	m.LettersCreated.Inc()
}

// RecordLetterOpen 记录信件阅读
func (m *Metrics) RecordLetterOpen(first bool) {
	m.LetterOpens.Inc()
	if first {
		m.FirstOpens.Inc()
	}
}

// RecordLetterMissed 记录未知链接访问
func (m *Metrics) RecordLetterMissed() {
	m.LettersMissed.Inc()
}

// RecordAttachmentSaved 记录附件保存
func (m *Metrics) RecordAttachmentSaved(attachmentType string, size int64) {
	m.AttachmentsSaved.WithLabelValues(attachmentType).Inc()
	m.AttachmentSize.WithLabelValues(attachmentType).Observe(float64(size))
}

// RecordAttachmentSkipped 记录附件被校验跳过
func (m *Metrics) RecordAttachmentSkipped(attachmentType string) {
	m.AttachmentsSkipped.WithLabelValues(attachmentType).Inc()
}

// RecordAttachmentFailure 记录附件处理失败
func (m *Metrics) RecordAttachmentFailure(attachmentType string) {
	m.AttachmentFailures.WithLabelValues(attachmentType).Inc()
}

// RecordError 记录错误
func (m *Metrics) RecordError(errorType, component string) {
	m.ErrorsTotal.WithLabelValues(errorType, component).Inc()
}

// RecordPanic 记录 panic
func (m *Metrics) RecordPanic() {
	m.PanicsTotal.Inc()
}

// RecordRateLimitHit 记录限流命中
func (m *Metrics) RecordRateLimitHit(limitType string) {
	m.RateLimitHits.WithLabelValues(limitType).Inc()
}

// RecordRateLimitBlock 记录限流阻止
func (m *Metrics) RecordRateLimitBlock(limitType string) {
	m.RateLimitBlocks.WithLabelValues(limitType).Inc()
}

// UpdateSystemUptime 更新系统运行时间
func (m *Metrics) UpdateSystemUptime(uptime time.Duration) {
	m.SystemUptime.Set(uptime.Seconds())
}

// UpdateDatabaseConnections 更新数据库连接数
func (m *Metrics) UpdateDatabaseConnections(count int) {
	m.DatabaseConnections.Set(float64(count))
}

// UpdateRedisConnections 更新 Redis 连接数
func (m *Metrics) UpdateRedisConnections(count int) {
	m.RedisConnections.Set(float64(count))
}

// HTTPHandler 返回 Prometheus HTTP 处理器
func (m *Metrics) HTTPHandler() http.Handler {
	return promhttp.Handler()
}
