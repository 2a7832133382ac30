package monitoring

import (
	"strconv"
	"time"

	"huddle/internal/core/domain"
	"huddle/internal/core/ports"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusCollector implements ports.Metrics on top of promauto
// registered collectors.
type PrometheusCollector struct {
	messagesSentTotal    *prometheus.CounterVec
	deferredFiredTotal   prometheus.Counter
	deferredDroppedTotal prometheus.Counter
	standupFlushDuration prometheus.Histogram
	channelsActive       prometheus.Gauge
	httpRequestDuration  *prometheus.HistogramVec
}

func NewPrometheusCollector() *PrometheusCollector {
	return &PrometheusCollector{
		messagesSentTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "huddle_messages_sent_total",
			Help: "Total number of messages appended to channel timelines",
		}, []string{"channel_id"}),

		deferredFiredTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "huddle_deferred_sends_fired_total",
			Help: "Total number of scheduled sends delivered",
		}),

		deferredDroppedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "huddle_deferred_sends_dropped_total",
			Help: "Total number of deferred deliveries dropped because the channel was gone",
		}),

		standupFlushDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "huddle_standup_flush_duration_seconds",
			Help:    "Duration of standup buffer flushes",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}),

		channelsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "huddle_channels_active",
			Help: "Number of channels currently in the store",
		}),

		httpRequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "huddle_http_request_duration_seconds",
			Help:    "Duration of HTTP requests by route and status",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"method", "route", "status"}),
	}
}

var _ ports.Metrics = (*PrometheusCollector)(nil)

func (p *PrometheusCollector) RecordMessageSent(channel domain.ChannelID) {
	p.messagesSentTotal.WithLabelValues(strconv.FormatInt(int64(channel), 10)).Inc()
}

func (p *PrometheusCollector) RecordStandupFlush(duration time.Duration) {
	p.standupFlushDuration.Observe(duration.Seconds())
}

func (p *PrometheusCollector) RecordDeferredFired() {
	p.deferredFiredTotal.Inc()
}

func (p *PrometheusCollector) RecordDeferredDropped() {
	p.deferredDroppedTotal.Inc()
}

func (p *PrometheusCollector) SetChannelCount(n int) {
	p.channelsActive.Set(float64(n))
}

// ObserveHTTPRequest records one request against the route template so
// parameterized paths do not explode label cardinality.
func (p *PrometheusCollector) ObserveHTTPRequest(method, route string, status int, duration time.Duration) {
	p.httpRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(duration.Seconds())
}
