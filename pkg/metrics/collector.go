package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector exposes engine and HTTP metrics through Prometheus.
type Collector struct {
	engineTicks         prometheus.Counter
	enginePlaying       prometheus.Gauge
	engineTotalLatency  prometheus.Gauge
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	spectrumSubscribers prometheus.Gauge
}

// NewCollector creates a new Prometheus metrics collector registered
// against reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		engineTicks: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "cyberasio_engine_ticks_total",
				Help: "Total number of engine ticks processed",
			},
		),
		enginePlaying: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "cyberasio_engine_playing",
				Help: "Whether the engine is currently playing (1) or stopped (0)",
			},
		),
		engineTotalLatency: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "cyberasio_engine_total_latency_ms",
				Help: "Current round-trip latency in milliseconds",
			},
		),
		httpRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cyberasio_http_requests_total",
				Help: "Total number of HTTP requests served",
			},
			[]string{"method", "path", "code"},
		),
		httpRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cyberasio_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"method", "path"},
		),
		spectrumSubscribers: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "cyberasio_spectrum_subscribers",
				Help: "Number of connected spectrum stream subscribers",
			},
		),
	}
}

// ObserveTick records one engine tick and the state it produced.
func (c *Collector) ObserveTick(totalLatencyMs float64, playing bool) {
	c.engineTicks.Inc()
	c.engineTotalLatency.Set(totalLatencyMs)

	if playing {
		c.enginePlaying.Set(1)
	} else {
		c.enginePlaying.Set(0)
	}
}

// ObserveRequest records a served HTTP request.
func (c *Collector) ObserveRequest(method, path, code string, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, path, code).Inc()
	c.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// SubscriberConnected increments the spectrum subscriber gauge.
func (c *Collector) SubscriberConnected() {
	c.spectrumSubscribers.Inc()
}

// SubscriberDisconnected decrements the spectrum subscriber gauge.
func (c *Collector) SubscriberDisconnected() {
	c.spectrumSubscribers.Dec()
}
