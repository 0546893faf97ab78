// Package metrics exports client activity as Prometheus metrics.
//
// A Collector implements client.Observer and is installed with
// client.WithObserver:
//
//	m := metrics.New(metrics.WithNamespace("inspector"))
//	sess := client.NewSession(cfg, client.WithObserver(m))
//
//	// Expose metrics endpoint
//	http.Handle("/metrics", promhttp.Handler())
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/milweb-dev/milweb/pkg/protocol"
)

// Config configures the collector.
type Config struct {
	// Namespace is the metrics namespace (default: "milweb").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for data latency.
	// Default: 1ms to ~4s, exponential.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the latency histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "milweb",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector holds the client metrics.
type Collector struct {
	framesReceived *prometheus.CounterVec
	bytesReceived  *prometheus.CounterVec
	requestsSent   *prometheus.CounterVec
	groupRounds    *prometheus.CounterVec
	errors         *prometheus.CounterVec
	activeProxies  *prometheus.GaugeVec
	dataLatency    *prometheus.HistogramVec
}

// New registers the client metrics and returns the collector.
//
// Metrics collected:
//   - milweb_frames_received_total: Counter of frames by object kind
//   - milweb_bytes_received_total: Counter of payload bytes by object kind
//   - milweb_requests_sent_total: Counter of client messages by command
//   - milweb_group_rounds_total: Counter of completed group rounds
//   - milweb_errors_total: Counter of reported errors by code
//   - milweb_active_proxies: Gauge of registered proxies by kind
//   - milweb_data_latency_seconds: Histogram of request to frame latency
//
// New panics if the metrics are already registered with the registry.
func New(opts ...Option) *Collector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Collector{
		framesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frames_received_total",
			Help:        "Total number of object frames received",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		bytesReceived: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "bytes_received_total",
			Help:        "Total payload bytes received",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		requestsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "requests_sent_total",
			Help:        "Total number of messages sent to the exchange server",
			ConstLabels: config.ConstLabels,
		}, []string{"command"}),

		groupRounds: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "group_rounds_total",
			Help:        "Total number of completed group rounds",
			ConstLabels: config.ConstLabels,
		}, []string{"group"}),

		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "errors_total",
			Help:        "Total number of client errors by code",
			ConstLabels: config.ConstLabels,
		}, []string{"code"}),

		activeProxies: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_proxies",
			Help:        "Number of registered proxies",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		dataLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "data_latency_seconds",
			Help:        "Time from a data request to the matching frame",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, []string{"kind"}),
	}
}

// ProxyAdded records a new proxy.
func (c *Collector) ProxyAdded(kind protocol.ObjectType) {
	c.activeProxies.WithLabelValues(kind.String()).Inc()
}

// ProxyRemoved records a released proxy.
func (c *Collector) ProxyRemoved(kind protocol.ObjectType) {
	c.activeProxies.WithLabelValues(kind.String()).Dec()
}

// RequestSent records an outgoing message.
func (c *Collector) RequestSent(cmd protocol.Command) {
	c.requestsSent.WithLabelValues(cmd.String()).Inc()
}

// FrameReceived records a frame. A zero latency is not observed.
func (c *Collector) FrameReceived(kind protocol.ObjectType, bytes int, latency time.Duration) {
	label := kind.String()
	c.framesReceived.WithLabelValues(label).Inc()
	c.bytesReceived.WithLabelValues(label).Add(float64(bytes))
	if latency > 0 {
		c.dataLatency.WithLabelValues(label).Observe(latency.Seconds())
	}
}

// GroupRound records a completed group round.
func (c *Collector) GroupRound(group string) {
	c.groupRounds.WithLabelValues(group).Inc()
}

// Error records a reported error code.
func (c *Collector) Error(code int) {
	c.errors.WithLabelValues(strconv.Itoa(code)).Inc()
}
