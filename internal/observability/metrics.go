// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Stream metrics
	FramesReceived   prometheus.Counter
	FramesDiscarded  *prometheus.CounterVec
	Reconnects       prometheus.Counter
	ConnectionState  prometheus.Gauge
	EventsDispatched prometheus.Counter
	InFlight         prometheus.Gauge

	// Resolution metrics
	TransfersMatched prometheus.Counter
	ResolutionErrors *prometheus.CounterVec
	RPCCallLatency   *prometheus.HistogramVec

	// Alert metrics
	AlertsSent     *prometheus.CounterVec
	DeliveryErrors prometheus.Counter
}

// NewMetrics creates a new Metrics instance registered with reg.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if namespace == "" {
		namespace = "spl_transfer_watch"
	}
	factory := promauto.With(reg)

	return &Metrics{
		FramesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "frames_received_total",
			Help:      "Total number of WebSocket frames received",
		}),
		FramesDiscarded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "frames_discarded_total",
			Help:      "Total number of frames that produced no work, by reason",
		}, []string{"reason"}),
		Reconnects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "reconnects_total",
			Help:      "Total number of reconnect attempts after a connection failure",
		}),
		ConnectionState: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stream",
			Name:      "connection_state",
			Help:      "Subscription state: 0 disconnected, 1 connecting, 2 subscribed",
		}),
		EventsDispatched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dispatcher",
			Name:      "events_dispatched_total",
			Help:      "Total number of signatures handed to resolution",
		}),
		InFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "dispatcher",
			Name:      "in_flight",
			Help:      "Number of resolutions currently running or waiting for a slot",
		}),

		TransfersMatched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "transfers_matched_total",
			Help:      "Total number of token transfers addressed to the watched account",
		}),
		ResolutionErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "resolver",
			Name:      "errors_total",
			Help:      "Total number of resolution errors by stage",
		}, []string{"stage"}),
		RPCCallLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "solana",
			Name:      "rpc_call_latency_seconds",
			Help:      "Solana RPC call latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),

		AlertsSent: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alert",
			Name:      "sent_total",
			Help:      "Total number of alerts delivered by status",
		}, []string{"status"}),
		DeliveryErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alert",
			Name:      "delivery_errors_total",
			Help:      "Total number of alerts that failed to deliver",
		}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("", prometheus.DefaultRegisterer)

// RecordFrameReceived increments the frames received counter.
func RecordFrameReceived() {
	DefaultMetrics.FramesReceived.Inc()
}

// RecordFrameDiscarded records a frame that produced no resolution work.
func RecordFrameDiscarded(reason string) {
	DefaultMetrics.FramesDiscarded.WithLabelValues(reason).Inc()
}

// RecordReconnect increments the reconnect counter.
func RecordReconnect() {
	DefaultMetrics.Reconnects.Inc()
}

// SetConnectionState updates the connection state gauge.
func SetConnectionState(state int) {
	DefaultMetrics.ConnectionState.Set(float64(state))
}

// RecordEventDispatched increments the dispatched events counter.
func RecordEventDispatched() {
	DefaultMetrics.EventsDispatched.Inc()
}

// AddInFlight adjusts the in-flight resolutions gauge by delta.
func AddInFlight(delta float64) {
	DefaultMetrics.InFlight.Add(delta)
}

// RecordTransferMatched increments the matched transfers counter.
func RecordTransferMatched() {
	DefaultMetrics.TransfersMatched.Inc()
}

// RecordResolutionError records a resolution error at the given stage.
func RecordResolutionError(stage string) {
	DefaultMetrics.ResolutionErrors.WithLabelValues(stage).Inc()
}

// RecordRPCLatency records RPC call latency.
func RecordRPCLatency(method string, seconds float64) {
	DefaultMetrics.RPCCallLatency.WithLabelValues(method).Observe(seconds)
}

// RecordAlertSent records a delivered alert.
func RecordAlertSent(status string) {
	DefaultMetrics.AlertsSent.WithLabelValues(status).Inc()
}

// RecordDeliveryError records a failed alert delivery.
func RecordDeliveryError() {
	DefaultMetrics.DeliveryErrors.Inc()
}
