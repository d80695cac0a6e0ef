// Package metrics defines the Prometheus collectors for the sync layer and
// the RPC surface.
//
// Every method is safe to call on a nil *Metrics, so components can run
// without instrumentation.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metric names.
const (
	MetricCommandsApplied   = "splitledger_commands_applied_total"
	MetricCommandsPublished = "splitledger_commands_published_total"
	MetricPublishErrors     = "splitledger_publish_errors_total"
	MetricSnapshotErrors    = "splitledger_snapshot_errors_total"
	MetricBusDropped        = "splitledger_bus_dropped_total"
	MetricRPCRequests       = "splitledger_rpc_requests_total"
	MetricRPCDuration       = "splitledger_rpc_duration_seconds"
)

// Command sources.
const (
	SourceLocal  = "local"
	SourceRemote = "remote"
)

// Snapshot operations.
const (
	OpLoad   = "load"
	OpSave   = "save"
	OpDecode = "decode"
)

// Metrics holds the collectors registered for one process.
type Metrics struct {
	commandsApplied   *prometheus.CounterVec
	commandsPublished prometheus.Counter
	publishErrors     prometheus.Counter
	snapshotErrors    *prometheus.CounterVec
	busDropped        prometheus.Counter
	rpcRequests       *prometheus.CounterVec
	rpcDuration       *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		commandsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricCommandsApplied,
			Help: "Commands applied to the local replica, by source and command type.",
		}, []string{"source", "type"}),
		commandsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricCommandsPublished,
			Help: "Commands published to the bus.",
		}),
		publishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricPublishErrors,
			Help: "Commands that could not be published.",
		}),
		snapshotErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricSnapshotErrors,
			Help: "Snapshot persistence failures, by operation.",
		}, []string{"op"}),
		busDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricBusDropped,
			Help: "Envelopes discarded because a subscriber queue was full.",
		}),
		rpcRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: MetricRPCRequests,
			Help: "RPC requests handled, by procedure and result code.",
		}, []string{"procedure", "code"}),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    MetricRPCDuration,
			Help:    "RPC handling latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"procedure"}),
	}
	reg.MustRegister(
		m.commandsApplied,
		m.commandsPublished,
		m.publishErrors,
		m.snapshotErrors,
		m.busDropped,
		m.rpcRequests,
		m.rpcDuration,
	)
	return m
}

func (m *Metrics) CommandApplied(source, commandType string) {
	if m == nil {
		return
	}
	m.commandsApplied.WithLabelValues(source, commandType).Inc()
}

func (m *Metrics) CommandPublished() {
	if m == nil {
		return
	}
	m.commandsPublished.Inc()
}

func (m *Metrics) PublishFailed() {
	if m == nil {
		return
	}
	m.publishErrors.Inc()
}

func (m *Metrics) SnapshotFailed(op string) {
	if m == nil {
		return
	}
	m.snapshotErrors.WithLabelValues(op).Inc()
}

func (m *Metrics) EnvelopeDropped() {
	if m == nil {
		return
	}
	m.busDropped.Inc()
}

// RPCHandled records one finished RPC.
func (m *Metrics) RPCHandled(procedure, code string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.rpcRequests.WithLabelValues(procedure, code).Inc()
	m.rpcDuration.WithLabelValues(procedure).Observe(elapsed.Seconds())
}
