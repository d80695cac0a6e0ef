package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.CommandApplied(SourceLocal, "ADD_GROUP")
	m.CommandApplied(SourceLocal, "ADD_GROUP")
	m.CommandApplied(SourceRemote, "ADD_EXPENSE")
	m.CommandPublished()
	m.PublishFailed()
	m.SnapshotFailed(OpSave)
	m.EnvelopeDropped()
	m.RPCHandled("/splitledger.v1.LedgerService/AddGroup", "ok", 5*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.commandsApplied.WithLabelValues(SourceLocal, "ADD_GROUP")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commandsApplied.WithLabelValues(SourceRemote, "ADD_EXPENSE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.commandsPublished))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.publishErrors))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.snapshotErrors.WithLabelValues(OpSave)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.busDropped))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rpcRequests.WithLabelValues("/splitledger.v1.LedgerService/AddGroup", "ok")))

	count, err := testutil.GatherAndCount(reg, MetricCommandsApplied)
	assert.NoError(t, err)
	assert.Equal(t, 2, count, "one series per source and type")
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.CommandApplied(SourceLocal, "ADD_GROUP")
		m.CommandPublished()
		m.PublishFailed()
		m.SnapshotFailed(OpLoad)
		m.EnvelopeDropped()
		m.RPCHandled("p", "ok", time.Second)
	})
}
