package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCollectors(t *testing.T) (*Collectors, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	return New(reg), reg
}

func TestRecordBufferUnderrunIncrementsCounter(t *testing.T) {
	c, _ := newTestCollectors(t)
	c.RecordBufferUnderrun()
	c.RecordBufferUnderrun()
	assert.Equal(t, float64(2), testutil.ToFloat64(c.bufferUnderruns))
}

func TestRecordFramesDecodedAccumulates(t *testing.T) {
	c, _ := newTestCollectors(t)
	c.RecordFramesDecoded(1024)
	c.RecordFramesDecoded(512)
	assert.Equal(t, float64(1536), testutil.ToFloat64(c.framesDecoded))
}

func TestRecordLatencySetsGaugeValue(t *testing.T) {
	c, _ := newTestCollectors(t)
	c.RecordLatency(12.5)
	assert.Equal(t, 12.5, testutil.ToFloat64(c.latencyMs))
	c.RecordLatency(8.0)
	assert.Equal(t, 8.0, testutil.ToFloat64(c.latencyMs))
}

func TestCollectorsRegisterWithoutError(t *testing.T) {
	reg := prometheus.NewRegistry()
	require.NotPanics(t, func() { New(reg) })
}
