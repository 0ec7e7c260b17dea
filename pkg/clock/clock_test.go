package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDriftZeroImmediatelyAfterStart(t *testing.T) {
	c := New(44100)
	c.Start()

	stats := c.GetStats()
	assert.Equal(t, 0.0, stats.DriftPPM)
}

func TestJitterZeroAfterSingleUpdate(t *testing.T) {
	c := New(44100)
	c.Start()
	c.Update(1024)

	stats := c.GetStats()
	assert.Equal(t, 0.0, stats.JitterNs)
}

func TestStoppedClockReturnsZeroStats(t *testing.T) {
	c := New(44100)
	stats := c.GetStats()
	assert.Equal(t, Stats{}, stats)
}

func TestResetZeroesCountersWithoutStopping(t *testing.T) {
	c := New(44100)
	c.Start()
	c.Update(1024)
	c.Reset()

	assert.True(t, c.Running())
	stats := c.GetStats()
	assert.Equal(t, int64(0), stats.FramesObserved)
}

func TestFramesObservedAccumulates(t *testing.T) {
	c := New(44100)
	c.Start()
	time.Sleep(time.Millisecond)
	c.Update(100)
	c.Update(200)

	stats := c.GetStats()
	assert.Equal(t, int64(300), stats.FramesObserved)
}
