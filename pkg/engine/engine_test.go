package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEngineStartsStopped(t *testing.T) {
	e := New(DefaultConfig())
	assert.Equal(t, "stopped", e.State().String())
}

func TestStartStopIsIdempotent(t *testing.T) {
	e := New(DefaultConfig())
	e.Start()
	e.Start() // must not spawn a second worker or block
	e.Stop()
	e.Stop() // must not hang
}

func TestPlayWithoutTrackLoadedTransitionsState(t *testing.T) {
	e := New(DefaultConfig())
	e.Start()
	defer e.Stop()

	e.Play()
	// Drain at least the expected event (or none, since transport.Play from
	// Stopped with no decoder still transitions state - only fillRing is a
	// no-op with a nil decoder). Give the worker a moment to process.
	select {
	case ev := <-e.Events():
		assert.Equal(t, "playing", ev.State.String())
	case <-time.After(200 * time.Millisecond):
		t.Fatal("expected a StateChanged event after Play")
	}
}

func TestLoadNonexistentTrackEmitsErrorEvent(t *testing.T) {
	e := New(DefaultConfig())
	e.Start()
	defer e.Stop()

	e.LoadTrack("/nonexistent/path/missing.wav")

	var sawStateError, sawErrorEvent bool
	deadline := time.After(500 * time.Millisecond)
	for !sawStateError || !sawErrorEvent {
		select {
		case ev := <-e.Events():
			if ev.State.String() == "error" {
				sawStateError = true
			}
			if ev.Err != "" {
				sawErrorEvent = true
			}
		case <-deadline:
			t.Fatalf("timed out waiting for error events, got state=%v err=%v", sawStateError, sawErrorEvent)
		}
	}
}

func TestSetVolumeUpdatesEngineGain(t *testing.T) {
	e := New(DefaultConfig())
	e.Start()
	defer e.Stop()

	e.SetVolume(0.3)
	require.Eventually(t, func() bool {
		return e.backend().Volume() == float32(0.3)
	}, time.Second, 5*time.Millisecond)
}
