package transport

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTransport() (*Transport, chan Event) {
	events := make(chan Event, 16)
	return New(events), events
}

func TestPlayFromStoppedTransitionsToPlaying(t *testing.T) {
	tr, events := newTestTransport()
	require.NoError(t, tr.Play())
	assert.Equal(t, Playing, tr.State())

	ev := <-events
	assert.Equal(t, EventStateChanged, ev.Kind)
	assert.Equal(t, Playing, ev.State)
}

func TestPlayIsIdempotentWhilePlaying(t *testing.T) {
	tr, events := newTestTransport()
	require.NoError(t, tr.Play())
	<-events
	require.NoError(t, tr.Play())
	select {
	case <-events:
		t.Fatal("no second StateChanged expected for a no-op Play")
	default:
	}
}

func TestPlayFromBufferingIsInvalid(t *testing.T) {
	tr, events := newTestTransport()
	require.NoError(t, tr.Play())
	<-events
	tr.NoteUnderrunStart()
	<-events
	require.Equal(t, Buffering, tr.State())

	err := tr.Play()
	assert.Error(t, err)
}

func TestPauseOnlyFromPlaying(t *testing.T) {
	tr, _ := newTestTransport()
	err := tr.Pause()
	assert.Error(t, err)
}

func TestStopFromPausedTransitionsToStopped(t *testing.T) {
	tr, events := newTestTransport()
	require.NoError(t, tr.Play())
	<-events
	require.NoError(t, tr.Pause())
	<-events
	require.NoError(t, tr.Stop())
	ev := <-events
	assert.Equal(t, Stopped, ev.State)
}

func TestSeekWhileStoppedStoresPendingPosition(t *testing.T) {
	tr, events := newTestTransport()
	tr.Seek(30 * time.Second)
	ev := <-events
	assert.Equal(t, EventPositionChanged, ev.Kind)
	assert.Equal(t, 30*time.Second, tr.Position())

	// Stopping from Playing resets the stored position to zero.
	require.NoError(t, tr.Play())
	<-events
	require.NoError(t, tr.Stop())
	<-events
	assert.Equal(t, time.Duration(0), tr.Position())
}

func TestUnderrunStartOnlyAffectsPlaying(t *testing.T) {
	tr, events := newTestTransport()
	tr.NoteUnderrunStart() // Stopped: no-op
	assert.Equal(t, Stopped, tr.State())
	select {
	case <-events:
		t.Fatal("no event expected")
	default:
	}
}

func TestUnderrunRecoveredReturnsToPlaying(t *testing.T) {
	tr, events := newTestTransport()
	require.NoError(t, tr.Play())
	<-events
	tr.NoteUnderrunStart()
	<-events // StateChanged(Buffering)
	<-events // BufferUnderrun
	require.Equal(t, Buffering, tr.State())

	tr.NoteUnderrunRecovered()
	ev := <-events
	assert.Equal(t, Playing, ev.State)
}

func TestFailTransitionsToErrorFromAnyState(t *testing.T) {
	tr, events := newTestTransport()
	tr.Fail("device disconnected")

	ev := <-events
	assert.Equal(t, EventStateChanged, ev.Kind)
	assert.Equal(t, Error, ev.State)

	ev = <-events
	assert.Equal(t, EventError, ev.Kind)
	assert.Equal(t, "device disconnected", ev.Err)
}
