package control

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drgolem/audioengine/pkg/engine"
	"github.com/drgolem/audioengine/pkg/transport"
)

func newTestServer() *Server {
	eng := engine.New(engine.DefaultConfig())
	return New("127.0.0.1:0", eng)
}

func TestDispatchGetStateBeforeAnyCommand(t *testing.T) {
	s := newTestServer()
	resp := s.dispatch(Request{ID: "1", Method: "player.get_state"})
	assert.Equal(t, "success", resp.Status)

	result, ok := resp.Result.(stateResult)
	require.True(t, ok)
	assert.Equal(t, "stopped", result.State)
}

func TestDispatchGetFormatWithoutTrackErrors(t *testing.T) {
	s := newTestServer()
	resp := s.dispatch(Request{ID: "2", Method: "player.get_format"})
	assert.Equal(t, "error", resp.Status)
	assert.NotEmpty(t, resp.Error)
}

func TestDispatchUnknownMethod(t *testing.T) {
	s := newTestServer()
	resp := s.dispatch(Request{ID: "3", Method: "bogus.method"})
	assert.Equal(t, "error", resp.Status)
}

func TestDispatchSetVolumeRejectsMalformedParams(t *testing.T) {
	s := newTestServer()
	resp := s.dispatch(Request{ID: "4", Method: "player.set_volume", Params: json.RawMessage(`not-json`)})
	assert.Equal(t, "error", resp.Status)
}

func TestDispatchSetVolumeAcceptsValidParams(t *testing.T) {
	s := newTestServer()
	params, err := json.Marshal(volumeParams{Volume: 0.5})
	require.NoError(t, err)
	resp := s.dispatch(Request{ID: "5", Method: "player.set_volume", Params: params})
	assert.Equal(t, "success", resp.Status)
}

func TestBandsFromGainsClampsToLadderLength(t *testing.T) {
	gains := make([]float32, 20)
	bands := bandsFromGains(gains)
	assert.Len(t, bands, len(isoGraphicBandsHz))
}

func TestEventToNotificationMapsBufferUnderrun(t *testing.T) {
	note := eventToNotification(transport.Event{Kind: transport.EventBufferUnderrun})
	assert.Equal(t, "player.buffer_underrun", note.Event)
}
