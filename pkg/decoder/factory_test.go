package decoder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpenRejectsAAC(t *testing.T) {
	_, err := Open("song.aac")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Open("song.m4a")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestOpenRejectsUnknownExtension(t *testing.T) {
	_, err := Open("song.xyz")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestOpenMissingFilePropagatesError(t *testing.T) {
	_, err := Open("/nonexistent/path/does-not-exist.wav")
	assert.Error(t, err)
}
