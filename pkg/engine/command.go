package engine

import (
	"time"

	"github.com/drgolem/audioengine/pkg/dsp"
)

// CommandKind identifies which field of Command is populated.
type CommandKind int

const (
	CmdLoadTrack CommandKind = iota
	CmdPlay
	CmdPause
	CmdStop
	CmdSeek
	CmdSetVolume
	CmdSetEQ
	CmdEnableDSP
	CmdSetDevice
	CmdShutdown
)

// Command is the engine's single inbound message type, processed serially
// by the worker goroutine in arrival order. Grounded on the original's
// EngineCommand enum (LoadTrack/Play/Pause/Stop/Seek/SetVolume/SetFormat/
// EnableDSP/SetEQ/Shutdown); SetFormat is folded into LoadTrack here since
// this implementation derives delivery format from the decoded track via
// BitPerfectNegotiator rather than accepting it as a standalone command.
type Command struct {
	Kind         CommandKind
	Path         string
	Position     time.Duration
	Volume       float32
	EQBands      []dsp.Band
	Enabled      bool
	DeviceIndex  int
}

func LoadTrack(path string) Command  { return Command{Kind: CmdLoadTrack, Path: path} }
func Play() Command                  { return Command{Kind: CmdPlay} }
func Pause() Command                 { return Command{Kind: CmdPause} }
func Stop() Command                  { return Command{Kind: CmdStop} }
func Seek(pos time.Duration) Command { return Command{Kind: CmdSeek, Position: pos} }
func SetVolume(gain float32) Command { return Command{Kind: CmdSetVolume, Volume: gain} }
func SetEQ(bands []dsp.Band) Command { return Command{Kind: CmdSetEQ, EQBands: bands} }
func EnableDSP(enabled bool) Command { return Command{Kind: CmdEnableDSP, Enabled: enabled} }
func SetDevice(index int) Command    { return Command{Kind: CmdSetDevice, DeviceIndex: index} }
func Shutdown() Command              { return Command{Kind: CmdShutdown} }
