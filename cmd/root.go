package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "audioengine",
	Short: "Bit-perfect local audio playback engine",
	Long: `audioengine - a decoder/DSP/output playback engine with bit-perfect
device negotiation, a lock-free SPSC ring buffer between decode and output,
and a WebSocket control plane for remote transport commands.

Features:
  - WAV/FLAC/MP3/Ogg decoding behind a single pull-based Decoder interface
  - Lock-free SPSC byte ring between the decode worker and the output callback
  - Bit-perfect device negotiation (sample-rate-matched shared-mode output)
  - Parametric EQ and sample-rate conversion DSP chain
  - JSON-over-WebSocket control protocol for play/pause/seek/volume/EQ
  - Prometheus metrics and layered YAML/env configuration

Commands:
  - play: Load and play a single audio file with the control server attached
  - devices: List PortAudio output devices with their channel counts and default sample rates
  - transform: Convert audio files to different sample rates and WAV format`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
