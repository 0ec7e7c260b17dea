package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/drgolem/go-portaudio/portaudio"
	"github.com/spf13/cobra"

	"github.com/drgolem/audioengine/pkg/device"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List PortAudio output devices",
	Long:  `Enumerate every PortAudio output-capable device with its host API, maximum output channels and default sample rate.`,
	Args:  cobra.NoArgs,
	Run:   runDevices,
}

func init() {
	rootCmd.AddCommand(devicesCmd)
}

func runDevices(cmd *cobra.Command, args []string) {
	if err := portaudio.Initialize(); err != nil {
		slog.Error("Failed to initialize PortAudio", "error", err)
		os.Exit(1)
	}
	defer portaudio.Terminate()

	registry := device.NewRegistry()
	devices, err := registry.List()
	if err != nil {
		slog.Error("Failed to enumerate devices", "error", err)
		os.Exit(1)
	}

	for _, d := range devices {
		fmt.Printf("[%d] %s (host API: %s, max channels: %d, default rate: %.0fHz)\n",
			d.Index, d.Name, d.HostAPI, d.MaxOutputChannels, d.DefaultSampleRate)
	}
}
