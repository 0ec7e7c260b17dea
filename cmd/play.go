package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/drgolem/go-portaudio/portaudio"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"net/http"

	"github.com/drgolem/audioengine/internal/config"
	"github.com/drgolem/audioengine/internal/control"
	"github.com/drgolem/audioengine/internal/metrics"
	"github.com/drgolem/audioengine/pkg/engine"
	"github.com/drgolem/audioengine/pkg/transport"
)

var (
	playConfigPath    string
	playControlAddr   string
	playMetricsAddr   string
	playVerbose       bool
)

// playCmd represents the play command
var playCmd = &cobra.Command{
	Use:   "play <audio_file>",
	Short: "Load and play a single audio file",
	Long: `Load an audio file into the playback engine and play it to the default
bit-perfect-negotiated output device, with a WebSocket control server and
Prometheus metrics endpoint attached for the duration of playback.

Examples:
  # Play a file with the control server on its default address
  audioengine play music.flac

  # Play with a config file and a custom control listen address
  audioengine play -c config.yaml --control :9090 music.wav`,
	Args: cobra.ExactArgs(1),
	Run:  runPlay,
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringVarP(&playConfigPath, "config", "c", "", "Path to a YAML config file")
	playCmd.Flags().StringVar(&playControlAddr, "control", "", "Control server listen address (overrides config)")
	playCmd.Flags().StringVar(&playMetricsAddr, "metrics", ":9091", "Prometheus /metrics listen address")
	playCmd.Flags().BoolVarP(&playVerbose, "verbose", "v", false, "Verbose output (debug logging)")
}

func runPlay(cmd *cobra.Command, args []string) {
	fileName := args[0]

	logLevel := slog.LevelInfo
	if playVerbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	if _, err := os.Stat(fileName); os.IsNotExist(err) {
		slog.Error("File not found", "path", fileName)
		os.Exit(1)
	}

	settings, err := config.Load(playConfigPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if playControlAddr != "" {
		settings.Control.ListenAddress = playControlAddr
	}

	slog.Info("Initializing PortAudio")
	if err := portaudio.Initialize(); err != nil {
		slog.Error("Failed to initialize PortAudio", "error", err)
		slog.Error("Hint: Make sure PortAudio is installed on your system")
		os.Exit(1)
	}
	defer portaudio.Terminate()

	slog.Info("PortAudio initialized", "version", portaudio.GetVersion())

	eng := engine.New(settings.EngineConfig())

	reg := prometheus.NewRegistry()
	collectors := metrics.New(reg)
	eng.SetRecorder(collectors)
	go serveMetrics(playMetricsAddr, reg)

	controlSrv := control.New(settings.Control.ListenAddress, eng)
	if err := controlSrv.Start(); err != nil {
		slog.Error("Failed to start control server", "error", err)
		os.Exit(1)
	}
	defer controlSrv.Shutdown()
	slog.Info("Control server listening", "address", settings.Control.ListenAddress)

	eng.Start()
	defer eng.Stop()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	slog.Info("Loading track", "path", fileName)
	eng.LoadTrack(fileName)
	eng.Play()

	statusDone := make(chan struct{})
	go monitorEngineEvents(eng, statusDone)

	done := make(chan struct{})
	go func() {
		waitForTerminalState(eng, done)
	}()

	select {
	case <-done:
		slog.Info("Playback completed successfully")
	case sig := <-sigChan:
		slog.Info("Signal received, stopping playback", "signal", sig)
		eng.StopPlayback()
	}

	close(statusDone)
	slog.Info("Exiting")
}

// serveMetrics exposes the Prometheus registry over HTTP until the process
// exits; a failure here is logged but never fatal to playback.
func serveMetrics(addr string, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Warn("Metrics server stopped", "error", err)
	}
}

// waitForTerminalState blocks until the engine reaches Stopped after having
// first reached Playing, i.e. natural end-of-track rather than the initial
// Stopped state before playback begins. Polls State directly rather than
// draining eng.Events(): that channel already has a single intended
// consumer, the control server's broadcastLoop, and a second range over it
// here would steal events from it instead of fanning them out.
func waitForTerminalState(eng *engine.Engine, done chan struct{}) {
	sawPlaying := false
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for range ticker.C {
		state := eng.State()
		if state == transport.Playing {
			sawPlaying = true
		}
		if sawPlaying && state == transport.Stopped {
			close(done)
			return
		}
	}
}

// monitorEngineEvents logs transport status every 2 seconds, mirroring the
// status-reporting cadence of a file-by-file playlist run.
func monitorEngineEvents(eng *engine.Engine, done chan struct{}) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			pos := eng.Position()
			state := eng.State()
			format, hasFormat := eng.Format()

			totalMs := pos.Milliseconds()
			hours := totalMs / 3600000
			minutes := (totalMs % 3600000) / 60000
			seconds := (totalMs % 60000) / 1000
			millis := totalMs % 1000
			posStr := fmt.Sprintf("%02d:%02d:%02d.%03d", hours, minutes, seconds, millis)

			formatStr := "unknown"
			if hasFormat {
				formatStr = fmt.Sprintf("%dHz:%s:%dch", format.SampleRate, format.Encoding.String(), format.Channels)
			}

			slog.Info("Playback status",
				"track", eng.Track(),
				"state", state.String(),
				"position", posStr,
				"format", formatStr,
				"underruns", eng.Underruns())
		case <-done:
			return
		}
	}
}
