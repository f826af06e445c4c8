package main

import (
	"errors"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"adalight/config"
	"adalight/host/pattern"
	"adalight/host/serial"
	"adalight/protocol"
)

var (
	device     = flag.String("device", "/dev/ttyACM0", "Serial device path")
	baud       = flag.Int("baud", 115200, "Baud rate (ignored for USB CDC)")
	configPath = flag.String("config", "", "Board config (.json, .yaml, .toml) for LED count and edges")
	count      = flag.Int("count", 0, "Pixels per frame (overrides config)")
	name       = flag.String("pattern", "edges", "Pattern: "+strings.Join(pattern.Names, ", "))
	colorFlag  = flag.String("color", "255,255,255", "Colour for solid and chase (r,g,b or #rrggbb)")
	fps        = flag.Int("fps", 30, "Frames per second")
	duration   = flag.Duration("duration", 0, "Stop after this long (0 = until interrupted)")
	handshake  = flag.Duration("handshake-timeout", 5*time.Second, "How long to wait for the device greeting (0 = skip)")
	verbose    = flag.Bool("verbose", false, "Enable verbose output")
)

func main() {
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Debug().Str("version", protocol.Version).Msg("adalight-send")

	cfg := config.DefaultConfig()
	if *configPath != "" {
		c, err := config.LoadFile(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("config")
		}
		cfg = c
	}
	n := cfg.LEDCount
	if *count > 0 {
		n = *count
	}

	c, err := pattern.ParseColor(*colorFlag)
	if err != nil {
		log.Fatal().Err(err).Msg("color")
	}
	render, err := pattern.Lookup(*name, c, cfg.EdgeIndices())
	if err != nil {
		log.Fatal().Err(err).Msg("pattern")
	}

	portCfg := serial.DefaultConfig(*device)
	portCfg.Baud = *baud
	port, err := serial.Open(portCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open")
	}
	defer port.Close()
	_ = port.Flush()

	sender, err := protocol.NewSender(port, n)
	if err != nil {
		log.Fatal().Err(err).Int("count", n).Msg("sender")
	}

	if *handshake > 0 {
		log.Info().Str("device", *device).Msg("waiting for device greeting")
		if err := sender.WaitForHandshake(*handshake); err != nil {
			if errors.Is(err, protocol.ErrHandshakeTimeout) {
				log.Warn().Err(err).Msg("no greeting; sending anyway")
			} else {
				log.Fatal().Err(err).Msg("handshake")
			}
		}
	}

	if err := run(sender, render, n); err != nil {
		log.Fatal().Err(err).Msg("send")
	}
	log.Info().Uint64("frames", sender.FramesSent()).Msg("done")
}

// run streams frames until interrupted or the duration elapses
func run(sender *protocol.Sender, render pattern.Func, n int) error {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	var stop <-chan time.Time
	if *duration > 0 {
		stop = time.After(*duration)
	}

	ticker := time.NewTicker(time.Second / time.Duration(max(1, *fps)))
	defer ticker.Stop()

	pixels := make([]protocol.Pixel, n)
	log.Info().Str("pattern", *name).Int("count", n).Int("fps", *fps).Msg("streaming")
	for frame := 0; ; frame++ {
		render(frame, pixels)
		if err := sender.SendFrame(pixels); err != nil {
			return err
		}
		log.Debug().Int("frame", frame).Msg("sent")

		select {
		case <-ticker.C:
		case s := <-sig:
			log.Info().Str("signal", s.String()).Msg("stopping")
			return nil
		case <-stop:
			return nil
		}
	}
}
