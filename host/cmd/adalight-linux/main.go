package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"adalight/config"
	"adalight/core"
	"adalight/host/linux"
	"adalight/host/preview"
	"adalight/host/serial"
	"adalight/protocol"
)

func main() {
	var (
		configPath = flag.String("config", "", "Board config (.json, .yaml, .toml)")
		device     = flag.String("device", "/dev/ttyGS0", "Serial device the host streams to")
		addr       = flag.String("addr", "", "Preview HTTP listen address (empty disables)")
		console    = flag.Bool("console", false, "Draw the strip on the terminal instead of SPI")
		debug      = flag.Bool("debug", false, "Enable debug logging")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	cfg := config.DefaultConfig()
	cfg.Display.Enabled = false
	if *configPath != "" {
		c, err := config.LoadFile(*configPath)
		if err != nil {
			log.Fatal().Err(err).Str("path", *configPath).Msg("config load failed")
		}
		cfg = c
	}

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Debug || *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		core.SetDebugWriter(func(s string) { log.Debug().Msg(s) })
		core.SetDebugEnabled(true)
	}
	log.Info().Str("version", protocol.Version).Msg("adalight")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *device, *addr, *console); err != nil {
		log.Fatal().Err(err).Msg("adalight")
	}
}

func run(ctx context.Context, cfg *config.Config, device, addr string, console bool) error {
	portCfg := serial.DefaultConfig(device)
	portCfg.Baud = cfg.Baud
	port, err := serial.Open(portCfg)
	if err != nil {
		return err
	}
	defer port.Close()
	_ = port.Flush()

	strip, err := linux.OpenStrip(linux.StripOptions{
		NumPixels: cfg.LEDCount,
		SPIDevice: cfg.Strip.SPIDevice,
		SPIFreqHz: cfg.Strip.SPIFreqHz,
		Console:   console,
	})
	if err != nil {
		return err
	}
	defer strip.Close()
	log.Info().Str("strip", strip.String()).Int("leds", cfg.LEDCount).Msg("strip ready")

	strips := core.StripGroup{strip}
	presenters := core.PresenterGroup{linux.NewLogPresenter(log.Logger)}

	var srv *http.Server
	var pv *preview.Server
	if addr != "" {
		pv = preview.New(50 * time.Millisecond) // ~20 FPS to the browser
		strips = append(strips, pv)
		presenters = append(presenters, pv)
		srv = &http.Server{
			Addr:         addr,
			Handler:      pv.Handler(),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
	}

	reader := serial.NewByteReader(ctx, port, 256)
	controller, err := core.NewController(cfg.Controller(), reader, strips, presenters)
	if err != nil {
		return err
	}

	if srv != nil {
		pv.SetStatsSource(controller.Stats)
		go func() {
			log.Info().Str("addr", addr).Msg("preview server starting")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("preview server crashed")
			}
		}()
		defer func() {
			_ = srv.Close()
			_ = pv.Close()
		}()
	}

	if err := controller.Start(port); err != nil {
		return err
	}
	log.Info().Str("device", device).Msg("waiting for frames")

	err = controller.Run()
	stats := controller.Stats()
	log.Info().
		Uint32("frames", stats.Frames).
		Uint32("checksum_errors", stats.ChecksumErrors).
		Uint32("magic_resets", stats.MagicResets).
		Uint32("length_mismatches", stats.LengthMismatches).
		Uint32("flush_errors", stats.FlushErrors).
		Msg("stopped")

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
