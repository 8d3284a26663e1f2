package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	"github.com/coreman2200/ws28xx/bus"
	"github.com/coreman2200/ws28xx/internal/config"
	"github.com/coreman2200/ws28xx/internal/preview"
	"github.com/coreman2200/ws28xx/model"
	"github.com/coreman2200/ws28xx/render"
	"github.com/coreman2200/ws28xx/strip"
)

func main() {
	// ---- Flags (config.yaml overrides them when present) ----
	var (
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		driver     = flag.String("driver", "spi", "driver: spi | nrzled | console")
		port       = flag.String("port", "", "SPI port name (empty = first port)")
		softLSB    = flag.Bool("soft-lsb-first", false, "bit-reverse in software instead of LSB-first SPI mode")
		gpio       = flag.Int("gpio", 10, "data pin (MOSI)")
		modelName  = flag.String("model", "ws2812b", "strip model: ws2812b | ws2815")
		leds       = flag.Int("leds", 60, "number of LEDs")
		resetDelay = flag.Int("reset-delay", 0, "reset idle words (0 = model default)")
		colorHex   = flag.String("color", "#000000", "fill color #RRGGBB")
		fps        = flag.Int("fps", render.DFLT_FPS, "frames per second")
		addr       = flag.String("preview", "", "preview HTTP listen address (empty = off)")
		once       = flag.Bool("once", false, "push one frame and exit")
		level      = flag.String("log-level", "info", "log level")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	if lvl, err := zerolog.ParseLevel(*level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	} else {
		log.Warn().Str("level", *level).Msg("unknown log level; using info")
	}

	// ---- Effective config: flags, then config.yaml ----
	cfg := config.Default()
	cfg.Driver = *driver
	cfg.SPI = config.SPI{Port: *port, SoftLSBFirst: *softLSB}
	cfg.GPIO = *gpio
	cfg.LEDs = *leds
	cfg.ResetDelay = *resetDelay
	cfg.Color = *colorHex
	cfg.FPS = *fps
	cfg.Preview.Addr = *addr
	m, err := model.ParseModel(*modelName)
	if err != nil {
		log.Fatal().Err(err).Msg("bad -model")
	}
	cfg.Model = m

	if err := config.LoadInto(*configPath, cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; proceeding with flags")
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	fill, _ := config.ParseColor(cfg.Color)

	// ---- Strip ----
	drv, selected := selectDriver(cfg)
	s, err := strip.Init(strip.Config{
		Pin:        cfg.GPIO,
		Model:      cfg.Model,
		LEDCount:   cfg.LEDs,
		ResetDelay: cfg.ResetDelay,
		Driver:     drv,
	}, strip.Resources{})
	if err != nil {
		log.Fatal().Err(err).Str("driver", selected).Msg("strip init failed")
	}
	defer s.Destroy()
	log.Info().
		Str("driver", selected).
		Stringer("model", s.Model()).
		Int("leds", s.LEDCount()).
		Int("words", s.TransferLen()).
		Msg("strip ready")

	s.FillAll(fill)
	r := render.NewRenderer(s, nil)

	if *once {
		if err := r.Render(0); err != nil {
			log.Error().Err(err).Msg("update failed")
		}
		return
	}

	// ---- Preview ----
	var srv *http.Server
	if cfg.Preview.Addr != "" {
		hub := preview.NewHub(s.LEDCount(), s.Model(), selected)
		r.OnFrame(hub.Broadcast)
		srv = &http.Server{
			Addr:         cfg.Preview.Addr,
			Handler:      hub.Handler(),
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		}
		go func() {
			log.Info().Str("addr", cfg.Preview.Addr).Msg("preview server starting")
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("preview server stopped")
			}
		}()
	}

	// ---- Run until SIGINT/SIGTERM ----
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	render.NewLooper(r, cfg.FPS).Start(ctx)

	if srv != nil {
		_ = srv.Close()
	}
	if err := r.Clear(); err != nil {
		log.Warn().Err(err).Msg("clear on shutdown")
	}
	frames, errs := r.Stats()
	log.Info().Uint64("frames", frames).Uint64("errors", errs).Msg("shut down")
}

// selectDriver builds the configured driver. An SPI driver whose port
// cannot be opened falls back to the console, as there is nothing to drive.
func selectDriver(cfg *config.Config) (strip.Driver, string) {
	if cfg.Driver == "console" {
		return &bus.Console{Model: cfg.Model}, "console"
	}
	if _, err := host.Init(); err != nil {
		log.Warn().Err(err).Msg("periph host init failed")
	}
	p, err := spireg.Open(cfg.SPI.Port)
	if err != nil {
		log.Warn().Err(err).Str("port", cfg.SPI.Port).Msg("no SPI port; printing at the console")
		return &bus.Console{Model: cfg.Model}, "console"
	}
	// Only probing; the driver reopens the port when the strip attaches.
	_ = p.Close()

	if cfg.Driver == "nrzled" {
		return &bus.NRZ{Port: cfg.SPI.Port, Model: cfg.Model}, "nrzled"
	}
	return &bus.Periph{Port: cfg.SPI.Port, SoftLSBFirst: cfg.SPI.SoftLSBFirst}, "spi"
}
