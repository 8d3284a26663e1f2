// Package strip drives WS2812B and WS2815 LED strips through an SPI
// peripheral. A Strip owns a pixel buffer, a transfer buffer holding the
// encoded waveform and the peripheral it is shifted out of; any of them may
// instead be supplied by the caller, in which case the strip never frees it.
//
// A Strip is not safe for concurrent use. Distinct strips share nothing.
package strip

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/ws28xx/model"
)

// TransferLen is the length, in 16 bit words, of the transfer buffer of a
// strip with n LEDs and the given reset delay.
func TransferLen(n, resetDelay int) int {
	return n*12 + (resetDelay+1)*2
}

// Config selects the strip Init brings up.
type Config struct {
	Pin      int
	Model    model.Model
	LEDCount int
	// ResetDelay overrides Model.ResetDelay when positive.
	ResetDelay int

	// Driver is required unless a Peripheral is adopted.
	Driver    Driver
	Allocator Allocator
	Host      Host
	DMA       DMAChannel
	Logger    *zerolog.Logger
}

func (c Config) resetDelay() int {
	if c.ResetDelay > 0 {
		return c.ResetDelay
	}
	return c.Model.ResetDelay()
}

// Resources are caller owned buffers Init adopts instead of allocating.
// Nil fields are allocated and owned by the strip.
type Resources struct {
	Strip      *Strip
	Pixels     []model.Pixel
	Transfer   []uint16
	Peripheral *Peripheral
}

// Ownership records which resources Init allocated. Destroy frees exactly
// these.
type Ownership struct {
	Strip      bool
	Transfer   bool
	Pixels     bool
	Peripheral bool
}

// Strip is the driver context of one physical strip.
type Strip struct {
	ledCount   int
	model      model.Model
	resetDelay int
	size       int

	pixels []model.Pixel
	tx     []uint16
	periph *Peripheral

	owned Ownership
	alloc Allocator
	log   zerolog.Logger
}

func (c Config) validate(adopt Resources, size int) error {
	switch {
	case c.LEDCount < 0:
		return invalid("negative led count %d", c.LEDCount)
	case c.Model != model.WS2812B && c.Model != model.WS2815:
		return invalid("unknown model %v", c.Model)
	case c.ResetDelay < 0:
		return invalid("negative reset delay %d", c.ResetDelay)
	case adopt.Pixels != nil && len(adopt.Pixels) < c.LEDCount:
		return invalid("pixel buffer holds %d of %d pixels", len(adopt.Pixels), c.LEDCount)
	case adopt.Transfer != nil && len(adopt.Transfer) < size:
		return invalid("transfer buffer holds %d of %d words", len(adopt.Transfer), size)
	case adopt.Peripheral == nil && c.Driver == nil:
		return invalid("no driver to build a peripheral with")
	case adopt.Peripheral != nil && !adopt.Peripheral.Attached():
		return invalid("adopted peripheral is not attached")
	}
	return nil
}

// Init brings up a strip. Every resource left nil in adopt is acquired here
// and released by Destroy; adopted resources are used as is. A non-nil
// adopt.Strip is zeroed and reused.
//
// On failure everything acquired so far is released again and the returned
// strip is nil.
//
// Only model.WS2812B and model.WS2815 are accepted; any other Model is
// rejected with ErrInvalidConfig rather than sent in the WS2812B order.
func Init(cfg Config, adopt Resources) (s *Strip, err error) {
	reset := cfg.resetDelay()
	size := TransferLen(cfg.LEDCount, reset)
	if err := cfg.validate(adopt, size); err != nil {
		return nil, err
	}
	alloc := cfg.Allocator
	if alloc == nil {
		alloc = DefaultAllocator
	}
	lg := log.Logger
	if cfg.Logger != nil {
		lg = *cfg.Logger
	}
	lg = lg.With().Str("component", "ws28xx").Int("pin", cfg.Pin).Logger()

	owned := false
	s = adopt.Strip
	if s == nil {
		s, err = alloc.NewStrip()
		if err != nil || s == nil {
			return nil, allocErr("context", err)
		}
		owned = true
	}
	*s = Strip{}
	s.owned.Strip = owned
	s.alloc = alloc
	s.log = lg

	defer func() {
		if err != nil {
			lg.Warn().Err(err).Msg("init failed, releasing acquired resources")
			s.Destroy()
			s = nil
		}
	}()

	s.ledCount = cfg.LEDCount
	s.model = cfg.Model
	s.resetDelay = reset
	s.size = size

	if adopt.Pixels == nil {
		px, err := alloc.NewPixels(s.ledCount)
		if err != nil || px == nil {
			return s, allocErr("pixel buffer", err)
		}
		s.owned.Pixels = true
		adopt.Pixels = px
	}
	s.pixels = adopt.Pixels[:s.ledCount]

	if adopt.Peripheral == nil {
		if err := s.acquirePeripheral(cfg); err != nil {
			return s, err
		}
	} else {
		s.periph = adopt.Peripheral
	}

	if adopt.Transfer == nil {
		buf, err := alloc.NewTransferBuffer(s.size)
		if err != nil || buf == nil {
			return s, allocErr("transfer buffer", err)
		}
		s.owned.Transfer = true
		adopt.Transfer = buf
	}
	s.tx = adopt.Transfer[:s.size]

	lg.Debug().
		Stringer("model", s.model).
		Int("leds", s.ledCount).
		Int("reset_delay", s.resetDelay).
		Int("words", s.size).
		Interface("owned", s.owned).
		Msg("strip ready")
	return s, nil
}

func (s *Strip) acquirePeripheral(cfg Config) (err error) {
	p, err := s.alloc.NewPeripheral()
	if err != nil || p == nil {
		return allocErr("peripheral", err)
	}
	defer func() {
		if err != nil {
			s.alloc.FreePeripheral(p)
		}
	}()

	*p = DefaultPeripheral(cfg.Pin, s.size)
	if cfg.Host != 0 {
		p.Host = cfg.Host
	}
	if cfg.DMA != 0 {
		p.DMA = cfg.DMA
	}
	if err := p.Attach(cfg.Driver); err != nil {
		return err
	}
	s.periph = p
	s.owned.Peripheral = true
	return nil
}

// Destroy releases the resources the strip owns. An owned peripheral is
// detached before it is freed. The strip must not be used afterwards.
func (s *Strip) Destroy() {
	if s == nil {
		return
	}
	alloc, lg := s.alloc, s.log
	if s.owned.Transfer {
		alloc.FreeTransferBuffer(s.tx)
		s.tx, s.owned.Transfer = nil, false
	}
	if s.owned.Pixels {
		alloc.FreePixels(s.pixels)
		s.pixels, s.owned.Pixels = nil, false
	}
	if s.owned.Peripheral {
		if err := s.periph.Detach(); err != nil {
			lg.Warn().Err(err).Msg("detach peripheral")
		}
		alloc.FreePeripheral(s.periph)
		s.periph, s.owned.Peripheral = nil, false
	}
	lg.Debug().Msg("strip destroyed")
	if s.owned.Strip {
		s.owned.Strip = false
		alloc.FreeStrip(s)
	}
}

// Pixels is the pixel buffer. Writes to it are sent by the next Update.
func (s *Strip) Pixels() []model.Pixel { return s.pixels }

// TransferBuffer is the encoded waveform of the last Update.
func (s *Strip) TransferBuffer() []uint16 { return s.tx }

func (s *Strip) Peripheral() *Peripheral { return s.periph }
func (s *Strip) LEDCount() int           { return s.ledCount }
func (s *Strip) Model() model.Model      { return s.model }
func (s *Strip) ResetDelay() int         { return s.resetDelay }
func (s *Strip) TransferLen() int        { return s.size }
func (s *Strip) Owned() Ownership        { return s.owned }
