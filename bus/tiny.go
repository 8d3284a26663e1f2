package bus

import (
	"fmt"

	"periph.io/x/conn/v3/spi"
	"tinygo.org/x/drivers"

	"github.com/coreman2200/ws28xx/strip"
)

// Tiny drives strips through a tinygo SPI controller. The controller is
// set up by Configure, which for a machine.SPI applies the MOSI pin, clock
// and bit order to machine.SPIConfig.
type Tiny struct {
	SPI       drivers.SPI
	Configure func(bus strip.BusConfig, dev strip.DeviceConfig) error
	// SoftLSBFirst bit-reverses every byte and clears spi.LSBFirst before
	// Configure sees the device config.
	SoftLSBFirst bool
}

// tinyBus carries the pin configuration from InitializeBus to AttachDevice.
type tinyBus struct {
	nopBus
	cfg strip.BusConfig
}

func (d *Tiny) InitializeBus(host strip.Host, cfg strip.BusConfig, dma strip.DMAChannel) (strip.Bus, error) {
	if d.SPI == nil {
		return nil, fmt.Errorf("bus: no tinygo spi controller")
	}
	return tinyBus{cfg: cfg}, nil
}

func (d *Tiny) AttachDevice(b strip.Bus, cfg strip.DeviceConfig) (strip.Device, error) {
	tb, ok := b.(tinyBus)
	if !ok {
		return nil, errForeignBus
	}
	reverse := false
	if d.SoftLSBFirst && cfg.LSBFirst() {
		cfg.Mode &^= spi.LSBFirst
		reverse = true
	}
	if d.Configure != nil {
		if err := d.Configure(tb.cfg, cfg); err != nil {
			return nil, err
		}
	}
	return &tinyDevice{spi: d.SPI, reverse: reverse}, nil
}

type tinyDevice struct {
	spi     drivers.SPI
	reverse bool
	buf     []byte
}

func (d *tinyDevice) Transfer(tx strip.Transaction) error {
	d.buf = tx.Pack(d.buf[:0], d.reverse)
	return d.spi.Tx(d.buf, nil)
}
