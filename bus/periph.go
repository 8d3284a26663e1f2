package bus

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"

	"github.com/coreman2200/ws28xx/strip"
)

// Opener opens an SPI port by name. spireg.Open is the default.
type Opener func(name string) (spi.PortCloser, error)

// Periph drives strips through a periph.io SPI port. Initialising the bus
// opens the port and attaching the device connects to it.
type Periph struct {
	// Port is the spireg name of the port; empty selects the first one.
	Port string
	Open Opener
	// SoftLSBFirst connects MSB first and bit-reverses every byte instead
	// of asking the controller for spi.LSBFirst, which most Linux SPI
	// controllers refuse.
	SoftLSBFirst bool
}

type periphBus struct {
	port spi.PortCloser
}

func (b *periphBus) Close() error { return b.port.Close() }

func openPort(open Opener, name string) (spi.PortCloser, error) {
	if open == nil {
		open = spireg.Open
	}
	p, err := open(name)
	if err != nil {
		return nil, fmt.Errorf("bus: open spi port %q: %w", name, err)
	}
	return p, nil
}

func (d *Periph) InitializeBus(host strip.Host, cfg strip.BusConfig, dma strip.DMAChannel) (strip.Bus, error) {
	p, err := openPort(d.Open, d.Port)
	if err != nil {
		return nil, err
	}
	if pins, ok := p.(spi.Pins); ok && cfg.MOSI != strip.NoPin {
		if mosi := pins.MOSI(); mosi != nil && mosi.Number() != cfg.MOSI {
			log.Warn().
				Str("port", p.String()).
				Int("want", cfg.MOSI).
				Int("mosi", mosi.Number()).
				Msg("port MOSI is not the configured data pin")
		}
	}
	return &periphBus{port: p}, nil
}

func (d *Periph) AttachDevice(b strip.Bus, cfg strip.DeviceConfig) (strip.Device, error) {
	pb, ok := b.(*periphBus)
	if !ok {
		return nil, errForeignBus
	}
	mode, reverse := cfg.Mode, false
	if d.SoftLSBFirst && cfg.LSBFirst() {
		mode &^= spi.LSBFirst
		reverse = true
	}
	c, err := pb.port.Connect(cfg.Clock, mode, 8)
	if err != nil {
		return nil, fmt.Errorf("bus: connect %s: %w", pb.port, err)
	}
	dev := &periphDevice{conn: c, reverse: reverse}
	if l, ok := c.(conn.Limits); ok {
		dev.maxTx = l.MaxTxSize()
	}
	return dev, nil
}

type periphDevice struct {
	conn    spi.Conn
	reverse bool
	maxTx   int
	buf     []byte
}

// Transfer sends the burst in one transaction. When the port limits the
// size of a single write the burst is split into packets that keep the
// line driven between them.
func (d *periphDevice) Transfer(tx strip.Transaction) error {
	d.buf = tx.Pack(d.buf[:0], d.reverse)
	if d.maxTx <= 0 || len(d.buf) <= d.maxTx {
		return d.conn.Tx(d.buf, nil)
	}
	var pkts []spi.Packet
	for rest := d.buf; len(rest) > 0; {
		n := d.maxTx
		if n > len(rest) {
			n = len(rest)
		}
		pkts = append(pkts, spi.Packet{W: rest[:n], KeepCS: true})
		rest = rest[n:]
	}
	return d.conn.TxPackets(pkts)
}
