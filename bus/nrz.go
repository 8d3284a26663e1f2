package bus

import (
	"fmt"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/nrzled"

	"github.com/coreman2200/ws28xx/model"
	"github.com/coreman2200/ws28xx/strip"
)

// nrzFreq is the only SPI clock nrzled accepts: three bits per data bit at
// the strips' 800kHz data rate.
const nrzFreq = 2500 * physic.KiloHertz

// NRZ sends frames through periph's nrzled encoder instead of shifting the
// strip's own waveform. The waveform is decoded back into pixels and
// re-encoded by nrzled at its 3 bit per data bit rate, which works on
// controllers that cannot shift LSB first or run at 3.2MHz.
type NRZ struct {
	Port  string
	Open  Opener
	Model model.Model
}

func (d *NRZ) InitializeBus(host strip.Host, cfg strip.BusConfig, dma strip.DMAChannel) (strip.Bus, error) {
	p, err := openPort(d.Open, d.Port)
	if err != nil {
		return nil, err
	}
	return &periphBus{port: p}, nil
}

func (d *NRZ) AttachDevice(b strip.Bus, cfg strip.DeviceConfig) (strip.Device, error) {
	pb, ok := b.(*periphBus)
	if !ok {
		return nil, errForeignBus
	}
	return &nrzDevice{bus: pb, model: d.Model}, nil
}

// nrzDevice connects lazily: the pixel count nrzled needs is only known
// once the first frame has been decoded.
type nrzDevice struct {
	bus   *periphBus
	model model.Model

	dev *nrzled.Dev
	n   int
	rgb []byte
}

func (d *nrzDevice) Transfer(tx strip.Transaction) error {
	px, err := strip.Decode(words(tx), d.model)
	if err != nil {
		return err
	}
	if d.dev == nil {
		d.dev, err = nrzled.NewSPI(d.bus.port, &nrzled.Opts{NumPixels: len(px), Channels: 3, Freq: nrzFreq})
		if err != nil {
			return fmt.Errorf("bus: nrzled: %w", err)
		}
		d.n = len(px)
	}
	if len(px) > d.n {
		return fmt.Errorf("bus: nrzled: frame of %d pixels exceeds %d", len(px), d.n)
	}
	d.rgb = rgbBytes(d.rgb[:0], px)
	if d.model == model.WS2815 {
		// nrzled emits green first; swap so red reaches the wire first.
		for i := 0; i+1 < len(d.rgb); i += 3 {
			d.rgb[i], d.rgb[i+1] = d.rgb[i+1], d.rgb[i]
		}
	}
	_, err = d.dev.Write(d.rgb)
	return err
}

// Close blanks the strip.
func (d *nrzDevice) Close() error {
	if d.dev == nil {
		return nil
	}
	return d.dev.Halt()
}
