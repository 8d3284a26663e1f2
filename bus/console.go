package bus

import (
	"image"

	"periph.io/x/conn/v3/display"
	"periph.io/x/extra/devices/screen"

	"github.com/coreman2200/ws28xx/model"
	"github.com/coreman2200/ws28xx/strip"
)

// Console prints frames on the terminal. It stands in for a strip when no
// SPI port is available.
type Console struct {
	Model model.Model
	// NewDrawer builds the drawer for n pixels; screen.New by default.
	NewDrawer func(n int) display.Drawer
}

func (d *Console) InitializeBus(host strip.Host, cfg strip.BusConfig, dma strip.DMAChannel) (strip.Bus, error) {
	return nopBus{}, nil
}

func (d *Console) AttachDevice(b strip.Bus, cfg strip.DeviceConfig) (strip.Device, error) {
	if _, ok := b.(nopBus); !ok {
		return nil, errForeignBus
	}
	newDrawer := d.NewDrawer
	if newDrawer == nil {
		newDrawer = func(n int) display.Drawer { return screen.New(n) }
	}
	return &consoleDevice{model: d.Model, newDrawer: newDrawer}, nil
}

type consoleDevice struct {
	model     model.Model
	newDrawer func(n int) display.Drawer
	drawer    display.Drawer
	img       *image.NRGBA
}

func (d *consoleDevice) Transfer(tx strip.Transaction) error {
	px, err := strip.Decode(words(tx), d.model)
	if err != nil {
		return err
	}
	if d.drawer == nil || d.img.Rect.Dx() != len(px) {
		d.drawer = d.newDrawer(len(px))
		d.img = image.NewNRGBA(image.Rect(0, 0, len(px), 1))
	}
	for x, p := range px {
		d.img.SetNRGBA(x, 0, p.NRGBA())
	}
	return d.drawer.Draw(d.drawer.Bounds(), d.img, image.Point{})
}

func (d *consoleDevice) Close() error {
	if d.drawer == nil {
		return nil
	}
	return d.drawer.Halt()
}
