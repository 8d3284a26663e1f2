package strip

import (
	"errors"
	"io"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Host selects the SPI controller a strip is attached to.
type Host int

// SPI2 is the general purpose controller the strip uses by default.
const SPI2 Host = 1

// DMAChannel selects the burst channel handed to InitializeBus.
type DMAChannel int

// DMAAuto lets the driver pick a free channel.
const DMAAuto DMAChannel = 3

// NoPin marks a bus signal that is not routed.
const NoPin = -1

// DefaultClock shifts one waveform slot every 312.5ns. Four slots encode a
// data bit, giving the 1.25µs bit period the strips expect.
const DefaultClock = 3200 * physic.KiloHertz

// BusConfig describes the pins of the controller. Only MOSI carries data.
type BusConfig struct {
	MOSI            int
	MISO            int
	SCLK            int
	QuadWP          int
	QuadHD          int
	MaxTransferSize int
}

// DeviceConfig describes the device on the bus. Mode carries spi.LSBFirst
// when the words must leave least significant bit first.
type DeviceConfig struct {
	Clock       physic.Frequency
	Mode        spi.Mode
	CS          int
	QueueSize   int
	CommandBits int
	AddressBits int
}

// LSBFirst reports whether Mode requests least significant bit first.
func (d DeviceConfig) LSBFirst() bool {
	return d.Mode&spi.LSBFirst != 0
}

// Driver is the SPI bus/device driver a strip is built on.
type Driver interface {
	InitializeBus(host Host, cfg BusConfig, dma DMAChannel) (Bus, error)
	AttachDevice(bus Bus, cfg DeviceConfig) (Device, error)
}

// Bus is an initialised controller. Close frees it.
type Bus interface {
	io.Closer
}

// Device is a device attached to a Bus. Transfer blocks until the burst
// completes. A Device may also implement io.Closer to be detached.
type Device interface {
	Transfer(tx Transaction) error
}

// Peripheral is the bus and device configuration of one strip together with
// the handles obtained from the Driver.
type Peripheral struct {
	Host   Host
	DMA    DMAChannel
	Bus    BusConfig
	Device DeviceConfig

	bus Bus
	dev Device
}

// DefaultPeripheral returns the configuration Init builds for a strip on
// pin whose transfer buffer holds words 16 bit words.
func DefaultPeripheral(pin int, words int) Peripheral {
	return Peripheral{
		Host: SPI2,
		DMA:  DMAAuto,
		Bus: BusConfig{
			MOSI:            pin,
			MISO:            NoPin,
			SCLK:            NoPin,
			QuadWP:          NoPin,
			QuadHD:          NoPin,
			MaxTransferSize: words * wordSize,
		},
		Device: DeviceConfig{
			Clock:     DefaultClock,
			Mode:      spi.Mode0 | spi.LSBFirst,
			CS:        NoPin,
			QueueSize: 1,
		},
	}
}

// Attach initialises the bus and attaches the device through drv. When the
// device cannot be attached the bus is closed again.
func (p *Peripheral) Attach(drv Driver) error {
	bus, err := drv.InitializeBus(p.Host, p.Bus, p.DMA)
	if err != nil {
		return &PeripheralError{Op: "bus", Err: err}
	}
	dev, err := drv.AttachDevice(bus, p.Device)
	if err != nil {
		_ = bus.Close()
		return &PeripheralError{Op: "device", Err: err}
	}
	p.bus, p.dev = bus, dev
	return nil
}

// Attached reports whether Attach succeeded and Detach has not run since.
func (p *Peripheral) Attached() bool {
	return p != nil && p.dev != nil
}

// Detach closes the device, if it can be closed, and then the bus.
func (p *Peripheral) Detach() error {
	var errs []error
	if c, ok := p.dev.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	if p.bus != nil {
		errs = append(errs, p.bus.Close())
	}
	p.bus, p.dev = nil, nil
	return errors.Join(errs...)
}
