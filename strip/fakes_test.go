package strip_test

import (
	"errors"

	"github.com/coreman2200/ws28xx/model"
	"github.com/coreman2200/ws28xx/strip"
)

// fakeDriver records what the strip asks of the SPI driver.
type fakeDriver struct {
	busErr error
	devErr error

	hosts  []strip.Host
	buses  []*fakeBus
	devCfg []strip.DeviceConfig
	dev    *fakeDevice
}

func (d *fakeDriver) InitializeBus(host strip.Host, cfg strip.BusConfig, dma strip.DMAChannel) (strip.Bus, error) {
	if d.busErr != nil {
		return nil, d.busErr
	}
	b := &fakeBus{cfg: cfg, dma: dma}
	d.hosts = append(d.hosts, host)
	d.buses = append(d.buses, b)
	return b, nil
}

func (d *fakeDriver) AttachDevice(bus strip.Bus, cfg strip.DeviceConfig) (strip.Device, error) {
	if d.devErr != nil {
		return nil, d.devErr
	}
	d.devCfg = append(d.devCfg, cfg)
	if d.dev == nil {
		d.dev = &fakeDevice{}
	}
	return d.dev, nil
}

type fakeBus struct {
	cfg    strip.BusConfig
	dma    strip.DMAChannel
	closed int
}

func (b *fakeBus) Close() error {
	b.closed++
	return nil
}

// fakeDevice keeps a copy of every burst.
type fakeDevice struct {
	err    error
	txs    []strip.Transaction
	closed int
}

func (d *fakeDevice) Transfer(tx strip.Transaction) error {
	words := append([]uint16(nil), tx.Words...)
	d.txs = append(d.txs, strip.Transaction{Words: words, Bits: tx.Bits})
	return d.err
}

func (d *fakeDevice) Close() error {
	d.closed++
	return nil
}

func (d *fakeDevice) last() strip.Transaction {
	return d.txs[len(d.txs)-1]
}

var errInjected = errors.New("injected")

// countingAlloc counts allocations and frees per resource and fails the
// resources named in fail.
type countingAlloc struct {
	heap  strip.Heap
	fail  map[string]bool
	news  map[string]int
	frees map[string]int
}

func newCountingAlloc(fail ...string) *countingAlloc {
	a := &countingAlloc{fail: map[string]bool{}, news: map[string]int{}, frees: map[string]int{}}
	for _, f := range fail {
		a.fail[f] = true
	}
	return a
}

func (a *countingAlloc) take(what string) error {
	if a.fail[what] {
		return errInjected
	}
	a.news[what]++
	return nil
}

func (a *countingAlloc) NewStrip() (*strip.Strip, error) {
	if err := a.take("strip"); err != nil {
		return nil, err
	}
	return a.heap.NewStrip()
}

func (a *countingAlloc) NewPixels(n int) ([]model.Pixel, error) {
	if err := a.take("pixels"); err != nil {
		return nil, err
	}
	return a.heap.NewPixels(n)
}

func (a *countingAlloc) NewPeripheral() (*strip.Peripheral, error) {
	if err := a.take("peripheral"); err != nil {
		return nil, err
	}
	return a.heap.NewPeripheral()
}

func (a *countingAlloc) NewTransferBuffer(words int) ([]uint16, error) {
	if err := a.take("transfer"); err != nil {
		return nil, err
	}
	return a.heap.NewTransferBuffer(words)
}

func (a *countingAlloc) FreeStrip(s *strip.Strip) {
	a.frees["strip"]++
	a.heap.FreeStrip(s)
}

func (a *countingAlloc) FreePixels(p []model.Pixel) {
	a.frees["pixels"]++
	a.heap.FreePixels(p)
}

func (a *countingAlloc) FreePeripheral(p *strip.Peripheral) {
	a.frees["peripheral"]++
	a.heap.FreePeripheral(p)
}

func (a *countingAlloc) FreeTransferBuffer(b []uint16) {
	a.frees["transfer"]++
	a.heap.FreeTransferBuffer(b)
}
