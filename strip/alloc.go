package strip

import (
	"sync"
	"unsafe"

	"github.com/coreman2200/ws28xx/model"
)

// Allocator supplies the resources Init acquires when the caller does not
// adopt its own. NewTransferBuffer must return memory the peripheral's burst
// mechanism can reach; ordinary memory is not assumed to qualify.
//
// A nil result with a nil error is treated as an allocation failure.
type Allocator interface {
	NewStrip() (*Strip, error)
	NewPixels(n int) ([]model.Pixel, error)
	NewPeripheral() (*Peripheral, error)
	NewTransferBuffer(words int) ([]uint16, error)

	FreeStrip(s *Strip)
	FreePixels(p []model.Pixel)
	FreePeripheral(p *Peripheral)
	FreeTransferBuffer(b []uint16)
}

// DefaultAllocator is used when Config.Allocator is nil.
var DefaultAllocator Allocator = &Heap{}

var (
	stripSize      = int(unsafe.Sizeof(Strip{}))
	peripheralSize = int(unsafe.Sizeof(Peripheral{}))
	pixelSize      = int(unsafe.Sizeof(model.Pixel(0)))
	wordSize       = int(unsafe.Sizeof(uint16(0)))
)

// Heap allocates from the Go heap. Limit and DMALimit, when non-zero, cap
// the bytes outstanding in general and transfer-capable memory, which lets a
// host build reproduce the exhaustion behaviour of a small embedded heap.
// On hosts where the SPI driver copies the buffer (spidev) any memory is
// transfer-capable.
type Heap struct {
	Limit    int
	DMALimit int

	mu      sync.Mutex
	used    int
	dmaUsed int
}

func (h *Heap) reserve(n int, dma bool) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if dma {
		if h.DMALimit > 0 && h.dmaUsed+n > h.DMALimit {
			return ErrOutOfMemory
		}
		h.dmaUsed += n
		return nil
	}
	if h.Limit > 0 && h.used+n > h.Limit {
		return ErrOutOfMemory
	}
	h.used += n
	return nil
}

func (h *Heap) release(n int, dma bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if dma {
		h.dmaUsed -= n
		return
	}
	h.used -= n
}

// InUse reports the bytes currently handed out.
func (h *Heap) InUse() (general, dma int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.used, h.dmaUsed
}

func (h *Heap) NewStrip() (*Strip, error) {
	if err := h.reserve(stripSize, false); err != nil {
		return nil, err
	}
	return &Strip{}, nil
}

func (h *Heap) NewPixels(n int) ([]model.Pixel, error) {
	if err := h.reserve(n*pixelSize, false); err != nil {
		return nil, err
	}
	return make([]model.Pixel, n), nil
}

func (h *Heap) NewPeripheral() (*Peripheral, error) {
	if err := h.reserve(peripheralSize, false); err != nil {
		return nil, err
	}
	return &Peripheral{}, nil
}

func (h *Heap) NewTransferBuffer(words int) ([]uint16, error) {
	if err := h.reserve(words*wordSize, true); err != nil {
		return nil, err
	}
	return make([]uint16, words), nil
}

func (h *Heap) FreeStrip(s *Strip) {
	*s = Strip{}
	h.release(stripSize, false)
}

func (h *Heap) FreePixels(p []model.Pixel) {
	h.release(len(p)*pixelSize, false)
}

func (h *Heap) FreePeripheral(p *Peripheral) {
	*p = Peripheral{}
	h.release(peripheralSize, false)
}

func (h *Heap) FreeTransferBuffer(b []uint16) {
	h.release(len(b)*wordSize, true)
}
