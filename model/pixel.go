package model

import "image/color"

// Channel offsets inside a Pixel. Red occupies the least significant byte.
const (
	RED_OFFSET   uint8 = 0x0
	GREEN_OFFSET uint8 = 0x08
	BLUE_OFFSET  uint8 = 0x10
)

const pixelMask uint32 = 0x00FFFFFF

// Pixel is a 24 bit colour. As a uint32 its low byte is red, followed by
// green and then blue; the top byte is always zero.
type Pixel uint32

// RGB builds a Pixel from its three channels.
func RGB(r, g, b uint8) Pixel {
	return Pixel(uint32(r)<<RED_OFFSET | uint32(g)<<GREEN_OFFSET | uint32(b)<<BLUE_OFFSET)
}

// FromUint32 reinterprets v as a pixel, dropping anything above bit 23.
func FromUint32(v uint32) Pixel {
	return Pixel(v & pixelMask)
}

// FromColor converts any color.Color, ignoring alpha.
func FromColor(c color.Color) Pixel {
	r, g, b, _ := c.RGBA()
	return RGB(uint8(r>>8), uint8(g>>8), uint8(b>>8))
}

func setcolor(c uint32, n uint8, off uint8) uint32 {
	var val uint32 = uint32(n) << off
	var mask uint32 = 0xFF << off
	return (c & (^mask)) | val
}

func getcolor(c uint32, off uint8) uint8 {
	var mask uint32 = 0xFF << off
	return uint8((c & (mask)) >> off)
}

func (p Pixel) Uint32() uint32 {
	return uint32(p) & pixelMask
}

func (p Pixel) R() uint8 {
	return getcolor(uint32(p), RED_OFFSET)
}
func (p Pixel) G() uint8 {
	return getcolor(uint32(p), GREEN_OFFSET)
}
func (p Pixel) B() uint8 {
	return getcolor(uint32(p), BLUE_OFFSET)
}

// Channel returns the byte held by channel ch.
func (p Pixel) Channel(ch Channel) uint8 {
	switch ch {
	case Green:
		return p.G()
	case Blue:
		return p.B()
	default:
		return p.R()
	}
}

func (p *Pixel) SetR(r uint8) {
	*p = Pixel(setcolor(uint32(*p), r, RED_OFFSET))
}
func (p *Pixel) SetG(g uint8) {
	*p = Pixel(setcolor(uint32(*p), g, GREEN_OFFSET))
}
func (p *Pixel) SetB(b uint8) {
	*p = Pixel(setcolor(uint32(*p), b, BLUE_OFFSET))
}

// SetChannel stores v into channel ch.
func (p *Pixel) SetChannel(ch Channel, v uint8) {
	switch ch {
	case Green:
		p.SetG(v)
	case Blue:
		p.SetB(v)
	default:
		p.SetR(v)
	}
}

// RGBA implements color.Color. Pixels are always opaque.
func (p Pixel) RGBA() (r, g, b, a uint32) {
	return color.RGBA{p.R(), p.G(), p.B(), 0xFF}.RGBA()
}

// NRGBA is used when drawing pixels into an image.NRGBA.
func (p Pixel) NRGBA() color.NRGBA {
	return color.NRGBA{R: p.R(), G: p.G(), B: p.B(), A: 0xFF}
}

// Bytes returns the pixel as r, g, b.
func (p Pixel) Bytes() [3]byte {
	return [3]byte{p.R(), p.G(), p.B()}
}
