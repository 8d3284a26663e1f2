package strip

import (
	"fmt"
	"io"

	"github.com/coreman2200/ws28xx/model"
)

const (
	bitsPerWord = 16
	// wordsPerPixel is two nibble words for each of the three channels.
	wordsPerPixel = 6

	zeroSlots uint16 = 0x1 // one slot high, three low
	oneSlots  uint16 = 0x7 // three slots high, one low
)

// timingBits maps a nibble to the word that encodes it. Bit i of the nibble
// (0 is least significant) becomes hex digit 3-i of the word: 0x7 for a one,
// 0x1 for a zero. Words leave the controller least significant bit first, so
// the nibble goes out most significant bit first with each data bit spread
// over four clock slots. See ExpandNibble to regenerate the table for a
// different slot pattern.
var timingBits = [16]uint16{
	0x1111, 0x7111, 0x1711, 0x7711, 0x1171, 0x7171, 0x1771, 0x7771,
	0x1117, 0x7117, 0x1717, 0x7717, 0x1177, 0x7177, 0x1777, 0x7777,
}

// ExpandNibble computes the waveform word of the low four bits of n.
func ExpandNibble(n uint8) uint16 {
	var w uint16
	for i := 0; i < 4; i++ {
		slots := zeroSlots
		if n&(1<<i) != 0 {
			slots = oneSlots
		}
		w |= slots << (4 * (3 - i))
	}
	return w
}

// DecodeNibble is the inverse of ExpandNibble. It reports false when w is
// not a waveform word.
func DecodeNibble(w uint16) (uint8, bool) {
	var n uint8
	for i := 0; i < 4; i++ {
		switch (w >> (4 * (3 - i))) & 0xF {
		case oneSlots:
			n |= 1 << i
		case zeroSlots:
		default:
			return 0, false
		}
	}
	return n, true
}

// EncodedLen is the number of words Encode writes for n pixels.
func EncodedLen(n, resetDelay int) int {
	return 1 + n*wordsPerPixel + resetDelay
}

// Encode writes the waveform of px to dst: one idle word, six words per
// pixel in the channel order given, then resetDelay idle words. The rest of
// dst is zeroed. It returns the number of words written.
func Encode(dst []uint16, px []model.Pixel, order model.Order, resetDelay int) (int, error) {
	if len(dst) < EncodedLen(len(px), resetDelay) {
		return 0, io.ErrShortBuffer
	}
	for i := range dst {
		dst[i] = 0
	}
	n := 1
	for _, p := range px {
		for _, ch := range order {
			v := p.Channel(ch)
			dst[n] = timingBits[v>>4]
			dst[n+1] = timingBits[v&0x0F]
			n += 2
		}
	}
	return n + resetDelay, nil
}

// Decode recovers the pixels from a waveform produced by Encode for model m.
// Leading idle words are skipped and decoding stops at the first idle word
// after them.
func Decode(words []uint16, m model.Model) ([]model.Pixel, error) {
	i := 0
	for i < len(words) && words[i] == 0 {
		i++
	}
	order := m.Order()
	var out []model.Pixel
	for i < len(words) && words[i] != 0 {
		if i+wordsPerPixel > len(words) {
			return out, fmt.Errorf("%w: truncated pixel at word %d", ErrWaveform, i)
		}
		var p model.Pixel
		for c, ch := range order {
			hi, ok := DecodeNibble(words[i+2*c])
			if !ok {
				return out, fmt.Errorf("%w: word %d is %#04x", ErrWaveform, i+2*c, words[i+2*c])
			}
			lo, ok := DecodeNibble(words[i+2*c+1])
			if !ok {
				return out, fmt.Errorf("%w: word %d is %#04x", ErrWaveform, i+2*c+1, words[i+2*c+1])
			}
			p.SetChannel(ch, hi<<4|lo)
		}
		out = append(out, p)
		i += wordsPerPixel
	}
	return out, nil
}

// FillAll sets every pixel to c.
func (s *Strip) FillAll(c model.Pixel) {
	for i := range s.pixels {
		s.pixels[i] = c
	}
}

// Update encodes the pixel buffer and shifts it out in one blocking burst.
// A failed transfer is returned as a *TransferError and leaves the strip
// usable; it is not retried.
func (s *Strip) Update() error {
	if _, err := Encode(s.tx, s.pixels, s.model.Order(), s.resetDelay); err != nil {
		return err
	}
	return s.transmit()
}
