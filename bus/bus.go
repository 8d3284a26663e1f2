// Package bus provides strip.Driver implementations: periph.io SPI ports,
// tinygo drivers.SPI controllers, and two backends that decode the strip
// waveform and re-render it, through periph's nrzled encoder or on the
// terminal.
package bus

import (
	"errors"

	"github.com/coreman2200/ws28xx/model"
	"github.com/coreman2200/ws28xx/strip"
)

var errForeignBus = errors.New("bus: bus was not initialised by this driver")

// nopBus is the bus of drivers whose controller needs no teardown.
type nopBus struct{}

func (nopBus) Close() error { return nil }

// words returns the part of the transaction covered by Bits.
func words(tx strip.Transaction) []uint16 {
	n := (tx.Bits + 15) / 16
	if n > len(tx.Words) {
		n = len(tx.Words)
	}
	return tx.Words[:n]
}

// rgbBytes flattens px to r, g, b triplets.
func rgbBytes(dst []byte, px []model.Pixel) []byte {
	for _, p := range px {
		b := p.Bytes()
		dst = append(dst, b[:]...)
	}
	return dst
}
