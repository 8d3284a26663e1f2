package bus_test

import (
	"image"
	"image/color"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// fakePort is an spi.PortCloser whose connection records every write.
type fakePort struct {
	maxTx   int
	freq    physic.Frequency
	mode    spi.Mode
	bits    int
	writes  [][]byte
	packets [][]spi.Packet
	closed  int
}

func (p *fakePort) String() string                      { return "fake" }
func (p *fakePort) LimitSpeed(f physic.Frequency) error { return nil }
func (p *fakePort) Close() error                        { p.closed++; return nil }
func (p *fakePort) Connect(f physic.Frequency, mode spi.Mode, bits int) (spi.Conn, error) {
	p.freq, p.mode, p.bits = f, mode, bits
	return &fakeConn{p: p}, nil
}

type fakeConn struct {
	p *fakePort
}

func (c *fakeConn) String() string      { return "fake" }
func (c *fakeConn) Duplex() conn.Duplex { return conn.Half }
func (c *fakeConn) MaxTxSize() int      { return c.p.maxTx }
func (c *fakeConn) Tx(w, r []byte) error {
	c.p.writes = append(c.p.writes, append([]byte(nil), w...))
	return nil
}
func (c *fakeConn) TxPackets(pkts []spi.Packet) error {
	cp := make([]spi.Packet, len(pkts))
	for i, pk := range pkts {
		cp[i] = spi.Packet{W: append([]byte(nil), pk.W...), KeepCS: pk.KeepCS}
	}
	c.p.packets = append(c.p.packets, cp)
	return nil
}

// fakeTinySPI implements tinygo's drivers.SPI.
type fakeTinySPI struct {
	writes [][]byte
}

func (s *fakeTinySPI) Tx(w, r []byte) error {
	s.writes = append(s.writes, append([]byte(nil), w...))
	return nil
}

func (s *fakeTinySPI) Transfer(b byte) (byte, error) { return 0, nil }

// fakeDrawer implements display.Drawer and keeps the last frame.
type fakeDrawer struct {
	n      int
	last   []color.NRGBA
	halted bool
}

func (d *fakeDrawer) String() string          { return "fakedrawer" }
func (d *fakeDrawer) Halt() error             { d.halted = true; return nil }
func (d *fakeDrawer) ColorModel() color.Model { return color.NRGBAModel }
func (d *fakeDrawer) Bounds() image.Rectangle { return image.Rect(0, 0, d.n, 1) }
func (d *fakeDrawer) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	d.last = d.last[:0]
	for x := r.Min.X; x < r.Max.X; x++ {
		d.last = append(d.last, color.NRGBAModel.Convert(src.At(sp.X+x, sp.Y)).(color.NRGBA))
	}
	return nil
}
