package model

import (
	"fmt"
	"strings"
)

// Model selects the wire protocol variant of a strip.
type Model uint8

const (
	// WS2812B is the default variant. Channels go out green, red, blue.
	WS2812B Model = iota
	// WS2815 sends red, green, blue and needs a longer latch.
	WS2815
)

// Channel names one colour channel of a Pixel.
type Channel uint8

const (
	Red Channel = iota
	Green
	Blue
)

func (c Channel) String() string {
	switch c {
	case Red:
		return "R"
	case Green:
		return "G"
	case Blue:
		return "B"
	}
	return fmt.Sprintf("Channel(%d)", uint8(c))
}

// Order is the sequence in which channels are put on the wire.
type Order [3]Channel

func (o Order) String() string {
	return o[0].String() + o[1].String() + o[2].String()
}

var (
	orderGRB = Order{Green, Red, Blue}
	orderRGB = Order{Red, Green, Blue}
)

// Reset delays, in idle transfer words, appended after the last pixel.
// These are below the datasheet latch times but have proven stable; raise
// them if a strip drops frames.
const (
	DefaultResetDelayWS2812B = 3
	DefaultResetDelayWS2815  = 30
)

// Order returns the channel order of m. Blue is always last.
func (m Model) Order() Order {
	if m == WS2815 {
		return orderRGB
	}
	return orderGRB
}

// ResetDelay returns the default reset delay of m in idle words.
func (m Model) ResetDelay() int {
	if m == WS2815 {
		return DefaultResetDelayWS2815
	}
	return DefaultResetDelayWS2812B
}

func (m Model) String() string {
	switch m {
	case WS2812B:
		return "ws2812b"
	case WS2815:
		return "ws2815"
	}
	return fmt.Sprintf("Model(%d)", uint8(m))
}

// ParseModel accepts the names produced by String, case-insensitively.
func ParseModel(s string) (Model, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ws2812b", "ws2812", "a":
		return WS2812B, nil
	case "ws2815", "b":
		return WS2815, nil
	}
	return WS2812B, fmt.Errorf("model: unknown led strip model %q", s)
}

func (m Model) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *Model) UnmarshalText(b []byte) error {
	v, err := ParseModel(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
