package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/coreman2200/ws28xx/model"
)

type SPI struct {
	Port         string `yaml:"port"`           // spireg name, e.g. SPI0.0; empty picks the first port
	SoftLSBFirst bool   `yaml:"soft_lsb_first"` // bit-reverse in software instead of spi.LSBFirst
}

type Preview struct {
	Addr string `yaml:"addr,omitempty"` // e.g. :8080; empty disables the preview server
}

type Config struct {
	Driver     string      `yaml:"driver"` // "spi" | "nrzled" | "console"
	GPIO       int         `yaml:"gpio"`
	Model      model.Model `yaml:"model"`
	LEDs       int         `yaml:"leds"`
	ResetDelay int         `yaml:"reset_delay,omitempty"` // idle words; 0 uses the model default
	Color      string      `yaml:"color"`                 // #RRGGBB
	FPS        int         `yaml:"fps"`

	SPI     SPI     `yaml:"spi,omitempty"`
	Preview Preview `yaml:"preview,omitempty"`
}

func Default() *Config {
	return &Config{
		Driver: "spi",
		GPIO:   10,
		Model:  model.WS2812B,
		LEDs:   60,
		Color:  "#000000",
		FPS:    30,
	}
}

// Load reads path on top of Default.
func Load(path string) (*Config, error) {
	c := Default()
	if err := LoadInto(path, c); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadInto overrides the fields of c that path sets. Keys missing from the
// file keep their value in c. On error c is left unchanged.
func LoadInto(path string, c *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	next := *c
	if err := yaml.Unmarshal(b, &next); err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}
	if err := next.Validate(); err != nil {
		return fmt.Errorf("config: %s: %w", path, err)
	}
	*c = next
	return nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

func (c *Config) Validate() error {
	switch c.Driver {
	case "spi", "nrzled", "console":
	default:
		return fmt.Errorf("unknown driver %q", c.Driver)
	}
	if c.LEDs < 0 {
		return fmt.Errorf("negative led count %d", c.LEDs)
	}
	if c.ResetDelay < 0 {
		return fmt.Errorf("negative reset delay %d", c.ResetDelay)
	}
	if c.FPS < 0 {
		return fmt.Errorf("negative fps %d", c.FPS)
	}
	if _, err := ParseColor(c.Color); err != nil {
		return err
	}
	return nil
}

// ParseColor accepts #RRGGBB, RRGGBB and 0xRRGGBB.
func ParseColor(s string) (model.Pixel, error) {
	h := strings.TrimSpace(s)
	h = strings.TrimPrefix(h, "#")
	h = strings.TrimPrefix(strings.TrimPrefix(h, "0x"), "0X")
	if len(h) != 6 {
		return 0, fmt.Errorf("color %q: want #RRGGBB", s)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("color %q: %w", s, err)
	}
	return model.RGB(uint8(v>>16), uint8(v>>8), uint8(v)), nil
}
