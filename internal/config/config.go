// Package config loads the analyzer settings file. Every value has a
// working default; the config file and command flags only override.
package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Analysis Analysis `yaml:"analysis"`
	Charts   Charts   `yaml:"charts"`
	Journal  Journal  `yaml:"journal"`
}

// Analysis holds the portfolio reconstruction inputs: the base capital all
// PnL is offset against and an optional [start, end) window override.
type Analysis struct {
	BaseCapital Money `yaml:"base_capital"`
	Start       Date  `yaml:"start"`
	End         Date  `yaml:"end"`
	Workers     int   `yaml:"workers"`
	All         bool  `yaml:"process_excluded"`
}

// Charts holds the per-panel chart geometry in pixels.
type Charts struct {
	Width    int  `yaml:"width"`
	Height   int  `yaml:"height"`
	Disabled bool `yaml:"disabled"`
}

// Journal points at the run history database.
type Journal struct {
	Path string `yaml:"path"`
}

func Read(r io.Reader) (*Config, error) {
	var cfg Config
	d := yaml.NewDecoder(r)
	if err := d.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("unable to parse config file: %w", err)
	}

	return &cfg, nil
}

func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file: %w", err)
	}
	defer f.Close()

	return Read(f)
}

// Money is a decimal config value. YAML numbers decode through their string
// form so a literal like 100000.50 never passes through a float64.
type Money struct {
	decimal.Decimal
}

func (m *Money) UnmarshalYAML(value *yaml.Node) error {
	if value.Value == "" {
		return nil
	}

	d, err := decimal.NewFromString(value.Value)
	if err != nil {
		return fmt.Errorf("invalid money amount %q: %w", value.Value, err)
	}
	m.Decimal = d
	return nil
}

// Date is a date-only config value (2006-01-02), interpreted as UTC
// midnight to match the statement timestamps.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalYAML(value *yaml.Node) error {
	if value.Value == "" {
		return nil
	}

	t, err := time.Parse("2006-01-02", value.Value)
	if err != nil {
		return fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", value.Value, err)
	}
	d.Time = t
	return nil
}
