// Copyright (c) 2025 BVK Chaitanya

// Package config reads the optional config.toml file from the data
// directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/bvk/watchlist/market"
)

const FileName = "config.toml"

type Coinbase struct {
	RestHostname      string `toml:"rest_hostname"`
	WebsocketHostname string `toml:"websocket_hostname"`
}

// Market describes a market for the offline catalog.
type Market struct {
	ID             string `toml:"id"`
	Title          string `toml:"title"`
	Base           string `toml:"base"`
	Quote          string `toml:"quote"`
	Exchange       string `toml:"exchange"`
	PricePrecision int32  `toml:"price_precision"`
	SizePrecision  int32  `toml:"size_precision"`
}

type Config struct {
	// Columns lists the visible column names in display order. Empty list
	// selects the default columns.
	Columns []string `toml:"columns"`

	// MinRows is the number of rows new watchlists are padded to.
	MinRows int `toml:"min_rows"`

	// Trading lists the exchanges whose exposure columns are shown.
	Trading []string `toml:"trading"`

	Coinbase Coinbase `toml:"coinbase"`

	// Markets, when non-empty, replaces the exchange feed with a fixed
	// offline catalog.
	Markets []*Market `toml:"markets"`
}

// Load reads a config file. Missing file is not an error and returns an
// empty config.
func Load(file string) (*Config, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return new(Config), nil
		}
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	c := new(Config)
	md, err := toml.Decode(string(data), c)
	if err != nil {
		return nil, fmt.Errorf("could not parse config file %q: %w", file, err)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		return nil, fmt.Errorf("config file %q has unknown keys %v: %w", file, keys, os.ErrInvalid)
	}
	if err := c.Check(); err != nil {
		return nil, fmt.Errorf("config file %q: %w", file, err)
	}
	return c, nil
}

// Check validates the config values.
func (c *Config) Check() error {
	if c.MinRows < 0 {
		return fmt.Errorf("min_rows cannot be negative: %w", os.ErrInvalid)
	}
	for i, m := range c.Markets {
		if m.ID == "" {
			return fmt.Errorf("market %d has no id: %w", i, os.ErrInvalid)
		}
		if m.PricePrecision < 0 || m.SizePrecision < 0 {
			return fmt.Errorf("market %q has negative precision: %w", m.ID, os.ErrInvalid)
		}
	}
	return nil
}

// IsTrading returns true if an exchange is listed for trading.
func (c *Config) IsTrading(exchange string) bool {
	return slices.ContainsFunc(c.Trading, func(v string) bool {
		return strings.EqualFold(v, exchange)
	})
}

// StaticMarkets returns the offline markets as a catalog loader.
func (c *Config) StaticMarkets() market.Static {
	var infos market.Static
	for _, m := range c.Markets {
		info := market.Info{
			ID:       m.ID,
			Title:    m.Title,
			Base:     strings.ToUpper(m.Base),
			Quote:    strings.ToUpper(m.Quote),
			Type:     market.SpotType,
			Exchange: m.Exchange,
			Active:   true,
			Precision: market.Precision{
				Price:  m.PricePrecision,
				Amount: m.SizePrecision,
			},
		}
		if info.Exchange == "" {
			info.Exchange = "offline"
		}
		if info.Title == "" && info.Base != "" && info.Quote != "" {
			info.Title = info.Base + "/" + info.Quote
		}
		infos = append(infos, info)
	}
	return infos
}
