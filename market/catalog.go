// Copyright (c) 2025 BVK Chaitanya

package market

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"
)

// ErrNotFound is returned when a market id is not in the catalog.
var ErrNotFound = fmt.Errorf("market not found: %w", os.ErrNotExist)

// Loader fetches the markets for a catalog.
type Loader interface {
	LoadMarkets(ctx context.Context) ([]*Market, error)
}

// Catalog resolves market ids to markets. Catalog must be initialized before
// use; until then lookups fail with os.ErrInvalid.
type Catalog struct {
	loader Loader

	initMu sync.Mutex

	mu sync.RWMutex

	ready bool

	markets map[string]*Market

	trading map[string]bool
}

func NewCatalog(loader Loader) *Catalog {
	return &Catalog{
		loader:  loader,
		markets: make(map[string]*Market),
		trading: make(map[string]bool),
	}
}

// Initialize loads the markets once. Concurrent callers wait for the first
// load to finish. A failed load is retried by the next call.
func (c *Catalog) Initialize(ctx context.Context) error {
	c.initMu.Lock()
	defer c.initMu.Unlock()

	if c.Ready() {
		return nil
	}

	markets, err := c.loader.LoadMarkets(ctx)
	if err != nil {
		return fmt.Errorf("could not load markets: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, m := range markets {
		if _, ok := c.markets[m.ID]; ok {
			slog.Warn("duplicate market id in the catalog (ignored)", "market", m.ID)
			continue
		}
		m.SetTrading(c.trading[strings.ToLower(m.Exchange)])
		c.markets[m.ID] = m
	}
	c.ready = true
	slog.Info("market catalog is initialized", "markets", len(c.markets))
	return nil
}

// Ready returns true after a successful Initialize.
func (c *Catalog) Ready() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

// Close closes all market streams.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, m := range c.markets {
		m.Close()
	}
	return nil
}

// Get returns the market with the given id.
func (c *Catalog) Get(id string) (*Market, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.ready {
		return nil, fmt.Errorf("market catalog is not initialized: %w", os.ErrInvalid)
	}
	m, ok := c.markets[id]
	if !ok {
		return nil, fmt.Errorf("market %q: %w", id, ErrNotFound)
	}
	return m, nil
}

// All returns all markets sorted by their ids.
func (c *Catalog) All() []*Market {
	return c.Filter(nil)
}

// Filter returns markets accepted by the pick function sorted by their ids.
func (c *Catalog) Filter(pick func(*Market) bool) []*Market {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var ms []*Market
	for _, m := range c.markets {
		if pick == nil || pick(m) {
			ms = append(ms, m)
		}
	}
	slices.SortFunc(ms, func(a, b *Market) int { return strings.Compare(a.ID, b.ID) })
	return ms
}

// Spot returns active spot markets.
func (c *Catalog) Spot() []*Market {
	return c.Filter(func(m *Market) bool {
		return m.Active && m.Type == SpotType
	})
}

// SetTrading enables or disables trading for all markets of an exchange.
// Setting is also applied to markets loaded later.
func (c *Catalog) SetTrading(exchange string, v bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	name := strings.ToLower(exchange)
	c.trading[name] = v
	for _, m := range c.markets {
		if strings.EqualFold(m.Exchange, name) {
			m.SetTrading(v)
		}
	}
}

// Static is a Loader for a fixed set of markets.
type Static []Info

// LoadMarkets implements the Loader interface.
func (s Static) LoadMarkets(ctx context.Context) ([]*Market, error) {
	ms := make([]*Market, 0, len(s))
	for _, info := range s {
		if info.ID == "" {
			return nil, fmt.Errorf("market id cannot be empty: %w", os.ErrInvalid)
		}
		if info.Type == "" {
			info.Type = SpotType
		}
		if info.Title == "" {
			info.Title = info.ID
		}
		ms = append(ms, New(info))
	}
	return ms, nil
}
