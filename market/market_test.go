// Copyright (c) 2025 BVK Chaitanya

package market

import (
	"context"
	"errors"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	c := NewCatalog(Static{
		{ID: "BTC-USD", Base: "BTC", Quote: "USD", Exchange: "coinbase", Active: true},
		{ID: "ETH-USD", Base: "ETH", Quote: "USD", Exchange: "coinbase", Active: true},
		{ID: "OLD-USD", Base: "OLD", Quote: "USD", Exchange: "coinbase"},
		{ID: "BTC-PERP", Base: "BTC", Quote: "USD", Exchange: "coinbase", Active: true, Type: "FUTURE"},
	})
	if err := c.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCatalogGet(t *testing.T) {
	c := testCatalog(t)

	m, err := c.Get("BTC-USD")
	if err != nil {
		t.Fatal(err)
	}
	if m.Title != "BTC-USD" || m.Type != SpotType {
		t.Fatalf("unexpected market defaults: %+v", m.Info)
	}

	if _, err := c.Get("DOGE-USD"); !errors.Is(err, ErrNotFound) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("want not found error, got %v", err)
	}
}

func TestCatalogNotInitialized(t *testing.T) {
	c := NewCatalog(Static{{ID: "BTC-USD"}})
	if _, err := c.Get("BTC-USD"); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("want os.ErrInvalid before initialize, got %v", err)
	}
}

func TestCatalogSpot(t *testing.T) {
	c := testCatalog(t)

	spot := c.Spot()
	if len(spot) != 2 {
		t.Fatalf("want 2 active spot markets, got %d", len(spot))
	}
	if spot[0].ID != "BTC-USD" || spot[1].ID != "ETH-USD" {
		t.Fatalf("spot markets are not sorted: %s %s", spot[0].ID, spot[1].ID)
	}
	if n := len(c.All()); n != 4 {
		t.Fatalf("want 4 markets, got %d", n)
	}
}

func TestCatalogTrading(t *testing.T) {
	c := testCatalog(t)
	m, _ := c.Get("ETH-USD")
	if m.Trading() {
		t.Fatalf("trading must be disabled by default")
	}
	c.SetTrading("Coinbase", true)
	if !m.Trading() {
		t.Fatalf("trading must be enabled for the exchange markets")
	}
}

func TestMarketStreams(t *testing.T) {
	m := New(Info{ID: "BTC-USD"})
	defer m.Close()

	var watching atomic.Int32
	m.SetWatchFunc(func(_ *Market, w bool) {
		if w {
			watching.Add(1)
		} else {
			watching.Add(-1)
		}
	})

	got := make(chan *Ticker, 1)
	sub, err := m.Ticker.Subscribe(func(v *Ticker) { got <- v })
	if err != nil {
		t.Fatal(err)
	}
	if watching.Load() != 1 || m.Watchers() != 1 {
		t.Fatalf("market must be watched after first subscription")
	}

	price := decimal.NewFromInt(100)
	if err := m.Ticker.Publish(&Ticker{Price: price, Time: time.Now()}); err != nil {
		t.Fatal(err)
	}
	select {
	case v := <-got:
		if !v.Price.Equal(price) {
			t.Fatalf("want %s, got %s", price, v.Price)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("ticker update was not delivered")
	}

	if p, ok := m.LastPrice(); !ok || !p.Equal(price) {
		t.Fatalf("last price must be %s", price)
	}

	sub.Dispose()
	sub.Dispose()
	if n := m.Ticker.Active(); n != 0 {
		t.Fatalf("want no active subscriptions, got %d", n)
	}
	if n := m.Ticker.Total(); n != 1 {
		t.Fatalf("want one subscription in total, got %d", n)
	}
	if watching.Load() != 0 {
		t.Fatalf("market must not be watched after last dispose")
	}
}

func TestQuoteSpread(t *testing.T) {
	q := &Quote{
		Bid: Level{Price: decimal.RequireFromString("99.5")},
		Ask: Level{Price: decimal.RequireFromString("100.25")},
	}
	if s := q.Spread(); !s.Equal(decimal.RequireFromString("0.75")) {
		t.Fatalf("want spread 0.75, got %s", s)
	}
}
