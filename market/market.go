// Copyright (c) 2025 BVK Chaitanya

// Package market implements the market catalog and the live ticker and quote
// streams of individual markets.
package market

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/bvk/watchlist/stream"
	"github.com/shopspring/decimal"
)

// SpotType is the market type for spot markets.
const SpotType = "SPOT"

// Precision holds the number of decimal places used to display prices and
// amounts of a market.
type Precision struct {
	Price  int32
	Amount int32
}

// Info holds the static metadata of a market.
type Info struct {
	ID          string
	Title       string
	Description string

	Base  string
	Quote string

	Type     string
	Exchange string

	Active bool

	Precision Precision
}

// Ticker is the last trade price of a market.
type Ticker struct {
	Price decimal.Decimal
	Time  time.Time
}

// Level is one side of the top of the order book.
type Level struct {
	Price decimal.Decimal
	Size  decimal.Decimal
}

// Quote is the best bid and best ask of a market.
type Quote struct {
	Bid  Level
	Ask  Level
	Time time.Time
}

// Spread returns the difference between best ask and best bid prices.
func (q *Quote) Spread() decimal.Decimal {
	return q.Ask.Price.Sub(q.Bid.Price)
}

// WatchFunc is invoked when a market gains its first live subscriber or loses
// its last one.
type WatchFunc func(m *Market, watching bool)

// Market is a tradable market with static metadata and live streams. Markets
// are owned by the Catalog; other components only hold references.
type Market struct {
	Info

	Ticker *stream.Stream[*Ticker]
	Quotes *stream.Stream[*Quote]

	trading atomic.Bool

	watchers atomic.Int64

	watchFunc atomic.Pointer[WatchFunc]
}

// New creates a market with empty live streams.
func New(info Info) *Market {
	m := &Market{Info: info}
	m.Ticker = stream.NewWithHook[*Ticker](m.onSubscribers)
	m.Quotes = stream.NewWithHook[*Quote](m.onSubscribers)
	return m
}

func (m *Market) String() string {
	return fmt.Sprintf("%s:%s", m.Exchange, m.ID)
}

// Close closes the live streams. Existing subscriptions stop receiving
// updates.
func (m *Market) Close() {
	m.Ticker.Close()
	m.Quotes.Close()
}

// Trading returns true if the market's exchange is configured for trading,
// which enables the exposure columns.
func (m *Market) Trading() bool {
	return m.trading.Load()
}

// SetTrading updates the trading flag.
func (m *Market) SetTrading(v bool) {
	m.trading.Store(v)
}

// Watchers returns the number of live subscriptions across both streams.
func (m *Market) Watchers() int64 {
	return m.watchers.Load()
}

// SetWatchFunc registers a callback for watch state changes. Only one
// callback is kept.
func (m *Market) SetWatchFunc(fn WatchFunc) {
	if fn == nil {
		m.watchFunc.Store(nil)
		return
	}
	m.watchFunc.Store(&fn)
}

func (m *Market) onSubscribers(delta int64) {
	n := m.watchers.Add(delta)
	if (delta > 0 && n == 1) || (delta < 0 && n == 0) {
		if fn := m.watchFunc.Load(); fn != nil {
			(*fn)(m, n > 0)
		}
	}
}

// LastPrice returns the last ticker price.
func (m *Market) LastPrice() (decimal.Decimal, bool) {
	t, ok := m.Ticker.Last()
	if !ok || t == nil {
		return decimal.Zero, false
	}
	return t.Price, true
}

// LastQuote returns the last quote.
func (m *Market) LastQuote() (*Quote, bool) {
	q, ok := m.Quotes.Last()
	if !ok || q == nil {
		return nil, false
	}
	return q, true
}
