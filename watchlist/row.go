// Copyright (c) 2025 BVK Chaitanya

package watchlist

import (
	"log/slog"

	"github.com/bvk/watchlist/gobs"
	"github.com/bvk/watchlist/lifetime"
	"github.com/bvk/watchlist/market"
)

// Row is one entry of a watchlist. A row is either a separator or bound to a
// market. Market rows own the live-feed subscriptions for their market.
type Row struct {
	market *market.Market

	subs *lifetime.Composite
}

func newSeparator() *Row {
	return &Row{}
}

// IsSeparator returns true for blank rows.
func (r *Row) IsSeparator() bool {
	return r.market == nil
}

// Market returns the market of the row or nil for separators.
func (r *Row) Market() *market.Market {
	return r.market
}

func (r *Row) dispose() {
	if r.subs != nil {
		r.subs.Dispose()
	}
}

func (r *Row) descriptor() *gobs.WatchlistRow {
	if r.market == nil {
		return gobs.SeparatorRow()
	}
	return gobs.MarketRow(r.market.ID)
}

// newMarketRow creates a market row subscribed to the market's ticker and
// quote streams. Subscription failures leave the row without live updates.
func newMarketRow(m *market.Market, update func()) *Row {
	subs := lifetime.NewComposite()

	tsub, err := m.Ticker.Subscribe(func(*market.Ticker) { update() })
	if err != nil {
		slog.Warn("could not subscribe to market ticker (ignored)", "market", m, "err", err)
	}
	subs.Add(tsub)

	qsub, err := m.Quotes.Subscribe(func(*market.Quote) { update() })
	if err != nil {
		slog.Warn("could not subscribe to market quotes (ignored)", "market", m, "err", err)
	}
	subs.Add(qsub)

	return &Row{market: m, subs: subs}
}
