// Copyright (c) 2025 BVK Chaitanya

package watchlist

import (
	"github.com/bvk/watchlist/market"
	"github.com/shopspring/decimal"
)

// Column describes one display column of a watchlist.
type Column struct {
	Name  string
	Title string

	// Default is true if the column is visible by default.
	Default bool

	// Classes are style hints for renderers, like "number".
	Classes string

	// Value returns the display text of the column for a row. Separators
	// always have an empty value.
	Value func(r *Row) string
}

// Columns returns the display columns in their default order.
func (w *Watchlist) Columns() []*Column {
	return []*Column{
		{
			Name:    "market",
			Title:   "Market",
			Default: true,
			Classes: "market-title",
			Value:   marketFunc(func(m *market.Market) string { return m.Title }),
		},
		{
			Name:    "price",
			Title:   "Last Price",
			Default: true,
			Classes: "number",
			Value: marketFunc(func(m *market.Market) string {
				p, ok := m.LastPrice()
				if !ok {
					return ""
				}
				return p.StringFixed(m.Precision.Price)
			}),
		},
		{
			Name:    "bid-price",
			Title:   "Bid Price",
			Default: true,
			Classes: "bid-price number",
			Value:   quoteFunc(func(m *market.Market, q *market.Quote) string { return q.Bid.Price.StringFixed(m.Precision.Price) }),
		},
		{
			Name:    "bid-size",
			Title:   "Bid Size",
			Classes: "bid-size number",
			Value:   quoteFunc(func(m *market.Market, q *market.Quote) string { return q.Bid.Size.StringFixed(m.Precision.Amount) }),
		},
		{
			Name:    "ask-price",
			Title:   "Ask Price",
			Default: true,
			Classes: "ask-price number",
			Value:   quoteFunc(func(m *market.Market, q *market.Quote) string { return q.Ask.Price.StringFixed(m.Precision.Price) }),
		},
		{
			Name:    "ask-size",
			Title:   "Ask Size",
			Classes: "ask-size number",
			Value:   quoteFunc(func(m *market.Market, q *market.Quote) string { return q.Ask.Size.StringFixed(m.Precision.Amount) }),
		},
		{
			Name:    "spread",
			Title:   "Spread",
			Default: true,
			Classes: "spread number",
			Value:   quoteFunc(func(m *market.Market, q *market.Quote) string { return q.Spread().StringFixed(m.Precision.Price) }),
		},
		{
			Name:    "base-exposure",
			Title:   "Exposure (Base)",
			Default: true,
			Classes: "base-exposure number",
			Value: w.exposureFunc(func(m *market.Market) (string, int32) {
				return m.Base, m.Precision.Amount
			}),
		},
		{
			Name:    "quote-exposure",
			Title:   "Exposure (Quote)",
			Default: true,
			Classes: "quote-exposure number",
			Value: w.exposureFunc(func(m *market.Market) (string, int32) {
				return m.Quote, m.Precision.Price
			}),
		},
	}
}

// DefaultColumns returns the names of columns that are visible by default.
func (w *Watchlist) DefaultColumns() []string {
	var names []string
	for _, c := range w.Columns() {
		if c.Default {
			names = append(names, c.Name)
		}
	}
	return names
}

func marketFunc(fn func(*market.Market) string) func(*Row) string {
	return func(r *Row) string {
		if r == nil || r.market == nil {
			return ""
		}
		return fn(r.market)
	}
}

func quoteFunc(fn func(*market.Market, *market.Quote) string) func(*Row) string {
	return marketFunc(func(m *market.Market) string {
		q, ok := m.LastQuote()
		if !ok {
			return ""
		}
		return fn(m, q)
	})
}

// exposureFunc returns the total position in a market currency across all
// accounts of the market's exchange.
func (w *Watchlist) exposureFunc(pick func(*market.Market) (string, int32)) func(*Row) string {
	return marketFunc(func(m *market.Market) string {
		if !m.Trading() {
			return ""
		}
		ccy, places := pick(m)
		var position decimal.Decimal
		if w.accounts != nil {
			position = w.accounts.Position(m.Exchange, ccy)
		}
		return position.StringFixed(places) + " " + ccy
	})
}
