// Copyright (c) 2023 BVK Chaitanya

// Package coinbase feeds public Coinbase market data into market catalogs.
package coinbase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/bvk/watchlist/coinbase/internal"
	"github.com/bvk/watchlist/market"
	"github.com/shopspring/decimal"
)

const (
	ExchangeName = "coinbase"

	tickerChannel     = "ticker"
	heartbeatsChannel = "heartbeats"
)

// Feed loads Coinbase products as markets and streams live ticker and quote
// updates for markets that have subscribers.
type Feed struct {
	opts Options

	client *internal.Client

	websocket *internal.Websocket

	mu sync.RWMutex

	productMap map[string]*market.Market
}

var _ market.Loader = &Feed{}

// New creates a feed. Websocket connection is opened in the background and
// is retried till the feed is closed.
func New(opts *Options) *Feed {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()

	iopts := &internal.Options{
		RestHostname:           opts.RestHostname,
		WebsocketHostname:      opts.WebsocketHostname,
		Insecure:               opts.insecure,
		HttpClientTimeout:      opts.HttpClientTimeout,
		WebsocketRetryInterval: opts.WebsocketRetryInterval,
		RequestsPerSecond:      opts.RequestsPerSecond,
	}

	f := &Feed{
		opts:       *opts,
		client:     internal.New(iopts),
		productMap: make(map[string]*market.Market),
	}
	f.websocket = f.client.GetMessages(f.handleMessage)
	f.websocket.Subscribe(heartbeatsChannel)
	return f
}

// Close stops the websocket. Markets created by the feed stay usable but
// receive no more updates.
func (f *Feed) Close() error {
	return f.client.Close()
}

// LoadMarkets implements the market.Loader interface.
func (f *Feed) LoadMarkets(ctx context.Context) ([]*market.Market, error) {
	resp, err := f.client.ListProducts(ctx, f.opts.ProductType)
	if err != nil {
		return nil, fmt.Errorf("could not list coinbase products: %w", err)
	}

	var markets []*market.Market
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, p := range resp.Products {
		if p.ProductID == "" {
			continue
		}
		if m, ok := f.productMap[p.ProductID]; ok {
			markets = append(markets, m)
			continue
		}
		m := market.New(productInfo(p))
		m.SetWatchFunc(f.onWatch)
		f.productMap[p.ProductID] = m
		markets = append(markets, m)
	}
	slog.Info("loaded coinbase products", "products", len(markets))
	return markets, nil
}

func productInfo(p *internal.Product) market.Info {
	base := firstNonEmpty(p.BaseDisplaySymbol, p.BaseCurrencyID)
	quote := firstNonEmpty(p.QuoteDisplaySymbol, p.QuoteCurrencyID)

	info := market.Info{
		ID:       p.ProductID,
		Title:    base + "/" + quote,
		Base:     base,
		Quote:    quote,
		Type:     strings.ToUpper(p.ProductType),
		Exchange: ExchangeName,
		Active:   !p.IsDisabled && !p.TradingDisabled && !p.CancelOnly && strings.EqualFold(p.Status, "online"),
		Precision: market.Precision{
			Price:  precision(p.QuoteIncrement.Decimal),
			Amount: precision(p.BaseIncrement.Decimal),
		},
	}
	if p.BaseName != "" && p.QuoteName != "" {
		info.Description = p.BaseName + " / " + p.QuoteName
	}
	if info.Type == "" {
		info.Type = market.SpotType
	}
	return info
}

// precision returns the number of decimal places in an increment.
func precision(incr decimal.Decimal) int32 {
	if incr.IsZero() {
		return 2
	}
	s := incr.String()
	if i := strings.IndexByte(s, '.'); i >= 0 {
		return int32(len(s) - i - 1)
	}
	return 0
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}

// onWatch adds or removes a product from the ticker channel when its
// market gains the first or loses the last live subscriber.
func (f *Feed) onWatch(m *market.Market, watching bool) {
	if watching {
		f.websocket.Subscribe(tickerChannel, m.ID)
		return
	}
	f.websocket.Unsubscribe(tickerChannel, m.ID)
}

func (f *Feed) lookup(productID string) (*market.Market, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	m, ok := f.productMap[productID]
	return m, ok
}

func (f *Feed) handleMessage(msg *internal.Message) {
	if msg.Channel != tickerChannel {
		return
	}
	at := msg.Time()
	for _, event := range msg.Events {
		for _, tick := range event.Tickers {
			m, ok := f.lookup(tick.ProductID)
			if !ok {
				continue
			}
			if err := m.Ticker.Publish(&market.Ticker{Price: tick.Price.Decimal, Time: at}); err != nil {
				slog.Debug("could not publish ticker update (ignored)", "market", m, "err", err)
			}
			quote := &market.Quote{
				Bid:  market.Level{Price: tick.BestBid.Decimal, Size: tick.BestBidQuantity.Decimal},
				Ask:  market.Level{Price: tick.BestAsk.Decimal, Size: tick.BestAskQuantity.Decimal},
				Time: at,
			}
			if err := m.Quotes.Publish(quote); err != nil {
				slog.Debug("could not publish quote update (ignored)", "market", m, "err", err)
			}
		}
	}
}
