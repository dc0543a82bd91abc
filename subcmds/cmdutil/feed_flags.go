// Copyright (c) 2025 BVK Chaitanya

package cmdutil

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/bvk/watchlist/coinbase"
	"github.com/bvk/watchlist/config"
	"github.com/bvk/watchlist/market"
)

type FeedFlags struct {
	offline bool

	restHostname      string
	websocketHostname string

	httpTimeout time.Duration
}

func (f *FeedFlags) SetFlags(fset *flag.FlagSet) {
	fset.BoolVar(&f.offline, "offline", false, "when true, markets are loaded from the config file instead of the exchange")
	fset.StringVar(&f.restHostname, "coinbase-rest-hostname", "", "Hostname for the coinbase REST api")
	fset.StringVar(&f.websocketHostname, "coinbase-websocket-hostname", "", "Hostname for the coinbase websocket feed")
	fset.DurationVar(&f.httpTimeout, "http-timeout", 10*time.Second, "http client timeout")
}

// NewCatalog creates an uninitialized market catalog. Markets listed in the
// config file are used when the feed is offline or when the config lists any
// markets. Exchanges named in the config are enabled for trading.
func (f *FeedFlags) NewCatalog(cfg *config.Config) (*market.Catalog, func(), error) {
	var loader market.Loader
	closer := func() {}

	if f.offline || len(cfg.Markets) != 0 {
		if len(cfg.Markets) == 0 {
			return nil, nil, fmt.Errorf("offline mode needs markets in the config file: %w", os.ErrInvalid)
		}
		loader = cfg.StaticMarkets()
	} else {
		opts := &coinbase.Options{
			RestHostname:      firstNonEmpty(f.restHostname, cfg.Coinbase.RestHostname),
			WebsocketHostname: firstNonEmpty(f.websocketHostname, cfg.Coinbase.WebsocketHostname),
			HttpClientTimeout: f.httpTimeout,
		}
		feed := coinbase.New(opts)
		loader = feed
		closer = func() {
			if err := feed.Close(); err != nil {
				slog.Warn("could not close coinbase feed (ignored)", "err", err)
			}
		}
	}

	catalog := market.NewCatalog(loader)
	for _, name := range cfg.Trading {
		catalog.SetTrading(name, true)
	}
	return catalog, func() {
		closer()
		catalog.Close()
	}, nil
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if len(v) != 0 {
			return v
		}
	}
	return ""
}
