// Copyright (c) 2025 BVK Chaitanya

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/bvk/watchlist/market"
)

func writeFile(t *testing.T, data string) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(file, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}
	return file
}

func TestLoadMissing(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), FileName))
	if err != nil {
		t.Fatal(err)
	}
	if len(c.Columns) != 0 || c.MinRows != 0 || len(c.Markets) != 0 {
		t.Fatalf("want empty config, got %+v", c)
	}
}

func TestLoad(t *testing.T) {
	file := writeFile(t, `
columns = ["market", "price", "spread"]
min_rows = 20
trading = ["Coinbase"]

[coinbase]
rest_hostname = "localhost:8080"

[[markets]]
id = "BTC-USD"
base = "btc"
quote = "usd"
price_precision = 2
size_precision = 8
`)
	c, err := Load(file)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(c.Columns, []string{"market", "price", "spread"}) || c.MinRows != 20 {
		t.Fatalf("unexpected config %+v", c)
	}
	if !c.IsTrading("coinbase") || c.IsTrading("kraken") {
		t.Fatalf("unexpected trading exchanges %v", c.Trading)
	}
	if c.Coinbase.RestHostname != "localhost:8080" {
		t.Fatalf("unexpected coinbase hostname %q", c.Coinbase.RestHostname)
	}

	catalog := market.NewCatalog(c.StaticMarkets())
	if err := catalog.Initialize(context.Background()); err != nil {
		t.Fatal(err)
	}
	btc, err := catalog.Get("BTC-USD")
	if err != nil {
		t.Fatal(err)
	}
	if btc.Title != "BTC/USD" || btc.Exchange != "offline" || btc.Precision.Amount != 8 {
		t.Fatalf("unexpected market %+v", btc.Info)
	}
}

func TestLoadInvalid(t *testing.T) {
	if _, err := Load(writeFile(t, `colums = ["market"]`)); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("want os.ErrInvalid for unknown keys, got %v", err)
	}
	if _, err := Load(writeFile(t, "[[markets]]\ntitle = \"x\"\n")); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("want os.ErrInvalid for market without id, got %v", err)
	}
	if _, err := Load(writeFile(t, `min_rows = "ten"`)); err == nil {
		t.Fatalf("want parse error")
	}
}
