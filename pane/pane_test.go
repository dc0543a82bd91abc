// Copyright (c) 2025 BVK Chaitanya

package pane

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/bvk/watchlist/account"
	"github.com/bvk/watchlist/gobs"
	"github.com/bvk/watchlist/market"
	"github.com/bvk/watchlist/store"
	"github.com/bvk/watchlist/watchlist"
	"github.com/bvkgo/kv/kvmemdb"
)

func newTestManager(t *testing.T) (*Manager, *store.Store, *market.Catalog) {
	t.Helper()
	catalog := market.NewCatalog(market.Static{
		{ID: "BTC-USD", Base: "BTC", Quote: "USD", Exchange: "coinbase", Active: true},
		{ID: "ETH-USD", Base: "ETH", Quote: "USD", Exchange: "coinbase", Active: true},
	})
	accounts := account.New(nil)
	st := store.New(kvmemdb.New())
	m := New(st, catalog, accounts, &watchlist.Options{MinRows: 10})
	t.Cleanup(func() {
		m.Deactivate()
		accounts.Close()
		catalog.Close()
	})
	return m, st, catalog
}

func TestOpenCreate(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t)

	created := make(chan *watchlist.Watchlist, 4)
	sub, err := m.OnDidCreateWatchlist(func(w *watchlist.Watchlist) { created <- w })
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Dispose()

	w1, err := m.Open(ctx, BaseURI)
	if err != nil {
		t.Fatal(err)
	}
	if n := w1.Len(); n != 10 {
		t.Fatalf("want 10 rows, got %d", n)
	}
	if w, _ := m.Open(ctx, BaseURI); w != w1 {
		t.Fatalf("want the same pane for the same uri")
	}

	w2, err := m.Create(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(w2.URI(), BaseURI+"/") || w2.URI() == w1.URI() {
		t.Fatalf("unexpected uri %q for a new pane", w2.URI())
	}

	for i := 0; i < 2; i++ {
		select {
		case <-created:
		case <-time.After(5 * time.Second):
			t.Fatalf("did-create notification is missing")
		}
	}

	if _, err := m.Open(ctx, "via://chart"); !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("want os.ErrInvalid for a foreign uri, got %v", err)
	}
	if n := len(m.Watchlists()); n != 2 {
		t.Fatalf("want two open panes, got %d", n)
	}

	w2.Destroy()
	if _, ok := m.Get(w2.URI()); ok {
		t.Fatalf("destroyed pane must be forgotten")
	}
}

func TestOpenDefaultAliases(t *testing.T) {
	ctx := context.Background()
	m, st, catalog := newTestManager(t)

	w, err := m.Open(ctx, BaseURI)
	if err != nil {
		t.Fatal(err)
	}
	if w.URI() != BaseURI+"/default" {
		t.Fatalf("want the default uri, got %q", w.URI())
	}
	for _, uri := range []string{BaseURI, BaseURI + "/", BaseURI + "/default"} {
		got, err := m.Open(ctx, uri)
		if err != nil {
			t.Fatalf("uri %q: %v", uri, err)
		}
		if got != w {
			t.Fatalf("uri %q: want the same pane", uri)
		}
	}

	btc, err := catalog.Get("BTC-USD")
	if err != nil {
		t.Fatal(err)
	}
	w.ReplaceRowMarket(0, btc)
	if err := m.SaveWatchlist(ctx, w); err != nil {
		t.Fatal(err)
	}
	w.Destroy()

	// Saved state is reopened through the short alias.
	restored, err := m.Open(ctx, BaseURI)
	if err != nil {
		t.Fatal(err)
	}
	if restored.URI() != BaseURI+"/default" || restored.Row(0).Market() != btc {
		t.Fatalf("unexpected restored pane %q", restored.URI())
	}
	if again, err := m.Open(ctx, BaseURI+"/default"); err != nil || again != restored {
		t.Fatalf("want the restored pane, got %v", err)
	}
	if _, err := st.Load(ctx, BaseURI); err != nil {
		t.Fatal(err)
	}
}

func TestSaveRestore(t *testing.T) {
	ctx := context.Background()
	m, st, catalog := newTestManager(t)

	w, err := m.Open(ctx, BaseURI+"/saved")
	if err != nil {
		t.Fatal(err)
	}
	btc, err := catalog.Get("BTC-USD")
	if err != nil {
		t.Fatal(err)
	}
	w.ReplaceRowMarket(2, btc)
	w.Select(2)
	if err := m.Save(ctx); err != nil {
		t.Fatal(err)
	}

	state, err := st.Load(ctx, w.URI())
	if err != nil {
		t.Fatal(err)
	}
	if state.Rows[2].Market != "BTC-USD" || state.Selected == nil || *state.Selected != 2 {
		t.Fatalf("unexpected saved state")
	}

	w.Destroy()
	restored, err := m.Open(ctx, w.URI())
	if err != nil {
		t.Fatal(err)
	}
	if restored == w {
		t.Fatalf("want a new pane after destroy")
	}
	if restored.SelectedMarket() != btc {
		t.Fatalf("want selection restored")
	}
}

func TestDeserializeUnknownMarket(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t)

	state := &gobs.WatchlistState{
		URI:  BaseURI + "/old",
		Rows: []*gobs.WatchlistRow{gobs.MarketRow("XRP-EUR"), gobs.MarketRow("ETH-USD")},
	}
	w, err := m.Deserialize(ctx, state)
	if err != nil {
		t.Fatal(err)
	}
	if !w.Row(0).IsSeparator() || w.Row(1).Market().ID != "ETH-USD" {
		t.Fatalf("unexpected rows after deserialize")
	}
	if _, err := m.Deserialize(ctx, state); !errors.Is(err, os.ErrExist) {
		t.Fatalf("want os.ErrExist for an open pane, got %v", err)
	}
}

func TestDeactivate(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t)

	w, err := m.Create(ctx)
	if err != nil {
		t.Fatal(err)
	}
	destroyed := false
	w.OnDidDestroy(func() { destroyed = true })

	m.Deactivate()
	if !destroyed {
		t.Fatalf("want open panes destroyed on deactivate")
	}
	if _, err := m.Create(ctx); !errors.Is(err, os.ErrClosed) {
		t.Fatalf("want os.ErrClosed after deactivate, got %v", err)
	}
}
