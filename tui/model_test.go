// Copyright (c) 2025 BVK Chaitanya

package tui

import (
	"bytes"
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/bvk/watchlist/account"
	"github.com/bvk/watchlist/market"
	"github.com/bvk/watchlist/watchlist"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
)

func newTestModel(t *testing.T, opts *Options) (Model, *watchlist.Watchlist, *market.Catalog) {
	t.Helper()
	catalog := market.NewCatalog(market.Static{
		{ID: "BTC-USD", Title: "BTC/USD", Base: "BTC", Quote: "USD", Exchange: "coinbase", Active: true, Precision: market.Precision{Price: 2, Amount: 8}},
		{ID: "ETH-USD", Title: "ETH/USD", Base: "ETH", Quote: "USD", Exchange: "coinbase", Active: true, Precision: market.Precision{Price: 2, Amount: 6}},
		{ID: "LUNA-USD", Title: "LUNA/USD", Base: "LUNA", Quote: "USD", Exchange: "coinbase", Active: false},
		{ID: "BTC-PERP", Title: "BTC PERP", Base: "BTC", Quote: "USD", Exchange: "coinbase", Type: "FUTURE", Active: true},
	})
	accounts := account.New(nil)
	w := watchlist.New("via://watchlist/tui", catalog, accounts, nil)
	if _, err := w.Initialize(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		w.Destroy()
		accounts.Close()
		catalog.Close()
	})
	m, err := New(w, catalog, opts)
	if err != nil {
		t.Fatal(err)
	}
	return m, w, catalog
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func typeText(m Model, text string) Model {
	for _, r := range text {
		m = press(m, runes(string(r)))
	}
	return m
}

func TestChangeMarket(t *testing.T) {
	m, w, _ := newTestModel(t, nil)

	m = press(m, runes("j"), runes("j"), runes("m"))
	if !m.entering {
		t.Fatalf("want market entry mode")
	}
	m = typeText(m, "btc-usd")
	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if m.entering {
		t.Fatalf("want market entry to finish")
	}
	if r := w.Row(2); r.Market() == nil || r.Market().ID != "BTC-USD" {
		t.Fatalf("want BTC-USD on row 2")
	}

	m = press(m, runes("m"))
	m = typeText(m, "NOPE-USD")
	m = press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.statusErr {
		t.Fatalf("want an error status for an unknown market")
	}

	m = press(m, runes("m"), runes("x"), tea.KeyMsg{Type: tea.KeyEsc})
	if m.entering || w.Row(2).Market().ID != "BTC-USD" {
		t.Fatalf("escape must cancel the market entry")
	}
}

func TestRejectUnwatchableMarket(t *testing.T) {
	m, w, _ := newTestModel(t, nil)

	for _, id := range []string{"luna-usd", "BTC-PERP"} {
		m = press(m, runes("m"))
		m = typeText(m, id)
		m = press(m, tea.KeyMsg{Type: tea.KeyEnter})
		if !m.statusErr || !strings.Contains(m.status, "not an active spot market") {
			t.Fatalf("%s: want an error status, got %q", id, m.status)
		}
		if r := w.Row(0); !r.IsSeparator() {
			t.Fatalf("%s: row 0 must stay a separator", id)
		}
	}
}

func TestRowCommands(t *testing.T) {
	m, w, catalog := newTestModel(t, nil)
	btc, _ := catalog.Get("BTC-USD")
	w.ReplaceRowMarket(1, btc)

	m = press(m, runes("j"), tea.KeyMsg{Type: tea.KeyEnter})
	if w.Selected() != 1 {
		t.Fatalf("want row 1 selected, got %d", w.Selected())
	}
	m = press(m, tea.KeyMsg{Type: tea.KeyEsc})
	if w.Selected() != -1 {
		t.Fatalf("want selection cleared")
	}

	m = press(m, runes("O"))
	if !w.Row(1).IsSeparator() || w.Row(2).Market() != btc {
		t.Fatalf("want separator inserted above the cursor")
	}
	m = press(m, runes("j"), runes("o"))
	if w.Row(2).Market() != btc || !w.Row(3).IsSeparator() || w.Len() != 42 {
		t.Fatalf("want separator inserted below the cursor")
	}
	m = press(m, runes("c"))
	if !w.Row(2).IsSeparator() {
		t.Fatalf("want row cleared")
	}
	m = press(m, runes("d"))
	if w.Len() != 41 {
		t.Fatalf("want row deleted, got %d rows", w.Len())
	}

	m = press(m, runes("G"))
	if m.Cursor() != w.Len()-1 {
		t.Fatalf("want cursor at the last row, got %d", m.Cursor())
	}
	m = press(m, runes("j"))
	if m.Cursor() != w.Len()-1 {
		t.Fatalf("cursor must stay inside the rows")
	}
}

func TestToggleColumns(t *testing.T) {
	m, _, _ := newTestModel(t, &Options{Columns: []string{"market", "price"}})
	if n := len(m.Visible()); n != 2 {
		t.Fatalf("want two visible columns, got %d", n)
	}
	m = press(m, runes("4"))
	cs := m.Visible()
	if len(cs) != 3 || cs[2].Name != "bid-size" {
		t.Fatalf("want bid-size column toggled on")
	}
	m = press(m, runes("1"))
	if cs := m.Visible(); cs[0].Name != "price" {
		t.Fatalf("want market column toggled off")
	}

	if _, err := New(m.w, nil, &Options{Columns: []string{"volume"}}); err == nil {
		t.Fatalf("want error for an unknown column")
	}
}

func TestColumnOrder(t *testing.T) {
	m, _, _ := newTestModel(t, &Options{Columns: []string{"price", "market"}})

	names := func() []string {
		var ns []string
		for _, c := range m.Visible() {
			ns = append(ns, c.Name)
		}
		return ns
	}
	if got := names(); !slices.Equal(got, []string{"price", "market"}) {
		t.Fatalf("want configured column order, got %v", got)
	}
	m = press(m, runes("1"))
	if got := names(); !slices.Equal(got, []string{"price"}) {
		t.Fatalf("want market column hidden, got %v", got)
	}
	m = press(m, runes("1"))
	if got := names(); !slices.Equal(got, []string{"price", "market"}) {
		t.Fatalf("want market column shown at the end, got %v", got)
	}

	header, _ := cells(nil, m.Visible())
	if len(header) != 2 || header[0] != m.Visible()[0].Title {
		t.Fatalf("want header cells in display order, got %v", header)
	}
}

func TestSave(t *testing.T) {
	var saved *watchlist.Watchlist
	save := func(ctx context.Context, w *watchlist.Watchlist) error {
		saved = w
		return nil
	}
	m, w, _ := newTestModel(t, &Options{Save: save})

	_, cmd := m.Update(runes("s"))
	if cmd == nil {
		t.Fatalf("want a save command")
	}
	msg := cmd()
	if saved != w {
		t.Fatalf("want the watchlist saved")
	}
	m = press(m, msg)
	if m.statusErr || !strings.Contains(m.status, w.URI()) {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestViewAndPrint(t *testing.T) {
	m, w, catalog := newTestModel(t, nil)
	btc, _ := catalog.Get("BTC-USD")
	w.ReplaceRowMarket(0, btc)
	w.Select(0)
	btc.Ticker.Publish(&market.Ticker{Price: decimal.RequireFromString("100.5")})

	m = press(m, tea.WindowSizeMsg{Width: 120, Height: 30})
	view := m.View()
	if !strings.Contains(view, "BTC/USD") || !strings.Contains(view, "100.50") {
		t.Fatalf("view is missing market data:\n%s", view)
	}

	var buf bytes.Buffer
	if err := Print(&buf, w, w.Columns()[:2]); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("want header and one row, got %q", buf.String())
	}
	if !strings.HasPrefix(lines[1], "* BTC/USD") || !strings.HasSuffix(lines[1], "100.50") {
		t.Fatalf("unexpected row line %q", lines[1])
	}
}

func TestQuit(t *testing.T) {
	m, _, _ := newTestModel(t, nil)
	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatalf("want quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("want tea.QuitMsg")
	}
}
