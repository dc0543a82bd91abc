// Copyright (c) 2025 BVK Chaitanya

// Package watchlist implements an ordered, editable list of market rows with
// live-updating display columns.
//
// Edits are addressed by zero-based row positions. Out of range positions are
// silently ignored. Every edit except Deselect requests a render pass, which
// is published as a monotonically increasing render generation to render
// subscribers.
package watchlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/bvk/watchlist/account"
	"github.com/bvk/watchlist/gobs"
	"github.com/bvk/watchlist/lifetime"
	"github.com/bvk/watchlist/market"
	"github.com/bvk/watchlist/stream"
	"github.com/shopspring/decimal"
)

// Title is the display title of all watchlists.
const Title = "Watchlist"

// Catalog resolves market ids.
type Catalog interface {
	Initialize(ctx context.Context) error
	Get(id string) (*market.Market, error)
}

// Accounts provides asset positions and position change notifications.
type Accounts interface {
	Initialize(ctx context.Context) error
	Position(exchange, currency string) decimal.Decimal
	OnDidUpdatePosition(func(*account.PositionUpdate)) (lifetime.Disposable, error)
	OnDidAddAccount(func(*account.Account)) (lifetime.Disposable, error)
	OnDidDestroyAccount(func(*account.Account)) (lifetime.Disposable, error)
}

type Options struct {
	// MinRows is the number of rows a watchlist is padded to when it is
	// initialized.
	MinRows int
}

func (v *Options) setDefaults() {
	if v.MinRows <= 0 {
		v.MinRows = 40
	}
}

type Watchlist struct {
	uri string

	opts Options

	catalog  Catalog
	accounts Accounts

	mu sync.Mutex

	initialized  bool
	initializing bool
	destroyed    bool

	rows []*Row

	selected *Row

	listeners *lifetime.Composite

	generation atomic.Int64

	renders *stream.Stream[int64]
	changes *stream.Stream[*market.Market]

	destroyMu      sync.Mutex
	destroyID      int
	destroyFuncMap map[int]func()
}

// New creates an empty watchlist. Watchlist accepts edits only after a
// successful Initialize.
func New(uri string, catalog Catalog, accounts Accounts, opts *Options) *Watchlist {
	if opts == nil {
		opts = new(Options)
	}
	opts.setDefaults()

	return &Watchlist{
		uri:            uri,
		opts:           *opts,
		catalog:        catalog,
		accounts:       accounts,
		listeners:      lifetime.NewComposite(),
		renders:        stream.New[int64](),
		changes:        stream.NewEvents[*market.Market](),
		destroyFuncMap: make(map[int]func()),
	}
}

func (w *Watchlist) String() string {
	return w.uri
}

func (w *Watchlist) URI() string {
	return w.uri
}

func (w *Watchlist) Title() string {
	return Title
}

// Initialize populates the rows from a persisted state. Market ids that are
// not found in the catalog are replaced with separators; their ids are
// returned to the caller. State can be nil for an empty watchlist.
func (w *Watchlist) Initialize(ctx context.Context, state *gobs.WatchlistState) (missing []string, status error) {
	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		return nil, fmt.Errorf("watchlist %s is destroyed: %w", w.uri, os.ErrClosed)
	}
	if w.initialized || w.initializing {
		w.mu.Unlock()
		return nil, fmt.Errorf("watchlist %s is already initialized: %w", w.uri, os.ErrExist)
	}
	w.initializing = true
	w.mu.Unlock()

	defer func() {
		w.mu.Lock()
		w.initializing = false
		w.mu.Unlock()
	}()

	if err := w.catalog.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("could not initialize market catalog: %w", err)
	}

	var rows []*Row
	defer func() {
		if status != nil {
			for _, r := range rows {
				r.dispose()
			}
		}
	}()

	if state != nil {
		for i, desc := range state.Rows {
			if desc == nil || desc.Type != gobs.RowTypeMarket {
				if desc != nil && desc.Type != gobs.RowTypeSeparator {
					slog.Warn("unknown watchlist row type is replaced with a separator", "watchlist", w.uri, "row", i, "type", desc.Type)
				}
				rows = append(rows, newSeparator())
				continue
			}
			m, err := w.catalog.Get(desc.Market)
			if err != nil {
				if !errors.Is(err, os.ErrNotExist) {
					return nil, fmt.Errorf("could not lookup market %q: %w", desc.Market, err)
				}
				slog.Warn("market is not found; row is replaced with a separator", "watchlist", w.uri, "row", i, "market", desc.Market)
				missing = append(missing, desc.Market)
				rows = append(rows, newSeparator())
				continue
			}
			rows = append(rows, newMarketRow(m, w.requestRender))
		}
	}

	if err := w.accounts.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("could not initialize accounts: %w", err)
	}

	for len(rows) < w.opts.MinRows {
		rows = append(rows, newSeparator())
	}

	var selected *Row
	if state != nil && state.Selected != nil {
		if p := *state.Selected; p >= 0 && p < len(rows) && !rows[p].IsSeparator() {
			selected = rows[p]
		}
	}

	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		return nil, fmt.Errorf("watchlist %s is destroyed: %w", w.uri, os.ErrClosed)
	}
	w.rows = rows
	w.selected = selected
	w.initialized = true
	w.mu.Unlock()

	if d, err := w.accounts.OnDidUpdatePosition(func(*account.PositionUpdate) { w.requestRender() }); err != nil {
		slog.Warn("could not subscribe to position updates (ignored)", "watchlist", w.uri, "err", err)
	} else {
		w.listeners.Add(d)
	}
	if d, err := w.accounts.OnDidAddAccount(func(*account.Account) { w.requestRender() }); err != nil {
		slog.Warn("could not subscribe to new accounts (ignored)", "watchlist", w.uri, "err", err)
	} else {
		w.listeners.Add(d)
	}
	if d, err := w.accounts.OnDidDestroyAccount(func(*account.Account) { w.requestRender() }); err != nil {
		slog.Warn("could not subscribe to destroyed accounts (ignored)", "watchlist", w.uri, "err", err)
	} else {
		w.listeners.Add(d)
	}

	w.requestRender()
	return missing, nil
}

// Initialized returns true once the watchlist accepts edits.
func (w *Watchlist) Initialized() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.initialized
}

// Len returns the number of rows.
func (w *Watchlist) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.rows)
}

// Rows returns a snapshot of the rows in display order.
func (w *Watchlist) Rows() []*Row {
	w.mu.Lock()
	defer w.mu.Unlock()
	return slices.Clone(w.rows)
}

// Row returns the row at a position or nil.
func (w *Watchlist) Row(pos int) *Row {
	w.mu.Lock()
	defer w.mu.Unlock()
	if pos < 0 || pos >= len(w.rows) {
		return nil
	}
	return w.rows[pos]
}

// Selected returns the position of the selected row or -1.
func (w *Watchlist) Selected() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.selectedIndexLocked()
}

func (w *Watchlist) selectedIndexLocked() int {
	if w.selected == nil {
		return -1
	}
	return slices.Index(w.rows, w.selected)
}

// SelectedMarket returns the market of the selected row or nil.
func (w *Watchlist) SelectedMarket() *market.Market {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.selected == nil {
		return nil
	}
	return w.selected.market
}

func (w *Watchlist) validLocked(pos int) bool {
	return w.initialized && !w.destroyed && pos >= 0 && pos < len(w.rows)
}

// ReplaceRowMarket binds the row at a position to a market. Nothing happens
// when the row is already bound to the same market. Replacing the last row
// appends a new separator.
func (w *Watchlist) ReplaceRowMarket(pos int, m *market.Market) {
	if m == nil {
		return
	}

	w.mu.Lock()
	if !w.validLocked(pos) {
		w.mu.Unlock()
		return
	}
	old := w.rows[pos]
	if old.market == m {
		w.mu.Unlock()
		return
	}
	if w.selected == old {
		w.selected = nil
	}
	old.dispose()

	w.rows[pos] = newMarketRow(m, w.requestRender)
	if pos == len(w.rows)-1 {
		w.rows = append(w.rows, newSeparator())
	}
	w.mu.Unlock()

	if err := w.changes.Publish(m); err != nil {
		slog.Warn("could not publish market change (ignored)", "watchlist", w.uri, "market", m, "err", err)
	}
	w.requestRender()
}

// ClearRow replaces the row at a position with a separator.
func (w *Watchlist) ClearRow(pos int) {
	w.mu.Lock()
	if !w.validLocked(pos) {
		w.mu.Unlock()
		return
	}
	old := w.rows[pos]
	if w.selected == old {
		w.selected = nil
	}
	old.dispose()
	w.rows[pos] = newSeparator()
	w.mu.Unlock()

	w.requestRender()
}

// InsertSeparatorAbove inserts a separator at a position, moving the rows
// at and after the position down.
func (w *Watchlist) InsertSeparatorAbove(pos int) {
	w.insertSeparator(pos, pos)
}

// InsertSeparatorBelow inserts a separator after a position.
func (w *Watchlist) InsertSeparatorBelow(pos int) {
	w.insertSeparator(pos, pos+1)
}

func (w *Watchlist) insertSeparator(pos, at int) {
	w.mu.Lock()
	if !w.validLocked(pos) {
		w.mu.Unlock()
		return
	}
	w.rows = slices.Insert(w.rows, at, newSeparator())
	w.mu.Unlock()

	w.requestRender()
}

// DeleteRow removes the row at a position. Watchlist is not padded again.
func (w *Watchlist) DeleteRow(pos int) {
	w.mu.Lock()
	if !w.validLocked(pos) {
		w.mu.Unlock()
		return
	}
	old := w.rows[pos]
	if w.selected == old {
		w.selected = nil
	}
	old.dispose()
	w.rows = slices.Delete(w.rows, pos, pos+1)
	w.mu.Unlock()

	w.requestRender()
}

// Select selects the market row at a position. Selecting a separator clears
// the selection.
func (w *Watchlist) Select(pos int) {
	w.mu.Lock()
	if !w.validLocked(pos) {
		w.mu.Unlock()
		return
	}
	if r := w.rows[pos]; r.IsSeparator() {
		w.selected = nil
	} else {
		w.selected = r
	}
	w.mu.Unlock()

	w.requestRender()
}

// Deselect clears the selection. Unlike other edits, it doesn't request a
// render pass.
func (w *Watchlist) Deselect() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.selected = nil
}

// Serialize returns the persistent state of the watchlist.
func (w *Watchlist) Serialize() *gobs.WatchlistState {
	w.mu.Lock()
	defer w.mu.Unlock()

	state := &gobs.WatchlistState{
		URI:  w.uri,
		Rows: make([]*gobs.WatchlistRow, 0, len(w.rows)),
	}
	for _, r := range w.rows {
		state.Rows = append(state.Rows, r.descriptor())
	}
	if p := w.selectedIndexLocked(); p >= 0 {
		state.Selected = &p
	}
	return state
}

// Generation returns the number of render passes requested so far.
func (w *Watchlist) Generation() int64 {
	return w.generation.Load()
}

// requestRender bumps the render generation and notifies the render
// subscribers. It is called from live-feed callbacks, so it must not take
// the watchlist lock.
func (w *Watchlist) requestRender() {
	gen := w.generation.Add(1)
	if err := w.renders.Publish(gen); err != nil && !errors.Is(err, os.ErrClosed) {
		slog.Warn("could not publish render request (ignored)", "watchlist", w.uri, "err", err)
	}
}

// OnDidRequestRender registers fn to receive render generations. Slow
// subscribers only see the latest generation.
func (w *Watchlist) OnDidRequestRender(fn func(gen int64)) (lifetime.Disposable, error) {
	return w.renders.Subscribe(fn)
}

// OnDidChangeMarket registers fn to be called when a row is bound to a new
// market.
func (w *Watchlist) OnDidChangeMarket(fn func(*market.Market)) (lifetime.Disposable, error) {
	return w.changes.Subscribe(fn)
}

// OnDidDestroy registers fn to be called from Destroy.
func (w *Watchlist) OnDidDestroy(fn func()) lifetime.Disposable {
	w.destroyMu.Lock()
	defer w.destroyMu.Unlock()

	id := w.destroyID
	w.destroyID++
	w.destroyFuncMap[id] = fn
	return lifetime.Once(func() {
		w.destroyMu.Lock()
		defer w.destroyMu.Unlock()
		delete(w.destroyFuncMap, id)
	})
}

// Destroy releases all row subscriptions and account listeners, then
// notifies the did-destroy callbacks. Destroy must not be called from a
// watchlist or market callback. Repeated calls are ignored.
func (w *Watchlist) Destroy() {
	w.mu.Lock()
	if w.destroyed {
		w.mu.Unlock()
		return
	}
	w.destroyed = true
	rows := w.rows
	w.selected = nil
	w.mu.Unlock()

	for _, r := range rows {
		r.dispose()
	}
	w.listeners.Dispose()

	w.destroyMu.Lock()
	var fns []func()
	for id := 0; id < w.destroyID; id++ {
		if fn, ok := w.destroyFuncMap[id]; ok {
			fns = append(fns, fn)
		}
	}
	clear(w.destroyFuncMap)
	w.destroyMu.Unlock()

	for _, fn := range fns {
		fn()
	}

	w.renders.Close()
	w.changes.Close()
}
