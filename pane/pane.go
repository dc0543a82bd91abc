// Copyright (c) 2025 BVK Chaitanya

// Package pane opens, restores and saves watchlist panes.
package pane

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/bvk/watchlist/gobs"
	"github.com/bvk/watchlist/lifetime"
	"github.com/bvk/watchlist/store"
	"github.com/bvk/watchlist/stream"
	"github.com/bvk/watchlist/watchlist"
	"github.com/google/uuid"
)

const BaseURI = store.BaseURI

type Manager struct {
	store    *store.Store
	catalog  watchlist.Catalog
	accounts watchlist.Accounts
	opts     watchlist.Options

	mu sync.Mutex

	deactivated bool

	paneMap map[string]*watchlist.Watchlist

	created *stream.Stream[*watchlist.Watchlist]
}

func New(st *store.Store, catalog watchlist.Catalog, accounts watchlist.Accounts, opts *watchlist.Options) *Manager {
	m := &Manager{
		store:    st,
		catalog:  catalog,
		accounts: accounts,
		paneMap:  make(map[string]*watchlist.Watchlist),
		created:  stream.NewEvents[*watchlist.Watchlist](),
	}
	if opts != nil {
		m.opts = *opts
	}
	return m
}

// Open returns the watchlist pane for a uri. Panes that are already open are
// returned as is; others are restored from the store or created empty.
func (m *Manager) Open(ctx context.Context, uri string) (*watchlist.Watchlist, error) {
	if !store.IsWatchlistURI(uri) {
		return nil, fmt.Errorf("uri %q is not a watchlist: %w", uri, os.ErrInvalid)
	}
	uri, err := store.Normalize(uri)
	if err != nil {
		return nil, err
	}
	if w, ok := m.Get(uri); ok {
		return w, nil
	}

	state, err := m.store.Load(ctx, uri)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		state = &gobs.WatchlistState{}
	}
	state.URI = uri

	w, err := m.Deserialize(ctx, state)
	if err != nil {
		return nil, err
	}
	if err := m.created.Publish(w); err != nil {
		slog.Warn("could not publish watchlist creation (ignored)", "watchlist", w, "err", err)
	}
	return w, nil
}

// Create opens a new empty watchlist pane with a unique uri.
func (m *Manager) Create(ctx context.Context) (*watchlist.Watchlist, error) {
	return m.Open(ctx, BaseURI+"/"+uuid.NewString())
}

// Deserialize creates and initializes a watchlist pane from a saved state.
func (m *Manager) Deserialize(ctx context.Context, state *gobs.WatchlistState) (*watchlist.Watchlist, error) {
	if err := store.Validate(state); err != nil {
		return nil, err
	}
	uri, err := store.Normalize(state.URI)
	if err != nil {
		return nil, err
	}
	if uri != state.URI {
		normalized := *state
		normalized.URI = uri
		state = &normalized
	}

	w := watchlist.New(state.URI, m.catalog, m.accounts, &m.opts)
	missing, err := w.Initialize(ctx, state)
	if err != nil {
		w.Destroy()
		return nil, fmt.Errorf("could not initialize watchlist %q: %w", state.URI, err)
	}
	if len(missing) > 0 {
		slog.Warn("watchlist refers to unknown markets", "watchlist", state.URI, "markets", strings.Join(missing, ","))
	}

	m.mu.Lock()
	if m.deactivated {
		m.mu.Unlock()
		w.Destroy()
		return nil, fmt.Errorf("pane manager is deactivated: %w", os.ErrClosed)
	}
	if _, ok := m.paneMap[state.URI]; ok {
		m.mu.Unlock()
		w.Destroy()
		return nil, fmt.Errorf("watchlist %q is already open: %w", state.URI, os.ErrExist)
	}
	m.paneMap[state.URI] = w
	m.mu.Unlock()

	w.OnDidDestroy(func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.paneMap[w.URI()] == w {
			delete(m.paneMap, w.URI())
		}
	})
	return w, nil
}

// Get returns an open watchlist pane.
func (m *Manager) Get(uri string) (*watchlist.Watchlist, bool) {
	if v, err := store.Normalize(uri); err == nil {
		uri = v
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	w, ok := m.paneMap[uri]
	return w, ok
}

// Watchlists returns the open panes sorted by uri.
func (m *Manager) Watchlists() []*watchlist.Watchlist {
	m.mu.Lock()
	defer m.mu.Unlock()

	var ws []*watchlist.Watchlist
	for _, w := range m.paneMap {
		ws = append(ws, w)
	}
	slices.SortFunc(ws, func(a, b *watchlist.Watchlist) int { return strings.Compare(a.URI(), b.URI()) })
	return ws
}

// SaveWatchlist persists the current state of a pane.
func (m *Manager) SaveWatchlist(ctx context.Context, w *watchlist.Watchlist) error {
	if !w.Initialized() {
		return fmt.Errorf("watchlist %q is not initialized: %w", w.URI(), os.ErrInvalid)
	}
	return m.store.Save(ctx, w.Serialize())
}

// Save persists all open panes.
func (m *Manager) Save(ctx context.Context) error {
	var errs []error
	for _, w := range m.Watchlists() {
		if err := m.SaveWatchlist(ctx, w); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OnDidCreateWatchlist registers fn to be called for panes created by Open.
func (m *Manager) OnDidCreateWatchlist(fn func(*watchlist.Watchlist)) (lifetime.Disposable, error) {
	return m.created.Subscribe(fn)
}

// Deactivate destroys all open panes. Manager cannot open panes afterwards.
func (m *Manager) Deactivate() {
	m.mu.Lock()
	if m.deactivated {
		m.mu.Unlock()
		return
	}
	m.deactivated = true
	m.mu.Unlock()

	for _, w := range m.Watchlists() {
		w.Destroy()
	}
	m.created.Close()
}
