// Copyright (c) 2025 BVK Chaitanya

// Package store persists watchlist pane states in a key-value database.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/bvk/watchlist/gobs"
	"github.com/bvk/watchlist/kvutil"
	"github.com/bvkgo/kv"
)

// BaseURI is the uri prefix of all watchlist panes.
const BaseURI = "via://watchlist"

const (
	Keyspace = "/watchlists/"

	// DefaultName is the key name for the pane opened with BaseURI.
	DefaultName = "default"
)

type Store struct {
	db kv.Database
}

func New(db kv.Database) *Store {
	return &Store{db: db}
}

// IsWatchlistURI returns true if uri is the BaseURI or a BaseURI subpath.
func IsWatchlistURI(uri string) bool {
	return uri == BaseURI || strings.HasPrefix(uri, BaseURI+"/")
}

// Key returns the database key for a watchlist uri.
func Key(uri string) (string, error) {
	name, err := nameOf(uri)
	if err != nil {
		return "", err
	}
	return path.Join(Keyspace, name), nil
}

// Normalize returns the canonical form of a watchlist uri. BaseURI names the
// default watchlist.
func Normalize(uri string) (string, error) {
	name, err := nameOf(uri)
	if err != nil {
		return "", err
	}
	return BaseURI + "/" + name, nil
}

func nameOf(uri string) (string, error) {
	if !IsWatchlistURI(uri) {
		return "", fmt.Errorf("uri %q is not a watchlist uri: %w", uri, os.ErrInvalid)
	}
	name := strings.TrimPrefix(strings.TrimPrefix(uri, BaseURI), "/")
	if name == "" {
		name = DefaultName
	}
	if strings.Contains(name, "/") {
		return "", fmt.Errorf("uri %q has a nested path: %w", uri, os.ErrInvalid)
	}
	return name, nil
}

// Validate checks that a state is well formed.
func Validate(state *gobs.WatchlistState) error {
	if _, err := Key(state.URI); err != nil {
		return err
	}
	for i, row := range state.Rows {
		if row == nil {
			return fmt.Errorf("row %d is nil: %w", i, os.ErrInvalid)
		}
		switch row.Type {
		case gobs.RowTypeSeparator:
		case gobs.RowTypeMarket:
			if row.Market == "" {
				return fmt.Errorf("row %d has no market id: %w", i, os.ErrInvalid)
			}
		default:
			return fmt.Errorf("row %d has unknown type %q: %w", i, row.Type, os.ErrInvalid)
		}
	}
	if p := state.Selected; p != nil && (*p < 0 || *p >= len(state.Rows)) {
		return fmt.Errorf("selected row %d is out of range: %w", *p, os.ErrInvalid)
	}
	return nil
}

// Save writes a watchlist state, replacing the previous state if any.
func (s *Store) Save(ctx context.Context, state *gobs.WatchlistState) error {
	if err := Validate(state); err != nil {
		return err
	}
	key, _ := Key(state.URI)
	if err := kvutil.SetDB(ctx, s.db, key, state.Stored()); err != nil {
		return fmt.Errorf("could not save watchlist %q: %w", state.URI, err)
	}
	return nil
}

// Load reads a watchlist state. Returns an error wrapping os.ErrNotExist when
// the uri was never saved.
func (s *Store) Load(ctx context.Context, uri string) (*gobs.WatchlistState, error) {
	key, err := Key(uri)
	if err != nil {
		return nil, err
	}
	v, err := kvutil.GetDB[gobs.StoredWatchlist](ctx, s.db, key)
	if err != nil {
		return nil, fmt.Errorf("could not load watchlist %q: %w", uri, err)
	}
	return v.State(), nil
}

// Delete removes a watchlist state.
func (s *Store) Delete(ctx context.Context, uri string) error {
	key, err := Key(uri)
	if err != nil {
		return err
	}
	del := func(ctx context.Context, rw kv.ReadWriter) error {
		if _, err := rw.Get(ctx, key); err != nil {
			return err
		}
		return rw.Delete(ctx, key)
	}
	if err := kv.WithReadWriter(ctx, s.db, del); err != nil {
		return fmt.Errorf("could not delete watchlist %q: %w", uri, err)
	}
	return nil
}

// List returns all saved watchlist states in key order.
func (s *Store) List(ctx context.Context) ([]*gobs.WatchlistState, error) {
	var states []*gobs.WatchlistState
	collect := func(_ context.Context, _ kv.Reader, _ string, v *gobs.StoredWatchlist) error {
		states = append(states, v.State())
		return nil
	}
	begin, end := kvutil.PathRange(Keyspace)
	if err := kvutil.AscendDB(ctx, s.db, begin, end, collect); err != nil {
		return nil, fmt.Errorf("could not list watchlists: %w", err)
	}
	return states, nil
}

// Export writes a saved watchlist as an indented JSON document.
func (s *Store) Export(ctx context.Context, uri string, w io.Writer) error {
	state, err := s.Load(ctx, uri)
	if err != nil {
		return err
	}
	js, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal watchlist %q: %w", uri, err)
	}
	if _, err := w.Write(append(js, '\n')); err != nil {
		return err
	}
	return nil
}

// Import reads a JSON document written by Export and saves it.
func (s *Store) Import(ctx context.Context, r io.Reader) (*gobs.WatchlistState, error) {
	state := new(gobs.WatchlistState)
	if err := json.NewDecoder(r).Decode(state); err != nil {
		return nil, fmt.Errorf("could not decode watchlist: %w", err)
	}
	if err := s.Save(ctx, state); err != nil {
		return nil, err
	}
	return state, nil
}

// Backup writes all saved watchlists as a JSON array.
func (s *Store) Backup(ctx context.Context, w io.Writer) error {
	states, err := s.List(ctx)
	if err != nil {
		return err
	}
	if states == nil {
		states = []*gobs.WatchlistState{}
	}
	js, err := json.MarshalIndent(states, "", "  ")
	if err != nil {
		return fmt.Errorf("could not marshal watchlists: %w", err)
	}
	if _, err := w.Write(append(js, '\n')); err != nil {
		return err
	}
	return nil
}
