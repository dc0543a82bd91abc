// Copyright (c) 2025 BVK Chaitanya

package cmdutil

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"slices"

	"github.com/bvk/watchlist/account"
	"github.com/bvk/watchlist/config"
	"github.com/bvk/watchlist/market"
	"github.com/bvk/watchlist/pane"
	"github.com/bvk/watchlist/store"
	"github.com/bvk/watchlist/watchlist"
	"github.com/bvkgo/kv"
)

// EnvFlags holds the flags shared by all commands that work on the data
// directory.
type EnvFlags struct {
	DBFlags
	LogFlags

	configFile string
}

func (f *EnvFlags) SetFlags(fset *flag.FlagSet) {
	f.DBFlags.SetFlags(fset)
	f.LogFlags.SetFlags(fset)
	fset.StringVar(&f.configFile, "config-file", "", "Path to the config file (default <data-dir>/config.toml)")
}

// Env bundles the data directory resources used by the commands.
type Env struct {
	DataDir string

	Config *config.Config

	DB kv.Database

	Store *store.Store

	Accounts *account.Subsystem

	closers []func()
}

// NewEnv sets up logging, reads the config file and opens the database.
// Accounts are loaded before it returns.
func (f *EnvFlags) NewEnv(ctx context.Context) (_ *Env, status error) {
	dataDir, err := f.DBFlags.DataDir()
	if err != nil {
		return nil, err
	}

	e := &Env{DataDir: dataDir}
	defer func() {
		if status != nil {
			e.Close()
		}
	}()

	logCloser, err := f.LogFlags.SetupLogging(dataDir)
	if err != nil {
		return nil, err
	}
	e.closers = append(e.closers, logCloser)

	cfile := f.configFile
	if len(cfile) == 0 {
		cfile = filepath.Join(dataDir, config.FileName)
	}
	cfg, err := config.Load(cfile)
	if err != nil {
		return nil, err
	}
	e.Config = cfg

	db, dbCloser, err := f.DBFlags.GetDatabase(ctx)
	if err != nil {
		return nil, err
	}
	e.DB = db
	e.closers = append(e.closers, dbCloser)

	e.Store = store.New(db)

	e.Accounts = account.New(db)
	e.closers = append(e.closers, e.Accounts.Close)
	if err := e.Accounts.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("could not initialize accounts: %w", err)
	}
	return e, nil
}

// Close releases the resources in the reverse order of their creation.
func (e *Env) Close() {
	for _, fn := range slices.Backward(e.closers) {
		fn()
	}
	e.closers = nil
}

// OpenCatalog creates and initializes the market catalog. Catalog is closed
// with the environment.
func (e *Env) OpenCatalog(ctx context.Context, feed *FeedFlags) (*market.Catalog, error) {
	catalog, closer, err := feed.NewCatalog(e.Config)
	if err != nil {
		return nil, err
	}
	if err := catalog.Initialize(ctx); err != nil {
		closer()
		return nil, err
	}
	e.closers = append(e.closers, closer)
	return catalog, nil
}

// WatchlistOptions returns the watchlist options from the config file.
func (e *Env) WatchlistOptions() *watchlist.Options {
	return &watchlist.Options{MinRows: e.Config.MinRows}
}

// NewManager creates a pane manager over the environment's store and
// accounts.
func (e *Env) NewManager(catalog *market.Catalog) *pane.Manager {
	m := pane.New(e.Store, catalog, e.Accounts, e.WatchlistOptions())
	e.closers = append(e.closers, m.Deactivate)
	return m
}

// ParseURI accepts a full watchlist uri or a short pane name.
func ParseURI(arg string) (string, error) {
	uri := arg
	if !store.IsWatchlistURI(uri) {
		uri = store.BaseURI + "/" + arg
	}
	if _, err := store.Key(uri); err != nil {
		return "", err
	}
	return uri, nil
}
