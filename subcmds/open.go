// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/bvk/watchlist/subcmds/cmdutil"
	"github.com/bvk/watchlist/tui"
	"github.com/bvk/watchlist/watchlist"
	"github.com/nightlyone/lockfile"
	"github.com/visvasity/cli"
	"golang.org/x/term"
)

type Open struct {
	cmdutil.EnvFlags
	cmdutil.FeedFlags

	columns string

	noSave bool
}

func (c *Open) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("open", flag.ContinueOnError)
	c.EnvFlags.SetFlags(fset)
	c.FeedFlags.SetFlags(fset)
	fset.StringVar(&c.columns, "columns", "", "comma separated list of visible columns (default from the config file)")
	fset.BoolVar(&c.noSave, "no-save", false, "when true, watchlist is not saved on exit")
	return "open", fset, cli.CmdFunc(c.run)
}

func (c *Open) Purpose() string {
	return "Opens a watchlist in the terminal"
}

func (c *Open) Description() string {
	return `

Command "open" displays a watchlist with live prices. When no watchlist name or
uri is given, a new watchlist is created and its uri is printed on exit.

Use "?" key to see all key bindings. Watchlist is saved when the "s" key is
pressed and when the display is closed.

`
}

func (c *Open) run(ctx context.Context, args []string) error {
	if len(args) > 1 {
		return fmt.Errorf("command takes at most one (watchlist name or uri) argument")
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("command needs a terminal: %w", os.ErrInvalid)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !c.IsBackupDatabase() {
		dataDir, err := c.DataDir()
		if err != nil {
			return err
		}
		flock, err := lockfile.New(filepath.Join(dataDir, "watchlist.lock"))
		if err != nil {
			return fmt.Errorf("could not create lock file: %w", err)
		}
		if err := flock.TryLock(); err != nil {
			return fmt.Errorf("could not get lock on data directory %q (another instance running?): %w", dataDir, err)
		}
		defer flock.Unlock()
	}

	env, err := c.NewEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	catalog, err := env.OpenCatalog(ctx, &c.FeedFlags)
	if err != nil {
		return err
	}
	mgr := env.NewManager(catalog)

	var w *watchlist.Watchlist
	if len(args) == 0 {
		w, err = mgr.Create(ctx)
	} else {
		uri, perr := cmdutil.ParseURI(args[0])
		if perr != nil {
			return perr
		}
		w, err = mgr.Open(ctx, uri)
	}
	if err != nil {
		return err
	}

	columns := env.Config.Columns
	if len(c.columns) != 0 {
		columns = strings.Split(c.columns, ",")
	}
	if _, err := tui.SelectColumns(w.Columns(), columns); err != nil {
		return err
	}

	save := mgr.SaveWatchlist
	if c.noSave {
		save = func(context.Context, *watchlist.Watchlist) error {
			return fmt.Errorf("saving is disabled: %w", os.ErrPermission)
		}
	}

	runErr := tui.Run(ctx, w, catalog, &tui.Options{Columns: columns, Save: save})
	if !c.noSave {
		if err := mgr.SaveWatchlist(context.Background(), w); err != nil {
			return errors.Join(runErr, fmt.Errorf("could not save watchlist %q: %w", w.URI(), err))
		}
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	fmt.Fprintln(cli.Stdout(ctx), w.URI())
	return nil
}
