// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"
	"strings"
	"time"

	"github.com/bvk/watchlist/lifetime"
	"github.com/bvk/watchlist/subcmds/cmdutil"
	"github.com/bvk/watchlist/tui"
	"github.com/visvasity/cli"
)

type Print struct {
	cmdutil.EnvFlags
	cmdutil.FeedFlags

	columns string

	wait time.Duration
}

func (c *Print) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("print", flag.ContinueOnError)
	c.EnvFlags.SetFlags(fset)
	c.FeedFlags.SetFlags(fset)
	fset.StringVar(&c.columns, "columns", "", "comma separated list of columns to print (default from the config file)")
	fset.DurationVar(&c.wait, "wait", 3*time.Second, "time to wait for live prices before printing")
	return "print", fset, cli.CmdFunc(c.run)
}

func (c *Print) Purpose() string {
	return "Prints a snapshot of a watchlist as plain text"
}

func (c *Print) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("command takes one (watchlist name or uri) argument")
	}
	uri, err := cmdutil.ParseURI(args[0])
	if err != nil {
		return err
	}

	env, err := c.NewEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	state, err := env.Store.Load(ctx, uri)
	if err != nil {
		return err
	}

	catalog, err := env.OpenCatalog(ctx, &c.FeedFlags)
	if err != nil {
		return err
	}
	w, err := env.NewManager(catalog).Deserialize(ctx, state)
	if err != nil {
		return err
	}

	if lifetime.Sleep(ctx, c.wait); ctx.Err() != nil {
		return context.Cause(ctx)
	}

	names := env.Config.Columns
	if len(c.columns) != 0 {
		names = strings.Split(c.columns, ",")
	}
	columns, err := tui.SelectColumns(w.Columns(), names)
	if err != nil {
		return err
	}
	return tui.Print(cli.Stdout(ctx), w, columns)
}
