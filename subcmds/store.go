// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/bvk/watchlist/gobs"
	"github.com/bvk/watchlist/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

type List struct {
	cmdutil.EnvFlags

	asJSON bool
}

func (c *List) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("list", flag.ContinueOnError)
	c.EnvFlags.SetFlags(fset)
	fset.BoolVar(&c.asJSON, "json", false, "when true, prints all watchlists as a JSON array")
	return "list", fset, cli.CmdFunc(c.run)
}

func (c *List) Purpose() string {
	return "Lists the saved watchlists"
}

func (c *List) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("command takes no arguments")
	}

	env, err := c.NewEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	if c.asJSON {
		return env.Store.Backup(ctx, cli.Stdout(ctx))
	}

	states, err := env.Store.List(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cli.Stdout(ctx), 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "URI\tRows\tMarkets\t\n")
	for _, s := range states {
		nmarkets := 0
		for _, r := range s.Rows {
			if r.Type == gobs.RowTypeMarket {
				nmarkets++
			}
		}
		fmt.Fprintf(tw, "%s\t%d\t%d\t\n", s.URI, len(s.Rows), nmarkets)
	}
	return tw.Flush()
}

type Export struct {
	cmdutil.EnvFlags
}

func (c *Export) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("export", flag.ContinueOnError)
	c.EnvFlags.SetFlags(fset)
	return "export", fset, cli.CmdFunc(c.run)
}

func (c *Export) Purpose() string {
	return "Prints a saved watchlist as a JSON document"
}

func (c *Export) run(ctx context.Context, args []string) error {
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

	return env.Store.Export(ctx, uri, cli.Stdout(ctx))
}

type Import struct {
	cmdutil.EnvFlags
}

func (c *Import) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("import", flag.ContinueOnError)
	c.EnvFlags.SetFlags(fset)
	return "import", fset, cli.CmdFunc(c.run)
}

func (c *Import) Purpose() string {
	return "Saves a watchlist from a JSON document file"
}

func (c *Import) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("command takes one (json file path) argument")
	}

	fp, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("could not open file %q: %w", args[0], err)
	}
	defer fp.Close()

	env, err := c.NewEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	state, err := env.Store.Import(ctx, bufio.NewReader(fp))
	if err != nil {
		return err
	}
	fmt.Fprintln(cli.Stdout(ctx), state.URI)
	return nil
}

type Delete struct {
	cmdutil.EnvFlags
}

func (c *Delete) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("delete", flag.ContinueOnError)
	c.EnvFlags.SetFlags(fset)
	return "delete", fset, cli.CmdFunc(c.run)
}

func (c *Delete) Purpose() string {
	return "Deletes a saved watchlist"
}

func (c *Delete) run(ctx context.Context, args []string) error {
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

	return env.Store.Delete(ctx, uri)
}
