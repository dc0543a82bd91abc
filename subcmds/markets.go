// Copyright (c) 2025 BVK Chaitanya

package subcmds

import (
	"context"
	"flag"
	"fmt"
	"regexp"
	"text/tabwriter"

	"github.com/bvk/watchlist/market"
	"github.com/bvk/watchlist/subcmds/cmdutil"
	"github.com/visvasity/cli"
)

type Markets struct {
	cmdutil.EnvFlags
	cmdutil.FeedFlags

	all bool

	idRe string
}

func (c *Markets) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("markets", flag.ContinueOnError)
	c.EnvFlags.SetFlags(fset)
	c.FeedFlags.SetFlags(fset)
	fset.BoolVar(&c.all, "all", false, "when true, inactive and non-spot markets are also listed")
	fset.StringVar(&c.idRe, "id-regexp", "", "regular expression to pick market ids")
	return "markets", fset, cli.CmdFunc(c.run)
}

func (c *Markets) Purpose() string {
	return "Lists the markets that can be watched"
}

func (c *Markets) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("command takes no arguments")
	}

	var re *regexp.Regexp
	if len(c.idRe) != 0 {
		v, err := regexp.Compile(c.idRe)
		if err != nil {
			return fmt.Errorf("could not compile id-regexp value: %w", err)
		}
		re = v
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

	markets := catalog.Spot()
	if c.all {
		markets = catalog.All()
	}

	tw := tabwriter.NewWriter(cli.Stdout(ctx), 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tTitle\tExchange\tType\tActive\tTrading\t\n")
	for _, m := range markets {
		if re != nil && !re.MatchString(m.ID) {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%t\t\n", m.ID, m.Title, m.Exchange, typeName(m), m.Active, m.Trading())
	}
	return tw.Flush()
}

func typeName(m *market.Market) string {
	if m.Type == "" {
		return "-"
	}
	return m.Type
}
