// Copyright (c) 2025 BVK Chaitanya

package account

import (
	"context"
	"flag"
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/bvk/watchlist/subcmds/cmdutil"
	"github.com/shopspring/decimal"
	"github.com/visvasity/cli"
)

type Add struct {
	cmdutil.EnvFlags

	exchange string
}

func (c *Add) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("add", flag.ContinueOnError)
	c.EnvFlags.SetFlags(fset)
	fset.StringVar(&c.exchange, "exchange", "coinbase", "exchange name for the account")
	return "add", fset, cli.CmdFunc(c.run)
}

func (c *Add) Purpose() string {
	return "Adds a new account on an exchange"
}

func (c *Add) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("command takes one (account name) argument")
	}

	env, err := c.NewEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	if _, err := env.Accounts.AddAccount(ctx, args[0], c.exchange); err != nil {
		return err
	}
	return nil
}

type Remove struct {
	cmdutil.EnvFlags
}

func (c *Remove) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("remove", flag.ContinueOnError)
	c.EnvFlags.SetFlags(fset)
	return "remove", fset, cli.CmdFunc(c.run)
}

func (c *Remove) Purpose() string {
	return "Removes an account and all of its positions"
}

func (c *Remove) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("command takes one (account name) argument")
	}

	env, err := c.NewEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	return env.Accounts.DestroyAccount(ctx, args[0])
}

type SetPosition struct {
	cmdutil.EnvFlags
}

func (c *SetPosition) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("set-position", flag.ContinueOnError)
	c.EnvFlags.SetFlags(fset)
	return "set-position", fset, cli.CmdFunc(c.run)
}

func (c *SetPosition) Purpose() string {
	return "Sets the position of a currency in an account"
}

func (c *SetPosition) Description() string {
	return `

Command "set-position" takes account name, currency and amount arguments. Zero
amount removes the currency from the account. For example,

    watchlist account set-position main BTC 0.25

`
}

func (c *SetPosition) run(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("command takes three (account name, currency and amount) arguments")
	}
	amount, err := decimal.NewFromString(args[2])
	if err != nil {
		return fmt.Errorf("could not parse amount %q: %w", args[2], err)
	}

	env, err := c.NewEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	return env.Accounts.SetPosition(ctx, args[0], args[1], amount)
}

type List struct {
	cmdutil.EnvFlags
}

func (c *List) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("list", flag.ContinueOnError)
	c.EnvFlags.SetFlags(fset)
	return "list", fset, cli.CmdFunc(c.run)
}

func (c *List) Purpose() string {
	return "Lists the accounts and their positions"
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

	tw := tabwriter.NewWriter(cli.Stdout(ctx), 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Account\tExchange\tCurrency\tAmount\t\n")
	for _, a := range env.Accounts.Accounts() {
		positions := a.Positions()
		if len(positions) == 0 {
			fmt.Fprintf(tw, "%s\t%s\t-\t-\t\n", a.Name(), a.Exchange())
			continue
		}
		ccys := make([]string, 0, len(positions))
		for ccy := range positions {
			ccys = append(ccys, ccy)
		}
		sort.Strings(ccys)
		for _, ccy := range ccys {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n", a.Name(), a.Exchange(), ccy, positions[ccy])
		}
	}
	return tw.Flush()
}
