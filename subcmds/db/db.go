// Copyright (c) 2023 BVK Chaitanya

package db

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/bvk/watchlist/kvutil"
	"github.com/bvk/watchlist/subcmds/cmdutil"
	"github.com/bvkgo/kv"
	"github.com/visvasity/cli"
)

type Backup struct {
	cmdutil.EnvFlags
}

func (c *Backup) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("backup", flag.ContinueOnError)
	c.EnvFlags.SetFlags(fset)
	return "backup", fset, cli.CmdFunc(c.run)
}

func (c *Backup) Purpose() string {
	return "Takes a backup of the database into a file"
}

func (c *Backup) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("command takes one (output backup file) argument")
	}

	env, err := c.NewEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	return kvutil.BackupDB(ctx, env.DB, args[0])
}

type Restore struct {
	cmdutil.EnvFlags
}

func (c *Restore) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("restore", flag.ContinueOnError)
	c.EnvFlags.SetFlags(fset)
	return "restore", fset, cli.CmdFunc(c.run)
}

func (c *Restore) Purpose() string {
	return "Replaces the database content with a backup file"
}

func (c *Restore) run(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("command takes one (input backup file) argument")
	}
	if c.IsBackupDatabase() {
		return fmt.Errorf("cannot restore into a database loaded from backup: %w", os.ErrInvalid)
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

	return cmdutil.Restore(ctx, bufio.NewReader(fp), env.DB)
}

type Keys struct {
	cmdutil.EnvFlags
}

func (c *Keys) Command() (string, *flag.FlagSet, cli.CmdFunc) {
	fset := flag.NewFlagSet("keys", flag.ContinueOnError)
	c.EnvFlags.SetFlags(fset)
	return "keys", fset, cli.CmdFunc(c.run)
}

func (c *Keys) Purpose() string {
	return "Prints the keys in the database"
}

func (c *Keys) run(ctx context.Context, args []string) error {
	if len(args) != 0 {
		return fmt.Errorf("command takes no arguments")
	}

	env, err := c.NewEnv(ctx)
	if err != nil {
		return err
	}
	defer env.Close()

	stdout := cli.Stdout(ctx)
	list := func(ctx context.Context, r kv.Reader) error {
		it, err := r.Scan(ctx)
		if err != nil {
			return err
		}
		defer kv.Close(it)

		for k, _, err := it.Fetch(ctx, false); err == nil; k, _, err = it.Fetch(ctx, true) {
			fmt.Fprintln(stdout, k)
		}
		if _, _, err := it.Fetch(ctx, false); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	}
	return kv.WithReader(ctx, env.DB, list)
}
