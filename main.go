// Copyright (c) 2023 BVK Chaitanya

package main

import (
	"context"
	"log"
	"os"

	"github.com/bvk/watchlist/subcmds"
	"github.com/bvk/watchlist/subcmds/account"
	"github.com/bvk/watchlist/subcmds/db"
	"github.com/visvasity/cli"
)

func main() {
	accountCmds := []cli.Command{
		new(account.Add),
		new(account.Remove),
		new(account.SetPosition),
		new(account.List),
	}

	dbCmds := []cli.Command{
		new(db.Backup),
		new(db.Restore),
		new(db.Keys),
	}

	cmds := []cli.Command{
		new(subcmds.Open),
		new(subcmds.Print),
		new(subcmds.List),
		new(subcmds.Export),
		new(subcmds.Import),
		new(subcmds.Delete),
		new(subcmds.Markets),
		cli.NewGroup("account", "Manage accounts and positions", accountCmds...),
		cli.NewGroup("db", "View/update database directly", dbCmds...),
	}
	if err := cli.Run(context.Background(), cmds, os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}
