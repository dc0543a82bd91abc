// Copyright (c) 2023 BVK Chaitanya

package cmdutil

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"github.com/bvk/watchlist/kvutil"
	"github.com/bvkgo/kv"
	"github.com/bvkgo/kv/kvmemdb"
	"github.com/bvkgo/kvbadger"
	"github.com/dgraph-io/badger/v4"
)

const DefaultDataDirName = ".watchlist"

type DBFlags struct {
	dataDir string

	fromBackup string

	backupBefore string
	backupAfter  string
}

func (f *DBFlags) SetFlags(fset *flag.FlagSet) {
	fset.StringVar(&f.dataDir, "data-dir", "", "Path to the data directory (default $HOME/.watchlist)")
	fset.StringVar(&f.fromBackup, "from-backup", "", "Path to a database backup file to use as an in-memory database")
	fset.StringVar(&f.backupBefore, "backup-before", "", "Path to a file to receive db backup before cmd is run")
	fset.StringVar(&f.backupAfter, "backup-after", "", "Path to a file to receive db backup after cmd is run")
}

// DataDir returns the absolute path to the data directory. Directory is
// created if it doesn't exist.
func (f *DBFlags) DataDir() (string, error) {
	dir := f.dataDir
	if len(dir) == 0 {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not determine the home directory: %w", err)
		}
		dir = filepath.Join(home, DefaultDataDirName)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("could not determine data-dir %q absolute path: %w", dir, err)
	}
	if err := os.MkdirAll(abs, 0700); err != nil {
		return "", fmt.Errorf("could not create data directory %q: %w", abs, err)
	}
	return abs, nil
}

// IsBackupDatabase returns true if database is loaded from a backup file, in
// which case updates are not persisted.
func (f *DBFlags) IsBackupDatabase() bool {
	return len(f.fromBackup) != 0
}

func (f *DBFlags) dbCloser(db kv.Database, c io.Closer) func() {
	return func() {
		if len(f.backupAfter) != 0 {
			if err := kvutil.BackupDB(context.Background(), db, f.backupAfter); err != nil {
				slog.Error("could not take db backup after it is used (ignored)", "file", f.backupAfter, "err", err)
			}
		}
		if c != nil {
			if err := c.Close(); err != nil {
				slog.Error("could not close the database (ignored)", "err", err)
			}
		}
	}
}

// GetDatabase opens the badger database in the data directory or an
// in-memory database restored from a backup file.
func (f *DBFlags) GetDatabase(ctx context.Context) (db kv.Database, closer func(), status error) {
	defer func() {
		if status == nil && len(f.backupBefore) != 0 {
			if err := kvutil.BackupDB(ctx, db, f.backupBefore); err != nil {
				closer()
				db, closer, status = nil, nil, fmt.Errorf("could not take a db backup before it is used: %w", err)
			}
		}
	}()

	if len(f.fromBackup) != 0 {
		fp, err := os.Open(f.fromBackup)
		if err != nil {
			return nil, nil, fmt.Errorf("could not open file %q: %w", f.fromBackup, err)
		}
		defer fp.Close()

		mdb := kvmemdb.New()
		if err := Restore(ctx, bufio.NewReader(fp), mdb); err != nil {
			return nil, nil, fmt.Errorf("could not restore in-memory db from backup: %w", err)
		}
		return mdb, f.dbCloser(mdb, nil), nil
	}

	dataDir, err := f.DataDir()
	if err != nil {
		return nil, nil, err
	}

	isGoodKey := func(k string) bool {
		return path.IsAbs(k) && k == path.Clean(k)
	}

	bopts := badger.DefaultOptions(filepath.Join(dataDir, "db")).WithLogger(badgerLogger{})
	bdb, err := badger.Open(bopts)
	if err != nil {
		return nil, nil, fmt.Errorf("could not open the database: %w", err)
	}
	kdb := kvbadger.New(bdb, isGoodKey)
	return kdb, f.dbCloser(kdb, bdb), nil
}

// Restore replaces all keys in the database with the items from a backup.
func Restore(ctx context.Context, r io.Reader, db kv.Database) error {
	restore := func(ctx context.Context, rw kv.ReadWriter) error {
		it, err := rw.Scan(ctx)
		if err != nil {
			return fmt.Errorf("could not create scanning iterator: %w", err)
		}
		defer kv.Close(it)

		var keys []string
		for k, _, err := it.Fetch(ctx, false); err == nil; k, _, err = it.Fetch(ctx, true) {
			keys = append(keys, k)
		}
		if _, _, err := it.Fetch(ctx, false); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("iterator fetch has failed: %w", err)
		}
		for _, k := range keys {
			if err := rw.Delete(ctx, k); err != nil {
				return fmt.Errorf("could not delete key %q: %w", k, err)
			}
		}
		return kvutil.Import(ctx, r, rw)
	}

	if err := kv.WithReadWriter(ctx, db, restore); err != nil {
		return fmt.Errorf("could not run restore with a transaction: %w", err)
	}
	return nil
}

// badgerLogger routes badger's internal logs into slog so that they don't
// interfere with the terminal display.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...any) {
	slog.Error(fmt.Sprintf(format, args...), "component", "badger")
}

func (badgerLogger) Warningf(format string, args ...any) {
	slog.Warn(fmt.Sprintf(format, args...), "component", "badger")
}

func (badgerLogger) Infof(format string, args ...any) {
	slog.Debug(fmt.Sprintf(format, args...), "component", "badger")
}

func (badgerLogger) Debugf(format string, args ...any) {
	slog.Debug(fmt.Sprintf(format, args...), "component", "badger")
}
