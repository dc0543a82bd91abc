// Copyright (c) 2025 BVK Chaitanya

package cmdutil

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/visvasity/sglog"
)

type LogFlags struct {
	logDebug bool

	logDir string
}

func (f *LogFlags) SetFlags(fset *flag.FlagSet) {
	fset.BoolVar(&f.logDebug, "log-debug", false, "when true, debug messages are also logged")
	fset.StringVar(&f.logDir, "log-dir", "", "Path to the logs directory (default <data-dir>/logs)")
}

// SetupLogging installs an sglog backend as the default slog logger. Log
// messages are written to files because the terminal may be owned by the
// display.
func (f *LogFlags) SetupLogging(dataDir string) (closer func(), err error) {
	dir := f.logDir
	if len(dir) == 0 {
		dir = filepath.Join(dataDir, "logs")
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("could not create logs directory %q: %w", dir, err)
	}

	backend := sglog.NewBackend(&sglog.Options{
		Name:          "watchlist",
		LogDirs:       []string{dir},
		LogLinkDir:    dir,
		LogFileMode:   0600,
		LogFileHeader: true,
	})
	if f.logDebug {
		backend.SetLevel(slog.LevelDebug)
	}

	last := slog.Default()
	slog.SetDefault(slog.New(backend.Handler()))
	return func() {
		slog.SetDefault(last)
		backend.Close()
	}, nil
}
