package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/oarkflow/log"

	"github.com/C0DECYCLE/PyTerpreter/pkg/diagnostics"
)

// watch runs run once and again whenever file changes, until ctx is done.
// The directory is watched rather than the file so that editors replacing the
// file by rename are still seen.
func watch(ctx context.Context, file string, debounce time.Duration, run func() int) int {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		fmt.Fprintln(os.Stderr, diagnostics.Fatal(err.Error()))
		return 1
	}
	defer w.Close()

	abs, err := filepath.Abs(file)
	if err != nil {
		fmt.Fprintln(os.Stderr, diagnostics.Fatal(err.Error()))
		return 1
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		fmt.Fprintln(os.Stderr, diagnostics.Fatal(err.Error()))
		return 1
	}

	logger := &log.DefaultLogger
	code := run()
	logger.Info().Str("file", file).Int("exit", code).Msg("waiting for changes")

	var lastChange time.Time
	for {
		select {
		case <-ctx.Done():
			return code

		case event, ok := <-w.Events:
			if !ok {
				return code
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if time.Since(lastChange) < debounce {
				continue
			}
			// Let the writer finish before reading.
			time.Sleep(debounce)
			lastChange = time.Now()

			logger.Info().Str("file", file).Msg("change detected, re-running")
			code = run()
			logger.Info().Str("file", file).Int("exit", code).Msg("waiting for changes")

		case err, ok := <-w.Errors:
			if !ok {
				return code
			}
			logger.Error().Err(err).Msg("watcher error")
		}
	}
}
