// Package watcher reports batches of changed files under a directory
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// Op is the kind of change
type Op string

const (
	Create Op = "create"
	Update Op = "update"
	Delete Op = "delete"
)

// Event is a changed file
type Event struct {
	Op   Op
	Path string
}

// Debounce is how long the watcher waits for more changes before reporting
var Debounce = 100 * time.Millisecond

// skip hidden directories and dependencies
func skip(name string) bool {
	return name != "." && (strings.HasPrefix(name, ".") || name == "node_modules")
}

func watchDirs(w *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !de.IsDir() {
			return nil
		}
		if path != dir && skip(de.Name()) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}

// Watch dir until the context is canceled. Fn is called with each batch of
// changes. An error from fn stops the watcher.
func Watch(ctx context.Context, log zerolog.Logger, dir string, fn func(events []Event) error) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watcher: unable to create watcher: %w", err)
	}
	defer w.Close()
	if err := watchDirs(w, dir); err != nil {
		return fmt.Errorf("watcher: unable to watch %s: %w", dir, err)
	}
	debounce := time.NewTimer(Debounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	pending := map[string]Op{}
	var order []string
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			op, ok := translate(event.Op)
			if !ok {
				continue
			}
			if op == Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !skip(info.Name()) {
						if err := watchDirs(w, event.Name); err != nil {
							log.Warn().Err(err).Str("dir", event.Name).Msg("watcher: unable to watch directory")
						}
					}
					continue
				}
			}
			if _, seen := pending[event.Name]; !seen {
				order = append(order, event.Name)
			}
			pending[event.Name] = op
			debounce.Reset(Debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("watcher: error")
		case <-debounce.C:
			events := make([]Event, len(order))
			for i, path := range order {
				events[i] = Event{pending[path], path}
			}
			pending, order = map[string]Op{}, nil
			log.Debug().Int("events", len(events)).Msg("watcher: files changed")
			if err := fn(events); err != nil {
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			}
		}
	}
}

func translate(op fsnotify.Op) (Op, bool) {
	switch {
	case op.Has(fsnotify.Create):
		return Create, true
	case op.Has(fsnotify.Write):
		return Update, true
	case op.Has(fsnotify.Remove), op.Has(fsnotify.Rename):
		return Delete, true
	}
	return "", false
}
