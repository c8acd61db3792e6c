package ingest

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the save directory tree and signals when a save may
// have changed. Signals coalesce: a pending signal is not duplicated.
type Watcher struct {
	watcher *fsnotify.Watcher
	root    string
	changed chan struct{}
	logger  *slog.Logger
}

// NewWatcher creates a watcher over root and every directory below it.
func NewWatcher(root string, logger *slog.Logger) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	w := &Watcher{
		watcher: fw,
		root:    filepath.Clean(root),
		changed: make(chan struct{}, 1),
		logger:  logger,
	}
	if err := w.addTree(w.root); err != nil {
		fw.Close()
		return nil, err
	}
	return w, nil
}

// addTree watches dir and its subdirectories. Session directories are
// created while the game runs, so new ones are added as they appear.
func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			w.logger.Error("failed to watch directory",
				"path", path,
				"error", err)
			return err
		}
		w.logger.Debug("watching directory", "path", path)
		return nil
	})
}

// Changed delivers one signal per burst of relevant events.
func (w *Watcher) Changed() <-chan struct{} {
	return w.changed
}

// Run forwards events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("save watcher error", "error", err)
		case <-ctx.Done():
			return nil
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			// A new directory may already hold saves.
			if err := w.addTree(event.Name); err == nil {
				w.signal()
			}
			return
		}
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	if !strings.EqualFold(filepath.Ext(event.Name), SaveExt) {
		return
	}
	w.logger.Debug("save changed",
		"file", event.Name,
		"op", event.Op.String())
	w.signal()
}

func (w *Watcher) signal() {
	select {
	case w.changed <- struct{}{}:
	default:
	}
}
