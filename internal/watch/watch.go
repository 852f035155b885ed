// Package watch reloads a workspace when its source file changes.
//
// The watcher listens on the file's directory rather than the file itself
// so editors that save by renaming a temporary file are still seen. Bursts
// of events are coalesced: the file is read once the debounce interval has
// passed without another event, and the rows are swapped into the store
// with a single LoadRows command.
package watch

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/matzehuels/flowlens/pkg/rows"
	"github.com/matzehuels/flowlens/pkg/state"
)

// DefaultDebounce is the quiet period before a reload.
const DefaultDebounce = 500 * time.Millisecond

// Loader reads the dataset at path.
type Loader func(ctx context.Context, path string) (rows.Dataset, error)

// Options configures a [Watcher].
type Options struct {
	// Debounce is the quiet period before a reload. Zero means
	// [DefaultDebounce].
	Debounce time.Duration
	// Load reads the file. Nil means [rows.ReadFile].
	Load Loader
	// OnReload is called after every reload attempt with the new state or
	// the error. The store keeps its previous state on error.
	OnReload func(*state.State, error)
	Logger   *log.Logger
}

// Watcher feeds file changes into a store.
type Watcher struct {
	path  string
	store *state.Store
	opts  Options
}

// New creates a watcher for path. Run starts it.
func New(path string, store *state.Store, opts Options) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Load == nil {
		opts.Load = func(_ context.Context, path string) (rows.Dataset, error) {
			return rows.ReadFile(path)
		}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return &Watcher{path: path, store: store, opts: opts}
}

// Run watches until ctx is done and returns nil then. It returns an error
// only when the watch cannot be set up.
func (w *Watcher) Run(ctx context.Context) error {
	abs, err := filepath.Abs(w.path)
	if err != nil {
		return err
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	w.opts.Logger.Info("watching", "file", abs, "debounce", w.opts.Debounce)

	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs || !relevant(ev) {
				continue
			}
			w.opts.Logger.Debug("file event", "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.opts.Debounce)
			} else {
				timer.Reset(w.opts.Debounce)
			}
			fire = timer.C

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.opts.Logger.Warn("watch error", "error", err)

		case <-fire:
			fire = nil
			w.reload(ctx, abs)
		}
	}
}

func relevant(ev fsnotify.Event) bool {
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

func (w *Watcher) reload(ctx context.Context, path string) {
	start := time.Now()
	ds, err := w.opts.Load(ctx, path)
	if err != nil {
		w.opts.Logger.Warn("reload failed, keeping previous rows", "file", path, "error", err)
		w.notify(nil, err)
		return
	}
	next, err := w.store.LoadRows(ctx, ds)
	if err != nil {
		w.opts.Logger.Warn("reload rejected", "file", path, "error", err)
		w.notify(nil, err)
		return
	}
	w.opts.Logger.Info("reloaded", "rows", ds.Len(),
		"edges", len(next.Graph().Edges()), "duration", time.Since(start))
	w.notify(next, nil)
}

func (w *Watcher) notify(s *state.State, err error) {
	if w.opts.OnReload != nil {
		w.opts.OnReload(s, err)
	}
}
