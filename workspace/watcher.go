package workspace

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/HelixDB/hls/config"
)

// Watcher keeps a Workspace synchronized with the files on disk under a
// root directory. Filesystem events are debounced, so a burst of editor
// writes produces one refresh.
type Watcher struct {
	workspace *Workspace
	root      string
	cfg       *config.Config
	logger    *slog.Logger

	fsw *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]fsnotify.Op

	refreshed chan []string
	done      chan struct{}
}

// NewWatcher creates a watcher for root. Call Start to begin watching.
func NewWatcher(ws *Workspace, root string, cfg *config.Config, logger *slog.Logger) (*Watcher, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		workspace: ws,
		root:      root,
		cfg:       cfg,
		logger:    logger,
		fsw:       fsw,
		pending:   make(map[string]fsnotify.Op),
		refreshed: make(chan []string, 16),
		done:      make(chan struct{}),
	}, nil
}

// Refreshed delivers the set of changed document paths after each
// debounced refresh.
func (w *Watcher) Refreshed() <-chan []string {
	return w.refreshed
}

// Start registers watches on root and its subdirectories and processes
// events until ctx is canceled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.addWatchesRecursive(w.root); err != nil {
		w.fsw.Close()
		return err
	}
	go w.processEvents(ctx)
	w.logger.Info("watching for changes", slog.String("root", w.root))
	return nil
}

// Stop ends watching and closes the Refreshed channel.
func (w *Watcher) Stop() {
	close(w.done)
	w.fsw.Close()
}

func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		name := d.Name()
		if name == ".git" || name == "node_modules" {
			return filepath.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.logger.Warn("failed to watch directory", slog.String("path", path), slog.String("error", err.Error()))
		}
		return nil
	})
}

func (w *Watcher) processEvents(ctx context.Context) {
	debounce := w.cfg.Watch.Debounce
	if debounce <= 0 {
		debounce = 50 * time.Millisecond
	}
	timer := time.NewTimer(debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()
	defer close(w.refreshed)

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
			timer.Reset(debounce)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", slog.String("error", err.Error()))
		case <-timer.C:
			changed := w.flushPending()
			if len(changed) == 0 {
				continue
			}
			select {
			case w.refreshed <- changed:
			case <-ctx.Done():
				return
			case <-w.done:
				return
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op.Has(fsnotify.Create) {
		// new directories need their own watch
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addWatchesRecursive(event.Name); err != nil {
				w.logger.Warn("failed to watch new directory", slog.String("path", event.Name), slog.String("error", err.Error()))
			}
			return
		}
	}
	ok, err := MatchesConfig(w.root, event.Name, w.cfg)
	if err != nil || !ok {
		return
	}
	w.mu.Lock()
	w.pending[event.Name] |= event.Op
	w.mu.Unlock()
}

// flushPending applies the accumulated events to the workspace and
// returns the paths that changed.
func (w *Watcher) flushPending() []string {
	w.mu.Lock()
	pending := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.mu.Unlock()

	var changed []string
	for path, op := range pending {
		if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
			if _, err := os.Stat(path); err != nil {
				w.workspace.CloseDocument(path)
				changed = append(changed, path)
				continue
			}
		}
		data, err := os.ReadFile(path)
		if err != nil {
			w.logger.Warn("failed to read changed file", slog.String("path", path), slog.String("error", err.Error()))
			continue
		}
		w.workspace.SetDocument(path, string(data))
		changed = append(changed, path)
	}
	return changed
}
