// Package reload keeps a compiled Database in sync with a pattern-set file.
//
// A Watcher loads the file once at start, then watches its directory and
// recompiles after every change. Scanners keep the Database they were built
// from; callers pick up a new set by calling Database again and building a new
// Scanner.
package reload

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/KromDaniel/regscan/patternset"
	"github.com/KromDaniel/regscan/pkg/regscan"
)

// DefaultDebounce is the quiet period after the last file event before a reload.
const DefaultDebounce = 100 * time.Millisecond

// ErrClosed is returned by ForceReload after Close.
var ErrClosed = errors.New("reload: watcher closed")

// Config configures a Watcher.
type Config struct {
	// Path is the pattern-set file.
	Path string
	// Options are passed to every compilation. Options.Logger also receives
	// reload events.
	Options regscan.Options
	// Debounce coalesces bursts of file events. Zero selects DefaultDebounce.
	Debounce time.Duration
	// OnReload, if set, is called after a new Database replaces the installed
	// one. The initial load in New does not call it.
	OnReload func(db *regscan.Database, meta Metadata)
}

// Metadata describes the installed Database and the reload history.
type Metadata struct {
	Name          string        `json:"name"`
	Version       string        `json:"version"`
	Mode          regscan.Mode  `json:"mode"`
	PatternCount  int           `json:"pattern_count"`
	LoadedAt      time.Time     `json:"loaded_at"`
	BuildDuration time.Duration `json:"build_duration"`
	ReloadCount   int           `json:"reload_count"`
	LastError     string        `json:"last_error,omitempty"`
}

// Watcher serves the latest successfully compiled Database for a file.
type Watcher struct {
	cfg  Config
	path string
	log  *slog.Logger

	db atomic.Pointer[regscan.Database]

	reloadMu sync.Mutex // serializes reloads

	mu       sync.RWMutex
	metadata Metadata

	fsw       *fsnotify.Watcher
	done      chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// New loads and compiles cfg.Path and starts watching it. It fails if the
// first load fails.
func New(cfg Config) (*Watcher, error) {
	if cfg.Path == "" {
		return nil, &regscan.ArgumentError{Arg: "Path", Msg: "path is required"}
	}
	if err := cfg.Options.Validate(); err != nil {
		return nil, err
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	path, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("reload: %w", err)
	}
	log := cfg.Options.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	w := &Watcher{
		cfg:  cfg,
		path: path,
		log:  log.With("component", "reload", "path", path),
		done: make(chan struct{}),
	}
	if err := w.reload(); err != nil {
		return nil, err
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("reload: watch: %w", err)
	}
	// Editors replace files by rename, so the directory is watched.
	if err := fsw.Add(filepath.Dir(path)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("reload: watch %s: %w", filepath.Dir(path), err)
	}
	w.fsw = fsw

	go w.watchLoop()
	return w, nil
}

// Database returns the current Database. It is never nil.
func (w *Watcher) Database() *regscan.Database {
	return w.db.Load()
}

// Metadata returns a snapshot of the reload state.
func (w *Watcher) Metadata() Metadata {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.metadata
}

// ForceReload reloads the file now. On failure the current Database stays
// installed and the error is also recorded in Metadata.
func (w *Watcher) ForceReload() error {
	if w.closed.Load() {
		return ErrClosed
	}
	return w.reload()
}

// Close stops watching. The last Database stays available.
func (w *Watcher) Close() error {
	w.closeOnce.Do(func() {
		w.closed.Store(true)
		w.closeErr = w.fsw.Close()
		<-w.done
	})
	return w.closeErr
}

// reload loads, compiles and installs the file unless its fingerprint matches
// the installed Database.
func (w *Watcher) reload() error {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()

	set, err := patternset.Load(w.path)
	if err != nil {
		return w.fail(err)
	}
	mode, patterns, err := set.Resolve()
	if err != nil {
		return w.fail(err)
	}

	version := regscan.Fingerprint(mode, patterns)
	if current := w.db.Load(); current != nil && current.Fingerprint() == version {
		w.log.Debug("pattern set unchanged", "version", version[:12])
		w.clearError()
		return nil
	}

	started := time.Now()
	db, err := regscan.CompileWithOptions(mode, patterns, w.cfg.Options)
	if err != nil {
		return w.fail(fmt.Errorf("reload: compile %q: %w", set.Name, err))
	}
	initial := w.db.Swap(db) == nil

	w.mu.Lock()
	w.metadata = Metadata{
		Name:          set.Name,
		Version:       version[:12],
		Mode:          mode,
		PatternCount:  db.Len(),
		LoadedAt:      started,
		BuildDuration: time.Since(started),
		ReloadCount:   w.metadata.ReloadCount + 1,
	}
	meta := w.metadata
	w.mu.Unlock()

	w.log.Info("pattern set loaded",
		"name", meta.Name,
		"version", meta.Version,
		"patterns", meta.PatternCount,
		"reloads", meta.ReloadCount)
	if w.cfg.OnReload != nil && !initial {
		w.cfg.OnReload(db, meta)
	}
	return nil
}

func (w *Watcher) fail(err error) error {
	w.mu.Lock()
	w.metadata.LastError = err.Error()
	w.mu.Unlock()
	w.log.Warn("pattern set reload failed", "error", err)
	return err
}

func (w *Watcher) clearError() {
	w.mu.Lock()
	w.metadata.LastError = ""
	w.mu.Unlock()
}

// watchLoop reloads after file events settle. Errors are kept in Metadata.
func (w *Watcher) watchLoop() {
	defer close(w.done)

	timer := time.NewTimer(w.cfg.Debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			timer.Reset(w.cfg.Debounce)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("file watch error", "error", err)
		case <-timer.C:
			if err := w.reload(); err != nil {
				w.log.Debug("keeping previous pattern set", "version", w.Metadata().Version)
			}
		}
	}
}

// relevant reports whether ev may have changed the watched file. Removal is
// ignored so the last good set keeps serving until the file comes back.
func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)
}
