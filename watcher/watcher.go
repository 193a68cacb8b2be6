// Package watcher watches session working directories for file
// changes, debounces the raw notifications, and attributes each change
// to the claude CLI or to an external editor before forwarding it to
// the event sink.
package watcher

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/galaxy-co-ai/wingman/event"
)

// File operations reported in FileChanged payloads.
const (
	OpCreated  = "created"
	OpModified = "modified"
	OpDeleted  = "deleted"
)

// Change sources.
const (
	SourceClaude   = "claude"
	SourceExternal = "external"
)

// Defaults.
const (
	// DefaultDebounce is the quiet period before pending changes are
	// flushed.
	DefaultDebounce = 100 * time.Millisecond

	// DefaultAttributionWindow is how long after a CLI write a change
	// to the same path is attributed to claude.
	DefaultAttributionWindow = 2 * time.Second
)

// DefaultIgnorePatterns are path components that never produce change
// events.
var DefaultIgnorePatterns = []string{
	".git",
	"node_modules",
	".next",
	"target",
	"dist",
	"build",
	".DS_Store",
	"Thumbs.db",
	"*.swp",
	"*.swo",
	"*~",
	".idea",
	".vscode",
	"__pycache__",
	".pytest_cache",
	"*.pyc",
	".cargo",
}

// Manager owns one directory watch per session.
//
// Manager is safe for concurrent use.
type Manager struct {
	sink     event.Sink
	logger   *slog.Logger
	debounce time.Duration
	window   time.Duration
	ignore   []string

	mu      sync.Mutex
	watches map[string]*watch
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the diagnostics logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithDebounce overrides the flush quiet period.
func WithDebounce(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.debounce = d
		}
	}
}

// WithAttributionWindow overrides the claude attribution window.
func WithAttributionWindow(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.window = d
		}
	}
}

// WithIgnorePatterns replaces the default ignore list.
func WithIgnorePatterns(patterns []string) Option {
	return func(m *Manager) {
		m.ignore = patterns
	}
}

// NewManager creates a watcher manager that forwards FileChanged
// payloads to sink. A nil sink discards them.
func NewManager(sink event.Sink, opts ...Option) *Manager {
	if sink == nil {
		sink = event.Discard
	}
	m := &Manager{
		sink:     sink,
		logger:   slog.Default(),
		debounce: DefaultDebounce,
		window:   DefaultAttributionWindow,
		ignore:   DefaultIgnorePatterns,
		watches:  make(map[string]*watch),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Watch begins watching root for the session. Idempotent: a session
// that is already watched keeps its existing watch.
func (m *Manager) Watch(sessionID, root string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.watches[sessionID]; ok {
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	w := &watch{
		sessionID: sessionID,
		root:      root,
		fw:        fw,
		sink:      m.sink,
		logger:    m.logger,
		debounce:  m.debounce,
		ignore:    m.ignore,
		tracker:   newTracker(m.window),
		pending:   make(map[string]string),
		done:      make(chan struct{}),
	}
	if err := w.addRecursive(root); err != nil {
		_ = fw.Close()
		return err
	}

	m.watches[sessionID] = w
	go w.run()

	m.logger.Info("watching session directory", "session_id", sessionID, "root", root)
	return nil
}

// Unwatch stops watching the session's directory. A no-op when the
// session is not watched.
func (m *Manager) Unwatch(sessionID string) {
	m.mu.Lock()
	w, ok := m.watches[sessionID]
	if ok {
		delete(m.watches, sessionID)
	}
	m.mu.Unlock()

	if ok {
		w.stop()
	}
}

// MarkClaudeWrite records that the CLI just touched path for the
// session, so the next change events for that path are attributed to
// claude instead of an external editor.
func (m *Manager) MarkClaudeWrite(sessionID, path string) {
	m.mu.Lock()
	w, ok := m.watches[sessionID]
	m.mu.Unlock()
	if ok {
		w.tracker.mark(path)
	}
}

// Close stops every watch.
func (m *Manager) Close() {
	m.mu.Lock()
	watches := make([]*watch, 0, len(m.watches))
	for _, w := range m.watches {
		watches = append(watches, w)
	}
	m.watches = make(map[string]*watch)
	m.mu.Unlock()

	for _, w := range watches {
		w.stop()
	}
}

// watch is one session's recursive directory watch.
type watch struct {
	sessionID string
	root      string
	fw        *fsnotify.Watcher
	sink      event.Sink
	logger    *slog.Logger
	debounce  time.Duration
	ignore    []string
	tracker   *tracker

	mu      sync.Mutex
	pending map[string]string // path -> operation
	timer   *time.Timer

	stopOnce sync.Once
	done     chan struct{}
}

func (w *watch) stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.fw.Close()
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
			w.timer = nil
		}
		w.mu.Unlock()
	})
}

// addRecursive registers root and every non-ignored subdirectory.
func (w *watch) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable subtree, skip
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.ignored(path) {
			return filepath.SkipDir
		}
		return w.fw.Add(path)
	})
}

func (w *watch) run() {
	for {
		select {
		case <-w.done:
			return

		case ev, ok := <-w.fw.Events:
			if !ok {
				return
			}
			w.handle(ev)

		case err, ok := <-w.fw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("file watch error", "session_id", w.sessionID, "error", err)
		}
	}
}

func (w *watch) handle(ev fsnotify.Event) {
	if w.ignored(ev.Name) {
		return
	}

	var op string
	switch {
	case ev.Has(fsnotify.Create):
		op = OpCreated
	case ev.Has(fsnotify.Write):
		op = OpModified
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		op = OpDeleted
	default:
		return // chmod and friends
	}

	if op == OpCreated {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			// New directory: start watching it, don't report it.
			if err := w.addRecursive(ev.Name); err != nil {
				w.logger.Warn("watch new directory", "path", ev.Name, "error", err)
			}
			return
		}
	}

	w.enqueue(ev.Name, op)
}

// enqueue records a pending change and (re)arms the debounce timer.
// Creation is sticky: a create followed by writes within the window
// still reports as created.
func (w *watch) enqueue(path, op string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	select {
	case <-w.done:
		return
	default:
	}

	// A write right after creation still reports as created.
	if existing, ok := w.pending[path]; !ok || existing != OpCreated || op != OpModified {
		w.pending[path] = op
	}

	if w.timer == nil {
		w.timer = time.AfterFunc(w.debounce, w.flush)
	} else {
		w.timer.Reset(w.debounce)
	}
}

// flush publishes all pending changes with their attribution.
func (w *watch) flush() {
	w.mu.Lock()
	pending := w.pending
	w.pending = make(map[string]string)
	w.timer = nil
	w.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	for path, op := range pending {
		w.sink.Publish(event.FileChanged, event.FileChangedPayload{
			SessionID: w.sessionID,
			Path:      path,
			Operation: op,
			Source:    w.tracker.source(path),
			Timestamp: now,
		})
	}
}

// ignored reports whether any path component matches the ignore list.
// Patterns containing glob metacharacters match against each
// component; plain patterns compare exactly.
func (w *watch) ignored(path string) bool {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		rel = path
	}
	for _, component := range splitPath(rel) {
		for _, pattern := range w.ignore {
			if ok, _ := filepath.Match(pattern, component); ok {
				return true
			}
		}
	}
	return false
}

func splitPath(path string) []string {
	return strings.Split(filepath.ToSlash(path), "/")
}
