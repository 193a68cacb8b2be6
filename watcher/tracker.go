package watcher

import (
	"path/filepath"
	"sync"
	"time"
)

// tracker remembers which paths the CLI recently wrote so the watch
// loop can attribute change events to claude rather than an external
// editor.
type tracker struct {
	window time.Duration

	mu      sync.Mutex
	touched map[string]time.Time
}

func newTracker(window time.Duration) *tracker {
	return &tracker{
		window:  window,
		touched: make(map[string]time.Time),
	}
}

func (t *tracker) mark(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.touched[filepath.Clean(path)] = time.Now()
}

// source returns SourceClaude when path was marked within the
// attribution window, SourceExternal otherwise. Expired marks are
// pruned as a side effect.
func (t *tracker) source(path string) string {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := time.Now()
	for p, at := range t.touched {
		if now.Sub(at) > t.window {
			delete(t.touched, p)
		}
	}

	if _, ok := t.touched[filepath.Clean(path)]; ok {
		return SourceClaude
	}
	return SourceExternal
}
