package watcher

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galaxy-co-ai/wingman/event"
)

// recorder captures published events for assertions.
type recorder struct {
	mu     sync.Mutex
	events []event.FileChangedPayload
}

func (r *recorder) Publish(name string, payload any) {
	if name != event.FileChanged {
		return
	}
	p, ok := payload.(event.FileChangedPayload)
	if !ok {
		return
	}
	r.mu.Lock()
	r.events = append(r.events, p)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []event.FileChangedPayload {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]event.FileChangedPayload, len(r.events))
	copy(out, r.events)
	return out
}

func waitForEvents(t *testing.T, r *recorder, n int) []event.FileChangedPayload {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if got := r.snapshot(); len(got) >= n {
			return got
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d file change events, have %d", n, len(r.snapshot()))
	return nil
}

func newTestManager(t *testing.T, sink event.Sink, opts ...Option) *Manager {
	t.Helper()
	base := []Option{
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithDebounce(25 * time.Millisecond),
	}
	m := NewManager(sink, append(base, opts...)...)
	t.Cleanup(m.Close)
	return m
}

func TestWatchReportsCreatedFile(t *testing.T) {
	rec := &recorder{}
	m := newTestManager(t, rec)
	dir := t.TempDir()

	require.NoError(t, m.Watch("sess-1", dir))

	path := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	events := waitForEvents(t, rec, 1)
	got := events[0]
	assert.Equal(t, "sess-1", got.SessionID)
	assert.Equal(t, path, got.Path)
	assert.Equal(t, OpCreated, got.Operation)
	assert.Equal(t, SourceExternal, got.Source)
	assert.NotEmpty(t, got.Timestamp)
}

func TestWatchReportsModifiedFile(t *testing.T) {
	rec := &recorder{}
	m := newTestManager(t, rec)
	dir := t.TempDir()

	path := filepath.Join(dir, "main.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\n"), 0o644))

	require.NoError(t, m.Watch("sess-1", dir))
	require.NoError(t, os.WriteFile(path, []byte("package main\n\nfunc main() {}\n"), 0o644))

	events := waitForEvents(t, rec, 1)
	assert.Equal(t, OpModified, events[0].Operation)
	assert.Equal(t, path, events[0].Path)
}

func TestWatchReportsDeletedFile(t *testing.T) {
	rec := &recorder{}
	m := newTestManager(t, rec)
	dir := t.TempDir()

	path := filepath.Join(dir, "scratch.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	require.NoError(t, m.Watch("sess-1", dir))
	require.NoError(t, os.Remove(path))

	events := waitForEvents(t, rec, 1)
	assert.Equal(t, OpDeleted, events[0].Operation)
}

func TestClaudeWriteAttribution(t *testing.T) {
	rec := &recorder{}
	m := newTestManager(t, rec)
	dir := t.TempDir()

	path := filepath.Join(dir, "generated.go")
	require.NoError(t, os.WriteFile(path, []byte("package generated\n"), 0o644))

	require.NoError(t, m.Watch("sess-1", dir))
	m.MarkClaudeWrite("sess-1", path)
	require.NoError(t, os.WriteFile(path, []byte("package generated\n\n// updated\n"), 0o644))

	events := waitForEvents(t, rec, 1)
	assert.Equal(t, SourceClaude, events[0].Source)
}

func TestDebounceCoalescesRapidWrites(t *testing.T) {
	rec := &recorder{}
	m := newTestManager(t, rec)
	dir := t.TempDir()

	path := filepath.Join(dir, "burst.txt")
	require.NoError(t, m.Watch("sess-1", dir))

	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("draft"), 0o644))
		time.Sleep(2 * time.Millisecond)
	}

	events := waitForEvents(t, rec, 1)
	// Create-then-write within one debounce window reports a single
	// created change.
	require.Len(t, events, 1)
	assert.Equal(t, OpCreated, events[0].Operation)

	// Give any straggler flush a chance to land, then confirm no
	// duplicate arrived.
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, rec.snapshot(), 1)
}

func TestIgnoredDirectoriesProduceNoEvents(t *testing.T) {
	rec := &recorder{}
	m := newTestManager(t, rec)
	dir := t.TempDir()

	gitDir := filepath.Join(dir, ".git")
	require.NoError(t, os.Mkdir(gitDir, 0o755))
	require.NoError(t, m.Watch("sess-1", dir))

	require.NoError(t, os.WriteFile(filepath.Join(gitDir, "HEAD"), []byte("ref: refs/heads/main\n"), 0o644))

	time.Sleep(200 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
}

func TestIgnoredSwapFilesProduceNoEvents(t *testing.T) {
	rec := &recorder{}
	m := newTestManager(t, rec)
	dir := t.TempDir()

	require.NoError(t, m.Watch("sess-1", dir))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".main.go.swp"), []byte("vim"), 0o644))

	time.Sleep(200 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
}

func TestNewSubdirectoryIsWatched(t *testing.T) {
	rec := &recorder{}
	m := newTestManager(t, rec)
	dir := t.TempDir()

	require.NoError(t, m.Watch("sess-1", dir))

	sub := filepath.Join(dir, "pkg")
	require.NoError(t, os.Mkdir(sub, 0o755))
	// Let the watch pick up the new directory before writing into it.
	time.Sleep(150 * time.Millisecond)

	path := filepath.Join(sub, "pkg.go")
	require.NoError(t, os.WriteFile(path, []byte("package pkg\n"), 0o644))

	events := waitForEvents(t, rec, 1)
	assert.Equal(t, path, events[0].Path)
}

func TestUnwatchStopsEvents(t *testing.T) {
	rec := &recorder{}
	m := newTestManager(t, rec)
	dir := t.TempDir()

	require.NoError(t, m.Watch("sess-1", dir))
	m.Unwatch("sess-1")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "after.txt"), []byte("x"), 0o644))
	time.Sleep(200 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
}

func TestWatchIsIdempotent(t *testing.T) {
	rec := &recorder{}
	m := newTestManager(t, rec)
	dir := t.TempDir()

	require.NoError(t, m.Watch("sess-1", dir))
	require.NoError(t, m.Watch("sess-1", dir))

	path := filepath.Join(dir, "once.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	waitForEvents(t, rec, 1)
	time.Sleep(100 * time.Millisecond)
	assert.Len(t, rec.snapshot(), 1)
}

func TestTrackerWindowExpiry(t *testing.T) {
	tr := newTracker(30 * time.Millisecond)
	tr.mark("/tmp/file.go")

	assert.Equal(t, SourceClaude, tr.source("/tmp/file.go"))
	assert.Equal(t, SourceExternal, tr.source("/tmp/other.go"))

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, SourceExternal, tr.source("/tmp/file.go"))
}
