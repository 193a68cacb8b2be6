// wingmand runs the Wingman backend: it supervises claude CLI
// sessions, persists conversation history, and watches session working
// directories for file changes.
//
// With --session and --dir it drives a single interactive session,
// reading prompts line by line from stdin.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/pflag"

	"github.com/galaxy-co-ai/wingman/claude"
	"github.com/galaxy-co-ai/wingman/config"
	"github.com/galaxy-co-ai/wingman/event"
	"github.com/galaxy-co-ai/wingman/store"
	"github.com/galaxy-co-ai/wingman/watcher"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "wingmand:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath = pflag.String("config", "", "path to TOML config file")
		dbPath     = pflag.String("db", "", "override database path")
		logLevel   = pflag.String("log-level", "", "debug, info, warn or error")
		sessionID  = pflag.String("session", "", "session id to drive from stdin")
		workDir    = pflag.String("dir", "", "working directory for --session")
	)
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *dbPath != "" {
		cfg.DatabasePath = *dbPath
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	db, err := store.Open(store.Config{Path: cfg.DatabasePath, Logger: logger})
	if err != nil {
		return err
	}
	defer db.Close()

	bus := event.NewBus(cfg.EventBuffer)

	mgr := claude.NewManager(bus,
		claude.WithClaudePath(cfg.ClaudePath),
		claude.WithLogger(logger),
	)

	watchOpts := []watcher.Option{
		watcher.WithLogger(logger),
		watcher.WithDebounce(cfg.Debounce()),
		watcher.WithAttributionWindow(cfg.AttributionWindow()),
	}
	if len(cfg.Watcher.IgnorePatterns) > 0 {
		watchOpts = append(watchOpts, watcher.WithIgnorePatterns(cfg.Watcher.IgnorePatterns))
	}
	watch := watcher.NewManager(bus, watchOpts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	consumeCtx, stopConsume := context.WithCancel(context.Background())
	defer stopConsume()
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		consume(consumeCtx, bus, db, logger)
	}()

	if *sessionID != "" {
		if err := runSession(ctx, db, mgr, watch, logger, *sessionID, *workDir); err != nil {
			logger.Error("session failed", "session_id", *sessionID, "error", err)
		}
	} else {
		logger.Info("wingmand ready", "database", cfg.DatabasePath)
		<-ctx.Done()
	}

	mgr.StopAll()
	watch.Close()
	// Stream loops emit their final status just after StopAll returns;
	// give them a moment before stopping the consumer.
	time.Sleep(200 * time.Millisecond)
	stopConsume()
	<-consumerDone
	return nil
}

// runSession starts one CLI session against dir and forwards stdin
// lines as prompts until EOF or a shutdown signal.
func runSession(ctx context.Context, db *store.Store, mgr *claude.Manager, watch *watcher.Manager, logger *slog.Logger, sessionID, dir string) error {
	if dir == "" {
		var err error
		if dir, err = os.Getwd(); err != nil {
			return err
		}
	}

	manifest, err := config.LoadManifest(dir)
	if err != nil {
		return err
	}

	if _, err := db.GetSession(ctx, sessionID); err != nil {
		sess := store.Session{
			ID:               sessionID,
			Title:            manifest.Name,
			WorkingDirectory: dir,
			CreatedAt:        time.Now(),
			UpdatedAt:        time.Now(),
		}
		if proj, err := db.FindProjectByRoot(ctx, dir); err == nil {
			sess.ProjectID = &proj.ID
		}
		if err := db.CreateSession(ctx, sess); err != nil {
			return err
		}
	}

	resume, err := resumeContext(ctx, db, sessionID)
	if err != nil {
		return err
	}

	if err := mgr.Start(sessionID, dir, resume); err != nil {
		return err
	}
	if err := watch.Watch(sessionID, dir); err != nil {
		logger.Warn("file watch unavailable", "session_id", sessionID, "error", err)
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			msg := store.Message{
				ID:        "msg-" + uuid.NewString(),
				SessionID: sessionID,
				Role:      store.RoleUser,
				Content:   line,
				CreatedAt: time.Now(),
			}
			if err := db.AppendMessage(ctx, msg); err != nil {
				logger.Error("persist user message", "session_id", sessionID, "error", err)
			}
			if err := mgr.SendMessage(sessionID, line); err != nil {
				return err
			}
		}
	}
}

// resumeContext formats recent history the way the CLI expects as a
// priming line, newest last. Empty when the session has no history.
func resumeContext(ctx context.Context, db *store.Store, sessionID string) (string, error) {
	msgs, err := db.Messages(ctx, sessionID)
	if err != nil || len(msgs) == 0 {
		return "", err
	}

	const maxResume = 20
	if len(msgs) > maxResume {
		msgs = msgs[len(msgs)-maxResume:]
	}

	var b strings.Builder
	b.WriteString("Previous conversation context: ")
	for i, m := range msgs {
		if i > 0 {
			b.WriteString(" | ")
		}
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(strings.ReplaceAll(m.Content, "\n", " "))
	}
	return b.String(), nil
}

// consume drains the bus: assistant output chunks are accumulated per
// message and persisted when complete, file changes become activity
// rows. Other events are logged at debug.
func consume(ctx context.Context, bus *event.Bus, db *store.Store, logger *slog.Logger) {
	partials := make(map[string]*strings.Builder) // messageID -> text so far

	for {
		var env event.Envelope
		select {
		case <-ctx.Done():
			return
		case env = <-bus.Events():
		}

		switch p := env.Payload.(type) {
		case event.OutputPayload:
			if p.Chunk != "" {
				b, ok := partials[p.MessageID]
				if !ok {
					b = &strings.Builder{}
					partials[p.MessageID] = b
				}
				b.WriteString(p.Chunk)
			}
			if !p.IsComplete {
				continue
			}
			content := ""
			if b, ok := partials[p.MessageID]; ok {
				content = b.String()
				delete(partials, p.MessageID)
			}
			if content == "" {
				continue
			}
			msg := store.Message{
				ID:        p.MessageID,
				SessionID: p.SessionID,
				Role:      store.RoleAssistant,
				Content:   content,
				CreatedAt: time.Now(),
			}
			if err := db.AppendMessage(ctx, msg); err != nil {
				logger.Error("persist assistant message",
					"session_id", p.SessionID, "message_id", p.MessageID, "error", err)
				continue
			}
			bus.Publish(event.SessionSaved, event.SessionSavedPayload{
				SessionID: p.SessionID,
				MessageID: p.MessageID,
			})

		case event.FileChangedPayload:
			at, err := time.Parse(time.RFC3339, p.Timestamp)
			if err != nil {
				at = time.Now()
			}
			a := store.Activity{
				ID:        uuid.NewString(),
				SessionID: p.SessionID,
				Path:      p.Path,
				Operation: p.Operation,
				Source:    p.Source,
				Timestamp: at,
			}
			if err := db.RecordActivity(ctx, a); err != nil {
				logger.Error("record activity", "session_id", p.SessionID, "error", err)
			}

		case event.StatusPayload:
			logger.Debug("session status", "session_id", p.SessionID, "status", p.Status)

		case event.ErrorPayload:
			logger.Warn("session error", "session_id", p.SessionID,
				"error", p.Error, "recoverable", p.Recoverable)
		}
	}
}
