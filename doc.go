// Package wingman is the backend for the Wingman desktop app: it
// supervises one claude CLI process per conversation session, decodes
// the CLI's newline-delimited JSON output into typed events, and fans
// those events out to the UI layer.
//
// The module is organized into focused packages:
//
//   - claude: process supervision, stream decoding, and the session
//     registry (the concurrency core)
//   - claudecontract: flag and format constants for the claude binary
//   - event: outbound payload shapes and a best-effort event bus
//   - store: SQLite persistence for sessions, messages, and projects
//   - watcher: project-directory watching with debounce and change
//     attribution
//   - config: wingman.toml loading and per-project manifests
//
// cmd/wingmand wires the pieces into a runnable daemon.
package wingman
