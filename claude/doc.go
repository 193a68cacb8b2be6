// Package claude supervises claude CLI processes for Wingman sessions.
//
// Each session binds one long-running CLI child. The Manager is the
// registry and public control surface (start, stop, send, cancel,
// status); a per-session goroutine owns the read side of the child's
// stdout for the life of the process, decoding the CLI's NDJSON stream
// into events and forwarding output, status, and error payloads to an
// event.Sink.
//
// The decoder is deliberately forgiving: unknown frame types are
// ignored and malformed lines are logged and skipped, so one bad line
// never kills a stream. Process teardown is guaranteed on every
// removal path - explicit Stop, end of stream, or a lost start race -
// so no child outlives its registry entry.
package claude
