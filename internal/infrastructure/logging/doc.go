// Package logging provides structured logging for FieldFlow Core.
//
// It wraps Go's standard log/slog package to provide consistent,
// structured logging across the entire application.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Thread-safe for concurrent use
//
// # Security
//
// Never log secrets, tokens, passwords, or API keys. Request logging
// records tenant and user identifiers, never credentials.
package logging
