// Package logger provides structured JSON logging built on log/slog, with
// helpers for carrying a request- or session-scoped logger in a context.
package logger
