// Package logging assembles the structured slog loggers and formatting
// helpers used across cardvault.
//
// It owns the configurable console/JSON handlers, centralizes level and
// output plumbing, and exposes a no-op logger for tests and wiring code that
// cannot fail. Prefer these constructors over hand-rolled slog setup so every
// component emits data with the same shape.
package logging
