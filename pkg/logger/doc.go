// Package logger builds the structured slog loggers used across the daemon:
// JSON in production, text elsewhere, always tagged with the environment.
// For scopes a logger to one component, and Discard is handed to code that
// must log but whose output a caller does not want.
package logger
