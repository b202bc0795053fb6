// Package logging assembles structured slog loggers and formatting helpers
// used across the jukebox.
//
// It owns the console and JSON handlers, the daily log file and its retention,
// session id tagging, and an in-memory stream hub the control socket serves to the CLI.
// Attribute helpers and the Field constants keep records from different
// components in the same shape; WarnWithContext and ErrorWithContext enforce
// an event type and an operator hint on every problem report.
package logging
