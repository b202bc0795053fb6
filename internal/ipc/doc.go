// Package ipc exposes the daemon over JSON-RPC on a Unix socket and ships the
// matching client used by the CLI.
//
// The server depends only on the Controller interface, so the daemon package
// can start it without an import cycle. Each request gets a correlation id
// that is attached to the log lines it produces. Log tailing reads straight
// from the logging stream hub and never touches the event loop.
package ipc
