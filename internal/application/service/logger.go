// Package service holds the use cases served over HTTP next to the workflow
// engine: request queries, spreadsheet export, trip advice, and the Lark
// notifications and reminders.
package service

// Logger is the key/value logger the services write to
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}
