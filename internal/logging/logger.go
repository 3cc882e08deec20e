// Package logging builds the server's structured logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
)

// New creates the application logger.
// It writes to Stderr; Stdout carries the stdio JSON-RPC stream.
func New(verbose bool) *log.Logger {
	return NewWithWriter(os.Stderr, verbose)
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(w io.Writer, verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Level:           level,
		Prefix:          "sap-mcp",
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	})
}

// NewNop returns a logger that discards everything.
func NewNop() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}
