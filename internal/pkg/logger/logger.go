// Package logger adapts charmbracelet/log to the ports.Logger
// interface used across the application.
package logger

import (
	"os"

	charmlog "github.com/charmbracelet/log"

	"github.com/doeshing/cmdagent/internal/ports"
)

// CharmLogger implements ports.Logger on top of charmbracelet/log.
type CharmLogger struct {
	l *charmlog.Logger
}

// New creates a logger writing to stderr. Verbose enables debug level.
func New(verbose bool) *CharmLogger {
	level := charmlog.InfoLevel
	if verbose {
		level = charmlog.DebugLevel
	}
	l := charmlog.NewWithOptions(os.Stderr, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Level:           level,
	})
	return &CharmLogger{l: l}
}

// Discard returns a logger that drops everything, for tests.
func Discard() *CharmLogger {
	l := charmlog.New(os.Stderr)
	l.SetLevel(charmlog.FatalLevel + 1)
	return &CharmLogger{l: l}
}

func (c *CharmLogger) Debug(msg string, keyvals ...any) { c.l.Debug(msg, keyvals...) }
func (c *CharmLogger) Info(msg string, keyvals ...any)  { c.l.Info(msg, keyvals...) }
func (c *CharmLogger) Warn(msg string, keyvals ...any)  { c.l.Warn(msg, keyvals...) }
func (c *CharmLogger) Error(msg string, keyvals ...any) { c.l.Error(msg, keyvals...) }

var _ ports.Logger = (*CharmLogger)(nil)
