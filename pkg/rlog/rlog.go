// Package rlog is the thin logging wrapper used throughout the
// renderer, grounded on the log package's Logger interface but backed
// by github.com/op/go-logging directly rather than redefining its own
// level enum.
package rlog

import (
	"io"
	"os"

	"github.com/op/go-logging"
)

// Logger is the leveled logging interface every package that wants to
// report progress or diagnostics depends on.
type Logger interface {
	Debug(v ...interface{})
	Debugf(format string, v ...interface{})
	Info(v ...interface{})
	Infof(format string, v ...interface{})
	Notice(v ...interface{})
	Noticef(format string, v ...interface{})
	Warning(v ...interface{})
	Warningf(format string, v ...interface{})
	Error(v ...interface{})
	Errorf(format string, v ...interface{})
}

var format = logging.MustStringFormatter(
	`%{color}[%{time:15:04:05.000}] [%{module}] [%{level}]%{color:reset} %{message}`,
)

var leveledBackend logging.LeveledBackend

// New creates a named logger. Logging against a nil Logger panics;
// nopLogger below implements the interface as a no-op, so callers
// that were not handed a logger can pass Nop instead of branching on
// nil at every call site.
func New(name string) Logger {
	return logging.MustGetLogger(name)
}

// SetSink redirects every logger's output to w.
func SetSink(w io.Writer) {
	backend := logging.NewLogBackend(w, "", 0)
	formatted := logging.NewBackendFormatter(backend, format)
	leveledBackend = logging.AddModuleLevel(formatted)
	leveledBackend.SetLevel(logging.INFO, "")
	logging.SetBackend(leveledBackend)
}

// SetLevel sets the minimum severity that reaches the sink.
func SetLevel(level logging.Level) {
	leveledBackend.SetLevel(level, "")
}

// nopLogger discards everything; used as the ambient default when a
// caller has no logger of its own to thread through.
type nopLogger struct{}

func (nopLogger) Debug(v ...interface{})                 {}
func (nopLogger) Debugf(format string, v ...interface{}) {}
func (nopLogger) Info(v ...interface{})                  {}
func (nopLogger) Infof(format string, v ...interface{})  {}
func (nopLogger) Notice(v ...interface{})                {}
func (nopLogger) Noticef(format string, v ...interface{}) {}
func (nopLogger) Warning(v ...interface{})                {}
func (nopLogger) Warningf(format string, v ...interface{}) {}
func (nopLogger) Error(v ...interface{})                  {}
func (nopLogger) Errorf(format string, v ...interface{})  {}

// Nop is the ambient no-op sink.
var Nop Logger = nopLogger{}

func init() {
	SetSink(os.Stdout)
	SetLevel(logging.NOTICE)
}
