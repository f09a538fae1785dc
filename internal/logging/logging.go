// Package logging wraps the standard library's log.Logger with the five
// named severities the CLI surface exposes (spec.md §6 --log-level), the
// way the teacher codebase logs directly through stdlib "log" rather than
// a structured logging library.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Level is a log severity, ordered from most to least urgent.
type Level int

const (
	Critical Level = iota
	Error
	Warning
	Info
	Debug
)

// ParseLevel accepts the CLI's --log-level values, case-insensitively.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "critical":
		return Critical, nil
	case "error":
		return Error, nil
	case "warning":
		return Warning, nil
	case "info":
		return Info, nil
	case "debug":
		return Debug, nil
	default:
		return 0, fmt.Errorf("logging: unknown level %q", s)
	}
}

func (l Level) String() string {
	switch l {
	case Critical:
		return "CRITICAL"
	case Error:
		return "ERROR"
	case Warning:
		return "WARNING"
	case Info:
		return "INFO"
	case Debug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// Logger filters and prefixes messages by severity over a single
// *log.Logger, matching the --log-name CLI option (spec.md §6).
type Logger struct {
	min Level
	std *log.Logger
}

// New builds a Logger writing to w, named per --log-name, filtering
// anything less urgent than min.
func New(w io.Writer, name string, min Level) *Logger {
	return &Logger{
		min: min,
		std: log.New(w, name+" ", log.LstdFlags),
	}
}

// Default builds a Logger writing to stderr.
func Default(name string, min Level) *Logger {
	return New(os.Stderr, name, min)
}

func (l *Logger) log(level Level, format string, args ...any) {
	if level > l.min {
		return
	}
	l.std.Printf("["+level.String()+"] "+format, args...)
}

func (l *Logger) Criticalf(format string, args ...any) { l.log(Critical, format, args...) }
func (l *Logger) Errorf(format string, args ...any)    { l.log(Error, format, args...) }
func (l *Logger) Warningf(format string, args ...any)  { l.log(Warning, format, args...) }
func (l *Logger) Infof(format string, args ...any)     { l.log(Info, format, args...) }
func (l *Logger) Debugf(format string, args ...any)    { l.log(Debug, format, args...) }
