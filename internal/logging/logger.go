package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
)

// Severity orders log messages; anything below a logger's minimum is dropped.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarn
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseSeverity maps a config string ("debug", "info", "warn", "error") to a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return SeverityDebug, nil
	case "", "info":
		return SeverityInfo, nil
	case "warn", "warning":
		return SeverityWarn, nil
	case "error":
		return SeverityError, nil
	}
	return SeverityInfo, fmt.Errorf("logging: unknown severity %q", s)
}

// Logger is a levelled wrapper around *log.Logger. Every service receives one
// by injection; the zero value and a nil pointer both write nowhere.
type Logger struct {
	out       *log.Logger
	min       Severity
	component string
}

// New wraps out. A nil out falls back to log.Default().
func New(out *log.Logger, min Severity) *Logger {
	if out == nil {
		out = log.Default()
	}
	return &Logger{out: out, min: min}
}

// NewWriter builds a Logger writing to w with the standard flags.
func NewWriter(w io.Writer, min Severity) *Logger {
	return New(log.New(w, "", log.LstdFlags), min)
}

// Default logs info and above to stderr.
func Default() *Logger {
	return New(log.New(os.Stderr, "", log.LstdFlags), SeverityInfo)
}

// Discard returns a logger that drops everything.
func Discard() *Logger {
	return New(log.New(io.Discard, "", 0), SeverityError+1)
}

// With returns a child logger tagged with a component name, e.g. "render".
func (l *Logger) With(component string) *Logger {
	if l == nil {
		return nil
	}
	child := *l
	if child.component != "" {
		child.component = child.component + "." + component
	} else {
		child.component = component
	}
	return &child
}

// Enabled reports whether messages at s would be written.
func (l *Logger) Enabled(s Severity) bool {
	return l != nil && l.out != nil && s >= l.min
}

func (l *Logger) Debugf(format string, args ...any) { l.logf(SeverityDebug, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.logf(SeverityInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.logf(SeverityWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.logf(SeverityError, format, args...) }

func (l *Logger) logf(s Severity, format string, args ...any) {
	if !l.Enabled(s) {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if l.component != "" {
		l.out.Printf("[%s] %s: %s", s, l.component, msg)
		return
	}
	l.out.Printf("[%s] %s", s, msg)
}
