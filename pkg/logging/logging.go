// Package logging provides the small leveled wrapper around the standard
// library logger that every component in this module takes by injection,
// instead of reaching for a global. The underlying *log.Logger and flag set
// (Ldate|Ltime|Lmicroseconds) match cmd/cashctl/main.go's own logger, in the
// style the teacher configures in cmd/bluetooth-service/main.go.
package logging

import (
	"log"
	"os"
)

// Logger is the leveled logging interface components depend on. A nil
// *Logger is valid and silently discards everything, matching the original
// driver's "register_log, else no-op" behavior.
type Logger struct {
	out *log.Logger
}

// New wraps an existing *log.Logger.
func New(out *log.Logger) *Logger {
	return &Logger{out: out}
}

// Default returns a Logger writing to stderr with date/time/microsecond
// flags, the module's standard configuration.
func Default() *Logger {
	return &Logger{out: log.New(os.Stderr, "", log.Ldate|log.Ltime|log.Lmicroseconds)}
}

func (l *Logger) log(level string, format string, args ...any) {
	if l == nil || l.out == nil {
		return
	}
	l.out.Printf(level+" "+format, args...)
}

func (l *Logger) Debugf(format string, args ...any) { l.log("[debug]", format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.log("[info]", format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.log("[warn]", format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.log("[error]", format, args...) }
