// Package logging centraliza o logger do serviço.
package logging

import (
	"strings"

	"github.com/mborders/logmatic"
)

var l = newLogger(logmatic.INFO)

func newLogger(level logmatic.LogLevel) *logmatic.Logger {
	lg := logmatic.NewLogger()
	lg.SetLevel(level)
	lg.ExitOnFatal = true
	return lg
}

// SetLevel ajusta o nível a partir do texto da configuração (trace, debug, info, warn, error).
func SetLevel(level string) {
	l = newLogger(ParseLevel(level))
}

func ParseLevel(level string) logmatic.LogLevel {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return logmatic.TRACE
	case "debug":
		return logmatic.DEBUG
	case "warn", "warning":
		return logmatic.WARN
	case "error":
		return logmatic.ERROR
	default:
		return logmatic.INFO
	}
}

func Trace(format string, a ...interface{}) { l.Trace(format, a...) }
func Debug(format string, a ...interface{}) { l.Debug(format, a...) }
func Info(format string, a ...interface{})  { l.Info(format, a...) }
func Warn(format string, a ...interface{})  { l.Warn(format, a...) }
func Error(format string, a ...interface{}) { l.Error(format, a...) }
func Fatal(format string, a ...interface{}) { l.Fatal(format, a...) }
