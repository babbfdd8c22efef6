// Package logging builds the application logger.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"nmwatch/config"
)

// New creates a logger for the given configuration. Every entry carries the
// service name and version.
func New(cfg config.LoggingConfig, version string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(output(cfg.Output))
	l.SetLevel(parseLevel(cfg.Level))

	switch strings.ToLower(cfg.Format) {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	l.AddHook(defaultFields{
		"service": "nmwatch",
		"version": version,
	})
	return l
}

// Component returns an entry scoped to one part of the program.
func Component(l *logrus.Logger, name string) *logrus.Entry {
	return l.WithField("component", name)
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func output(name string) io.Writer {
	switch strings.ToLower(name) {
	case "stdout":
		return os.Stdout
	default:
		return os.Stderr
	}
}

// parseLevel defaults to info when the level is not recognised.
func parseLevel(level string) logrus.Level {
	switch strings.ToLower(level) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// defaultFields adds fixed fields to every entry without overriding fields
// the caller already set.
type defaultFields logrus.Fields

func (defaultFields) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (f defaultFields) Fire(e *logrus.Entry) error {
	for k, v := range f {
		if _, ok := e.Data[k]; !ok {
			e.Data[k] = v
		}
	}
	return nil
}
