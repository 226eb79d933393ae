// Package monitoring builds the loggers used across a sort.
package monitoring

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Log formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// LogConfig selects level, format and destination of a logger.
type LogConfig struct {
	Level  string
	Format string
	Out    io.Writer
}

// NewLogger builds a logger from cfg. Empty fields default to info level,
// text format and stderr.
func NewLogger(cfg LogConfig) (*logrus.Logger, error) {
	l := logrus.New()

	if cfg.Out == nil {
		cfg.Out = os.Stderr
	}
	l.SetOutput(cfg.Out)

	if cfg.Level == "" {
		cfg.Level = "info"
	}
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("monitoring: %w", err)
	}
	l.SetLevel(level)

	switch cfg.Format {
	case "", FormatText:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	case FormatJSON:
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		return nil, fmt.Errorf("monitoring: unknown log format %q", cfg.Format)
	}

	return l, nil
}

// Discard returns a logger that drops everything.
func Discard() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}

// Component tags every entry of l with the component name.
func Component(l logrus.FieldLogger, component string) logrus.FieldLogger {
	if l == nil {
		l = Discard()
	}
	return l.WithField("component", component)
}
