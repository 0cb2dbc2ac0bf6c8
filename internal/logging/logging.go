// Package logging wires the process-wide logrus logger.
package logging

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Config controls the logger's format and verbosity.
type Config struct {
	Level  string `long:"level" env:"LEVEL" default:"info" description:"log level: trace|debug|info|warn|error"`
	Format string `long:"format" env:"FORMAT" default:"json" description:"log format: json|text"`
}

// New builds the root logger. Callers derive component loggers from it with
// For, rather than calling the package-level logrus functions directly.
func New(cfg Config) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	logger.SetLevel(level)

	if cfg.Format == "text" {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger, nil
}

// For returns a component-scoped entry, the convention every package in this
// module uses instead of holding a bare *logrus.Logger.
func For(logger *logrus.Logger, component string) *logrus.Entry {
	return logger.WithField("component", component)
}
