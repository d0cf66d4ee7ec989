package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Option configures a logger.
type Option func(logger *logger)

func WithLevel(level Level) Option {
	return func(logger *logger) {
		logger.Logger.SetLevel(level.ToLogrusLevel())
	}
}

func WithOutput(output io.Writer) Option {
	return func(logger *logger) {
		logger.Logger.SetOutput(output)
	}
}

func WithFormatter(formatter logrus.Formatter) Option {
	return func(logger *logger) {
		logger.Logger.SetFormatter(formatter)
	}
}

// WithFormat selects one of the supported formats by name: "pretty" (default), "bare" or "json".
func WithFormat(name string) Option {
	switch name {
	case FormatJSON:
		return WithFormatter(&logrus.JSONFormatter{})
	case FormatBare:
		return WithFormatter(&logrus.TextFormatter{DisableTimestamp: true, DisableColors: true})
	default:
		return WithFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

const (
	FormatPretty = "pretty"
	FormatBare   = "bare"
	FormatJSON   = "json"
)
