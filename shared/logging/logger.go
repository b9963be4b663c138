package logging

import (
	"fmt"
	"strings"
)

// Level represents the logging level
type Level int

const (
	// DebugLevel carries per-request detail (status codes, redirect targets)
	DebugLevel Level = iota
	// InfoLevel is the default logging priority
	InfoLevel
	// WarnLevel marks degraded but recoverable conditions, e.g. a failed publisher
	WarnLevel
	// ErrorLevel marks conditions that end an account's test or the run
	ErrorLevel
)

// String returns the string representation of the log level
func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a config string to a Level, defaulting to InfoLevel
func ParseLevel(levelStr string) Level {
	switch strings.ToLower(strings.TrimSpace(levelStr)) {
	case "debug":
		return DebugLevel
	case "info":
		return InfoLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// Fields represents structured logging fields
type Fields map[string]interface{}

// Logger defines the interface for structured logging
type Logger interface {
	SetLevel(level Level)
	GetLevel() Level
	IsLevelEnabled(level Level) bool

	Debug(msg string)
	Info(msg string)
	Warn(msg string)
	Error(msg string)

	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})

	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	WithFields(fields Fields) Logger
	WithField(key string, value interface{}) Logger
	WithError(err error) Logger

	Close() error
}

func keysAndValuesToFields(keysAndValues ...interface{}) Fields {
	fields := make(Fields)
	for i := 0; i < len(keysAndValues); i += 2 {
		if i+1 < len(keysAndValues) {
			key := fmt.Sprintf("%v", keysAndValues[i])
			fields[key] = keysAndValues[i+1]
		}
	}
	return fields
}

// LoggerConfig holds configuration for creating loggers
type LoggerConfig struct {
	Level       Level  // Log level (Debug, Info, Warn, Error)
	FilePath    string // Complete path of the log file
	LoggerName  string // Name identifier for the logger instance
	ServiceName string // Service name for structured logging
}

// DefaultConfig returns the default logger configuration
func DefaultConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:       InfoLevel,
		FilePath:    "authsmoke.log",
		LoggerName:  "authsmoke",
		ServiceName: "authsmoke",
	}
}

// Validate validates the logger configuration. Console output is reserved for the
// run report, so a log file is mandatory.
func (c *LoggerConfig) Validate() error {
	if c.FilePath == "" {
		return fmt.Errorf("filename is required - stdout logging is not allowed")
	}
	if c.LoggerName == "" {
		return fmt.Errorf("logger name is required")
	}
	if c.ServiceName == "" {
		return fmt.Errorf("service name is required")
	}
	return nil
}

// NewLogger creates the default (zerolog) logger for the given configuration
func NewLogger(config *LoggerConfig) (Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid logger configuration: %w", err)
	}

	logger, err := NewLoggerWithConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return logger, nil
}
