package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// ZerologLogger implements Logger interface using zerolog
type ZerologLogger struct {
	mu     sync.RWMutex
	logger zerolog.Logger
	level  Level
	fields Fields
	err    error
	closer io.Closer
}

// NewLoggerWithConfig creates a ZerologLogger appending JSON lines to config.FilePath
func NewLoggerWithConfig(config *LoggerConfig) (*ZerologLogger, error) {
	if dir := filepath.Dir(config.FilePath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
		}
	}

	file, err := os.OpenFile(config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file %s: %w", config.FilePath, err)
	}

	logger := newZerologLogger(file, config)
	logger.closer = file
	return logger, nil
}

// NewWriterLogger creates a ZerologLogger on an arbitrary writer; the caller owns w
func NewWriterLogger(w io.Writer, config *LoggerConfig) *ZerologLogger {
	if config == nil {
		config = DefaultConfig()
	}
	return newZerologLogger(w, config)
}

func newZerologLogger(w io.Writer, config *LoggerConfig) *ZerologLogger {
	// instance levels decide; keep the global floor at the lowest level
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack
	zerolog.TimeFieldFormat = time.RFC3339Nano

	logger := zerolog.New(w).With().
		Timestamp().
		Str("service", config.ServiceName).
		Str("logger", config.LoggerName).
		Logger().
		Level(levelToZerolog(config.Level))

	return &ZerologLogger{
		logger: logger,
		level:  config.Level,
		fields: make(Fields),
	}
}

// Close closes the log file, if the logger owns one
func (z *ZerologLogger) Close() error {
	z.mu.Lock()
	defer z.mu.Unlock()

	if z.closer != nil {
		err := z.closer.Close()
		z.closer = nil
		return err
	}
	return nil
}

func (z *ZerologLogger) SetLevel(level Level) {
	z.mu.Lock()
	defer z.mu.Unlock()
	z.level = level
	z.logger = z.logger.Level(levelToZerolog(level))
}

func (z *ZerologLogger) GetLevel() Level {
	z.mu.RLock()
	defer z.mu.RUnlock()
	return z.level
}

func (z *ZerologLogger) IsLevelEnabled(level Level) bool {
	z.mu.RLock()
	defer z.mu.RUnlock()
	return level >= z.level
}

func levelToZerolog(level Level) zerolog.Level {
	switch level {
	case DebugLevel:
		return zerolog.DebugLevel
	case InfoLevel:
		return zerolog.InfoLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// getEvent creates a zerolog event carrying the logger's fields and error
func (z *ZerologLogger) getEvent(level Level) *zerolog.Event {
	var event *zerolog.Event

	switch level {
	case DebugLevel:
		event = z.logger.Debug()
	case WarnLevel:
		event = z.logger.Warn()
	case ErrorLevel:
		event = z.logger.Error()
	default:
		event = z.logger.Info()
	}

	z.mu.RLock()
	for key, value := range z.fields {
		event = event.Interface(key, value)
	}
	if z.err != nil {
		event = event.Stack().Err(z.err)
	}
	z.mu.RUnlock()

	return event
}

func (z *ZerologLogger) emit(level Level, msg string) {
	if !z.IsLevelEnabled(level) {
		return
	}
	z.getEvent(level).Msg(msg)
}

func (z *ZerologLogger) Debug(msg string) { z.emit(DebugLevel, msg) }
func (z *ZerologLogger) Info(msg string)  { z.emit(InfoLevel, msg) }
func (z *ZerologLogger) Warn(msg string)  { z.emit(WarnLevel, msg) }
func (z *ZerologLogger) Error(msg string) { z.emit(ErrorLevel, msg) }

func (z *ZerologLogger) Debugf(format string, args ...interface{}) {
	z.emit(DebugLevel, fmt.Sprintf(format, args...))
}

func (z *ZerologLogger) Infof(format string, args ...interface{}) {
	z.emit(InfoLevel, fmt.Sprintf(format, args...))
}

func (z *ZerologLogger) Warnf(format string, args ...interface{}) {
	z.emit(WarnLevel, fmt.Sprintf(format, args...))
}

func (z *ZerologLogger) Errorf(format string, args ...interface{}) {
	z.emit(ErrorLevel, fmt.Sprintf(format, args...))
}

func (z *ZerologLogger) Debugw(msg string, keysAndValues ...interface{}) {
	z.WithFields(keysAndValuesToFields(keysAndValues...)).Debug(msg)
}

func (z *ZerologLogger) Infow(msg string, keysAndValues ...interface{}) {
	z.WithFields(keysAndValuesToFields(keysAndValues...)).Info(msg)
}

func (z *ZerologLogger) Warnw(msg string, keysAndValues ...interface{}) {
	z.WithFields(keysAndValuesToFields(keysAndValues...)).Warn(msg)
}

func (z *ZerologLogger) Errorw(msg string, keysAndValues ...interface{}) {
	z.WithFields(keysAndValuesToFields(keysAndValues...)).Error(msg)
}

func (z *ZerologLogger) WithFields(fields Fields) Logger {
	newLogger := z.clone()
	for k, v := range fields {
		newLogger.fields[k] = v
	}
	return newLogger
}

func (z *ZerologLogger) WithField(key string, value interface{}) Logger {
	return z.WithFields(Fields{key: value})
}

// WithError attaches err; errors built with github.com/pkg/errors log their stack
func (z *ZerologLogger) WithError(err error) Logger {
	if err == nil {
		return z
	}
	newLogger := z.clone()
	newLogger.err = err
	return newLogger
}

// clone copies the logger; the copy shares the writer but not the closer
func (z *ZerologLogger) clone() *ZerologLogger {
	z.mu.RLock()
	defer z.mu.RUnlock()

	newFields := make(Fields, len(z.fields))
	for k, v := range z.fields {
		newFields[k] = v
	}

	return &ZerologLogger{
		logger: z.logger,
		level:  z.level,
		fields: newFields,
		err:    z.err,
	}
}
