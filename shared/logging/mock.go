package logging

import (
	"fmt"
	"strings"
	"sync"
)

// MockLogger implements the Logger interface for testing purposes.
// Loggers derived with WithField/WithFields/WithError record into the same entry
// list as their parent.
type MockLogger struct {
	level  Level
	fields Fields
	err    error
	sink   *entrySink
}

type entrySink struct {
	mu      sync.RWMutex
	entries []LogEntry
}

// LogEntry represents a captured log entry for testing verification
type LogEntry struct {
	Level   Level
	Message string
	Fields  Fields
	Error   error
}

// NewMockLogger creates a new mock logger for testing
func NewMockLogger() *MockLogger {
	return &MockLogger{
		level:  DebugLevel,
		fields: make(Fields),
		sink:   &entrySink{},
	}
}

func (m *MockLogger) SetLevel(level Level) { m.level = level }

func (m *MockLogger) GetLevel() Level { return m.level }

func (m *MockLogger) IsLevelEnabled(level Level) bool { return level >= m.level }

func (m *MockLogger) log(level Level, msg string, extra Fields) {
	if !m.IsLevelEnabled(level) {
		return
	}
	fields := make(Fields, len(m.fields)+len(extra))
	for k, v := range m.fields {
		fields[k] = v
	}
	for k, v := range extra {
		fields[k] = v
	}

	m.sink.mu.Lock()
	m.sink.entries = append(m.sink.entries, LogEntry{Level: level, Message: msg, Fields: fields, Error: m.err})
	m.sink.mu.Unlock()
}

func (m *MockLogger) Debug(msg string) { m.log(DebugLevel, msg, nil) }
func (m *MockLogger) Info(msg string)  { m.log(InfoLevel, msg, nil) }
func (m *MockLogger) Warn(msg string)  { m.log(WarnLevel, msg, nil) }
func (m *MockLogger) Error(msg string) { m.log(ErrorLevel, msg, nil) }

func (m *MockLogger) Debugf(format string, args ...interface{}) {
	m.log(DebugLevel, fmt.Sprintf(format, args...), nil)
}

func (m *MockLogger) Infof(format string, args ...interface{}) {
	m.log(InfoLevel, fmt.Sprintf(format, args...), nil)
}

func (m *MockLogger) Warnf(format string, args ...interface{}) {
	m.log(WarnLevel, fmt.Sprintf(format, args...), nil)
}

func (m *MockLogger) Errorf(format string, args ...interface{}) {
	m.log(ErrorLevel, fmt.Sprintf(format, args...), nil)
}

func (m *MockLogger) Debugw(msg string, keysAndValues ...interface{}) {
	m.log(DebugLevel, msg, keysAndValuesToFields(keysAndValues...))
}

func (m *MockLogger) Infow(msg string, keysAndValues ...interface{}) {
	m.log(InfoLevel, msg, keysAndValuesToFields(keysAndValues...))
}

func (m *MockLogger) Warnw(msg string, keysAndValues ...interface{}) {
	m.log(WarnLevel, msg, keysAndValuesToFields(keysAndValues...))
}

func (m *MockLogger) Errorw(msg string, keysAndValues ...interface{}) {
	m.log(ErrorLevel, msg, keysAndValuesToFields(keysAndValues...))
}

func (m *MockLogger) WithFields(fields Fields) Logger {
	child := m.child()
	for k, v := range fields {
		child.fields[k] = v
	}
	return child
}

func (m *MockLogger) WithField(key string, value interface{}) Logger {
	return m.WithFields(Fields{key: value})
}

func (m *MockLogger) WithError(err error) Logger {
	child := m.child()
	child.err = err
	return child
}

func (m *MockLogger) child() *MockLogger {
	fields := make(Fields, len(m.fields))
	for k, v := range m.fields {
		fields[k] = v
	}
	return &MockLogger{level: m.level, fields: fields, err: m.err, sink: m.sink}
}

func (m *MockLogger) Close() error { return nil }

// Entries returns a copy of every captured entry
func (m *MockLogger) Entries() []LogEntry {
	m.sink.mu.RLock()
	defer m.sink.mu.RUnlock()
	out := make([]LogEntry, len(m.sink.entries))
	copy(out, m.sink.entries)
	return out
}

// EntriesAt returns the captured entries at the given level
func (m *MockLogger) EntriesAt(level Level) []LogEntry {
	var out []LogEntry
	for _, e := range m.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}

// HasMessage reports whether any captured message contains substr
func (m *MockLogger) HasMessage(substr string) bool {
	for _, e := range m.Entries() {
		if strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

// Reset drops all captured entries
func (m *MockLogger) Reset() {
	m.sink.mu.Lock()
	m.sink.entries = nil
	m.sink.mu.Unlock()
}
