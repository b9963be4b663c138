package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testLoggerName  = "test-logger"
	testServiceName = "test-service"

	errFilenameRequired   = "filename is required"
	errLoggerNameRequired = "logger name is required"
	errServiceRequired    = "service name is required"
)

func TestLevelString(t *testing.T) {
	tests := []struct {
		level    Level
		expected string
	}{
		{DebugLevel, "DEBUG"},
		{InfoLevel, "INFO"},
		{WarnLevel, "WARN"},
		{ErrorLevel, "ERROR"},
		{Level(999), "UNKNOWN"},
		{Level(-1), "UNKNOWN"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.level.String(); got != tt.expected {
				t.Errorf("Level.String() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]Level{
		"debug":   DebugLevel,
		"INFO":    InfoLevel,
		" warn ":  WarnLevel,
		"warning": WarnLevel,
		"error":   ErrorLevel,
		"bogus":   InfoLevel,
		"":        InfoLevel,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLoggerConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  LoggerConfig
		wantErr bool
		errMsg  string
	}{
		{
			name:   "valid config",
			config: LoggerConfig{Level: InfoLevel, FilePath: "x.log", LoggerName: testLoggerName, ServiceName: testServiceName},
		},
		{
			name:    "missing filename",
			config:  LoggerConfig{Level: InfoLevel, LoggerName: testLoggerName, ServiceName: testServiceName},
			wantErr: true,
			errMsg:  errFilenameRequired,
		},
		{
			name:    "missing logger name",
			config:  LoggerConfig{Level: InfoLevel, FilePath: "x.log", ServiceName: testServiceName},
			wantErr: true,
			errMsg:  errLoggerNameRequired,
		},
		{
			name:    "missing service name",
			config:  LoggerConfig{Level: InfoLevel, FilePath: "x.log", LoggerName: testLoggerName},
			wantErr: true,
			errMsg:  errServiceRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.errMsg)
			}
		})
	}
}

func TestNewLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "smoke.log")

	logger, err := NewLogger(&LoggerConfig{
		Level:       InfoLevel,
		FilePath:    path,
		LoggerName:  testLoggerName,
		ServiceName: testServiceName,
	})
	require.NoError(t, err)

	logger.WithField("role", "ADMIN").Infow("login probed", "status", 200)
	logger.Debug("dropped at info level")
	require.NoError(t, logger.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "login probed", entry["message"])
	assert.Equal(t, "ADMIN", entry["role"])
	assert.Equal(t, float64(200), entry["status"])
	assert.Equal(t, testServiceName, entry["service"])
}

func TestNewLoggerRejectsInvalidConfig(t *testing.T) {
	_, err := NewLogger(&LoggerConfig{LoggerName: testLoggerName, ServiceName: testServiceName})
	require.Error(t, err)
	assert.Contains(t, err.Error(), errFilenameRequired)
}

func TestWithErrorLogsStack(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, &LoggerConfig{Level: DebugLevel, LoggerName: testLoggerName, ServiceName: testServiceName})

	logger.WithError(errors.New("connection refused")).Error("request failed")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "connection refused", entry["error"])
	assert.Contains(t, entry, "stack")
}

func TestSetLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, nil)

	assert.False(t, logger.IsLevelEnabled(DebugLevel))
	logger.SetLevel(DebugLevel)
	assert.Equal(t, DebugLevel, logger.GetLevel())

	logger.Debugf("probe %s", "/admin")
	assert.Contains(t, buf.String(), "probe /admin")
}

func TestWithFieldsDoesNotLeakIntoParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewWriterLogger(&buf, nil)
	_ = parent.WithField("email", "a@test.com")

	parent.Info("parent")
	assert.NotContains(t, buf.String(), "a@test.com")
}

func TestMockLoggerCapturesChildEntries(t *testing.T) {
	mock := NewMockLogger()
	child := mock.WithField("runId", "r1")

	child.Infow("account tested", "status", "PASS")
	child.WithError(errors.New("boom")).Errorf("publisher %s failed", "kafka")
	mock.SetLevel(WarnLevel)
	mock.Info("filtered")

	entries := mock.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "r1", entries[0].Fields["runId"])
	assert.Equal(t, "PASS", entries[0].Fields["status"])
	assert.EqualError(t, entries[1].Error, "boom")
	assert.Len(t, mock.EntriesAt(ErrorLevel), 1)
	assert.True(t, mock.HasMessage("kafka failed"))

	mock.Reset()
	assert.Empty(t, mock.Entries())
}
