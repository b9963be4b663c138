package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"smokegomodule/shared/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const configFileName = "authsmoke.yaml"

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), configFileName)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg := LoadConfig()

	assert.Equal(t, DefaultBaseURL, cfg.Target.BaseURL)
	assert.Equal(t, "/auth/login", cfg.Target.LoginPath)
	assert.Equal(t, "/api/auth/callback/credentials", cfg.Target.CredentialsPath)
	assert.Equal(t, "/api/auth/signout", cfg.Target.SignoutPath)
	assert.Equal(t, time.Second, cfg.Run.PacingDelay)
	assert.Equal(t, "auth_test_results.json", cfg.Run.OutputFile)
	assert.True(t, cfg.Run.InspectSessionEnabled())
	assert.False(t, cfg.Run.SendCSRFToken)
	require.Len(t, cfg.Accounts.List, 5)
	assert.Equal(t, "superadmin@test.com", cfg.Accounts.List[0].Email)
	assert.Equal(t, "/vip/firsttimers", cfg.Accounts.List[4].ExpectedRedirect)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfigWithEnvVars(t *testing.T) {
	t.Setenv("AUTHSMOKE_BASE_URL", "http://staging.test")
	t.Setenv("AUTHSMOKE_PACING_MS", "0")
	t.Setenv("AUTHSMOKE_REQUEST_TIMEOUT_MS", "2500")
	t.Setenv("AUTHSMOKE_OUTPUT_FILE", "out.json")
	t.Setenv("AUTHSMOKE_REPORT_FORMATS", "junit,html")
	t.Setenv("LOG_LEVEL", "debug")

	cfg := LoadConfig()

	assert.Equal(t, "http://staging.test", cfg.Target.BaseURL)
	assert.Equal(t, time.Duration(0), cfg.Run.PacingDelay)
	assert.Equal(t, 2500*time.Millisecond, cfg.Target.RequestTimeout)
	assert.Equal(t, "out.json", cfg.Run.OutputFile)
	assert.Equal(t, []string{"junit", "html"}, cfg.Run.ReportFormats)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfigFromFileSuccess(t *testing.T) {
	path := writeConfig(t, `
target:
  baseUrl: "http://app.test:3000"
  requestTimeout: 5s
run:
  pacingDelay: 250ms
  inspectSession: false
  reportFormats: [markdown]
accounts:
  list:
    - email: one@test.com
      password: secret
      role: MEMBER
      expectedRedirect: /dashboard
logging:
  level: "debug"
`)

	cfg, err := LoadConfigFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, "http://app.test:3000", cfg.Target.BaseURL)
	assert.Equal(t, DefaultLoginPath, cfg.Target.LoginPath)
	assert.Equal(t, 5*time.Second, cfg.Target.RequestTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Run.PacingDelay)
	assert.False(t, cfg.Run.InspectSessionEnabled())
	assert.Equal(t, []string{"markdown"}, cfg.Run.ReportFormats)
	require.Len(t, cfg.Accounts.List, 1)
	assert.Equal(t, "secret", cfg.Accounts.List[0].Password)
	assert.Equal(t, AccountSourceConfig, cfg.Accounts.Source)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadConfigFromFileError(t *testing.T) {
	_, err := LoadConfigFromFile("/nonexistent/path/authsmoke.yaml")
	assert.Error(t, err)

	path := writeConfig(t, "target:\n  baseUrl: \"http://x\n  - nope\n")
	_, err = LoadConfigFromFile(path)
	assert.Error(t, err)
}

func TestLoadConfigWithDefaults(t *testing.T) {
	cfg, err := LoadConfigWithDefaults(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, cfg.Target.BaseURL)

	broken := writeConfig(t, "run: [not, a, map]\n")
	_, err = LoadConfigWithDefaults(broken)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"relative base url", func(c *Config) { c.Target.BaseURL = "/only/a/path" }, true},
		{"empty account list", func(c *Config) { c.Accounts.List = nil }, true},
		{"file source without file", func(c *Config) { c.Accounts.Source = AccountSourceFile }, true},
		{"mongo source without uri", func(c *Config) { c.Accounts.Source = AccountSourceMongo }, true},
		{"unknown source", func(c *Config) { c.Accounts.Source = "ldap" }, true},
		{"unknown report format", func(c *Config) { c.Run.ReportFormats = []string{"pdf"} }, true},
		{"unknown bus type", func(c *Config) {
			c.Publish.MessageBus.Enabled = true
			c.Publish.MessageBus.Type = "nats"
		}, true},
		{"postgres without dsn", func(c *Config) { c.Publish.Postgres.Enabled = true }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConvertToLoggerConfig(t *testing.T) {
	t.Setenv("SERVICE_LOG_DIR", "/var/log/authsmoke")

	lc := LoggingConfig{Level: "warn", FileName: "run.log", LoggerName: "runner", ServiceName: "authsmoke"}.ConvertToLoggerConfig()

	assert.Equal(t, logging.WarnLevel, lc.Level)
	assert.Equal(t, "/var/log/authsmoke/run.log", lc.FilePath)
	assert.Equal(t, "runner", lc.LoggerName)
}
