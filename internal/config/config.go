package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"smokegomodule/internal/types"
	"smokegomodule/shared/logging"
	"smokegomodule/shared/utils"

	"gopkg.in/yaml.v3"
)

// Account sources
const (
	AccountSourceConfig = "config"
	AccountSourceFile   = "file"
	AccountSourceMongo  = "mongo"
)

// Message bus types
const (
	BusTypeKafka = "kafka"
	BusTypeLocal = "local"
)

const (
	DefaultBaseURL         = "https://drouple-hpci-prod.vercel.app"
	DefaultLoginPath       = "/auth/login"
	DefaultCredentialsPath = "/api/auth/callback/credentials"
	DefaultSignoutPath     = "/api/auth/signout"
	DefaultOutputFile      = "auth_test_results.json"
	DefaultPacingDelay     = 1 * time.Second
	DefaultRequestTimeout  = 30 * time.Second
)

// Config holds the smoke runner configuration
type Config struct {
	Target   TargetConfig   `yaml:"target"`
	Run      RunConfig      `yaml:"run"`
	Accounts AccountsConfig `yaml:"accounts"`
	Logging  LoggingConfig  `yaml:"logging"`
	Publish  PublishConfig  `yaml:"publish"`
}

// TargetConfig describes the application under test
type TargetConfig struct {
	BaseURL         string        `yaml:"baseUrl"`
	LoginPath       string        `yaml:"loginPath"`
	CredentialsPath string        `yaml:"credentialsPath"`
	SignoutPath     string        `yaml:"signoutPath"`
	RequestTimeout  time.Duration `yaml:"requestTimeout"` // 0 disables the per-request timeout
}

// RunConfig controls pacing and outputs
type RunConfig struct {
	PacingDelay    time.Duration `yaml:"pacingDelay"`
	OutputFile     string        `yaml:"outputFile"`
	ReportFormats  []string      `yaml:"reportFormats"` // junit, markdown, html
	SendCSRFToken  bool          `yaml:"sendCsrfToken"`
	InspectSession *bool         `yaml:"inspectSession"`
}

// InspectSessionEnabled reports whether session cookies should be inspected (default on)
func (r RunConfig) InspectSessionEnabled() bool {
	return r.InspectSession == nil || *r.InspectSession
}

// AccountsConfig selects where accounts come from
type AccountsConfig struct {
	Source string              `yaml:"source"`
	File   string              `yaml:"file"`
	Mongo  MongoConfig         `yaml:"mongo"`
	List   []types.TestAccount `yaml:"list"`
}

// MongoConfig locates the accounts collection
type MongoConfig struct {
	URI        string `yaml:"uri"`
	Database   string `yaml:"database"`
	Collection string `yaml:"collection"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level       string `yaml:"level"`       // debug, info, warn, error
	FileName    string `yaml:"fileName"`    // Path to the log file
	LoggerName  string `yaml:"loggerName"`  // Name identifier for the logger
	ServiceName string `yaml:"serviceName"` // Service name for structured logging
}

// PublishConfig holds the optional result sinks
type PublishConfig struct {
	MessageBus MessageBusConfig `yaml:"messagebus"`
	OpenSearch OpenSearchConfig `yaml:"opensearch"`
	Postgres   PostgresConfig   `yaml:"postgres"`
}

// MessageBusConfig publishes one message per result
type MessageBusConfig struct {
	Enabled    bool   `yaml:"enabled"`
	Type       string `yaml:"type"`
	Topic      string `yaml:"topic"`
	ConfigFile string `yaml:"configFile"`
	LocalDir   string `yaml:"localDir"`
}

// OpenSearchConfig indexes results into OpenSearch
type OpenSearchConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url"`
	Index    string `yaml:"index"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// PostgresConfig stores results in a table
type PostgresConfig struct {
	Enabled bool   `yaml:"enabled"`
	DSN     string `yaml:"dsn"`
	Table   string `yaml:"table"`
}

// DefaultAccounts are the five accounts the smoke test has always covered
func DefaultAccounts() []types.TestAccount {
	return []types.TestAccount{
		{Email: "superadmin@test.com", Password: "password123", Role: "SUPER_ADMIN", ExpectedRedirect: "/super"},
		{Email: "admin.manila@test.com", Password: "password123", Role: "ADMIN", ExpectedRedirect: "/admin"},
		{Email: "leader.manila@test.com", Password: "password123", Role: "LEADER", ExpectedRedirect: "/dashboard"},
		{Email: "member1@test.com", Password: "password123", Role: "MEMBER", ExpectedRedirect: "/dashboard"},
		{Email: "vip.manila@test.com", Password: "password123", Role: "VIP", ExpectedRedirect: "/vip/firsttimers"},
	}
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		Target: TargetConfig{
			BaseURL:         DefaultBaseURL,
			LoginPath:       DefaultLoginPath,
			CredentialsPath: DefaultCredentialsPath,
			SignoutPath:     DefaultSignoutPath,
			RequestTimeout:  DefaultRequestTimeout,
		},
		Run: RunConfig{
			PacingDelay:   DefaultPacingDelay,
			OutputFile:    DefaultOutputFile,
			ReportFormats: []string{},
		},
		Accounts: AccountsConfig{
			Source: AccountSourceConfig,
			List:   DefaultAccounts(),
			Mongo: MongoConfig{
				Database:   "authsmoke",
				Collection: "test_accounts",
			},
		},
		Logging: LoggingConfig{
			Level:       "info",
			FileName:    "authsmoke.log",
			LoggerName:  "runner",
			ServiceName: "authsmoke",
		},
		Publish: PublishConfig{
			MessageBus: MessageBusConfig{
				Type:     BusTypeLocal,
				Topic:    "authsmoke-results",
				LocalDir: "/tmp/authsmoke-messagebus",
			},
			OpenSearch: OpenSearchConfig{
				URL:   "http://localhost:9200",
				Index: "authsmoke-results",
			},
			Postgres: PostgresConfig{
				Table: "auth_smoke_results",
			},
		},
	}
}

// LoadConfig loads configuration from environment variables with defaults
func LoadConfig() *Config {
	cfg := Default()
	overrideWithEnvVars(cfg)
	return cfg
}

// LoadConfigFromFile loads a YAML file over the defaults, then applies env overrides
func LoadConfigFromFile(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", configPath, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing YAML config file %s: %w", configPath, err)
	}

	applyDefaults(cfg)
	overrideWithEnvVars(cfg)
	return cfg, nil
}

// LoadConfigWithDefaults loads the file when it exists, otherwise env and defaults.
// A file that exists but cannot be parsed is an error.
func LoadConfigWithDefaults(configPath string) (*Config, error) {
	if configPath != "" {
		cfg, err := LoadConfigFromFile(configPath)
		if err == nil {
			return cfg, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}
	return LoadConfig(), nil
}

// applyDefaults refills fields a YAML file explicitly blanked
func applyDefaults(cfg *Config) {
	if cfg.Target.BaseURL == "" {
		cfg.Target.BaseURL = DefaultBaseURL
	}
	if cfg.Target.LoginPath == "" {
		cfg.Target.LoginPath = DefaultLoginPath
	}
	if cfg.Target.CredentialsPath == "" {
		cfg.Target.CredentialsPath = DefaultCredentialsPath
	}
	if cfg.Target.SignoutPath == "" {
		cfg.Target.SignoutPath = DefaultSignoutPath
	}
	if cfg.Run.OutputFile == "" {
		cfg.Run.OutputFile = DefaultOutputFile
	}
	if cfg.Run.PacingDelay < 0 {
		cfg.Run.PacingDelay = 0
	}
	if cfg.Accounts.Source == "" {
		cfg.Accounts.Source = AccountSourceConfig
	}
}

func overrideWithEnvVars(cfg *Config) {
	overrideTargetConfig(&cfg.Target)
	overrideRunConfig(&cfg.Run)
	overrideAccountsConfig(&cfg.Accounts)
	overrideLoggingConfig(&cfg.Logging)
	overridePublishConfig(&cfg.Publish)
}

func overrideTargetConfig(target *TargetConfig) {
	if baseURL := utils.GetEnv("AUTHSMOKE_BASE_URL", ""); baseURL != "" {
		target.BaseURL = baseURL
	}
	target.RequestTimeout = utils.GetEnvMillis("AUTHSMOKE_REQUEST_TIMEOUT_MS", target.RequestTimeout)
}

func overrideRunConfig(run *RunConfig) {
	run.PacingDelay = utils.GetEnvMillis("AUTHSMOKE_PACING_MS", run.PacingDelay)
	if outputFile := utils.GetEnv("AUTHSMOKE_OUTPUT_FILE", ""); outputFile != "" {
		run.OutputFile = outputFile
	}
	if formats := utils.GetEnv("AUTHSMOKE_REPORT_FORMATS", ""); formats != "" {
		run.ReportFormats = utils.SplitList(formats)
	}
	run.SendCSRFToken = utils.GetEnvBool("AUTHSMOKE_SEND_CSRF", run.SendCSRFToken)
}

func overrideAccountsConfig(accounts *AccountsConfig) {
	if source := utils.GetEnv("AUTHSMOKE_ACCOUNTS_SOURCE", ""); source != "" {
		accounts.Source = source
	}
	if file := utils.GetEnv("AUTHSMOKE_ACCOUNTS_FILE", ""); file != "" {
		accounts.File = file
	}
	if uri := utils.GetEnv("AUTHSMOKE_MONGO_URI", ""); uri != "" {
		accounts.Mongo.URI = uri
	}
}

func overrideLoggingConfig(logging *LoggingConfig) {
	if level := utils.GetEnv("LOG_LEVEL", ""); level != "" {
		logging.Level = level
	}
	if fileName := utils.GetEnv("LOG_FILE_NAME", ""); fileName != "" {
		logging.FileName = fileName
	}
	if loggerName := utils.GetEnv("LOG_LOGGER_NAME", ""); loggerName != "" {
		logging.LoggerName = loggerName
	}
	if serviceName := utils.GetEnv("LOG_SERVICE_NAME", ""); serviceName != "" {
		logging.ServiceName = serviceName
	}
}

func overridePublishConfig(publish *PublishConfig) {
	if topic := utils.GetEnv("KAFKA_TOPIC", ""); topic != "" {
		publish.MessageBus.Topic = topic
	}
	if osURL := utils.GetEnv("OPENSEARCH_URL", ""); osURL != "" {
		publish.OpenSearch.URL = osURL
	}
	if dsn := utils.GetEnv("AUTHSMOKE_PG_DSN", ""); dsn != "" {
		publish.Postgres.DSN = dsn
	}
}

// Validate checks the settings the runner cannot work without
func (c *Config) Validate() error {
	u, err := url.Parse(c.Target.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("target.baseUrl %q is not an absolute URL", c.Target.BaseURL)
	}

	switch c.Accounts.Source {
	case AccountSourceConfig:
		if len(c.Accounts.List) == 0 {
			return fmt.Errorf("accounts.list is empty")
		}
	case AccountSourceFile:
		if c.Accounts.File == "" {
			return fmt.Errorf("accounts.file is required for source %q", AccountSourceFile)
		}
	case AccountSourceMongo:
		if c.Accounts.Mongo.URI == "" {
			return fmt.Errorf("accounts.mongo.uri is required for source %q", AccountSourceMongo)
		}
	default:
		return fmt.Errorf("unsupported accounts.source %q", c.Accounts.Source)
	}

	for _, format := range c.Run.ReportFormats {
		switch format {
		case "junit", "markdown", "html":
		default:
			return fmt.Errorf("unsupported report format %q", format)
		}
	}

	if mb := c.Publish.MessageBus; mb.Enabled && mb.Type != BusTypeKafka && mb.Type != BusTypeLocal {
		return fmt.Errorf("unsupported publish.messagebus.type %q", mb.Type)
	}
	if c.Publish.Postgres.Enabled && c.Publish.Postgres.DSN == "" {
		return fmt.Errorf("publish.postgres.dsn is required when postgres publishing is enabled")
	}
	return nil
}

// ConvertToLoggerConfig converts LoggingConfig to logging.LoggerConfig
func (cfg LoggingConfig) ConvertToLoggerConfig() logging.LoggerConfig {
	return logging.LoggerConfig{
		Level:       logging.ParseLevel(cfg.Level),
		FilePath:    utils.ResolveLogFilePath(cfg.FileName),
		LoggerName:  cfg.LoggerName,
		ServiceName: cfg.ServiceName,
	}
}
