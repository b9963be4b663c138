package utils

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// GetEnv gets an environment variable with a default value
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt gets an integer environment variable with a default value
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvBool gets a boolean environment variable with a default value
func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// GetEnvMillis reads a millisecond count, e.g. AUTHSMOKE_PACING_MS=1500
func GetEnvMillis(key string, defaultValue time.Duration) time.Duration {
	if ms := GetEnvInt(key, -1); ms >= 0 {
		return time.Duration(ms) * time.Millisecond
	}
	return defaultValue
}

// SplitList splits a comma-separated value, dropping empty entries
func SplitList(raw string) []string {
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// ResolveConfFilePath resolves a config file name against SERVICE_HOME/conf
func ResolveConfFilePath(configPath string) string {
	if configPath == "" || filepath.IsAbs(configPath) {
		return configPath
	}

	// a file that exists relative to the working directory wins
	if _, err := os.Stat(configPath); err == nil {
		return configPath
	}

	homeDir := os.Getenv("SERVICE_HOME")
	if homeDir == "" {
		homeDir = "."
	}
	return filepath.Join(homeDir, "conf", configPath)
}

// ResolveLogFilePath places a relative log file name under SERVICE_LOG_DIR when set
func ResolveLogFilePath(fileName string) string {
	logDir := os.Getenv("SERVICE_LOG_DIR")
	if logDir == "" || fileName == "" || filepath.IsAbs(fileName) {
		return fileName
	}
	return filepath.Join(logDir, fileName)
}

// LoadConfigMap reads a flat YAML file into a map; nil when missing or invalid
func LoadConfigMap(configPath string) map[string]any {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil
	}

	config := make(map[string]any)
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil
	}
	return config
}
