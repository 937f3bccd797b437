package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manager implements the ConfigManager interface
type Manager struct{}

// NewManager creates a new configuration manager
func NewManager() *Manager {
	return &Manager{}
}

// Load reads and parses the configuration file
func (m *Manager) Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}

	if err := m.Validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration values are valid
func (m *Manager) Validate(config *Config) error {
	if strings.TrimSpace(config.Server.Listen) == "" {
		return fmt.Errorf("server listen address cannot be empty")
	}

	if strings.TrimSpace(config.Authentication.Realm) == "" {
		return fmt.Errorf("authentication realm cannot be empty")
	}

	algo := strings.ToUpper(strings.TrimSpace(config.Authentication.Algorithm))
	switch algo {
	case "MD5", "SHA-256", "AUTO", "":
		// ok, "" defaults to AUTO at set-up time
	default:
		return fmt.Errorf("invalid digest algorithm: %s (must be MD5, SHA-256, or AUTO)", config.Authentication.Algorithm)
	}

	if config.Authentication.NonceNCSize < 0 {
		return fmt.Errorf("nonce_nc_size cannot be negative: %d", config.Authentication.NonceNCSize)
	}

	if config.Authentication.NonceTimeoutSeconds <= 0 {
		return fmt.Errorf("nonce_timeout_seconds too short: %d (must be positive)", config.Authentication.NonceTimeoutSeconds)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	logLevel := strings.ToLower(config.Logging.Level)
	if !validLogLevels[logLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.Logging.Level)
	}

	return nil
}

// GetDefaultConfig returns a configuration with default values
func GetDefaultConfig() *Config {
	cfg := &Config{}
	cfg.Server.Listen = ":8080"
	cfg.Authentication.Realm = "digestd.local"
	cfg.Authentication.Algorithm = "SHA-256"
	cfg.Authentication.NonceNCSize = 1024
	cfg.Authentication.NonceTimeoutSeconds = 300
	cfg.Logging.Level = "info"
	cfg.Logging.File = "./digestd.log"
	return cfg
}
