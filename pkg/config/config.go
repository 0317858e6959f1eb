package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig represents server configuration
type ServerConfig struct {
	Address   string         `yaml:"address"`
	SharesDir string         `yaml:"shares_dir"`
	StaticDir string         `yaml:"static_dir"`
	Sessions  SessionsConfig `yaml:"sessions"`
	RateLimit RateConfig     `yaml:"rate_limit"`
	Logging   LoggingConfig  `yaml:"logging"`
}

// SessionsConfig represents session store and expiry settings
type SessionsConfig struct {
	Backend        string `yaml:"backend"` // sqlite | mysql
	DSN            string `yaml:"dsn"`     // file path for sqlite, DSN for mysql
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	SweepSeconds   int    `yaml:"sweep_seconds"`
	ScopeKey       string `yaml:"scope_key"` // HMAC key for the client scope payload
}

// RateConfig represents login rate limiting settings
type RateConfig struct {
	MaxAttempts   int `yaml:"max_attempts"`
	WindowSeconds int `yaml:"window_seconds"`
}

// LoggingConfig represents logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *ServerConfig {
	return &ServerConfig{
		Address:   ":8080",
		SharesDir: "./configs",
		StaticDir: "./static",
		Sessions: SessionsConfig{
			Backend:        "sqlite",
			DSN:            "./serve.db",
			TimeoutSeconds: 1800,
			SweepSeconds:   86400,
			ScopeKey:       "",
		},
		RateLimit: RateConfig{
			MaxAttempts:   5,
			WindowSeconds: 5,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from file and environment variables
func LoadConfig(configPath string) (*ServerConfig, error) {
	config := DefaultConfig()

	// Load from file if provided
	if configPath != "" {
		if err := loadFromFile(configPath, config); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	// Override with environment variables
	applyEnvOverrides(config)

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// loadFromFile loads configuration from a YAML file
func loadFromFile(path string, config *ServerConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return err
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides
func applyEnvOverrides(config *ServerConfig) {
	if addr := os.Getenv("SERVER_ADDR"); addr != "" {
		config.Address = addr
	}

	if dir := os.Getenv("CONFIG_FOLDER"); dir != "" {
		config.SharesDir = dir
	}

	if dir := os.Getenv("STATIC_FOLDER"); dir != "" {
		config.StaticDir = dir
	}

	if dsn := os.Getenv("DATABASE"); dsn != "" {
		config.Sessions.DSN = dsn
	}

	if backend := os.Getenv("DATABASE_BACKEND"); backend != "" {
		config.Sessions.Backend = backend
	}

	if expiry := os.Getenv("SESSION_EXPIRY"); expiry != "" {
		if val, err := strconv.Atoi(expiry); err == nil {
			config.Sessions.TimeoutSeconds = val
		}
	}

	if key := os.Getenv("SECRET_KEY"); key != "" {
		config.Sessions.ScopeKey = key
	}

	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		config.Logging.Level = logLevel
	}

	if logFormat := os.Getenv("LOG_FORMAT"); logFormat != "" {
		config.Logging.Format = logFormat
	}
}

// Validate validates the configuration
func (c *ServerConfig) Validate() error {
	if c.Address == "" {
		return fmt.Errorf("server address cannot be empty")
	}

	if c.SharesDir == "" {
		return fmt.Errorf("shares directory cannot be empty")
	}

	if c.StaticDir == "" {
		return fmt.Errorf("static directory cannot be empty")
	}

	switch c.Sessions.Backend {
	case "sqlite", "mysql":
	default:
		return fmt.Errorf("unsupported session backend: %s", c.Sessions.Backend)
	}

	if c.Sessions.TimeoutSeconds < 1 {
		return fmt.Errorf("session timeout must be at least 1 second")
	}

	if c.Sessions.SweepSeconds < 1 {
		return fmt.Errorf("sweep interval must be at least 1 second")
	}

	if !isValidLogLevel(c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}

	return nil
}

// isValidLogLevel checks if the log level is valid
func isValidLogLevel(level string) bool {
	valid := []string{"debug", "info", "warn", "error"}
	level = strings.ToLower(level)
	for _, v := range valid {
		if level == v {
			return true
		}
	}
	return false
}

// Window returns the rate limit window as a duration
func (r RateConfig) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

// SessionTimeout returns the session timeout as a duration
func (c *ServerConfig) SessionTimeout() time.Duration {
	return time.Duration(c.Sessions.TimeoutSeconds) * time.Second
}

// SweepInterval returns the session sweep interval as a duration
func (c *ServerConfig) SweepInterval() time.Duration {
	return time.Duration(c.Sessions.SweepSeconds) * time.Second
}

// String returns a string representation of the configuration (for logging)
func (c *ServerConfig) String() string {
	return fmt.Sprintf("Config{Address: %s, Shares: %s, Static: %s, DB: %s/%s, Timeout: %ds}",
		c.Address, c.SharesDir, c.StaticDir, c.Sessions.Backend, c.Sessions.DSN, c.Sessions.TimeoutSeconds)
}
