package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Config contains all configuration parameters for the application.
// Precedence: defaults < yaml file (CONFIG_FILE) < environment.
type Config struct {
	Port           string        `envconfig:"PORT" yaml:"port"`
	BackendURL     string        `envconfig:"BACKEND_URL" yaml:"backend_url"`
	BackendToken   string        `envconfig:"BACKEND_TOKEN" yaml:"-"`
	RevealPath     string        `envconfig:"BACKEND_REVEAL_PATH" yaml:"reveal_path"`
	AttachPath     string        `envconfig:"BACKEND_ATTACH_PATH" yaml:"attach_path"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" yaml:"request_timeout"`
	SecretTTL      time.Duration `envconfig:"SECRET_TTL" yaml:"secret_ttl"`
	SessionTTL     time.Duration `envconfig:"SESSION_TTL" yaml:"session_ttl"`
	ChallengeSize  int           `envconfig:"CHALLENGE_SIZE" yaml:"challenge_size"`
	RevealInterval time.Duration `envconfig:"REVEAL_INTERVAL" yaml:"reveal_interval"`
	RevealBurst    int           `envconfig:"REVEAL_BURST" yaml:"reveal_burst"`
	LogLevel       string        `envconfig:"LOG_LEVEL" yaml:"log_level"`
	LogFile        string        `envconfig:"LOG_FILE" yaml:"log_file"`
}

// cfg is the global configuration instance
var cfg *Config

// Init loads configuration from the optional yaml file and the environment.
// An empty path falls back to $CONFIG_FILE; no file at all is fine.
func Init(path string) error {
	c, err := Load(path)
	if err != nil {
		return err
	}
	cfg = c
	return nil
}

// Load builds a Config without touching the global instance
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}

	c := &Config{}
	if path != "" {
		if err := loadFile(path, c); err != nil {
			return nil, err
		}
	}

	if err := envconfig.Process("", c); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func loadFile(path string, c *Config) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config %q: %w", path, err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(c); err != nil {
		return fmt.Errorf("decode config yaml %q: %w", path, err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 15 * time.Second
	}
	if c.SecretTTL == 0 {
		c.SecretTTL = 10 * time.Minute
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = 30 * time.Minute
	}
	if c.ChallengeSize == 0 {
		c.ChallengeSize = 3
	}
	if c.RevealInterval == 0 {
		c.RevealInterval = time.Minute
	}
	if c.RevealBurst == 0 {
		c.RevealBurst = 3
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate rejects values the flows cannot work with
func (c *Config) Validate() error {
	if c.ChallengeSize < 1 || c.ChallengeSize > 12 {
		return errors.New("CHALLENGE_SIZE must be between 1 and 12")
	}
	if c.RequestTimeout < 0 || c.SecretTTL < 0 || c.SessionTTL < 0 || c.RevealInterval < 0 {
		return errors.New("durations must not be negative")
	}
	if c.RevealBurst < 1 {
		return errors.New("REVEAL_BURST must be positive")
	}
	return nil
}

// Get returns the global configuration instance.
// Panics if Init() was not called.
func Get() *Config {
	if cfg == nil {
		panic("config not initialized, call Init() first")
	}
	return cfg
}

// GetPort returns port from configuration
func GetPort() string {
	return Get().Port
}

// GetBackendURL returns the backend base URL; empty means attach/reveal are unavailable
func GetBackendURL() string {
	return Get().BackendURL
}

// GetRequestTimeout returns the per-call timeout for backend requests
func GetRequestTimeout() time.Duration {
	return Get().RequestTimeout
}
