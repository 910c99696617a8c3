// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration. Flags and environment
// variables override the YAML file through Viper's usual precedence.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Network NetworkConfig `mapstructure:"network" yaml:"network"`
	Secrets SecretsConfig `mapstructure:"secrets" yaml:"secrets"`
	Crack   CrackConfig   `mapstructure:"crack" yaml:"crack"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// NetworkConfig tunes the cookie-fetching probe.
type NetworkConfig struct {
	Timeout            time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent          string        `mapstructure:"user_agent" yaml:"user_agent"`
	ProbeCookie        string        `mapstructure:"probe_cookie" yaml:"probe_cookie"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	RateLimit          float64       `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// SecretsConfig controls how the candidate secret set is assembled.
type SecretsConfig struct {
	WordlistURL    string        `mapstructure:"wordlist_url" yaml:"wordlist_url"`
	RefreshTimeout time.Duration `mapstructure:"refresh_timeout" yaml:"refresh_timeout"`
	DictionaryFile string        `mapstructure:"dictionary_file" yaml:"dictionary_file"`
	Offline        bool          `mapstructure:"offline" yaml:"offline"`
}

// CrackConfig tunes the cracking engine.
type CrackConfig struct {
	Concurrency int  `mapstructure:"concurrency" yaml:"concurrency"`
	StopOnMatch bool `mapstructure:"stop_on_match" yaml:"stop_on_match"`
}

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "leakjar")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)

	// -- Network --
	v.SetDefault("network.timeout", "30s")
	v.SetDefault("network.user_agent", "Googlebot-News")
	v.SetDefault("network.probe_cookie", "security=low;")
	v.SetDefault("network.insecure_skip_verify", false)
	v.SetDefault("network.rate_limit", 2.0)

	// -- Secrets --
	v.SetDefault("secrets.wordlist_url", "https://raw.githubusercontent.com/wallarm/jwt-secrets/master/jwt.secrets.list")
	v.SetDefault("secrets.refresh_timeout", "10s")
	v.SetDefault("secrets.dictionary_file", "")
	v.SetDefault("secrets.offline", false)

	// -- Crack --
	v.SetDefault("crack.concurrency", 4)
	v.SetDefault("crack.stop_on_match", false)
}

// NewDefaultConfig creates a configuration populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Defaults are static; failing to unmarshal them is a defect.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper creates a configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if c.Crack.Concurrency <= 0 {
		return fmt.Errorf("crack.concurrency must be a positive integer")
	}
	if c.Network.Timeout <= 0 {
		return fmt.Errorf("network.timeout must be a positive duration")
	}
	if c.Network.RateLimit < 0 {
		return fmt.Errorf("network.rate_limit must not be negative")
	}
	if c.Secrets.RefreshTimeout <= 0 {
		return fmt.Errorf("secrets.refresh_timeout must be a positive duration")
	}
	return nil
}
