// Package config handles configuration loading for fraudscope.
// It supports YAML config files, a .env file and environment variable overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/seenimoa/fraudscope/internal/analysis/composite"
)

// EnvPrefix is the prefix for environment overrides, e.g. FRAUDSCOPE_API_PORT.
const EnvPrefix = "FRAUDSCOPE"

// Config represents the complete application configuration.
type Config struct {
	SEC      SECConfig      `mapstructure:"sec"      yaml:"sec"`
	Cache    CacheConfig    `mapstructure:"cache"    yaml:"cache"`
	Analysis AnalysisConfig `mapstructure:"analysis" yaml:"analysis"`
	API      APIConfig      `mapstructure:"api"      yaml:"api"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// SECConfig holds EDGAR client settings. The SEC requires a descriptive
// User-Agent with a contact address on every request.
type SECConfig struct {
	UserAgent       string  `mapstructure:"user_agent"         yaml:"user_agent"`
	BaseURL         string  `mapstructure:"base_url"           yaml:"base_url"`    // data.sec.gov
	ArchiveURL      string  `mapstructure:"archive_url"        yaml:"archive_url"` // www.sec.gov
	RateLimitPerSec float64 `mapstructure:"rate_limit_per_sec" yaml:"rate_limit_per_sec"`
	TimeoutSec      int     `mapstructure:"timeout_sec"        yaml:"timeout_sec"`
	Years           int     `mapstructure:"years"              yaml:"years"` // annual periods per analysis
}

// Timeout returns TimeoutSec as a duration.
func (c SECConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// CacheConfig holds in-memory and on-disk cache settings.
type CacheConfig struct {
	TTLSec      int    `mapstructure:"ttl_sec"      yaml:"ttl_sec"`
	Dir         string `mapstructure:"dir"          yaml:"dir"`
	DiskEnabled bool   `mapstructure:"disk_enabled" yaml:"disk_enabled"`
}

// TTL returns TTLSec as a duration.
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLSec) * time.Second
}

// AnalysisConfig holds analysis engine settings.
type AnalysisConfig struct {
	Weights          composite.Weights `mapstructure:"weights"           yaml:"weights"`
	SecondDigit      bool              `mapstructure:"second_digit"      yaml:"second_digit"`
	BatchConcurrency int               `mapstructure:"batch_concurrency" yaml:"batch_concurrency"`
}

// APIConfig holds HTTP API server settings.
type APIConfig struct {
	Host           string   `mapstructure:"host"            yaml:"host"`
	Port           int      `mapstructure:"port"            yaml:"port"`
	CORSOrigins    []string `mapstructure:"cors_origins"    yaml:"cors_origins"`
	RequestTimeout int      `mapstructure:"request_timeout" yaml:"request_timeout"` // seconds
}

// Addr returns host:port.
func (c APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `mapstructure:"format" yaml:"format"` // "text" or "json"
}

// Load reads the configuration from file and environment variables.
// A .env file in the working directory is loaded first, without overriding
// variables that are already set.
// Config file search order:
//  1. ./config/config.yaml (project root)
//  2. ~/.fraudscope/config.yaml (home directory)
//  3. /etc/fraudscope/config.yaml (system)
//
// Environment variables override config file values.
// Format: FRAUDSCOPE_<SECTION>_<KEY>, e.g., FRAUDSCOPE_SEC_USER_AGENT
func Load() (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./config")
	v.AddConfigPath(filepath.Join(homeDir(), ".fraudscope"))
	v.AddConfigPath("/etc/fraudscope")

	// Read config file (not required to exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromFile reads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	v := newViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file %s: %w", path, err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	overrideFromEnv(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadDotEnv loads path into the environment if it exists.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("error loading %s: %w", path, err)
	}
	return nil
}

// setDefaults sets sensible defaults for all config values.
func setDefaults(v *viper.Viper) {
	// SEC defaults
	v.SetDefault("sec.user_agent", "fraudscope/1.0 (contact@example.com)")
	v.SetDefault("sec.base_url", "https://data.sec.gov")
	v.SetDefault("sec.archive_url", "https://www.sec.gov")
	v.SetDefault("sec.rate_limit_per_sec", 10.0) // SEC fair-access ceiling
	v.SetDefault("sec.timeout_sec", 30)
	v.SetDefault("sec.years", 5)

	// Cache defaults
	v.SetDefault("cache.ttl_sec", 3600) // 1 hour
	v.SetDefault("cache.dir", filepath.Join(homeDir(), ".fraudscope", "cache"))
	v.SetDefault("cache.disk_enabled", false)

	// Analysis defaults
	w := composite.DefaultWeights()
	v.SetDefault("analysis.weights.beneish", w.Beneish)
	v.SetDefault("analysis.weights.altman", w.Altman)
	v.SetDefault("analysis.weights.piotroski", w.Piotroski)
	v.SetDefault("analysis.weights.fraud_triangle", w.FraudTriangle)
	v.SetDefault("analysis.weights.benford", w.Benford)
	v.SetDefault("analysis.weights.red_flags", w.RedFlags)
	v.SetDefault("analysis.second_digit", false)
	v.SetDefault("analysis.batch_concurrency", 4)

	// API defaults
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("api.request_timeout", 60)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
}

// overrideFromEnv reads keys that AutomaticEnv misses for nested structs.
func overrideFromEnv(cfg *Config) {
	if ua := os.Getenv(EnvPrefix + "_SEC_USER_AGENT"); ua != "" {
		cfg.SEC.UserAgent = ua
	}
	if dir := os.Getenv(EnvPrefix + "_CACHE_DIR"); dir != "" {
		cfg.Cache.Dir = dir
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SEC.UserAgent) == "" {
		return errors.New("sec.user_agent must not be empty")
	}
	if c.SEC.RateLimitPerSec <= 0 {
		return fmt.Errorf("sec.rate_limit_per_sec must be positive, got %v", c.SEC.RateLimitPerSec)
	}
	if c.SEC.Years < 2 {
		return fmt.Errorf("sec.years must be at least 2, got %d", c.SEC.Years)
	}
	if c.API.Port <= 0 || c.API.Port > 65535 {
		return fmt.Errorf("api.port out of range: %d", c.API.Port)
	}
	if err := c.Analysis.Weights.Validate(); err != nil {
		return fmt.Errorf("analysis.weights: %w", err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// homeDir returns the user's home directory.
func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
