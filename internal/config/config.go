package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/illarion/confvault/internal/crypto"
	"github.com/illarion/confvault/internal/storage"
)

const (
	defaultStorePath = ".confvault"
	defaultLogLevel  = "info"
	defaultLogFormat = "console"
	defaultMaxPasses = 4
	maxMaxPasses     = 32
)

// Config aggregates runtime settings resolved from multiple sources.
// Precedence: CLI flags > Environment variables > YAML config > Defaults
type Config struct {
	StorePath      string        `yaml:"store"`
	LogLevel       string        `yaml:"log_level"`
	LogFormat      string        `yaml:"log_format"`
	KDFIterations  int           `yaml:"kdf_iterations"`
	MaxPasses      int           `yaml:"max_passes"`
	UseKeyring     bool          `yaml:"keyring"`
	NonInteractive bool          `yaml:"non_interactive"`
	ProcessEnv     bool          `yaml:"process_env"`
	LockTimeout    time.Duration `yaml:"lock_timeout"`
}

// yamlConfig represents the YAML configuration file structure.
// Pointers distinguish "unset" from zero values.
type yamlConfig struct {
	Store          string `yaml:"store"`
	LogLevel       string `yaml:"log_level"`
	LogFormat      string `yaml:"log_format"`
	KDFIterations  *int   `yaml:"kdf_iterations"`
	MaxPasses      *int   `yaml:"max_passes"`
	Keyring        *bool  `yaml:"keyring"`
	NonInteractive *bool  `yaml:"non_interactive"`
	ProcessEnv     *bool  `yaml:"process_env"`
	LockTimeout    string `yaml:"lock_timeout"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	StorePath      *string
	LogLevel       *string
	LogFormat      *string
	NonInteractive *bool
	NoKeyring      *bool
}

// Load resolves settings from all sources
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	// Load from YAML file if specified
	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, err
		}
	}

	// Apply environment variables (override YAML)
	if err := applyEnvConfig(&cfg); err != nil {
		return Config{}, err
	}

	// Apply CLI overrides (highest precedence)
	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		StorePath:     defaultStorePath,
		LogLevel:      defaultLogLevel,
		LogFormat:     defaultLogFormat,
		KDFIterations: crypto.DefaultIters,
		MaxPasses:     defaultMaxPasses,
		UseKeyring:    true,
		LockTimeout:   storage.DefaultLockTimeout,
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.Store != "" {
		cfg.StorePath = yamlCfg.Store
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}
	if yamlCfg.LogFormat != "" {
		cfg.LogFormat = yamlCfg.LogFormat
	}
	if yamlCfg.KDFIterations != nil {
		cfg.KDFIterations = *yamlCfg.KDFIterations
	}
	if yamlCfg.MaxPasses != nil {
		cfg.MaxPasses = *yamlCfg.MaxPasses
	}
	if yamlCfg.Keyring != nil {
		cfg.UseKeyring = *yamlCfg.Keyring
	}
	if yamlCfg.NonInteractive != nil {
		cfg.NonInteractive = *yamlCfg.NonInteractive
	}
	if yamlCfg.ProcessEnv != nil {
		cfg.ProcessEnv = *yamlCfg.ProcessEnv
	}
	if yamlCfg.LockTimeout != "" {
		d, err := time.ParseDuration(yamlCfg.LockTimeout)
		if err != nil {
			return fmt.Errorf("parse lock_timeout: %w", err)
		}
		cfg.LockTimeout = d
	}
	return nil
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) error {
	if v := env("CONFVAULT_STORE"); v != "" {
		cfg.StorePath = v
	}
	if v := env("CONFVAULT_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := env("CONFVAULT_LOG_FORMAT"); v != "" {
		cfg.LogFormat = v
	}
	if v := env("CONFVAULT_KDF_ITERATIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CONFVAULT_KDF_ITERATIONS: invalid integer %q", v)
		}
		cfg.KDFIterations = n
	}
	if v := env("CONFVAULT_MAX_PASSES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CONFVAULT_MAX_PASSES: invalid integer %q", v)
		}
		cfg.MaxPasses = n
	}
	if v := env("CONFVAULT_KEYRING"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CONFVAULT_KEYRING: invalid boolean %q", v)
		}
		cfg.UseKeyring = b
	}
	if v := env("CONFVAULT_NON_INTERACTIVE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CONFVAULT_NON_INTERACTIVE: invalid boolean %q", v)
		}
		cfg.NonInteractive = b
	}
	if v := env("CONFVAULT_PROCESS_ENV"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CONFVAULT_PROCESS_ENV: invalid boolean %q", v)
		}
		cfg.ProcessEnv = b
	}
	if v := env("CONFVAULT_LOCK_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CONFVAULT_LOCK_TIMEOUT: %w", err)
		}
		cfg.LockTimeout = d
	}
	return nil
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides.StorePath != nil && *overrides.StorePath != "" {
		cfg.StorePath = *overrides.StorePath
	}
	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}
	if overrides.LogFormat != nil && *overrides.LogFormat != "" {
		cfg.LogFormat = *overrides.LogFormat
	}
	if overrides.NonInteractive != nil && *overrides.NonInteractive {
		cfg.NonInteractive = true
	}
	if overrides.NoKeyring != nil && *overrides.NoKeyring {
		cfg.UseKeyring = false
	}
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if strings.TrimSpace(cfg.StorePath) == "" {
		return fmt.Errorf("store path cannot be empty")
	}
	if cfg.KDFIterations < crypto.MinIters {
		return fmt.Errorf("kdf_iterations must be >= %d", crypto.MinIters)
	}
	if cfg.MaxPasses < 2 || cfg.MaxPasses > maxMaxPasses {
		return fmt.Errorf("max_passes must be between 2 and %d", maxMaxPasses)
	}
	if cfg.LockTimeout <= 0 {
		return fmt.Errorf("lock_timeout must be positive")
	}
	switch cfg.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("log_format must be console or json, got %q", cfg.LogFormat)
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
