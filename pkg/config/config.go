// Package config loads, validates and saves the reposweep configuration file.
// Secrets are never stored in the file: credentials are read from the
// environment, optionally seeded from a .env file.
package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"github.com/glorpus-work/reposweep/pkg/errutils"
	"github.com/glorpus-work/reposweep/pkg/fsutil"
	"github.com/glorpus-work/reposweep/pkg/retention"
)

// Config represents the application configuration.
type Config struct {
	// Repository manager connection
	Nexus NexusConfig `yaml:"nexus"`

	// Repositories to clean up
	Repositories []*RepositoryConfig `yaml:"repositories"`

	// General settings
	Settings Settings `yaml:"settings"`
}

// Settings represents general application settings.
type Settings struct {
	// Run settings
	DryRun      *bool  `yaml:"dry_run,omitempty"`
	Concurrency int    `yaml:"concurrency"`
	Schedule    string `yaml:"schedule,omitempty"`

	// Network settings
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	MaxRetries  int           `yaml:"max_retries"`

	// State settings
	AuditDB   string `yaml:"audit_db,omitempty"`
	ReportDir string `yaml:"report_dir,omitempty"`

	MetricsAddr      string `yaml:"metrics_addr,omitempty"`
	PatternCacheSize int    `yaml:"pattern_cache_size"`

	// Output settings
	OutputFormat string `yaml:"output_format"` // text, json
	LogLevel     string `yaml:"log_level"`     // error, warn, info, debug
}

// Default configuration values.
const (
	// DefaultHTTPTimeout is the default timeout for HTTP requests.
	DefaultHTTPTimeout = 30 * time.Second

	// DefaultMaxRetries is the default number of retries for failed requests.
	DefaultMaxRetries = 3

	// DefaultConcurrency is the default number of repositories processed in parallel.
	DefaultConcurrency = 2

	// YAMLIndent is the number of spaces to use for YAML indentation.
	YAMLIndent = 2

	appName = "reposweep"
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	dataDir, err := getStateDir()
	if err != nil {
		dataDir = "."
	}

	dryRun := true
	return &Config{
		Nexus: NexusConfig{
			PasswordEnv: DefaultPasswordEnv,
		},
		Repositories: []*RepositoryConfig{},
		Settings: Settings{
			DryRun:           &dryRun,
			Concurrency:      DefaultConcurrency,
			HTTPTimeout:      DefaultHTTPTimeout,
			MaxRetries:       DefaultMaxRetries,
			AuditDB:          filepath.Join(dataDir, "audit.db"),
			ReportDir:        filepath.Join(dataDir, "reports"),
			PatternCacheSize: retention.DefaultPatternCacheSize,
			OutputFormat:     "text",
			LogLevel:         "info",
		},
	}
}

// LoadEnv loads variables from the given .env files (".env" when none are
// given) without overriding variables that are already set. Missing files
// are ignored.
func LoadEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return errutils.Wrapf(err, "failed to load env file %s", p)
		}
	}
	return nil
}

// LoadConfig loads configuration from a file.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, errutils.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, errutils.Wrap(errutils.ErrInvalidConfigPath, err.Error())
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, errutils.Wrapf(err, "failed to open config file: %s", path)
	}
	defer func() { _ = file.Close() }()

	return LoadConfigFromReader(file)
}

// LoadConfigFromReader loads configuration from an io.Reader.
func LoadConfigFromReader(reader io.Reader) (*Config, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, errutils.Wrap(err, "failed to read config data")
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, errutils.Wrap(errutils.ErrConfigParse, err.Error())
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", errutils.ErrConfigValidation, err)
	}

	return &config, nil
}

// SaveConfig saves configuration to a file.
func (c *Config) SaveConfig(path string) error {
	if path == "" {
		return errutils.ErrEmptyConfigPath
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return errutils.Wrap(errutils.ErrInvalidConfigPath, err.Error())
	}

	if err := fsutil.EnsureFileDir(absPath); err != nil {
		return errutils.Wrap(errutils.ErrConfigDirectory, err.Error())
	}

	tempPath := absPath + ".tmp"
	file, err := os.OpenFile(tempPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, fsutil.FileModeSecure)
	if err != nil {
		return errutils.Wrap(errutils.ErrConfigFileCreate, err.Error())
	}

	encoder := yaml.NewEncoder(file)
	encoder.SetIndent(YAMLIndent)

	if err := encoder.Encode(c); err != nil {
		_ = file.Close()
		_ = os.Remove(tempPath)
		return errutils.Wrap(errutils.ErrConfigEncode, err.Error())
	}

	_ = encoder.Close()
	_ = file.Close()

	if err := os.Rename(tempPath, absPath); err != nil {
		_ = os.Remove(tempPath)
		return errutils.Wrap(errutils.ErrConfigFileRename, err.Error())
	}

	return nil
}

// ToYAML converts the config to YAML bytes.
func (c *Config) ToYAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, errutils.Wrap(errutils.ErrConfigMarshal, err.Error())
	}
	return data, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c == nil {
		return errutils.ErrConfigValidation
	}
	if err := c.Nexus.validate(); err != nil {
		return err
	}
	patterns, err := retention.NewPatternCache(c.Settings.PatternCacheSize)
	if err != nil {
		return err
	}
	if err := validateRepositories(c.Repositories, patterns); err != nil {
		return err
	}
	return validateSettings(c.Settings)
}

func validateSettings(s Settings) error {
	if s.HTTPTimeout < 0 {
		return errutils.ErrHTTPTimeoutNegative
	}
	if s.MaxRetries < 0 {
		return errutils.ErrMaxRetriesNegative
	}
	if s.Concurrency < 1 {
		return errutils.ErrConcurrencyInvalid
	}
	if s.Schedule != "" {
		if _, err := cron.ParseStandard(s.Schedule); err != nil {
			return fmt.Errorf("%w %q: %w", errutils.ErrInvalidSchedule, s.Schedule, err)
		}
	}
	validFormats := map[string]bool{"text": true, "json": true, "yaml": true}
	if !validFormats[s.OutputFormat] {
		return errutils.ErrInvalidOutputFormatWithDetails(s.OutputFormat)
	}
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(s.LogLevel)] {
		return errutils.ErrInvalidLogLevelWithDetails(s.LogLevel)
	}
	return nil
}

// IsDryRun reports whether deletions are disabled. Unset means dry run.
func (s Settings) IsDryRun() bool {
	return s.DryRun == nil || *s.DryRun
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return filepath.Join(configDir, appName, "config.yaml"), nil
}

// applyDefaults fills in missing values with defaults.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()

	if c.Nexus.PasswordEnv == "" && c.Nexus.TokenEnv == "" {
		c.Nexus.PasswordEnv = defaults.Nexus.PasswordEnv
	}
	if c.Settings.DryRun == nil {
		c.Settings.DryRun = defaults.Settings.DryRun
	}
	if c.Settings.Concurrency == 0 {
		c.Settings.Concurrency = defaults.Settings.Concurrency
	}
	if c.Settings.HTTPTimeout == 0 {
		c.Settings.HTTPTimeout = defaults.Settings.HTTPTimeout
	}
	if c.Settings.MaxRetries == 0 {
		c.Settings.MaxRetries = defaults.Settings.MaxRetries
	}
	if c.Settings.AuditDB == "" {
		c.Settings.AuditDB = defaults.Settings.AuditDB
	}
	if c.Settings.ReportDir == "" {
		c.Settings.ReportDir = defaults.Settings.ReportDir
	}
	if c.Settings.PatternCacheSize == 0 {
		c.Settings.PatternCacheSize = defaults.Settings.PatternCacheSize
	}
	if c.Settings.OutputFormat == "" {
		c.Settings.OutputFormat = defaults.Settings.OutputFormat
	}
	if c.Settings.LogLevel == "" {
		c.Settings.LogLevel = defaults.Settings.LogLevel
	}
	if c.Repositories == nil {
		c.Repositories = []*RepositoryConfig{}
	}
}

func getUserDataDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir, nil
	}

	// Linux follows the XDG Base Directory Specification
	if runtime.GOOS == "linux" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		return filepath.Join(homeDir, ".local", "share"), nil
	}

	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}
	return configDir, nil
}

func getStateDir() (string, error) {
	dataDir, err := getUserDataDir()
	if err != nil {
		return filepath.Join(os.TempDir(), appName), nil
	}
	return filepath.Join(dataDir, appName), nil
}
