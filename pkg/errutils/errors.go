// Package errutils defines the error values shared across reposweep and
// helpers for wrapping them with context. Callers compare with errors.Is.
package errutils

import (
	"fmt"
)

// Common error types used throughout the application.
// Errors are grouped by their domain or functionality.
var (
	// Config errors are related to configuration file operations and validation.
	ErrEmptyConfigPath = fmt.Errorf(
		"config file path cannot be empty")

	ErrInvalidConfigPath = fmt.Errorf(
		"invalid config file path")

	ErrConfigParse = fmt.Errorf(
		"failed to parse config")

	// ErrConfigValidation is returned when configuration values fail validation.
	ErrConfigValidation = fmt.Errorf(
		"invalid configuration")

	ErrConfigEncode = fmt.Errorf(
		"failed to encode config")

	ErrConfigDirectory = fmt.Errorf(
		"failed to create config directory")

	ErrConfigFileCreate = fmt.Errorf(
		"failed to create config file")

	// ErrConfigFileExists is returned when attempting to create a configuration file that already exists.
	ErrConfigFileExists = fmt.Errorf("configuration file already exists (use --force to overwrite)")

	// ErrConfigFileRename is returned when renaming the temporary config file fails.
	ErrConfigFileRename = fmt.Errorf("failed to rename temporary config file")

	// ErrConfigMarshal is returned when marshaling the config to YAML fails.
	ErrConfigMarshal = fmt.Errorf("failed to marshal config to YAML")

	// ErrHTTPTimeoutNegative is returned when HTTP timeout is set to a negative value.
	ErrHTTPTimeoutNegative = fmt.Errorf("http_timeout cannot be negative")

	// ErrMaxRetriesNegative is returned when max_retries is set to a negative value.
	ErrMaxRetriesNegative = fmt.Errorf("max_retries cannot be negative")

	// ErrConcurrencyInvalid is returned when concurrency is less than 1.
	ErrConcurrencyInvalid = fmt.Errorf("concurrency must be at least 1")

	// ErrInvalidOutputFormat is returned when an invalid output format is specified.
	ErrInvalidOutputFormat = fmt.Errorf("invalid output format")

	// ErrInvalidLogLevel is returned when an invalid log level is specified.
	ErrInvalidLogLevel = fmt.Errorf("invalid log level")

	// ErrInvalidSchedule is returned when the cron schedule cannot be parsed.
	ErrInvalidSchedule = fmt.Errorf("invalid schedule")

	// Repository errors are related to the configured repositories.

	// ErrEmptyRepositoryName is returned when a repository configuration is missing a name.
	ErrEmptyRepositoryName = fmt.Errorf("repository name cannot be empty")

	// ErrRepositoryExists is returned when two repositories share a name.
	ErrRepositoryExists = fmt.Errorf("repository already exists")

	// ErrRepositoryNotFound is returned when a repository with the given name is not found.
	ErrRepositoryNotFound = fmt.Errorf("repository not found")

	// ErrInvalidFormat is returned for an unsupported repository format.
	ErrInvalidFormat = fmt.Errorf("invalid repository format")

	// ErrNoRepositories is returned when no repositories are configured
	// and an operation requires at least one.
	ErrNoRepositories = fmt.Errorf("no repositories configured")

	// ErrNexusURLEmpty is returned when the repository manager URL is missing.
	ErrNexusURLEmpty = fmt.Errorf("nexus url cannot be empty")

	// Rule errors.

	// ErrInvalidPattern is returned when a rule pattern is not a valid regular expression.
	ErrInvalidPattern = fmt.Errorf("invalid rule pattern")


	// ErrNegativeThreshold is returned when a rule threshold is negative.
	ErrNegativeThreshold = fmt.Errorf("rule threshold cannot be negative")

	// ErrDuplicatePattern is returned when a rule set lists the same pattern twice.
	ErrDuplicatePattern = fmt.Errorf("duplicate rule pattern")

	// Hook errors.
	ErrHookLoad      = fmt.Errorf("failed to load hook")
	ErrHookExecution = fmt.Errorf("error executing hook")
	ErrHookScript    = fmt.Errorf("hook script error")

	// ErrInvalidPath is returned when a file or directory path is invalid.
	ErrInvalidPath = fmt.Errorf("invalid path")
)

// Wrap wraps an error with additional context.
// If the error is nil, Wrap returns nil.
func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// Wrapf wraps an error with additional formatted context.
// If the error is nil, Wrapf returns nil.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}

// ErrEmptyRepositoryNameWithIndex is a helper to create a wrapped error with the repository index.
func ErrEmptyRepositoryNameWithIndex(i int) error {
	return fmt.Errorf("repository %d: %w", i, ErrEmptyRepositoryName)
}

// ErrRepositoryExistsWithName is a helper to create a wrapped error with the repository name.
func ErrRepositoryExistsWithName(name string) error {
	return fmt.Errorf("repository '%s': %w", name, ErrRepositoryExists)
}

// ErrRepositoryNotFoundWithName creates an error for when a repository with the given name is not found.
func ErrRepositoryNotFoundWithName(name string) error {
	return fmt.Errorf("%w: %s", ErrRepositoryNotFound, name)
}

// ErrInvalidFormatWithDetails is a helper to create a wrapped error with the invalid format and valid options.
func ErrInvalidFormatWithDetails(name, format string, valid []string) error {
	return fmt.Errorf("repository '%s': %w: '%s', must be one of: %v", name, ErrInvalidFormat, format, valid)
}

// ErrInvalidPatternWithDetails wraps ErrInvalidPattern with the offending pattern.
func ErrInvalidPatternWithDetails(pattern string, err error) error {
	return fmt.Errorf("%w %q: %w", ErrInvalidPattern, pattern, err)
}

// ErrInvalidOutputFormatWithDetails is a helper to create a wrapped error with the invalid format and valid options.
func ErrInvalidOutputFormatWithDetails(format string) error {
	return fmt.Errorf("%w: '%s', must be one of: text, json", ErrInvalidOutputFormat, format)
}

// ErrInvalidLogLevelWithDetails is a helper to create a wrapped error with the invalid level and valid options.
func ErrInvalidLogLevelWithDetails(level string) error {
	return fmt.Errorf("%w: '%s', must be one of: error, warn, info, debug", ErrInvalidLogLevel, level)
}
