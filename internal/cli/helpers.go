package cli

import (
	"fmt"
	"io"

	"github.com/glorpus-work/reposweep/internal/logger"
	"github.com/glorpus-work/reposweep/pkg/config"
	"github.com/glorpus-work/reposweep/pkg/errutils"
	"github.com/glorpus-work/reposweep/pkg/orchestrator"
)

// These variables will be set by the main package
var (
	ConfigPath   *string
	EnvFiles     *[]string
	Verbose      *bool
	OutputFormat *string
)

// InitRuntime loads .env files and configures logging. It is run before
// every command.
func InitRuntime() error {
	var files []string
	if EnvFiles != nil {
		files = *EnvFiles
	}
	if err := config.LoadEnv(files...); err != nil {
		return err
	}

	level := "info"
	if Verbose != nil && *Verbose {
		level = "debug"
	}
	logger.InitLogger(level, logger.FormatText)
	return nil
}

// loadConfig loads the configuration and applies command line overrides.
func loadConfig() (*config.Config, error) {
	configPath := getConfigPath()
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if OutputFormat != nil && *OutputFormat != "" {
		cfg.Settings.OutputFormat = *OutputFormat
	}
	if Verbose == nil || !*Verbose {
		logger.InitLogger(cfg.Settings.LogLevel, logger.FormatText)
	}
	return cfg, nil
}

func getConfigPath() string {
	if ConfigPath != nil && *ConfigPath != "" {
		return *ConfigPath
	}

	defaultPath, err := config.GetDefaultConfigPath()
	if err != nil {
		logger.Warn("Failed to get default config path, using empty path", logger.Fields{"error": err})
		return ""
	}
	return defaultPath
}

// outputFormat returns the requested output format, falling back to the
// configured one.
func outputFormat(cfg *config.Config) (string, error) {
	format := OutputText
	if cfg != nil && cfg.Settings.OutputFormat != "" {
		format = cfg.Settings.OutputFormat
	}
	if OutputFormat != nil && *OutputFormat != "" {
		format = *OutputFormat
	}
	switch format {
	case OutputText, OutputJSON, OutputYAML:
		return format, nil
	default:
		return "", errutils.ErrInvalidOutputFormatWithDetails(format)
	}
}

// buildTargets turns the configured repositories into cleanup targets.
// With names, exactly those repositories are used, enabled or not.
func buildTargets(cfg *config.Config, names []string) ([]orchestrator.Target, error) {
	var repos []*config.RepositoryConfig
	if len(names) == 0 {
		repos = cfg.EnabledRepositories()
	} else {
		for _, name := range names {
			repo, err := cfg.GetRepository(name)
			if err != nil {
				return nil, err
			}
			repos = append(repos, repo)
		}
	}
	if len(repos) == 0 {
		return nil, errutils.ErrNoRepositories
	}

	targets := make([]orchestrator.Target, 0, len(repos))
	for _, repo := range repos {
		targets = append(targets, targetFor(repo))
	}
	return targets, nil
}

func targetFor(repo *config.RepositoryConfig) orchestrator.Target {
	return orchestrator.Target{
		Repository: repo.Name,
		Format:     repo.Format,
		Rules:      repo.RuleConfig(),
		Maven:      repo.MavenRuleConfig(),
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// progressHooks prints orchestrator events to w, one line each.
func progressHooks(w io.Writer) orchestrator.Hooks {
	return orchestrator.Hooks{OnEvent: func(e orchestrator.Event) {
		if e.ID != "" {
			_, _ = fmt.Fprintf(w, "%s: %s (%s)\n", e.Phase, e.Msg, e.ID)
		} else {
			_, _ = fmt.Fprintf(w, "%s: %s\n", e.Phase, e.Msg)
		}
	}}
}

