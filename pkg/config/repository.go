package config

import (
	"fmt"
	"log/slog"

	"github.com/glorpus-work/reposweep/pkg/errutils"
	"github.com/glorpus-work/reposweep/pkg/model"
	"github.com/glorpus-work/reposweep/pkg/retention"
)

// RepositoryConfig is the cleanup configuration of one repository.
// Raw and docker repositories use Rules and NoMatch; maven2 repositories
// use Snapshot and Release.
type RepositoryConfig struct {
	Name    string       `yaml:"name"`
	Format  model.Format `yaml:"format"`
	Enabled *bool        `yaml:"enabled,omitempty"`

	Rules   []retention.Rule `yaml:"rules,omitempty"`
	NoMatch retention.Policy `yaml:"no_match,omitempty"`

	Snapshot *retention.RuleConfig `yaml:"snapshot,omitempty"`
	Release  *retention.RuleConfig `yaml:"release,omitempty"`

	// PreDeleteHook is the path of a script that may veto deletions.
	PreDeleteHook string `yaml:"pre_delete_hook,omitempty"`
}

// IsEnabled reports whether the repository takes part in runs. Unset means enabled.
func (r *RepositoryConfig) IsEnabled() bool {
	return r.Enabled == nil || *r.Enabled
}

// RuleConfig returns the rule configuration of a raw or docker repository.
func (r *RepositoryConfig) RuleConfig() retention.RuleConfig {
	return retention.RuleConfig{Rules: r.Rules, NoMatch: r.NoMatch}
}

// MavenRuleConfig returns the rule configuration of a maven2 repository.
func (r *RepositoryConfig) MavenRuleConfig() retention.MavenRuleConfig {
	var cfg retention.MavenRuleConfig
	if r.Snapshot != nil {
		cfg.Snapshot = *r.Snapshot
	}
	if r.Release != nil {
		cfg.Release = *r.Release
	}
	return cfg
}

func validateRepositories(repos []*RepositoryConfig, cache *retention.PatternCache) error {
	repoNames := make(map[string]bool)
	for i, repo := range repos {
		if repo == nil || repo.Name == "" {
			return errutils.ErrEmptyRepositoryNameWithIndex(i)
		}
		if repoNames[repo.Name] {
			return errutils.ErrRepositoryExistsWithName(repo.Name)
		}
		repoNames[repo.Name] = true

		if !repo.Format.Valid() {
			return errutils.ErrInvalidFormatWithDetails(repo.Name, string(repo.Format), model.ValidFormats())
		}
		if err := repo.validateRules(cache); err != nil {
			return fmt.Errorf("repository '%s': %w", repo.Name, err)
		}
	}
	return nil
}

func (r *RepositoryConfig) validateRules(cache *retention.PatternCache) error {
	if r.Format == model.FormatMaven {
		if len(r.Rules) > 0 || !r.NoMatch.IsEmpty() {
			return fmt.Errorf("maven2 repositories take snapshot and release rule sets, not rules")
		}
		if err := validateRuleConfig(r.Name, "snapshot", r.Snapshot, cache); err != nil {
			return err
		}
		return validateRuleConfig(r.Name, "release", r.Release, cache)
	}

	if r.Snapshot != nil || r.Release != nil {
		return fmt.Errorf("snapshot and release rule sets are only valid for maven2 repositories")
	}
	cfg := r.RuleConfig()
	return validateRuleConfig(r.Name, "rules", &cfg, cache)
}

// validateRuleConfig rejects rule sets the evaluator cannot run. A rule
// without thresholds is valid but deletes every version it matches, so it
// is only warned about.
func validateRuleConfig(repository, section string, cfg *retention.RuleConfig, cache *retention.PatternCache) error {
	if cfg == nil {
		return nil
	}

	seen := make(map[string]bool, len(cfg.Rules))
	for i, rule := range cfg.Rules {
		if seen[rule.Pattern] {
			return fmt.Errorf("%s[%d]: %w: %q", section, i, errutils.ErrDuplicatePattern, rule.Pattern)
		}
		seen[rule.Pattern] = true

		if _, err := cache.Compile(rule.Pattern); err != nil {
			return fmt.Errorf("%s[%d]: %w", section, i, err)
		}
		if rule.IsEmpty() {
			slog.Warn("rule sets no retention fields, every matching version will be deleted",
				"repository", repository, "section", section, "index", i, "pattern", rule.Pattern)
		}
		if err := validatePolicy(rule.Policy); err != nil {
			return fmt.Errorf("%s[%d]: %w", section, i, err)
		}
	}

	if err := validatePolicy(cfg.NoMatch); err != nil {
		return fmt.Errorf("%s no_match: %w", section, err)
	}
	return nil
}

func validatePolicy(p retention.Policy) error {
	for name, v := range map[string]*int{
		"retention_days":               p.RetentionDays,
		"reserved":                     p.Reserved,
		"min_days_since_last_download": p.MinDaysSinceLastDownload,
	} {
		if v != nil && *v < 0 {
			return fmt.Errorf("%w: %s=%d", errutils.ErrNegativeThreshold, name, *v)
		}
	}
	return nil
}

// AddRepository adds a repository to the configuration.
// Returns an error if a repository with the same name already exists.
func (c *Config) AddRepository(repo *RepositoryConfig) error {
	for _, existing := range c.Repositories {
		if existing.Name == repo.Name {
			return errutils.ErrRepositoryExistsWithName(repo.Name)
		}
	}
	c.Repositories = append(c.Repositories, repo)
	return nil
}

// RemoveRepository removes a repository from the configuration.
func (c *Config) RemoveRepository(name string) bool {
	for i, repo := range c.Repositories {
		if repo.Name == name {
			c.Repositories = append(c.Repositories[:i], c.Repositories[i+1:]...)
			return true
		}
	}
	return false
}

// GetRepository gets a repository configuration by name.
func (c *Config) GetRepository(name string) (*RepositoryConfig, error) {
	for _, repo := range c.Repositories {
		if repo.Name == name {
			return repo, nil
		}
	}
	return nil, errutils.ErrRepositoryNotFoundWithName(name)
}

// EnableRepository enables or disables a repository.
func (c *Config) EnableRepository(name string, enabled bool) bool {
	for _, repo := range c.Repositories {
		if repo.Name == name {
			repo.Enabled = &enabled
			return true
		}
	}
	return false
}

// EnabledRepositories returns the repositories that take part in runs.
func (c *Config) EnabledRepositories() []*RepositoryConfig {
	var out []*RepositoryConfig
	for _, repo := range c.Repositories {
		if repo.IsEnabled() {
			out = append(out, repo)
		}
	}
	return out
}
