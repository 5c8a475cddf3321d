package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/reposweep/internal/logger"
	"github.com/glorpus-work/reposweep/pkg/config"
	"github.com/glorpus-work/reposweep/pkg/errutils"
	"github.com/glorpus-work/reposweep/pkg/model"
	"github.com/glorpus-work/reposweep/pkg/retention"
)

// NewConfigCmd creates the config command with subcommands.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  "View, validate and modify the reposweep configuration",
	}

	cmd.AddCommand(
		newConfigShowCmd(),
		newConfigValidateCmd(),
		newConfigSetCmd(),
		newConfigGetCmd(),
		newConfigInitCmd(),
		newConfigMatchCmd(),
	)

	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			tabWriter := tabwriter.NewWriter(out, 0, 0, TabWidth, ' ', 0)
			_, _ = fmt.Fprintln(tabWriter, "SETTING\tVALUE")
			_, _ = fmt.Fprintln(tabWriter, "-------\t-----")
			settings := cfg.ToMap()
			for _, key := range cfg.Keys() {
				_, _ = fmt.Fprintf(tabWriter, "%s\t%s\n", key, settings[key])
			}
			_ = tabWriter.Flush()

			_, _ = fmt.Fprintf(out, "\nRepositories (%d):\n", len(cfg.Repositories))
			for _, repo := range cfg.Repositories {
				status := "enabled"
				if !repo.IsEnabled() {
					status = "disabled"
				}
				rules := len(repo.Rules)
				if repo.Format == model.FormatMaven {
					mc := repo.MavenRuleConfig()
					rules = len(mc.Snapshot.Rules) + len(mc.Release.Rules)
				}
				_, _ = fmt.Fprintf(out, "  %s: %s, %d rule(s) (%s)\n", repo.Name, repo.Format, rules, status)
			}
			return nil
		},
	}
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := getConfigPath()
			cfg, err := config.LoadConfig(path)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d repositories, %d enabled)\n",
				path, len(cfg.Repositories), len(cfg.EnabledRepositories()))
			return nil
		},
	}
}

// Number of arguments expected by the set command.
const setCommandArgs = 2

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY VALUE",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(setCommandArgs),
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			key, value := args[0], args[1]
			if err := cfg.SetValue(key, value); err != nil {
				return fmt.Errorf("failed to set configuration value: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("%w: %w", errutils.ErrConfigValidation, err)
			}
			if err := cfg.SaveConfig(getConfigPath()); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}
			logger.Success("Configuration updated", logger.Fields{"key": key, "value": value})
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			value, err := cfg.GetValue(args[0])
			if err != nil {
				return fmt.Errorf("failed to get configuration value: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func newConfigInitCmd() *cobra.Command {
	var (
		force    bool
		nexusURL string
		username string
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file",
		Long:  "Create a configuration file with default settings and no repositories",
		RunE: func(_ *cobra.Command, _ []string) error {
			configPath := getConfigPath()
			if _, err := os.Stat(configPath); err == nil && !force {
				return fmt.Errorf("%s: %w", configPath, errutils.ErrConfigFileExists)
			}

			cfg := config.DefaultConfig()
			cfg.Nexus.URL = nexusURL
			cfg.Nexus.Username = username
			if err := cfg.SaveConfig(configPath); err != nil {
				return fmt.Errorf("failed to save default configuration: %w", err)
			}
			logger.Success("Configuration file created", logger.Fields{"path": configPath})
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration file")
	cmd.Flags().StringVar(&nexusURL, "nexus-url", "http://localhost:8081", "Base URL of the repository manager")
	cmd.Flags().StringVar(&username, "username", "", "User for basic authentication (password from $"+config.DefaultPasswordEnv+")")

	return cmd
}

func newConfigMatchCmd() *cobra.Command {
	var mavenType string

	cmd := &cobra.Command{
		Use:   "match REPOSITORY VERSION",
		Short: "Show which rule a version matches",
		Args:  cobra.ExactArgs(setCommandArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			repo, err := cfg.GetRepository(args[0])
			if err != nil {
				return err
			}
			version := args[1]

			rules := repo.RuleConfig()
			if repo.Format == model.FormatMaven {
				mc := repo.MavenRuleConfig()
				kind := model.MavenType(mavenType)
				if kind == "" {
					kind = retention.ClassifyMaven(version)
				}
				rules = mc.Release
				if kind == model.MavenSnapshot {
					rules = mc.Snapshot
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "type:     %s\n", kind)
			}

			cache, err := retention.NewPatternCache(cfg.Settings.PatternCacheSize)
			if err != nil {
				return err
			}
			m, err := retention.MatchVersion(version, rules, cache)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if m.NoMatch {
				_, _ = fmt.Fprintf(out, "pattern:  %s\n", retention.NoMatchPattern)
			} else {
				_, _ = fmt.Fprintf(out, "pattern:  %s\n", m.Pattern)
			}
			_, _ = fmt.Fprintf(out, "policy:   %s\n", describePolicy(m.Policy))
			return nil
		},
	}

	cmd.Flags().StringVar(&mavenType, "maven-type", "", "Force snapshot or release for maven2 repositories")
	return cmd
}

func describePolicy(p retention.Policy) string {
	if p.IsEmpty() {
		return "none (kept by default)"
	}
	s := ""
	add := func(name string, v *int) {
		if v == nil {
			return
		}
		if s != "" {
			s += ", "
		}
		s += fmt.Sprintf("%s=%d", name, *v)
	}
	add("reserved", p.Reserved)
	add("retention_days", p.RetentionDays)
	add("min_days_since_last_download", p.MinDaysSinceLastDownload)
	return s
}
