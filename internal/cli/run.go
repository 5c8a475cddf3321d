package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/reposweep/internal/logger"
)

// NewRunCmd creates the run command.
func NewRunCmd() *cobra.Command {
	var (
		dryRun       bool
		noDryRun     bool
		repositories []string
		concurrency  int
		details      bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a cleanup against the repository manager",
		Long: `Evaluate the retention rules of every enabled repository and delete
the components they select.

The configured dry_run setting decides whether anything is deleted; use
--dry-run or --no-dry-run to override it for one run. Use --repository
(repeatable) to limit the run to specific repositories.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			format, err := outputFormat(cfg)
			if err != nil {
				return err
			}

			opts := runOptions{
				DryRun:       cfg.Settings.IsDryRun(),
				Repositories: repositories,
				Concurrency:  concurrency,
			}
			switch {
			case dryRun:
				opts.DryRun = true
			case noDryRun:
				opts.DryRun = false
			}
			if format == OutputText {
				opts.Progress = cmd.ErrOrStderr()
			}

			run, err := executeRun(cmd.Context(), cfg, opts, nil)
			if run == nil {
				return err
			}
			if err != nil {
				logger.Error("Run finished with errors", logger.Fields{"error": err})
			}
			if perr := printRun(cmd.OutOrStdout(), format, run, details); perr != nil {
				return perr
			}
			if run.Failed() {
				return fmt.Errorf("cleanup run %s had failures", run.ID)
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Evaluate and report without deleting anything")
	cmd.Flags().BoolVar(&noDryRun, "no-dry-run", false, "Delete selected components even if dry_run is configured")
	cmd.MarkFlagsMutuallyExclusive("dry-run", "no-dry-run")
	cmd.Flags().StringArrayVarP(&repositories, "repository", "r", nil, "Repository to clean up (repeatable)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 0, "Repositories processed in parallel (default from config)")
	cmd.Flags().BoolVar(&details, "details", false, "List every deletion in text output")

	return cmd
}
