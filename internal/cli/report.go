package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/reposweep/internal/logger"
	"github.com/glorpus-work/reposweep/pkg/report"
)

// NewReportCmd creates the report command with subcommands.
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Manage run reports",
		Long:  "List, show and bundle the JSON reports written after each run",
	}

	cmd.AddCommand(
		newReportListCmd(),
		newReportShowCmd(),
		newReportBundleCmd(),
	)

	return cmd
}

func reportDir() (string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return "", err
	}
	if cfg.Settings.ReportDir == "" {
		return "", fmt.Errorf("report_dir is not configured")
	}
	return cfg.Settings.ReportDir, nil
}

func newReportListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List run reports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := reportDir()
			if err != nil {
				return err
			}
			paths, err := report.List(dir)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No reports found")
				return nil
			}
			for _, p := range paths {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}

func newReportShowCmd() *cobra.Command {
	var details bool

	cmd := &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Show the report of one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			format, err := outputFormat(cfg)
			if err != nil {
				return err
			}
			run, err := report.ReadRun(filepath.Join(cfg.Settings.ReportDir, report.FileName(args[0])))
			if err != nil {
				return err
			}
			return printRun(cmd.OutOrStdout(), format, run, details)
		},
	}

	cmd.Flags().BoolVar(&details, "details", false, "List every deletion in text output")
	return cmd
}

func newReportBundleCmd() *cobra.Command {
	var dest string

	cmd := &cobra.Command{
		Use:   "bundle",
		Short: "Compress all run reports into a tar.gz archive",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := reportDir()
			if err != nil {
				return err
			}
			n, err := report.Bundle(cmd.Context(), dir, dest)
			if err != nil {
				return err
			}
			logger.Success("Reports bundled", logger.Fields{"path": dest, "reports": n})
			return nil
		},
	}

	cmd.Flags().StringVarP(&dest, "file", "f", "reports.tar.gz", "Archive to write")
	return cmd
}
