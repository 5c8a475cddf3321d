package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/reposweep/internal/logger"
	"github.com/glorpus-work/reposweep/pkg/audit"
	"github.com/glorpus-work/reposweep/pkg/config"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	var (
		limit     int
		runID     string
		olderThan time.Duration
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past cleanup runs",
		Long: `List recorded cleanup runs, newest first. Use --run to show the
verdicts of one run and --prune to remove runs older than a duration.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			format, err := outputFormat(cfg)
			if err != nil {
				return err
			}
			store, err := openAudit(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ctx := cmd.Context()
			switch {
			case olderThan > 0:
				removed, err := store.Prune(ctx, time.Now().Add(-olderThan))
				if err != nil {
					return err
				}
				logger.Success("Pruned run history", logger.Fields{"removed": removed})
				return nil

			case runID != "":
				records, err := store.RunVerdicts(ctx, runID)
				if err != nil {
					return err
				}
				if format != OutputText {
					return writeStructured(cmd.OutOrStdout(), format, records)
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, TabWidth, ' ', 0)
				_, _ = fmt.Fprintln(tw, "REPOSITORY\tNAME\tVERSION\tVERDICT\tSTATUS\tREASON")
				for _, r := range records {
					verdict := "keep"
					if r.WillDelete {
						verdict = "delete"
					}
					status := string(r.Status)
					if status == "" {
						status = "-"
					}
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
						r.Repository, r.Name, r.Version, verdict, status, truncate(r.Reason, MaxReasonLength))
				}
				return tw.Flush()

			default:
				runs, err := store.ListRuns(ctx, limit)
				if err != nil {
					return err
				}
				if format != OutputText {
					return writeStructured(cmd.OutOrStdout(), format, runs)
				}
				if len(runs) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded")
					return nil
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, TabWidth, ' ', 0)
				_, _ = fmt.Fprintln(tw, "RUN\tSTARTED\tMODE\tREPOSITORIES\tKEPT\tDELETED\tFAILED")
				for _, r := range runs {
					mode := "live"
					if r.DryRun {
						mode = "dry-run"
					}
					_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
						r.ID, r.StartedAt.Local().Format(time.DateTime), mode,
						r.Repositories, r.Kept, r.Deleted, r.Failed)
				}
				return tw.Flush()
			}
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", DefaultHistoryLimit, "Number of runs to list (0 for all)")
	cmd.Flags().StringVar(&runID, "run", "", "Show the verdicts of this run")
	cmd.Flags().DurationVar(&olderThan, "prune", 0, "Remove runs older than this duration (e.g. 720h)")
	cmd.MarkFlagsMutuallyExclusive("run", "prune")

	return cmd
}

func openAudit(cfg *config.Config) (*audit.Store, error) {
	if cfg.Settings.AuditDB == "" {
		return nil, fmt.Errorf("audit_db is not configured")
	}
	return audit.Open(cfg.Settings.AuditDB)
}
