package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/reposweep/internal/cli"
)

var (
	configPath   string
	envFiles     []string
	verbose      bool
	outputFormat string
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}

	cancel()
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reposweep",
		Short: "Retention-based cleanup for Nexus repositories",
		Long: `reposweep deletes old components from Nexus repositories according to
per-repository retention rules:
- run: evaluate rules and delete (dry run by default)
- evaluate: try rules offline against a saved listing
- schedule: run on a cron schedule with metrics and config reload`,
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return cli.InitRuntime()
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: auto-detect)")
	cmd.PersistentFlags().StringArrayVar(&envFiles, "env-file", nil, "load environment variables from this file (default: .env)")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "", "output format (text, json, yaml)")

	// Set up CLI pkg variables
	cli.ConfigPath = &configPath
	cli.EnvFiles = &envFiles
	cli.Verbose = &verbose
	cli.OutputFormat = &outputFormat

	// Add subcommands
	cmd.AddCommand(
		cli.NewRunCmd(),
		cli.NewEvaluateCmd(),
		cli.NewSnapshotCmd(),
		cli.NewScheduleCmd(),
		cli.NewHistoryCmd(),
		cli.NewReportCmd(),
		cli.NewConfigCmd(),
		cli.NewHookCmd(),
		cli.NewVersionCmd(),
	)

	return cmd
}
