package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/reposweep/internal/logger"
	"github.com/glorpus-work/reposweep/pkg/fsutil"
	"github.com/glorpus-work/reposweep/pkg/hooks"
)

// NewHookCmd creates the hook command with subcommands.
func NewHookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Work with pre-delete hook scripts",
	}

	cmd.AddCommand(
		newHookTemplateCmd(),
		newHookCheckCmd(),
	)

	return cmd
}

func newHookTemplateCmd() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Print a starter hook script",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if outputPath == "" {
				_, err := fmt.Fprint(cmd.OutOrStdout(), hooks.Template())
				return err
			}
			if err := fsutil.WriteFileAtomic(outputPath, []byte(hooks.Template()), fsutil.FileModeDefault); err != nil {
				return err
			}
			logger.Success("Hook template written", logger.Fields{"path": outputPath})
			return nil
		},
	}

	cmd.Flags().StringVar(&outputPath, "file", "", "Write the template to this file instead of stdout")
	return cmd
}

func newHookCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check FILE",
		Short: "Compile a hook script and report errors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := hooks.NewTengoVetoer().LoadFile("check", args[0]); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", args[0])
			return nil
		},
	}
}
