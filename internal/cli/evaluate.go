package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/reposweep/internal/logger"
	"github.com/glorpus-work/reposweep/pkg/config"
	"github.com/glorpus-work/reposweep/pkg/fsutil"
	"github.com/glorpus-work/reposweep/pkg/model"
	"github.com/glorpus-work/reposweep/pkg/retention"
)

// Snapshot is a saved listing of one repository, used for offline evaluation.
type Snapshot struct {
	Repository string            `json:"repository,omitempty"`
	Format     model.Format      `json:"format,omitempty"`
	TakenAt    time.Time         `json:"taken_at,omitempty"`
	Components []model.Component `json:"components,omitempty"`
	Assets     []model.Asset     `json:"assets,omitempty"`
}

// readSnapshot reads a snapshot file. A bare JSON array is read as a list
// of components.
func readSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}

	var snap Snapshot
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &snap.Components); err != nil {
			return nil, fmt.Errorf("failed to parse snapshot %s: %w", path, err)
		}
		return &snap, nil
	}
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot %s: %w", path, err)
	}
	return &snap, nil
}

// evaluateSnapshot runs the rules of repo against a snapshot.
func evaluateSnapshot(cfg *config.Config, repo *config.RepositoryConfig, snap *Snapshot, now time.Time) (*model.EvaluationResult, error) {
	cache, err := retention.NewPatternCache(cfg.Settings.PatternCacheSize)
	if err != nil {
		return nil, err
	}
	evaluator := retention.NewEvaluator(
		retention.WithNow(now),
		retention.WithPatternCache(cache),
		retention.WithLogger(logger.WithComponent("retention")),
	)

	components := snap.Components
	if repo.Format == model.FormatRaw && len(snap.Assets) > 0 {
		components = append(components, retention.SynthesizeRawComponents(repo.Name, snap.Assets)...)
	}
	for i := range components {
		if components[i].Repository == "" {
			components[i].Repository = repo.Name
		}
		if components[i].Format == "" {
			components[i].Format = repo.Format
		}
	}

	if repo.Format == model.FormatMaven {
		return evaluator.EvaluateMaven(components, repo.MavenRuleConfig())
	}
	return evaluator.Evaluate(components, repo.RuleConfig())
}

// NewEvaluateCmd creates the evaluate command.
func NewEvaluateCmd() *cobra.Command {
	var (
		input      string
		repository string
		at         string
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate retention rules against a saved listing",
		Long: `Evaluate the rules of a configured repository against a snapshot file
without contacting the repository manager. Nothing is deleted.

The snapshot is either a JSON array of components or an object as written
by the snapshot command. Use --at to evaluate as of another instant.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			format, err := outputFormat(cfg)
			if err != nil {
				return err
			}

			snap, err := readSnapshot(input)
			if err != nil {
				return err
			}
			if repository == "" {
				repository = snap.Repository
			}
			if repository == "" {
				return fmt.Errorf("--repository is required when the snapshot does not name one")
			}
			repo, err := cfg.GetRepository(repository)
			if err != nil {
				return err
			}

			now := time.Now()
			if at != "" {
				now, err = time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at value %q: %w", at, err)
				}
			}

			result, err := evaluateSnapshot(cfg, repo, snap, now)
			if err != nil {
				return err
			}
			return printEvaluation(cmd.OutOrStdout(), format, result)
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "Snapshot file to evaluate")
	cmd.Flags().StringVarP(&repository, "repository", "r", "", "Repository whose rules are applied")
	cmd.Flags().StringVar(&at, "at", "", "Evaluation instant (RFC 3339, default now)")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// NewSnapshotCmd creates the snapshot command.
func NewSnapshotCmd() *cobra.Command {
	var (
		repository string
		outputPath string
	)

	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Save the listing of a repository for offline evaluation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			repo, err := cfg.GetRepository(repository)
			if err != nil {
				return err
			}
			client, err := newNexusClient(cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			snap := Snapshot{Repository: repo.Name, Format: repo.Format, TakenAt: time.Now().UTC()}
			if repo.Format == model.FormatRaw {
				snap.Assets, err = client.ListAssets(cmd.Context(), repo.Name)
			} else {
				snap.Components, err = client.ListComponents(cmd.Context(), repo.Name)
			}
			if err != nil {
				return fmt.Errorf("failed to list %s: %w", repo.Name, err)
			}

			data, err := json.MarshalIndent(snap, "", "  ")
			if err != nil {
				return err
			}
			if outputPath == "" {
				_, err = cmd.OutOrStdout().Write(append(data, '\n'))
				return err
			}
			if err := fsutil.WriteFileAtomic(outputPath, data, fsutil.FileModeDefault); err != nil {
				return err
			}
			logger.Success("Snapshot written", logger.Fields{
				"path":       outputPath,
				"components": len(snap.Components),
				"assets":     len(snap.Assets),
			})
			return nil
		},
	}

	cmd.Flags().StringVarP(&repository, "repository", "r", "", "Repository to list")
	cmd.Flags().StringVar(&outputPath, "file", "", "Write the snapshot to this file instead of stdout")
	_ = cmd.MarkFlagRequired("repository")

	return cmd
}
