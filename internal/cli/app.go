package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/glorpus-work/reposweep/internal/logger"
	"github.com/glorpus-work/reposweep/pkg/audit"
	"github.com/glorpus-work/reposweep/pkg/config"
	"github.com/glorpus-work/reposweep/pkg/hooks"
	"github.com/glorpus-work/reposweep/pkg/metrics"
	"github.com/glorpus-work/reposweep/pkg/nexus"
	"github.com/glorpus-work/reposweep/pkg/orchestrator"
	"github.com/glorpus-work/reposweep/pkg/report"
	"github.com/glorpus-work/reposweep/pkg/retention"
)

// runOptions select what one cleanup run does.
type runOptions struct {
	DryRun       bool
	Repositories []string
	Concurrency  int
	Progress     io.Writer // nil for no progress output
}

// newNexusClient builds a client for the configured repository manager.
func newNexusClient(cfg *config.Config) (*nexus.Client, error) {
	auth, err := cfg.Nexus.Authenticator()
	if err != nil {
		return nil, err
	}
	opts := []nexus.Option{
		nexus.WithTimeout(cfg.Settings.HTTPTimeout),
		nexus.WithMaxRetries(cfg.Settings.MaxRetries),
		nexus.WithUserAgent("reposweep/" + Version),
		nexus.WithLogger(logger.WithComponent("nexus")),
	}
	if auth != nil {
		opts = append(opts, nexus.WithAuthenticator(auth))
	}
	return nexus.NewClient(cfg.Nexus.URL, opts...)
}

// newVetoer loads the pre-delete hooks of the given targets. It returns
// nil when no target has a hook.
func newVetoer(cfg *config.Config, targets []orchestrator.Target) (*hooks.TengoVetoer, error) {
	var vetoer *hooks.TengoVetoer
	for _, t := range targets {
		repo, err := cfg.GetRepository(t.Repository)
		if err != nil || repo.PreDeleteHook == "" {
			continue
		}
		if vetoer == nil {
			vetoer = hooks.NewTengoVetoer()
		}
		if err := vetoer.LoadFile(repo.Name, repo.PreDeleteHook); err != nil {
			return nil, err
		}
	}
	return vetoer, nil
}

func newEvaluator(cfg *config.Config) (*retention.Evaluator, error) {
	cache, err := retention.NewPatternCache(cfg.Settings.PatternCacheSize)
	if err != nil {
		return nil, err
	}
	return retention.NewEvaluator(
		retention.WithPatternCache(cache),
		retention.WithLogger(logger.WithComponent("retention")),
	), nil
}

// executeRun performs one cleanup run against the repository manager.
// collector may be nil.
func executeRun(ctx context.Context, cfg *config.Config, opts runOptions, collector *metrics.Collector) (*orchestrator.Run, error) {
	targets, err := buildTargets(cfg, opts.Repositories)
	if err != nil {
		return nil, err
	}

	client, err := newNexusClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create nexus client: %w", err)
	}
	defer client.Close()

	preflightCtx, cancel := context.WithTimeout(ctx, PreflightTimeout)
	err = client.Status(preflightCtx)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("nexus at %s is not reachable: %w", cfg.Nexus.URL, err)
	}

	evaluator, err := newEvaluator(cfg)
	if err != nil {
		return nil, err
	}

	var progress orchestrator.Hooks
	if opts.Progress != nil {
		progress = progressHooks(opts.Progress)
	}
	orch := orchestrator.New(client, client, evaluator, progress)

	vetoer, err := newVetoer(cfg, targets)
	if err != nil {
		return nil, err
	}
	if vetoer != nil {
		orch.Vetoer = vetoer
	}

	if cfg.Settings.AuditDB != "" {
		store, err := audit.Open(cfg.Settings.AuditDB)
		if err != nil {
			return nil, err
		}
		defer func() { _ = store.Close() }()
		orch.Recorder = store
	}
	if cfg.Settings.ReportDir != "" {
		orch.Reporter = report.NewWriter(cfg.Settings.ReportDir)
	}
	if collector != nil {
		orch.Observer = collector
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = cfg.Settings.Concurrency
	}

	logger.Info("Starting cleanup run", logger.Fields{
		"targets":     len(targets),
		"dry_run":     opts.DryRun,
		"concurrency": concurrency,
	})
	return orch.Cleanup(ctx, targets, orchestrator.Options{
		Concurrency: concurrency,
		DryRun:      opts.DryRun,
	})
}
