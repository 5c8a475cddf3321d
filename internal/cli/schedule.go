package cli

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/reposweep/internal/logger"
	"github.com/glorpus-work/reposweep/pkg/config"
	"github.com/glorpus-work/reposweep/pkg/metrics"
	"github.com/glorpus-work/reposweep/pkg/scheduler"
)

// daemon runs cleanups on the configured schedule and follows config changes.
type daemon struct {
	path      string
	collector *metrics.Collector
	sched     *scheduler.Scheduler

	mu  sync.RWMutex
	cfg *config.Config
}

func (d *daemon) current() *config.Config {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cfg
}

// job runs one cleanup with the configuration current at tick time.
func (d *daemon) job(ctx context.Context) error {
	cfg := d.current()
	run, err := executeRun(ctx, cfg, runOptions{DryRun: cfg.Settings.IsDryRun()}, d.collector)
	if run != nil {
		logger.Info("Scheduled run finished", logger.Fields{
			"run":    run.ID,
			"failed": run.Failed(),
		})
	}
	return err
}

// reload replaces the configuration. An invalid file keeps the previous one.
func (d *daemon) reload() error {
	cfg, err := config.LoadConfig(d.path)
	if err != nil {
		return err
	}
	if cfg.Settings.Schedule == "" {
		return fmt.Errorf("schedule removed from %s, keeping previous configuration", d.path)
	}
	if err := d.sched.Reschedule(cfg.Settings.Schedule); err != nil {
		return err
	}

	d.mu.Lock()
	d.cfg = cfg
	d.mu.Unlock()
	logger.Info("Configuration reloaded", logger.Fields{
		"repositories": len(cfg.EnabledRepositories()),
		"schedule":     cfg.Settings.Schedule,
	})
	return nil
}

// NewScheduleCmd creates the schedule command.
func NewScheduleCmd() *cobra.Command {
	var (
		schedule    string
		metricsAddr string
		runNow      bool
		noWatch     bool
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run cleanups on a cron schedule",
		Long: `Run in the foreground and start a cleanup on every tick of the
configured cron schedule. The configuration file is watched and reloaded
when it changes. When metrics_addr is set, Prometheus metrics are served
at /metrics.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if schedule != "" {
				cfg.Settings.Schedule = schedule
			}
			if metricsAddr != "" {
				cfg.Settings.MetricsAddr = metricsAddr
			}
			if cfg.Settings.Schedule == "" {
				return fmt.Errorf("no schedule configured (set settings.schedule or use --cron)")
			}

			d := &daemon{
				path:      getConfigPath(),
				cfg:       cfg,
				collector: metrics.NewCollector(nil),
			}
			d.sched, err = scheduler.New(cfg.Settings.Schedule, d.job)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			var wg sync.WaitGroup
			errCh := make(chan error, 2)

			if cfg.Settings.MetricsAddr != "" {
				wg.Add(1)
				go func() {
					defer wg.Done()
					logger.Info("Serving metrics", logger.Fields{"addr": cfg.Settings.MetricsAddr})
					if err := d.collector.Serve(ctx, cfg.Settings.MetricsAddr); err != nil {
						errCh <- fmt.Errorf("metrics server: %w", err)
					}
				}()
			}

			if !noWatch {
				watcher, err := scheduler.NewFileWatcher(d.path, ReloadDebounce)
				if err != nil {
					return err
				}
				wg.Add(1)
				go func() {
					defer wg.Done()
					if err := watcher.Watch(ctx, d.reload); err != nil {
						errCh <- fmt.Errorf("config watcher: %w", err)
					}
				}()
			}

			if err := d.sched.Start(ctx); err != nil {
				return err
			}
			if next := d.sched.NextRun(); next != nil {
				logger.Info("Next cleanup scheduled", logger.Fields{"at": next.Local()})
			}

			if runNow {
				if err := d.sched.RunNow(ctx); err != nil {
					logger.Error("Initial cleanup failed", logger.Fields{"error": err})
				}
			}

			var runErr error
			select {
			case <-ctx.Done():
			case runErr = <-errCh:
			}
			cancel()
			d.sched.Stop()
			wg.Wait()
			return runErr
		},
	}

	cmd.Flags().StringVar(&schedule, "cron", "", "Cron schedule (overrides settings.schedule)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Address to serve metrics on (overrides settings.metrics_addr)")
	cmd.Flags().BoolVar(&runNow, "now", false, "Run a cleanup immediately after starting")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not reload the configuration when the file changes")

	return cmd
}
