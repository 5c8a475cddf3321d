// Package orchestrator runs cleanup across repositories: it lists each
// repository, evaluates retention rules, lets hooks veto deletions, deletes
// what is left unless running dry, and hands the finished run to the
// configured recorder, reporter and observer.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/glorpus-work/reposweep/pkg/model"
	"github.com/glorpus-work/reposweep/pkg/nexus"
	"github.com/glorpus-work/reposweep/pkg/retention"
)

// VetoReasonPrefix starts the reason of every verdict kept by a hook.
const VetoReasonPrefix = "vetoed by hook"

// New constructs an Orchestrator from a source, a deleter and an evaluator.
// Hooks can be zero if no event handling is needed.
func New(src ComponentSource, del Deleter, ev *retention.Evaluator, hooks Hooks) *Orchestrator {
	return &Orchestrator{
		Source:    src,
		Deleter:   del,
		Evaluator: ev,
		Hooks:     hooks,
	}
}

// Cleanup processes every target and returns the finished run. A failing
// target does not stop the others; its error is recorded in its result.
// The returned error reports only failures to record or report the run.
func (o *Orchestrator) Cleanup(ctx context.Context, targets []Target, opts Options) (*Run, error) {
	if o.Source == nil {
		return nil, fmt.Errorf("component source is not configured")
	}
	if !opts.DryRun && o.Deleter == nil {
		return nil, fmt.Errorf("deleter is not configured")
	}
	if o.Evaluator == nil {
		o.Evaluator = retention.NewEvaluator()
	}

	run := &Run{
		ID:        uuid.NewString(),
		StartedAt: time.Now().UTC(),
		DryRun:    opts.DryRun,
		Results:   make([]*TargetResult, len(targets)),
	}

	em := &emitter{hooks: o.Hooks}
	o.runTargetWorkers(ctx, targets, opts, em, run.Results)

	run.FinishedAt = time.Now().UTC()
	em.emit(Event{Phase: PhaseDone, ID: run.ID, Msg: summary(run)})

	var errs []error
	if o.Recorder != nil {
		if err := o.Recorder.RecordRun(ctx, run); err != nil {
			errs = append(errs, fmt.Errorf("record run %s: %w", run.ID, err))
		}
	}
	if o.Reporter != nil {
		if _, err := o.Reporter.WriteRun(run); err != nil {
			errs = append(errs, fmt.Errorf("report run %s: %w", run.ID, err))
		}
	}
	return run, errors.Join(errs...)
}

func (o *Orchestrator) runTargetWorkers(ctx context.Context, targets []Target, opts Options, em *emitter, results []*TargetResult) {
	workers := opts.Concurrency
	if workers < 1 {
		workers = 1
	}
	if workers > len(targets) {
		workers = len(targets)
	}

	tasks := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range tasks {
				results[i] = o.processTarget(ctx, targets[i], opts, em)
			}
		}()
	}

	for i := range targets {
		tasks <- i
	}
	close(tasks)
	wg.Wait()
}

func (o *Orchestrator) processTarget(ctx context.Context, t Target, opts Options, em *emitter) *TargetResult {
	start := time.Now()
	result := &TargetResult{Repository: t.Repository, Format: t.Format}
	defer func() {
		result.Duration = time.Since(start)
		if o.Observer != nil {
			o.Observer.ObserveTarget(result)
		}
	}()

	fail := func(err error) *TargetResult {
		result.Error = err.Error()
		em.emit(Event{Phase: PhaseError, ID: t.Repository, Msg: result.Error})
		return result
	}

	em.emit(Event{Phase: PhaseListing, ID: t.Repository})
	components, err := o.list(ctx, t)
	if err != nil {
		return fail(fmt.Errorf("list %s: %w", t.Repository, err))
	}

	em.emit(Event{Phase: PhaseEvaluating, ID: t.Repository, Msg: fmt.Sprintf("%d components", len(components))})
	eval, err := o.evaluate(components, t)
	if err != nil {
		return fail(fmt.Errorf("evaluate %s: %w", t.Repository, err))
	}
	result.Evaluation = eval

	if o.Vetoer != nil && len(eval.Deleted) > 0 {
		em.emit(Event{Phase: PhaseReviewing, ID: t.Repository, Msg: fmt.Sprintf("%d candidates", len(eval.Deleted))})
		result.Vetoed = o.review(ctx, eval)
	}

	em.emit(Event{Phase: PhaseDeleting, ID: t.Repository, Msg: fmt.Sprintf("%d components", len(eval.Deleted))})
	result.Deletions = o.deleteAll(ctx, t, eval.Deleted, opts.DryRun)
	return result
}

func (o *Orchestrator) list(ctx context.Context, t Target) ([]model.Component, error) {
	if t.Format == model.FormatRaw {
		assets, err := o.Source.ListAssets(ctx, t.Repository)
		if err != nil {
			return nil, err
		}
		return retention.SynthesizeRawComponents(t.Repository, assets), nil
	}
	return o.Source.ListComponents(ctx, t.Repository)
}

func (o *Orchestrator) evaluate(components []model.Component, t Target) (*model.EvaluationResult, error) {
	if t.Format == model.FormatMaven {
		return o.Evaluator.EvaluateMaven(components, t.Maven)
	}
	return o.Evaluator.Evaluate(components, t.Rules)
}

// review moves vetoed verdicts from Deleted to Kept. A failing hook keeps
// the component.
func (o *Orchestrator) review(ctx context.Context, eval *model.EvaluationResult) int {
	remaining := eval.Deleted[:0]
	vetoed := 0
	for _, v := range eval.Deleted {
		keep, reason, err := o.Vetoer.Review(ctx, v)
		if err != nil {
			keep = true
			reason = "hook failed: " + err.Error()
		}
		if !keep {
			remaining = append(remaining, v)
			continue
		}
		v.WillDelete = false
		v.Reason = VetoReasonPrefix
		if reason != "" {
			v.Reason += ": " + reason
		}
		eval.Kept = append(eval.Kept, v)
		vetoed++
	}
	eval.Deleted = remaining
	return vetoed
}

func (o *Orchestrator) deleteAll(ctx context.Context, t Target, verdicts []model.Verdict, dryRun bool) []Deletion {
	deletions := make([]Deletion, 0, len(verdicts))
	for _, v := range verdicts {
		d := Deletion{ComponentID: v.Component.ID, Name: v.Component.Name, Version: v.Component.Version}
		switch {
		case dryRun:
			d.Status = StatusPlanned
		case ctx.Err() != nil:
			d.Status = StatusFailed
			d.Error = ctx.Err().Error()
		default:
			d.Status, d.Error = o.deleteOne(ctx, t, v.Component)
		}
		deletions = append(deletions, d)
	}
	return deletions
}

// deleteOne removes a component. Raw components are synthesized from
// assets, so their assets are deleted one by one instead.
func (o *Orchestrator) deleteOne(ctx context.Context, t Target, c model.Component) (DeletionStatus, string) {
	if t.Format != model.FormatRaw {
		return classify(o.Deleter.DeleteComponent(ctx, c.ID))
	}

	status := StatusGone
	for _, a := range c.Assets {
		s, msg := classify(o.Deleter.DeleteAsset(ctx, a.ID))
		switch s {
		case StatusFailed:
			return s, msg
		case StatusDeleted:
			status = StatusDeleted
		}
	}
	return status, ""
}

func classify(err error) (DeletionStatus, string) {
	switch {
	case err == nil:
		return StatusDeleted, ""
	case errors.Is(err, nexus.ErrNotFound):
		return StatusGone, ""
	default:
		return StatusFailed, err.Error()
	}
}

func summary(run *Run) string {
	var kept, deleted, failed int
	for _, r := range run.Results {
		if r.Evaluation != nil {
			kept += len(r.Evaluation.Kept)
		}
		deleted += r.Count(StatusDeleted) + r.Count(StatusPlanned)
		failed += r.Count(StatusFailed)
		if r.Error != "" {
			failed++
		}
	}
	return fmt.Sprintf("%d repositories, %d kept, %d deleted, %d failed", len(run.Results), kept, deleted, failed)
}

type emitter struct {
	hooks Hooks
	mu    sync.Mutex
}

func (e *emitter) emit(ev Event) {
	if e.hooks.OnEvent == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.hooks.OnEvent(ev)
}
