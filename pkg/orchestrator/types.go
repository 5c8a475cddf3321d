//go:generate mockgen -destination=./mocks/orchestrator.go -package=mocks . ComponentSource,Deleter,Vetoer,Recorder,Reporter,Observer

package orchestrator

import (
	"context"
	"time"

	"github.com/glorpus-work/reposweep/pkg/model"
	"github.com/glorpus-work/reposweep/pkg/retention"
)

// ComponentSource lists the contents of a repository.
type ComponentSource interface {
	ListComponents(ctx context.Context, repository string) ([]model.Component, error)
	ListAssets(ctx context.Context, repository string) ([]model.Asset, error)
}

// Deleter removes components and assets from the repository manager.
type Deleter interface {
	DeleteComponent(ctx context.Context, id string) error
	DeleteAsset(ctx context.Context, id string) error
}

// Vetoer may keep a component the rules selected for deletion.
type Vetoer interface {
	Review(ctx context.Context, v model.Verdict) (keep bool, reason string, err error)
}

// Recorder persists finished runs.
type Recorder interface {
	RecordRun(ctx context.Context, run *Run) error
}

// Reporter writes a report for a finished run and returns its location.
type Reporter interface {
	WriteRun(run *Run) (string, error)
}

// Observer is told about every finished target.
type Observer interface {
	ObserveTarget(result *TargetResult)
}

// Orchestrator lists, evaluates and cleans up repositories.
type Orchestrator struct {
	Source    ComponentSource
	Deleter   Deleter
	Evaluator *retention.Evaluator
	Vetoer    Vetoer   // optional
	Recorder  Recorder // optional
	Reporter  Reporter // optional
	Observer  Observer // optional
	Hooks     Hooks    // Hooks for progress and event notifications
}

// Event represents a simple progress notification.
type Event struct {
	Phase string // listing|evaluating|reviewing|deleting|done|error
	ID    string // repository name
	Msg   string
}

// Hooks carries callbacks for progress events. OnEvent is never called
// concurrently.
type Hooks struct {
	OnEvent func(Event)
}

// Event phases.
const (
	PhaseListing    = "listing"
	PhaseEvaluating = "evaluating"
	PhaseReviewing  = "reviewing"
	PhaseDeleting   = "deleting"
	PhaseDone       = "done"
	PhaseError      = "error"
)

// Options control orchestrator execution.
type Options struct {
	Concurrency int
	DryRun      bool
}

// Target is one repository to clean up. Rules is used for raw and docker
// repositories, Maven for maven2 repositories.
type Target struct {
	Repository string
	Format     model.Format
	Rules      retention.RuleConfig
	Maven      retention.MavenRuleConfig
}

// DeletionStatus is the outcome of deleting one component.
type DeletionStatus string

// Deletion statuses.
const (
	StatusPlanned DeletionStatus = "planned" // dry run
	StatusDeleted DeletionStatus = "deleted"
	StatusGone    DeletionStatus = "already-gone"
	StatusFailed  DeletionStatus = "failed"
)

// Deletion records what happened to one delete verdict.
type Deletion struct {
	ComponentID string         `json:"component_id"`
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Status      DeletionStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
}

// TargetResult is the outcome of one target.
type TargetResult struct {
	Repository string                  `json:"repository"`
	Format     model.Format            `json:"format"`
	Evaluation *model.EvaluationResult `json:"evaluation,omitempty"`
	Vetoed     int                     `json:"vetoed"`
	Deletions  []Deletion              `json:"deletions,omitempty"`
	Error      string                  `json:"error,omitempty"`
	Duration   time.Duration           `json:"duration"`
}

// Failed reports whether the target could not be evaluated or a deletion failed.
func (r *TargetResult) Failed() bool {
	if r.Error != "" {
		return true
	}
	for _, d := range r.Deletions {
		if d.Status == StatusFailed {
			return true
		}
	}
	return false
}

// Count returns the number of deletions with the given status.
func (r *TargetResult) Count(status DeletionStatus) int {
	n := 0
	for _, d := range r.Deletions {
		if d.Status == status {
			n++
		}
	}
	return n
}

// Run is the outcome of one Cleanup call.
type Run struct {
	ID         string          `json:"id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	DryRun     bool            `json:"dry_run"`
	Results    []*TargetResult `json:"results"`
}

// Failed reports whether any target failed.
func (r *Run) Failed() bool {
	for _, res := range r.Results {
		if res.Failed() {
			return true
		}
	}
	return false
}
