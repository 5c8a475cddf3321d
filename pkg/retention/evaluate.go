// Package retention decides which stored components may be deleted.
//
// Components are matched against an ordered rule set by version, grouped by
// (name, pattern[, maven type]), ordered newest first and then walked with
// reserved-slot, retention-window and recent-download protection in that
// order. Evaluation is pure: no I/O, no state shared between calls other than
// the compiled-pattern cache.
package retention

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/glorpus-work/reposweep/pkg/model"
)

// Evaluator runs retention decisions against a fixed clock.
type Evaluator struct {
	clock    func() time.Time
	patterns *PatternCache
	logger   *slog.Logger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithNow pins the evaluation instant.
func WithNow(now time.Time) Option {
	return func(e *Evaluator) {
		e.clock = func() time.Time { return now }
	}
}

// WithClock sets the function used to read the current time.
func WithClock(clock func() time.Time) Option {
	return func(e *Evaluator) {
		e.clock = clock
	}
}

// WithPatternCache shares a compiled-pattern cache across evaluators.
func WithPatternCache(c *PatternCache) Option {
	return func(e *Evaluator) {
		e.patterns = c
	}
}

// WithLogger sets the logger used for skip and verdict diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = l
	}
}

// NewEvaluator creates an Evaluator using the wall clock and a private pattern cache.
func NewEvaluator(opts ...Option) *Evaluator {
	e := &Evaluator{
		clock:  time.Now,
		logger: slog.Default().With("component", "retention"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.patterns == nil {
		cache, err := NewPatternCache(DefaultPatternCacheSize)
		if err != nil {
			panic(fmt.Sprintf("retention: pattern cache: %v", err))
		}
		e.patterns = cache
	}
	return e
}

// Evaluate partitions raw or docker components under cfg.
// Components whose version is exactly "latest" are always kept.
func (e *Evaluator) Evaluate(components []model.Component, cfg RuleConfig) (*model.EvaluationResult, error) {
	rs, err := compileRuleSet(cfg, e.patterns)
	if err != nil {
		return nil, err
	}
	return e.run(components, false, func(model.Component) (*ruleSet, model.MavenType) {
		return rs, ""
	}), nil
}

// EvaluateMaven classifies each component as snapshot or release and
// partitions it under the matching rule set.
func (e *Evaluator) EvaluateMaven(components []model.Component, cfg MavenRuleConfig) (*model.EvaluationResult, error) {
	snapshots, err := compileRuleSet(cfg.Snapshot, e.patterns)
	if err != nil {
		return nil, err
	}
	releases, err := compileRuleSet(cfg.Release, e.patterns)
	if err != nil {
		return nil, err
	}
	return e.run(components, true, func(c model.Component) (*ruleSet, model.MavenType) {
		t := ClassifyMaven(c.Version)
		if t == model.MavenSnapshot {
			return snapshots, t
		}
		return releases, t
	}), nil
}

func (e *Evaluator) run(components []model.Component, maven bool, selectRules func(model.Component) (*ruleSet, model.MavenType)) *model.EvaluationResult {
	now := e.clock()
	result := &model.EvaluationResult{}
	entries := make([]*entry, 0, len(components))

	for _, c := range components {
		if reason := unusable(c); reason != "" {
			e.skip(result, c, reason)
			continue
		}
		lastModified, lastDownload, ok := ExtractTimestamps(c.Assets)
		if !ok {
			e.skip(result, c, "no parseable lastModified")
			continue
		}
		if !maven && c.Version == LatestVersion {
			result.Kept = append(result.Kept, model.Verdict{
				Component:    c,
				Reason:       ReasonLatest,
				LastModified: lastModified,
				LastDownload: lastDownload,
			})
			continue
		}
		rs, mavenType := selectRules(c)
		entries = append(entries, &entry{
			component:    c,
			lastModified: lastModified,
			lastDownload: lastDownload,
			match:        rs.match(c.Version),
			mavenType:    mavenType,
		})
	}

	for _, g := range groupEntries(entries, maven) {
		for pos, en := range g.entries {
			keep, reason := decide(g, pos, en, now)
			v := model.Verdict{
				Component:      en.component,
				WillDelete:     !keep,
				Reason:         reason,
				MatchedPattern: en.match.Pattern,
				MavenType:      en.mavenType,
				LastModified:   en.lastModified,
				LastDownload:   en.lastDownload,
				Position:       pos,
				GroupSize:      len(g.entries),
			}
			if keep {
				result.Kept = append(result.Kept, v)
			} else {
				result.Deleted = append(result.Deleted, v)
			}
			e.logger.Debug("verdict",
				"name", en.component.Name,
				"version", en.component.Version,
				"pattern", en.match.Pattern,
				"delete", !keep,
				"reason", reason,
			)
		}
	}
	return result
}

func (e *Evaluator) skip(result *model.EvaluationResult, c model.Component, reason string) {
	result.Skipped = append(result.Skipped, model.Skip{Component: c, Reason: reason})
	e.logger.Debug("skipping component", "id", c.ID, "name", c.Name, "version", c.Version, "reason", reason)
}

func unusable(c model.Component) string {
	switch {
	case len(c.Assets) == 0:
		return "no assets"
	case c.Name == "":
		return "missing name"
	case c.Version == "":
		return "missing version"
	default:
		return ""
	}
}
