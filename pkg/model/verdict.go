package model

import "time"

// MavenType is the snapshot/release classification of a Maven version.
type MavenType string

const (
	// MavenSnapshot marks SNAPSHOT and unique-timestamp snapshot versions.
	MavenSnapshot MavenType = "snapshot"
	// MavenRelease marks every other Maven version.
	MavenRelease MavenType = "release"
)

// Verdict is the keep/delete decision for one component.
type Verdict struct {
	Component      Component  `json:"component" yaml:"component"`
	WillDelete     bool       `json:"will_delete" yaml:"will_delete"`
	Reason         string     `json:"reason" yaml:"reason"`
	MatchedPattern string     `json:"matched_pattern" yaml:"matched_pattern"`
	MavenType      MavenType  `json:"maven_type,omitempty" yaml:"maven_type,omitempty"`
	LastModified   time.Time  `json:"last_modified" yaml:"last_modified"`
	LastDownload   *time.Time `json:"last_download,omitempty" yaml:"last_download,omitempty"`
	Position       int        `json:"position" yaml:"position"`     // 0-based, newest first
	GroupSize      int        `json:"group_size" yaml:"group_size"` // 0 when the component was not grouped
}

// Skip records a component that was excluded from evaluation.
type Skip struct {
	Component Component `json:"component" yaml:"component"`
	Reason    string    `json:"reason" yaml:"reason"`
}

// EvaluationResult partitions evaluated components into kept and deleted.
type EvaluationResult struct {
	Kept    []Verdict `json:"kept" yaml:"kept"`
	Deleted []Verdict `json:"deleted" yaml:"deleted"`
	Skipped []Skip    `json:"skipped,omitempty" yaml:"skipped,omitempty"`
}

// All returns every verdict, kept first.
func (r *EvaluationResult) All() []Verdict {
	out := make([]Verdict, 0, len(r.Kept)+len(r.Deleted))
	out = append(out, r.Kept...)
	return append(out, r.Deleted...)
}
