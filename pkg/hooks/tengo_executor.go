// Package hooks runs user supplied Tengo scripts that may veto deletions.
//
// A script is compiled once per repository and run for every delete verdict
// of that repository with the following globals set:
//
//	repository, format, name, version   identity of the component
//	reason, pattern                     why it was selected for deletion
//	lastModified, lastDownload          RFC 3339 timestamps, lastDownload may be ""
//	keep                                set to true to veto the deletion
//	vetoReason                          optional explanation reported with the veto
package hooks

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/glorpus-work/reposweep/pkg/errutils"
	"github.com/glorpus-work/reposweep/pkg/model"
)

var scriptVars = []string{
	"repository", "format", "name", "version",
	"reason", "pattern", "lastModified", "lastDownload",
	"vetoReason",
}

// TengoVetoer holds one compiled veto script per repository.
type TengoVetoer struct {
	scripts map[string]*tengo.Compiled
	mutex   sync.RWMutex
}

// NewTengoVetoer creates an empty vetoer.
func NewTengoVetoer() *TengoVetoer {
	return &TengoVetoer{
		scripts: make(map[string]*tengo.Compiled),
	}
}

// AddScript compiles script and registers it for repository, replacing any
// previous script.
func (e *TengoVetoer) AddScript(repository, script string) error {
	s := tengo.NewScript([]byte(script))
	s.SetImports(stdlib.GetModuleMap("fmt", "text", "times", "math"))

	for _, name := range scriptVars {
		if err := s.Add(name, ""); err != nil {
			return fmt.Errorf("failed to add %s to script: %w", name, err)
		}
	}
	if err := s.Add("keep", false); err != nil {
		return fmt.Errorf("failed to add keep to script: %w", err)
	}

	compiled, err := s.Compile()
	if err != nil {
		return fmt.Errorf("%s: %w: %w", repository, errutils.ErrHookLoad, err)
	}

	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.scripts[repository] = compiled
	return nil
}

// LoadFile reads a script from path and registers it for repository.
func (e *TengoVetoer) LoadFile(repository, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w %s: %w", errutils.ErrHookLoad, path, err)
	}
	return e.AddScript(repository, string(content))
}

// RemoveScript removes the script of repository.
func (e *TengoVetoer) RemoveScript(repository string) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	delete(e.scripts, repository)
}

// HasScript checks if repository has a script.
func (e *TengoVetoer) HasScript(repository string) bool {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	_, exists := e.scripts[repository]
	return exists
}

// Review runs the script of the verdict's repository. Without a script the
// deletion stands. A script error never turns into a deletion: callers
// should keep the component when err is non-nil.
func (e *TengoVetoer) Review(ctx context.Context, v model.Verdict) (keep bool, reason string, err error) {
	e.mutex.RLock()
	compiled, exists := e.scripts[v.Component.Repository]
	e.mutex.RUnlock()
	if !exists {
		return false, "", nil
	}

	run := compiled.Clone()
	lastDownload := ""
	if v.LastDownload != nil {
		lastDownload = v.LastDownload.UTC().Format(time.RFC3339)
	}
	values := map[string]any{
		"repository":   v.Component.Repository,
		"format":       string(v.Component.Format),
		"name":         v.Component.Name,
		"version":      v.Component.Version,
		"reason":       v.Reason,
		"pattern":      v.MatchedPattern,
		"lastModified": v.LastModified.UTC().Format(time.RFC3339),
		"lastDownload": lastDownload,
		"vetoReason":   "",
		"keep":         false,
	}
	for name, value := range values {
		if err := run.Set(name, value); err != nil {
			return false, "", fmt.Errorf("failed to set %s: %w", name, err)
		}
	}

	if err := run.RunContext(ctx); err != nil {
		return false, "", fmt.Errorf("%s %s: %w: %w", v.Component.Repository, v.Component.Key(), errutils.ErrHookExecution, err)
	}

	keepVar := run.Get("keep")
	if keepVar == nil || keepVar.IsUndefined() {
		return false, "", nil
	}
	if _, ok := keepVar.Value().(bool); !ok {
		return false, "", fmt.Errorf("%w: keep must be a bool, got %s", errutils.ErrHookScript, keepVar.ValueType())
	}
	if !keepVar.Bool() {
		return false, "", nil
	}
	return true, run.Get("vetoReason").String(), nil
}

// Template returns a starter veto script.
func Template() string {
	return `// Pre-delete veto hook
// Set keep = true to keep a component that the rules selected for deletion.
// Available variables: repository, format, name, version, reason, pattern,
// lastModified, lastDownload (RFC 3339, "" when never downloaded).
text := import("text")

if text.has_suffix(version, "-pinned") {
    keep = true
    vetoReason = "pinned build"
}
`
}
