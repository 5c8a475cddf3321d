// Package testutil provides an in-memory Nexus REST API for tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/glorpus-work/reposweep/pkg/model"
)

// FakeNexus serves the component, asset and status endpoints of the Nexus
// REST API from memory and records deletions.
type FakeNexus struct {
	Server   *httptest.Server
	PageSize int

	mu         sync.Mutex
	components map[string][]model.Component
	assets     map[string][]model.Asset
	deleted    []string
	failDelete map[string]int
}

// NewFakeNexus starts a fake server that is closed when the test ends.
func NewFakeNexus(t *testing.T) *FakeNexus {
	t.Helper()
	f := &FakeNexus{
		PageSize:   2,
		components: map[string][]model.Component{},
		assets:     map[string][]model.Asset{},
		failDelete: map[string]int{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /service/rest/v1/status", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /service/rest/v1/components", f.listComponents)
	mux.HandleFunc("GET /service/rest/v1/assets", f.listAssets)
	mux.HandleFunc("DELETE /service/rest/v1/components/{id}", f.delete)
	mux.HandleFunc("DELETE /service/rest/v1/assets/{id}", f.delete)
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the base URL of the server.
func (f *FakeNexus) URL() string {
	return f.Server.URL
}

// AddComponent stores a component in repository.
func (f *FakeNexus) AddComponent(repository string, c model.Component) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.Repository = repository
	f.components[repository] = append(f.components[repository], c)
}

// AddAsset stores a raw asset in repository.
func (f *FakeNexus) AddAsset(repository string, a model.Asset) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assets[repository] = append(f.assets[repository], a)
}

// FailDelete makes deleting id answer with status.
func (f *FakeNexus) FailDelete(id string, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failDelete[id] = status
}

// Deleted returns the ids deleted so far in request order.
func (f *FakeNexus) Deleted() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.deleted...)
}

type page[T any] struct {
	Items             []T     `json:"items"`
	ContinuationToken *string `json:"continuationToken"`
}

func paginate[T any](w http.ResponseWriter, r *http.Request, items []T, size int) {
	start := 0
	if tok := r.URL.Query().Get("continuationToken"); tok != "" {
		n, err := strconv.Atoi(tok)
		if err != nil {
			http.Error(w, "bad token", http.StatusBadRequest)
			return
		}
		start = n
	}
	if start > len(items) {
		start = len(items)
	}
	end := start + size
	if end > len(items) {
		end = len(items)
	}
	p := page[T]{Items: items[start:end]}
	if end < len(items) {
		next := strconv.Itoa(end)
		p.ContinuationToken = &next
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(p)
}

func (f *FakeNexus) listComponents(w http.ResponseWriter, r *http.Request) {
	repo := r.URL.Query().Get("repository")
	f.mu.Lock()
	items, ok := f.components[repo]
	_, raw := f.assets[repo]
	items = append([]model.Component(nil), items...)
	f.mu.Unlock()
	if !ok && !raw {
		http.NotFound(w, r)
		return
	}
	paginate(w, r, items, f.PageSize)
}

func (f *FakeNexus) listAssets(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	items, ok := f.assets[r.URL.Query().Get("repository")]
	items = append([]model.Asset(nil), items...)
	f.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	paginate(w, r, items, f.PageSize)
}

func (f *FakeNexus) delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	f.mu.Lock()
	defer f.mu.Unlock()
	if status, ok := f.failDelete[id]; ok {
		w.WriteHeader(status)
		return
	}
	if !f.remove(id) {
		http.NotFound(w, r)
		return
	}
	f.deleted = append(f.deleted, id)
	w.WriteHeader(http.StatusNoContent)
}

func (f *FakeNexus) remove(id string) bool {
	for repo, list := range f.components {
		for i, c := range list {
			if c.ID == id {
				f.components[repo] = append(list[:i], list[i+1:]...)
				return true
			}
		}
	}
	for repo, list := range f.assets {
		for i, a := range list {
			if a.ID == id {
				f.assets[repo] = append(list[:i], list[i+1:]...)
				return true
			}
		}
	}
	return false
}

// DaysAgo formats a timestamp n days before now the way Nexus does.
func DaysAgo(n int) string {
	return time.Now().Add(-time.Duration(n) * 24 * time.Hour).UTC().Format(time.RFC3339)
}

// DockerComponent builds a docker component with one asset.
func DockerComponent(id, name, version string, ageDays int) model.Component {
	return model.Component{
		ID:      id,
		Format:  model.FormatDocker,
		Name:    name,
		Version: version,
		Assets:  []model.Asset{{ID: id + "-asset", LastModified: DaysAgo(ageDays)}},
	}
}

// WriteConfig writes a config file pointing at nexusURL with the given
// repositories section and returns its path. State files go to the same
// temporary directory.
func WriteConfig(t *testing.T, nexusURL, repositories string) string {
	t.Helper()
	dir := t.TempDir()
	content := fmt.Sprintf(`nexus:
  url: %s
repositories:
%s
settings:
  dry_run: false
  http_timeout: 5s
  max_retries: 1
  audit_db: %s
  report_dir: %s
`, nexusURL, indent(repositories), filepath.Join(dir, "audit.db"), filepath.Join(dir, "reports"))

	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func indent(s string) string {
	lines := strings.Split(strings.Trim(s, "\n"), "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = "  " + l
		}
	}
	return strings.Join(lines, "\n")
}
