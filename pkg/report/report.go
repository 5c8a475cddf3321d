// Package report writes run reports to disk as JSON and bundles them into
// compressed archives for hand-off.
package report

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mholt/archives"

	"github.com/glorpus-work/reposweep/pkg/fsutil"
	"github.com/glorpus-work/reposweep/pkg/orchestrator"
)

const (
	filePrefix = "run-"
	fileSuffix = ".json"
)

// Writer writes run reports into a directory.
type Writer struct {
	dir string
}

// NewWriter creates a Writer for dir. The directory is created on first write.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// FileName returns the report file name of a run.
func FileName(runID string) string {
	return filePrefix + runID + fileSuffix
}

// WriteRun writes run as indented JSON and returns the report path.
func (w *Writer) WriteRun(run *orchestrator.Run) (string, error) {
	if run == nil || run.ID == "" {
		return "", fmt.Errorf("run must have an id")
	}
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode run %s: %w", run.ID, err)
	}

	path := filepath.Join(w.dir, FileName(run.ID))
	if err := fsutil.WriteFileAtomic(path, append(data, '\n'), fsutil.FileModeDefault); err != nil {
		return "", err
	}
	return path, nil
}

// ReadRun loads a report written by WriteRun.
func ReadRun(path string) (*orchestrator.Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read report %s: %w", path, err)
	}
	var run orchestrator.Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to decode report %s: %w", path, err)
	}
	return &run, nil
}

// List returns the report files in dir sorted by name.
func List(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read report directory: %w", err)
	}

	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, filePrefix) || !strings.HasSuffix(name, fileSuffix) {
			continue
		}
		out = append(out, filepath.Join(dir, name))
	}
	sort.Strings(out)
	return out, nil
}

// Bundle compresses every report in dir into a .tar.gz at dest and returns
// the number of reports archived.
func Bundle(ctx context.Context, dir, dest string) (int, error) {
	reports, err := List(dir)
	if err != nil {
		return 0, err
	}
	if len(reports) == 0 {
		return 0, fmt.Errorf("no reports found in %s", dir)
	}

	names := make(map[string]string, len(reports))
	for _, p := range reports {
		abs, err := filepath.Abs(p)
		if err != nil {
			return 0, fmt.Errorf("failed to get absolute path for %s: %w", p, err)
		}
		names[abs] = filepath.Base(p)
	}

	files, err := archives.FilesFromDisk(ctx, nil, names)
	if err != nil {
		return 0, fmt.Errorf("failed to read files from disk: %w", err)
	}

	if err := fsutil.EnsureFileDir(dest); err != nil {
		return 0, fmt.Errorf("failed to create bundle directory: %w", err)
	}
	out, err := os.Create(dest)
	if err != nil {
		return 0, fmt.Errorf("failed to create bundle %s: %w", dest, err)
	}
	defer func() { _ = out.Close() }()

	format := archives.CompressedArchive{
		Compression: archives.Gz{},
		Archival:    archives.Tar{},
	}
	if err := format.Archive(ctx, out, files); err != nil {
		return 0, fmt.Errorf("failed to create archive: %w", err)
	}
	if err := out.Sync(); err != nil {
		return 0, fmt.Errorf("failed to flush bundle: %w", err)
	}
	return len(reports), nil
}
