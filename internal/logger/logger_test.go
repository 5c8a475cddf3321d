package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T, level string, format OutputFormat, fn func()) string {
	t.Helper()
	buf := &bytes.Buffer{}
	SetTestOutput(buf)
	defer UnsetTestOutput()

	logger = nil
	InitLogger(level, format)
	fn()
	return buf.String()
}

func TestLogger_Levels(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		logFn    func()
		contains []string
		excludes []string
	}{
		{
			name:     "info",
			level:    "info",
			logFn:    func() { Info("listing repository", Fields{"repository": "raw-builds"}) },
			contains: []string{"listing repository", "repository=raw-builds"},
		},
		{
			name:     "debug shown at debug level",
			level:    "debug",
			logFn:    func() { Debug("skipping component") },
			contains: []string{"skipping component", "level=DEBUG"},
		},
		{
			name:     "debug hidden at info level",
			level:    "info",
			logFn:    func() { Debug("skipping component") },
			excludes: []string{"skipping component"},
		},
		{
			name:     "warn hidden at error level",
			level:    "error",
			logFn:    func() { Warn("delete conflict") },
			excludes: []string{"delete conflict"},
		},
		{
			name:     "error",
			level:    "error",
			logFn:    func() { Error("listing failed", Fields{"status": 503}) },
			contains: []string{"listing failed", "level=ERROR", "status=503"},
		},
		{
			name:     "success",
			level:    "info",
			logFn:    func() { Success("cleanup finished") },
			contains: []string{"cleanup finished", "status=success"},
		},
		{
			name:     "formatted",
			level:    "debug",
			logFn:    func() { DebugfWithFields(Fields{"group": "pkg"}, "group has %d members", 3) },
			contains: []string{"group has 3 members", "group=pkg"},
		},
		{
			name:     "unknown level falls back to info",
			level:    "verbose",
			logFn:    func() { Infof("run %s", "started") },
			contains: []string{"run started"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := captureOutput(t, tt.level, FormatText, tt.logFn)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
			for _, notWant := range tt.excludes {
				assert.NotContains(t, out, notWant)
			}
		})
	}
}

func TestLogger_JSON(t *testing.T) {
	out := captureOutput(t, "info", FormatJSON, func() {
		Info("verdict", Fields{"delete": true, "position": 2, "name": "pkg"})
	})
	assert.Contains(t, out, `"msg":"verdict"`)
	assert.Contains(t, out, `"level":"INFO"`)
	assert.Contains(t, out, `"delete":true`)
	assert.Contains(t, out, `"position":2`)
	assert.Contains(t, out, `"name":"pkg"`)
}

func TestSetOutputFormat_KeepsLevel(t *testing.T) {
	buf := &bytes.Buffer{}
	SetTestOutput(buf)
	defer UnsetTestOutput()

	logger = nil
	InitLogger("warn", FormatText)
	SetOutputFormat(FormatJSON)

	Info("hidden")
	Warn("shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
}

func TestWithComponent(t *testing.T) {
	out := captureOutput(t, "info", FormatText, func() {
		WithComponent("nexus").Info("request")
	})
	assert.Contains(t, out, "component=nexus")
}

func TestGetLogger_InitializesIfNil(t *testing.T) {
	logger = nil
	assert.NotPanics(t, func() {
		assert.NotNil(t, GetLogger())
	})
}

func TestMergeFields_LaterWins(t *testing.T) {
	attrs := mergeFields(Fields{"a": 1}, Fields{"a": 2, "b": "x"})
	got := map[string]interface{}{}
	for i := 0; i < len(attrs); i += 2 {
		got[attrs[i].(string)] = attrs[i+1]
	}
	assert.Equal(t, map[string]interface{}{"a": 2, "b": "x"}, got)
	assert.Len(t, attrs, 4)
}
