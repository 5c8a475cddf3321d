package cli

import "time"

// Default values for CLI flags and output.
const (
	// TabWidth is the width of tabs in formatted output.
	TabWidth = 2
	// DefaultHistoryLimit is the number of runs listed by history.
	DefaultHistoryLimit = 20
	// MaxReasonLength truncates reasons in table output.
	MaxReasonLength = 60
	// PreflightTimeout bounds the status check before a run.
	PreflightTimeout = 10 * time.Second
	// ReloadDebounce is how long config file writes settle before a reload.
	ReloadDebounce = 500 * time.Millisecond
)

// Output formats accepted by --output.
const (
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)
