// Package fsutil holds the file modes and small file helpers used for
// configuration, reports and the audit database.
package fsutil

// File and directory permission constants.
const (
	// FileModeDefault is used for reports: -rw-r--r--
	FileModeDefault = 0o644
	// FileModeSecure is used for configuration: -rw-r-----
	FileModeSecure = 0o640

	// DirModeDefault is used for report and state directories: drwxr-xr-x
	DirModeDefault = 0o755
)
