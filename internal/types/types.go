// Package types holds the CLI process's top-level configuration shape.
//
// This is the engine's only config concern that is NOT the on-disk
// settings store (§4.10/§6): ProcessConfig governs how the CLI process
// itself runs (worker pool size, where logs land), the direct analogue of
// the teacher's AppConfig (types.go) — reduced to the subset that still
// applies once "scan folders.txt on a schedule" became "run one of six
// operations on an explicit file list per invocation".
package types

import "filectl/internal/logging"

// ProcessConfig is constructed once in main(), passed through cmd/filectl,
// and shared with every façade invocation in the process. Treat it as
// read-only after creation.
type ProcessConfig struct {
	// Workers bounds the executor's worker pool (§4.7). <= 0 means "let the
	// executor default to runtime.GOMAXPROCS(0)".
	Workers int

	// ProgressBuffer sizes each operation's progress.Bus channel.
	ProgressBuffer int

	// ConfigDir holds config.ini and the settings store's JSON file.
	// Typically "<exeDir>/configs", mirroring the teacher's layout.
	ConfigDir string

	// LogSettings controls logging behavior (file vs stdout, log directory),
	// passed straight through to internal/logging.New, unchanged from the
	// teacher's AppConfig field of the same name.
	LogSettings logging.LogSettings
}
