package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"filectl/internal/utils"
)

// Mainify wraps a non-standard Cobra entry point (one returning an error)
// and generates a standard Cobra entry point, grounded in
// mutagen-io-mutagen/cmd/cobra.go's helper of the same name: it lets each
// subcommand's Run rely on ordinary Go error returns instead of calling
// os.Exit deep inside business logic.
func Mainify(entry func(*cobra.Command, []string) error) func(*cobra.Command, []string) {
	return func(command *cobra.Command, arguments []string) {
		if err := entry(command, arguments); err != nil {
			Fatal(err)
		}
	}
}

// Error prints an error message to standard error.
func Error(err error) {
	fmt.Fprintln(os.Stderr, "Error:", err)
}

// Fatal prints an error message to standard error and terminates the
// process with a non-zero exit code. When --notify-on-fatal is set (for
// invocations launched unattended, e.g. from Task Scheduler or a wrapping
// GUI with no visible console) it also raises a desktop popup, since stderr
// output is otherwise invisible to whoever needs to see the failure.
func Fatal(err error) {
	Error(err)
	if rootConfiguration.notifyOnFatal {
		utils.ShowPopup("filectl error", err.Error())
	}
	os.Exit(1)
}
