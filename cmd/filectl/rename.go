package main

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"filectl/internal/engineerr"
	"filectl/internal/model"
	"filectl/internal/ops"
	"filectl/internal/plan"
)

var renameConfiguration struct {
	commonFlags
	template  string
	mode      string
	outputDir string
}

var renameCommand = &cobra.Command{
	Use:   "rename",
	Short: "Bulk rename files by a datetime/sequence template",
	Run:   Mainify(renameMain),
}

func init() {
	flags := renameCommand.Flags()
	addCommonFlags(flags, &renameConfiguration.commonFlags, strings.Join(model.ImageExtensions, ","))
	flags.StringVar(&renameConfiguration.template, "template", "{capture_date:YYYY-MM-DD}_{capture_time:hhmmss}_{seq:3}", "Rename template")
	flags.StringVar(&renameConfiguration.mode, "mode", "captureThenModified", "Datetime source: captureThenModified|modifiedOnly|currentTime")
	flags.StringVar(&renameConfiguration.outputDir, "output-dir", "", "Destination directory (empty = rename in place)")
}

func parseDateTimeMode(s string) (plan.DateTimeMode, error) {
	switch s {
	case "", string(plan.ModeCaptureThenModified):
		return plan.ModeCaptureThenModified, nil
	case string(plan.ModeModifiedOnly):
		return plan.ModeModifiedOnly, nil
	case string(plan.ModeCurrentTime):
		return plan.ModeCurrentTime, nil
	default:
		return "", engineerr.Newf(engineerr.InvalidRequest, "main.parseDateTimeMode", "unknown mode %q", s)
	}
}

func renameMain(cmd *cobra.Command, args []string) error {
	c := renameConfiguration
	entries, err := collectEntries(c.commonFlags)
	if err != nil {
		return err
	}
	mode, err := parseDateTimeMode(c.mode)
	if err != nil {
		return err
	}
	conflict, err := parseConflictPolicy(c.conflict)
	if err != nil {
		return err
	}

	req := ops.RenameRequest{
		RenameRequest: plan.RenameRequest{
			Entries:        entries,
			Template:       c.template,
			Mode:           mode,
			OutputDir:      c.outputDir,
			ConflictPolicy: conflict,
			ExecTime:       time.Now(),
		},
		Workers: proc.Workers,
	}

	if c.preview {
		resp, err := ops.PreviewRename(req)
		if err != nil {
			return err
		}
		printPreview(resp)
		return nil
	}

	bus, resultCh, err := ops.ExecuteRename(context.Background(), req)
	if err != nil {
		return err
	}
	drainAndPrint(bus, resultCh)
	return nil
}
