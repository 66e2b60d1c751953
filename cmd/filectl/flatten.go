package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"filectl/internal/ops"
	"filectl/internal/plan"
)

var flattenConfiguration struct {
	commonFlags
	inputDir  string
	outputDir string
}

var flattenCommand = &cobra.Command{
	Use:   "flatten",
	Short: "Copy every file under a directory tree into one flat output directory",
	Run:   Mainify(flattenMain),
}

func init() {
	flags := flattenCommand.Flags()
	addCommonFlags(flags, &flattenConfiguration.commonFlags, "")
	flags.StringVar(&flattenConfiguration.inputDir, "input-dir", "", "Root directory the flattened output is named after when --output-dir is empty")
	flags.StringVar(&flattenConfiguration.outputDir, "output-dir", "", "Destination directory (empty = timestamped sibling of --input-dir)")
}

func flattenMain(cmd *cobra.Command, args []string) error {
	c := flattenConfiguration
	entries, err := collectEntries(c.commonFlags)
	if err != nil {
		return err
	}
	conflict, err := parseConflictPolicy(c.conflict)
	if err != nil {
		return err
	}

	inputDir := c.inputDir
	if inputDir == "" && len(c.inputs) > 0 {
		inputDir = c.inputs[0]
	}

	req := ops.FlattenRequest{
		FlattenRequest: plan.FlattenRequest{
			Entries:        entries,
			InputDir:       inputDir,
			OutputDir:      c.outputDir,
			ConflictPolicy: conflict,
			At:             time.Now(),
		},
		Workers: proc.Workers,
	}

	if c.preview {
		resp, err := ops.PreviewFlatten(req)
		if err != nil {
			return err
		}
		printPreview(resp)
		return nil
	}

	bus, resultCh, err := ops.ExecuteFlatten(context.Background(), req)
	if err != nil {
		return err
	}
	drainAndPrint(bus, resultCh)
	return nil
}
