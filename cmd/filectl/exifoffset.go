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

var exifOffsetConfiguration struct {
	commonFlags
	delta string
}

var exifOffsetCommand = &cobra.Command{
	Use:   "exif-offset",
	Short: "Shift every EXIF datetime tag by a fixed duration",
	Run:   Mainify(exifOffsetMain),
}

func init() {
	flags := exifOffsetCommand.Flags()
	addCommonFlags(flags, &exifOffsetConfiguration.commonFlags, strings.Join(model.JpegExtensions, ","))
	flags.StringVar(&exifOffsetConfiguration.delta, "delta", "0s", "Duration to shift datetime tags by, e.g. \"2h30m\" or \"-90m\"")
}

func exifOffsetMain(cmd *cobra.Command, args []string) error {
	c := exifOffsetConfiguration
	entries, err := collectEntries(c.commonFlags)
	if err != nil {
		return err
	}
	delta, err := time.ParseDuration(c.delta)
	if err != nil {
		return engineerr.Wrap(engineerr.InvalidRequest, "main.exifOffsetMain", err, "parse --delta")
	}

	req := ops.ExifOffsetRequest{
		ExifOffsetRequest: plan.ExifOffsetRequest{
			Entries: entries,
			Delta:   delta,
		},
		Workers: proc.Workers,
	}

	if c.preview {
		resp, err := ops.PreviewExifOffset(req)
		if err != nil {
			return err
		}
		printPreview(resp)
		return nil
	}

	bus, resultCh, err := ops.ExecuteExifOffset(context.Background(), req)
	if err != nil {
		return err
	}
	drainAndPrint(bus, resultCh)
	return nil
}
