package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"filectl/internal/model"
	"filectl/internal/ops"
	"filectl/internal/plan"
)

var compressConfiguration struct {
	commonFlags
	inputDir      string
	outputDir     string
	resizePercent int
	quality       int
	targetSize    int64
	tolerance     float64
	preserveEXIF  bool
}

var compressCommand = &cobra.Command{
	Use:   "compress",
	Short: "Recompress JPEGs to a target quality/size",
	Run:   Mainify(compressMain),
}

func init() {
	flags := compressCommand.Flags()
	addCommonFlags(flags, &compressConfiguration.commonFlags, strings.Join(model.JpegExtensions, ","))
	flags.StringVar(&compressConfiguration.inputDir, "input-dir", "", "Root directory the default output directory is named after")
	flags.StringVar(&compressConfiguration.outputDir, "output-dir", "", "Destination directory (empty = timestamped sibling of --input-dir)")
	flags.IntVar(&compressConfiguration.resizePercent, "resize-percent", 100, "Resize percent (ignored when --target-size is set)")
	flags.IntVar(&compressConfiguration.quality, "quality", 85, "JPEG quality 1-100 (ignored when --target-size is set)")
	flags.Int64Var(&compressConfiguration.targetSize, "target-size", 0, "Target total output size in bytes (0 = use --resize-percent/--quality directly)")
	flags.Float64Var(&compressConfiguration.tolerance, "tolerance", 0.10, "Acceptable fractional deviation from --target-size")
	flags.BoolVar(&compressConfiguration.preserveEXIF, "preserve-exif", true, "Carry the source EXIF segment over into the recompressed file")
}

func compressMain(cmd *cobra.Command, args []string) error {
	c := compressConfiguration
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

	req := ops.CompressRequest{
		CompressRequest: plan.CompressRequest{
			Entries:         entries,
			InputDir:        inputDir,
			OutputDir:       c.outputDir,
			ConflictPolicy:  conflict,
			ResizePercent:   c.resizePercent,
			Quality:         c.quality,
			TargetSizeBytes: c.targetSize,
			Tolerance:       c.tolerance,
			At:              time.Now(),
		},
		Workers:      proc.Workers,
		PreserveEXIF: c.preserveEXIF,
	}

	if c.preview {
		resp, err := ops.PreviewCompress(req)
		if err != nil {
			return err
		}
		fmt.Printf("effective resize=%d%% quality=%d estimated total=%s\n",
			resp.EffectiveResizePercent, resp.EffectiveQuality, formatBytes(resp.EstimatedTotalBytes))
		printPreview(resp.PreviewResponse)
		return nil
	}

	bus, resultCh, err := ops.ExecuteCompress(context.Background(), req)
	if err != nil {
		return err
	}
	drainAndPrint(bus, resultCh)
	return nil
}
