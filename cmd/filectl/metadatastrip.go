package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"filectl/internal/engineerr"
	"filectl/internal/model"
	"filectl/internal/ops"
	"filectl/internal/plan"
)

var metadataStripConfiguration struct {
	commonFlags
	categories string
}

var metadataStripCommand = &cobra.Command{
	Use:   "metadata-strip",
	Short: "Remove selected categories of EXIF/IPTC/XMP metadata from JPEGs",
	Run:   Mainify(metadataStripMain),
}

var allMetadataCategories = []model.MetadataCategory{
	model.CategoryGPS, model.CategoryCameraLens, model.CategorySoftware,
	model.CategoryAuthorCopyright, model.CategoryComments, model.CategoryThumbnail,
	model.CategoryIPTC, model.CategoryXMP, model.CategoryShootingSettings,
	model.CategoryCaptureDateTime,
}

func init() {
	flags := metadataStripCommand.Flags()
	addCommonFlags(flags, &metadataStripConfiguration.commonFlags, strings.Join(model.JpegExtensions, ","))
	names := make([]string, 0, len(allMetadataCategories))
	for _, c := range allMetadataCategories {
		names = append(names, string(c))
	}
	flags.StringVar(&metadataStripConfiguration.categories, "categories", strings.Join(names, ","),
		"Comma-separated metadata categories to strip: "+strings.Join(names, ", "))
}

func parseCategorySet(csv string) (model.CategorySet, error) {
	known := make(map[model.MetadataCategory]bool, len(allMetadataCategories))
	for _, c := range allMetadataCategories {
		known[c] = true
	}

	set := model.NewCategorySet()
	for _, part := range strings.Split(csv, ",") {
		name := model.MetadataCategory(strings.TrimSpace(part))
		if name == "" {
			continue
		}
		if !known[name] {
			return nil, engineerr.Newf(engineerr.InvalidRequest, "main.parseCategorySet", "unknown metadata category %q", name)
		}
		set.Add(name)
	}
	if len(set) == 0 {
		return nil, engineerr.Newf(engineerr.InvalidRequest, "main.parseCategorySet", "--categories must name at least one category")
	}
	return set, nil
}

func metadataStripMain(cmd *cobra.Command, args []string) error {
	c := metadataStripConfiguration
	entries, err := collectEntries(c.commonFlags)
	if err != nil {
		return err
	}
	categories, err := parseCategorySet(c.categories)
	if err != nil {
		return err
	}

	req := ops.MetadataStripRequest{
		MetadataStripRequest: plan.MetadataStripRequest{
			Entries:    entries,
			Categories: categories,
		},
		Workers: proc.Workers,
	}

	if c.preview {
		resp, err := ops.PreviewMetadataStrip(req)
		if err != nil {
			return err
		}
		printPreview(resp)
		return nil
	}

	bus, resultCh, err := ops.ExecuteMetadataStrip(context.Background(), req)
	if err != nil {
		return err
	}
	drainAndPrint(bus, resultCh)
	return nil
}
