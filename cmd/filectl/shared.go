package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"filectl/internal/collector"
	"filectl/internal/engineerr"
	"filectl/internal/model"
	"filectl/internal/progress"
)

// commonFlags are the input-selection flags every one of the six operation
// subcommands shares: which files to consider and how ready/skip
// conflicts are resolved.
type commonFlags struct {
	inputs     []string
	recursive  bool
	extensions string
	conflict   string
	preview    bool
}

func addCommonFlags(flags flagSet, c *commonFlags, defaultExtensions string) {
	flags.StringSliceVar(&c.inputs, "input", nil, "File or directory to process (repeatable)")
	flags.BoolVar(&c.recursive, "recursive", true, "Recurse into subdirectories")
	flags.StringVar(&c.extensions, "extensions", defaultExtensions, "Comma-separated extensions to match (empty = all)")
	flags.StringVar(&c.conflict, "conflict", "sequence", "Destination collision policy: overwrite|sequence|skip")
	flags.BoolVar(&c.preview, "preview", false, "Print the plan without performing any changes")
}

// flagSet is the subset of *pflag.FlagSet the shared flag helpers use,
// narrow enough that both persistent and per-command flag sets satisfy it.
type flagSet interface {
	StringSliceVar(p *[]string, name string, value []string, usage string)
	BoolVar(p *bool, name string, value bool, usage string)
	StringVar(p *string, name string, value string, usage string)
	IntVar(p *int, name string, value int, usage string)
}

func parseExtensionSet(csv string) model.ExtensionSet {
	csv = strings.TrimSpace(csv)
	if csv == "" {
		return model.NewExtensionSet()
	}
	parts := strings.Split(csv, ",")
	return model.NewExtensionSet(parts...)
}

func parseConflictPolicy(s string) (model.ConflictPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "overwrite":
		return model.ConflictOverwrite, nil
	case "sequence", "":
		return model.ConflictSequence, nil
	case "skip":
		return model.ConflictSkip, nil
	default:
		return "", engineerr.Newf(engineerr.InvalidRequest, "main.parseConflictPolicy", "unknown conflict policy %q", s)
	}
}

func collectEntries(c commonFlags) ([]model.FileEntry, error) {
	if len(c.inputs) == 0 {
		return nil, engineerr.Newf(engineerr.InvalidRequest, "main.collectEntries", "at least one --input is required")
	}
	result, err := collector.Collect(collector.Options{
		Inputs:     c.inputs,
		Recursive:  c.recursive,
		Extensions: parseExtensionSet(c.extensions),
	})
	if err != nil {
		return nil, err
	}
	for _, d := range result.Diagnostics {
		log.Warnf("collector: %s: %s", d.Path, d.Reason)
	}
	return result.Entries, nil
}

// printPreview renders a plan as a plain-text table: one line per item,
// ready items showing their destination, skipped items their reason.
func printPreview(resp model.PreviewResponse) {
	var ready, skipped int
	for _, item := range resp.Items {
		switch item.Status {
		case model.StatusReady:
			ready++
			fmt.Printf("ready    %s -> %s\n", item.Source, item.Destination)
		case model.StatusSkipped:
			skipped++
			fmt.Printf("skip     %s (%s)\n", item.Source, item.Reason)
		}
	}
	fmt.Printf("\n%d ready, %d skipped\n", ready, skipped)
}

// drainAndPrint consumes bus until it closes, printing one line per event
// that names a path (every completed item, plus compress's estimate events
// queued ahead of execution), then prints the final summary delivered on
// resultCh.
func drainAndPrint(bus *progress.Bus, resultCh <-chan model.ExecResult) model.ExecResult {
	for ev := range bus.Events() {
		if ev.Done {
			break
		}
		if ev.CurrentPath == "" {
			continue
		}
		fmt.Printf("[%d/%d] %s\n", ev.Processed, ev.Total, ev.CurrentPath)
	}
	final := <-resultCh

	fmt.Printf("\n%d processed: %d succeeded, %d failed, %d skipped",
		final.Processed, final.Succeeded, final.Failed, final.Skipped)
	if final.Canceled {
		fmt.Print(" (canceled)")
	}
	fmt.Println()

	for _, d := range final.Details {
		if d.Status != model.StatusFailed {
			continue
		}
		fmt.Printf("  FAILED %s: %s\n", d.Source, d.Reason)
	}
	return final
}

// formatBytes renders a byte count the way the compress preview reports
// estimated totals, using go-humanize for human-legible sizes.
func formatBytes(n int64) string {
	return humanize.Bytes(uint64(n))
}
