package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"filectl/internal/atomicfs"
	"filectl/internal/engineerr"
	"filectl/internal/ops"
	"filectl/internal/plan"
)

var deleteConfiguration struct {
	commonFlags
	mode       string
	retreatDir string
	trashDir   string
}

var deleteCommand = &cobra.Command{
	Use:   "delete",
	Short: "Delete files matching an extension set",
	Run:   Mainify(deleteMain),
}

func init() {
	flags := deleteCommand.Flags()
	addCommonFlags(flags, &deleteConfiguration.commonFlags, "")
	flags.StringVar(&deleteConfiguration.mode, "mode", "direct", "Delete mode: direct|trash|retreat")
	flags.StringVar(&deleteConfiguration.retreatDir, "retreat-dir", "", "Destination directory for mode=retreat")
	flags.StringVar(&deleteConfiguration.trashDir, "trash-dir", "", "Staging directory used as a stand-in for OS trash integration (mode=trash)")
}

func parseDeleteMode(s string) (plan.DeleteMode, error) {
	switch s {
	case "", string(plan.DeleteDirect):
		return plan.DeleteDirect, nil
	case string(plan.DeleteTrash):
		return plan.DeleteTrash, nil
	case string(plan.DeleteRetreat):
		return plan.DeleteRetreat, nil
	default:
		return "", engineerr.Newf(engineerr.InvalidRequest, "main.parseDeleteMode", "unknown delete mode %q", s)
	}
}

// stagingTrashFunc is the CLI's stand-in for the OS recycle-bin primitive
// that SPEC_FULL.md §1 explicitly treats as an external collaborator: it
// moves a file into trashDir rather than actually invoking a platform trash
// API, so `filectl delete --mode trash` is usable standalone without
// requiring that integration to exist.
func stagingTrashFunc(trashDir string) ops.TrashFunc {
	return func(path string) error {
		dest := filepath.Join(trashDir, filepath.Base(path))
		if err := atomicfs.CopyFile(path, dest); err != nil {
			return err
		}
		return atomicfs.RemoveFile(path)
	}
}

func deleteMain(cmd *cobra.Command, args []string) error {
	c := deleteConfiguration
	entries, err := collectEntries(c.commonFlags)
	if err != nil {
		return err
	}
	mode, err := parseDeleteMode(c.mode)
	if err != nil {
		return err
	}
	conflict, err := parseConflictPolicy(c.conflict)
	if err != nil {
		return err
	}
	exts := parseExtensionSet(c.extensions)
	if len(exts) == 0 {
		return engineerr.Newf(engineerr.InvalidRequest, "main.deleteMain", "--extensions is required for delete")
	}

	req := ops.DeleteRequest{
		DeleteRequest: plan.DeleteRequest{
			Entries:        entries,
			Extensions:     exts,
			Mode:           mode,
			RetreatDir:     c.retreatDir,
			ConflictPolicy: conflict,
		},
		Workers: proc.Workers,
	}

	if mode == plan.DeleteTrash {
		trashDir := c.trashDir
		if trashDir == "" {
			trashDir = filepath.Join(proc.ConfigDir, "trash")
		}
		if err := os.MkdirAll(trashDir, 0o755); err != nil {
			return fmt.Errorf("prepare trash dir: %w", err)
		}
		req.Trash = stagingTrashFunc(trashDir)
	}

	if c.preview {
		resp, err := ops.PreviewDelete(req)
		if err != nil {
			return err
		}
		printPreview(resp)
		return nil
	}

	bus, resultCh, err := ops.ExecuteDelete(context.Background(), req)
	if err != nil {
		return err
	}
	drainAndPrint(bus, resultCh)
	return nil
}
