// Package collector walks the input paths of a request into a deduplicated,
// stably ordered list of model.FileEntry.
//
// The walking strategy (bounded visited-path tracking to break symlink
// cycles, stat-time failures surfaced as diagnostics rather than aborting
// the whole walk) is grounded in the teacher's internal/maintenance.Worker
// folder-walker goroutines, generalized here from "one walker per configured
// folder, enqueue onto a jobs channel" into "collect every entry into one
// ordered slice" since the collector's output feeds the (pure) planner
// rather than a processor goroutine directly.
//
// Filesystem access goes through an afero.Fs (§10 DOMAIN STACK), so the
// walk itself — the "pure logic" half of collection — is testable against
// afero.NewMemMapFs() with no real directories on disk; Options.Fs defaults
// to afero.NewOsFs() when left nil.
package collector

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"filectl/internal/engineerr"
	"filectl/internal/model"
	"filectl/internal/pathutil"
)

// Diagnostic records a non-fatal problem encountered while collecting
// (typically a stat failure on an unreadable file), surfaced to the caller
// instead of aborting collection.
type Diagnostic struct {
	Path   string
	Reason string
}

// Result is the collector's output: the deduplicated entries plus any
// diagnostics gathered along the way.
type Result struct {
	Entries     []model.FileEntry
	Diagnostics []Diagnostic
}

// Options configures one collection pass.
type Options struct {
	// Inputs is a list of files and/or directories.
	Inputs []string
	// Recursive, when true, walks directories to every depth. When false,
	// only a directory's immediate children are visited.
	Recursive bool
	// Extensions filters entries by extension; an empty set accepts all.
	Extensions model.ExtensionSet
	// Fs is the filesystem the walk runs against. Nil defaults to
	// afero.NewOsFs(), the real disk.
	Fs afero.Fs
}

// Collect walks opts.Inputs and returns a deduplicated, stably ordered
// result: directories depth-first, entries within a directory sorted
// case-insensitively by filename.
func Collect(opts Options) (Result, error) {
	if len(opts.Inputs) == 0 {
		return Result{}, engineerr.Newf(engineerr.InvalidRequest, "collector.Collect", "no input paths")
	}

	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	c := &collectorState{
		fs:      fs,
		visited: make(map[string]struct{}),
		seen:    make(map[string]struct{}),
		exts:    opts.Extensions,
	}

	for _, in := range opts.Inputs {
		norm, err := pathutil.Normalize(in)
		if err != nil {
			return Result{}, err
		}
		if err := c.collectOne(norm, opts.Recursive); err != nil {
			return Result{}, err
		}
	}

	return Result{Entries: c.entries, Diagnostics: c.diagnostics}, nil
}

type collectorState struct {
	fs          afero.Fs
	visited     map[string]struct{} // canonical paths already walked, breaks symlink cycles
	seen        map[string]struct{} // canonical file paths already emitted, for dedup
	exts        model.ExtensionSet
	entries     []model.FileEntry
	diagnostics []Diagnostic
}

func (c *collectorState) collectOne(path string, recursive bool) error {
	info, err := c.fs.Stat(path) // Stat follows symlinks on a real OsFs, matching "symlinks are followed"
	if err != nil {
		c.diagnostics = append(c.diagnostics, Diagnostic{Path: path, Reason: err.Error()})
		return nil
	}

	if !info.IsDir() {
		c.emit(path, info)
		return nil
	}

	if recursive {
		return c.walkRecursive(path)
	}
	return c.walkChildrenOnly(path)
}

func (c *collectorState) walkRecursive(dir string) error {
	canon := canonicalDir(c.fs, dir)
	if _, ok := c.visited[canon]; ok {
		return nil
	}
	c.visited[canon] = struct{}{}

	children, err := readDirSorted(c.fs, dir)
	if err != nil {
		c.diagnostics = append(c.diagnostics, Diagnostic{Path: dir, Reason: err.Error()})
		return nil
	}

	for _, child := range children {
		childPath := filepath.Join(dir, child.Name())
		info, err := c.fs.Stat(childPath)
		if err != nil {
			c.diagnostics = append(c.diagnostics, Diagnostic{Path: childPath, Reason: err.Error()})
			continue
		}
		if info.IsDir() {
			if err := c.walkRecursive(childPath); err != nil {
				return err
			}
			continue
		}
		c.emit(childPath, info)
	}
	return nil
}

func (c *collectorState) walkChildrenOnly(dir string) error {
	children, err := readDirSorted(c.fs, dir)
	if err != nil {
		c.diagnostics = append(c.diagnostics, Diagnostic{Path: dir, Reason: err.Error()})
		return nil
	}
	for _, child := range children {
		childPath := filepath.Join(dir, child.Name())
		info, err := c.fs.Stat(childPath)
		if err != nil {
			c.diagnostics = append(c.diagnostics, Diagnostic{Path: childPath, Reason: err.Error()})
			continue
		}
		if info.IsDir() {
			continue // non-recursive: grandchildren (and even direct subdirs' contents) are not visited
		}
		c.emit(childPath, info)
	}
	return nil
}

func (c *collectorState) emit(path string, info os.FileInfo) {
	if !c.exts.Matches(path) {
		return
	}
	key := pathutil.CaseFold(path)
	if _, ok := c.seen[key]; ok {
		return
	}
	c.seen[key] = struct{}{}
	c.entries = append(c.entries, model.FileEntry{
		Path:     path,
		Size:     uint64(info.Size()),
		Modified: info.ModTime(),
	})
}

// canonicalDir resolves symlinks for cycle detection on a real OsFs; the
// in-memory and other virtual afero backends have no symlinks to resolve,
// so the path itself is already canonical for them.
func canonicalDir(fs afero.Fs, dir string) string {
	if _, ok := fs.(*afero.OsFs); ok {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			return resolved
		}
	}
	return dir
}

// readDirSorted reads dir's immediate entries sorted case-insensitively by
// filename, matching the collector's stable-order contract.
func readDirSorted(fs afero.Fs, dir string) ([]os.FileInfo, error) {
	entries, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Name()) < strings.ToLower(entries[j].Name())
	})
	return entries, nil
}
