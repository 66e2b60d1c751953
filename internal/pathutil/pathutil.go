// Package pathutil canonicalizes user-supplied paths to the host's native
// absolute form and derives relative paths between them.
//
// Every other engine component that accepts a path from a request envelope
// runs it through Normalize first, so downstream comparisons (collector
// dedup, planner conflict detection, executor reservation set) can assume a
// single canonical string per file.
package pathutil

import (
	"path/filepath"
	"runtime"
	"strings"

	"filectl/internal/engineerr"
)

// Normalize resolves path to an absolute, cleaned, OS-canonical form:
// "." and ".." are resolved, duplicate separators collapsed, and on Windows
// the drive letter is uppercased and UNC prefixes normalized.
func Normalize(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", engineerr.Newf(engineerr.InvalidRequest, "pathutil.Normalize", "empty path")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", engineerr.Wrap(engineerr.InvalidRequest, "pathutil.Normalize", err, "resolve absolute path")
	}
	abs = filepath.Clean(abs)

	if runtime.GOOS == "windows" {
		abs = normalizeWindows(abs)
	}

	return abs, nil
}

// normalizeWindows uppercases a leading drive letter ("c:\foo" -> "C:\foo").
// A UNC path is returned unchanged, server/share casing included (UNC
// shares are themselves case-insensitive at the filesystem layer, but the
// spec only mandates drive-letter casing here).
func normalizeWindows(path string) string {
	if len(path) >= 2 && path[1] == ':' {
		c := path[0]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		return string(c) + path[1:]
	}
	if strings.HasPrefix(path, `\\`) {
		return path
	}
	return path
}

// CaseFold returns the string used for case-folded comparisons of path on
// the current platform: lower-cased on Windows, unchanged elsewhere, since
// FilePath comparisons are case-insensitive on Windows semantics (§3) but
// the destination filesystem's actual case-sensitivity is probed separately
// by internal/plan for collision detection across non-Windows volumes.
func CaseFold(path string) string {
	if runtime.GOOS == "windows" {
		return strings.ToLower(path)
	}
	return path
}

// Relativize returns the path components from base to target. It fails when
// target shares no common root with base.
func Relativize(base, target string) ([]string, error) {
	nbase, err := Normalize(base)
	if err != nil {
		return nil, err
	}
	ntarget, err := Normalize(target)
	if err != nil {
		return nil, err
	}

	rel, err := filepath.Rel(nbase, ntarget)
	if err != nil {
		return nil, engineerr.Wrap(engineerr.InvalidRequest, "pathutil.Relativize", err, "no common root")
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return nil, engineerr.Newf(engineerr.InvalidRequest, "pathutil.Relativize", "target %q escapes base %q", target, base)
	}
	if rel == "." {
		return []string{}, nil
	}
	return strings.Split(rel, string(filepath.Separator)), nil
}

// EnsureNoTrailingSeparator strips a trailing separator unless path is a
// volume root (e.g. "C:\" or "/").
func EnsureNoTrailingSeparator(path string) string {
	vol := filepath.VolumeName(path)
	if path == vol+string(filepath.Separator) || path == string(filepath.Separator) {
		return path
	}
	return strings.TrimRight(path, string(filepath.Separator))
}

// SameFile reports whether a and b refer to the same normalized path,
// respecting §3's platform case-sensitivity rule (Windows: case-insensitive;
// otherwise: case-sensitive). It returns an error classification wrapper
// only on normalization failure, never on a legitimate "different paths"
// outcome.
func SameFile(a, b string) (bool, error) {
	na, err := Normalize(a)
	if err != nil {
		return false, err
	}
	nb, err := Normalize(b)
	if err != nil {
		return false, err
	}
	return CaseFold(na) == CaseFold(nb), nil
}
