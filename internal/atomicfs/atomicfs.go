// Package atomicfs implements the engine's write discipline: every
// destination mutation goes through a temp-file-then-replace sequence so a
// crash or cancellation never leaves a half-written destination, plus the
// sequence-suffix allocator that resolves destination-name collisions.
//
// The temp-then-rename idiom and its cross-volume copy-then-delete fallback
// are grounded in the teacher's internal/maintenance/backup.go
// (copyfileStream, buildBackupPath); the escape-safety discipline in
// internal/maintenance/paths.go (backupDestPath/ErrPathEscapesRoot) is
// reused here as the allocator's own "reject empty stems and reserved
// characters" plan-time check.
package atomicfs

import (
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"filectl/internal/engineerr"
	"filectl/internal/model"
	"filectl/internal/pathutil"
)

const maxSequenceAttempts = 10000

// tempName builds the temp file name `<dest>.tmp.<pid>.<counter>` the write
// discipline requires, scoped to the destination directory so the final
// rename stays on one volume.
var tempCounter uint64
var tempCounterMu sync.Mutex

func tempName(dest string) string {
	tempCounterMu.Lock()
	tempCounter++
	n := tempCounter
	tempCounterMu.Unlock()
	return dest + ".tmp." + strconv.Itoa(os.Getpid()) + "." + strconv.FormatUint(n, 10)
}

// WriteFile writes data to dest via the temp-then-replace discipline: the
// bytes land in a sibling temp file, are fsynced, then the temp file
// replaces dest atomically. On any failure the temp file is removed and
// dest is left untouched.
func WriteFile(dest string, data []byte, perm os.FileMode) error {
	return WriteFrom(dest, func(w *os.File) error {
		_, err := w.Write(data)
		return err
	}, perm)
}

// WriteFrom streams into dest via the same temp-then-replace discipline,
// calling write with the open temp file handle.
func WriteFrom(dest string, write func(*os.File) error, perm os.FileMode) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return engineerr.Wrap(engineerr.Io, "atomicfs.WriteFrom", err, "create destination directory")
	}

	tmp := tempName(dest)
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, perm)
	if err != nil {
		return engineerr.Wrap(engineerr.Io, "atomicfs.WriteFrom", err, "create temp file")
	}

	ok := false
	defer func() {
		if !ok {
			_ = f.Close()
			_ = os.Remove(tmp)
		}
	}()

	if err := write(f); err != nil {
		return engineerr.Wrap(engineerr.Io, "atomicfs.WriteFrom", err, "write temp file")
	}
	if err := f.Sync(); err != nil {
		return engineerr.Wrap(engineerr.Io, "atomicfs.WriteFrom", err, "fsync temp file")
	}
	if err := f.Close(); err != nil {
		return engineerr.Wrap(engineerr.Io, "atomicfs.WriteFrom", err, "close temp file")
	}
	ok = true

	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return engineerr.Wrap(engineerr.Io, "atomicfs.WriteFrom", err, "replace destination")
	}
	return nil
}

// CopyFile atomically copies src to dest using the temp-then-replace
// discipline on the destination volume: src's bytes are streamed into a
// temp file beside dest (via WriteFrom), which then replaces dest. src is
// never renamed or removed, so the same path works across volumes.
func CopyFile(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return engineerr.Wrap(engineerr.Io, "atomicfs.CopyFile", err, "open source")
	}
	defer in.Close()

	info, err := in.Stat()
	var perm os.FileMode = 0o644
	if err == nil {
		perm = info.Mode().Perm()
	}

	buf := make([]byte, 256*1024)
	return WriteFrom(dest, func(w *os.File) error {
		_, err := io.CopyBuffer(w, in, buf)
		return err
	}, perm)
}

// RemoveFile deletes a file, wrapping the error per the taxonomy so callers
// can distinguish already-gone (treated by the caller, not here) from a real
// I/O failure.
func RemoveFile(path string) error {
	if err := os.Remove(path); err != nil {
		return engineerr.Wrap(engineerr.Io, "atomicfs.RemoveFile", err, "remove file")
	}
	return nil
}

// AtomicSwap replaces dest's content with src's, atomically, by delegating
// to a temp-then-rename on dest's volume. Used by ConflictPolicy=overwrite.
func AtomicSwap(src, dest string) error {
	return CopyFile(src, dest)
}

// Allocator resolves destination-name collisions via the sequence-suffix
// scheme, holding an in-flight reservation set so concurrent workers in one
// run never pick the same destination (§5 shared-resource policy).
//
// Collision probing (exists) is pure logic — a Stat call plus a map lookup
// — so it runs against an afero.Fs (§10 DOMAIN STACK) rather than the os
// package directly, letting the planner's conflict resolution be exercised
// against afero.NewMemMapFs() in tests with no real files on disk. Actual
// mutation (WriteFrom/CopyFile) still uses *os.File directly: fsync and
// atomic rename are filesystem guarantees afero's virtual backends don't
// meaningfully provide.
type Allocator struct {
	mu       sync.Mutex
	reserved map[string]struct{}
	caseFold func(string) string
	fs       afero.Fs
}

// NewAllocator builds an allocator using pathutil.CaseFold for reservation
// keys, so destinations are deduped per the platform's case-sensitivity
// rule, probing collisions against the real disk.
func NewAllocator() *Allocator {
	return NewAllocatorWithFs(pathutil.CaseFold, afero.NewOsFs())
}

// NewAllocatorWithCaseFold builds an allocator using a caller-supplied
// folding function for reservation keys, used by internal/plan to key
// collisions off a per-directory probed case-sensitivity result (§9 Design
// Notes) rather than the platform default, probing collisions against the
// real disk.
func NewAllocatorWithCaseFold(fold func(string) string) *Allocator {
	return NewAllocatorWithFs(fold, afero.NewOsFs())
}

// NewAllocatorWithFs builds an allocator probing collisions against fs,
// for tests that want an in-memory filesystem instead of the real disk.
func NewAllocatorWithFs(fold func(string) string, fs afero.Fs) *Allocator {
	return &Allocator{
		reserved: make(map[string]struct{}),
		caseFold: fold,
		fs:       fs,
	}
}

// Resolve computes a ready or skipped destination for the stem/ext pair in
// dir, applying policy against both disk and this run's prior reservations.
// It never touches the filesystem beyond stat calls.
func (a *Allocator) Resolve(dir, stem, ext string, policy model.ConflictPolicy) (dest string, skipped bool, reason string) {
	if strings.TrimSpace(stem) == "" {
		return "", true, "empty destination name"
	}
	if hasReservedChars(stem) {
		return "", true, "destination name contains reserved characters"
	}

	candidate := filepath.Join(dir, stem+ext)

	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.exists(candidate) {
		a.reserve(candidate)
		return candidate, false, ""
	}

	switch policy {
	case model.ConflictOverwrite:
		a.reserve(candidate)
		return candidate, false, ""
	case model.ConflictSkip:
		return "", true, "collision"
	case model.ConflictSequence:
		for n := 1; n <= maxSequenceAttempts; n++ {
			seqCandidate := filepath.Join(dir, stem+"_no"+strconv.Itoa(n)+ext)
			if !a.exists(seqCandidate) {
				a.reserve(seqCandidate)
				return seqCandidate, false, ""
			}
		}
		return "", true, "collision"
	default:
		return "", true, "unknown conflict policy"
	}
}

func (a *Allocator) exists(path string) bool {
	key := a.caseFold(path)
	if _, ok := a.reserved[key]; ok {
		return true
	}
	_, err := a.fs.Stat(path)
	return err == nil
}

func (a *Allocator) reserve(path string) {
	a.reserved[a.caseFold(path)] = struct{}{}
}

func hasReservedChars(name string) bool {
	const reserved = `<>:"/\|?*`
	return strings.ContainsAny(name, reserved)
}
