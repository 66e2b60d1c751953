package collector

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"

	"filectl/internal/model"
)

func mustWriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestCollect_RecursionOff_NoGrandchildren(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "top.jpg"), "a")
	mustWriteFile(t, filepath.Join(root, "sub", "nested.jpg"), "b")

	res, err := Collect(Options{Inputs: []string{root}, Recursive: false})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(res.Entries) != 1 {
		t.Fatalf("expected 1 entry with recursion off, got %d: %v", len(res.Entries), res.Entries)
	}
	if filepath.Base(res.Entries[0].Path) != "top.jpg" {
		t.Fatalf("expected top.jpg, got %s", res.Entries[0].Path)
	}
}

func TestCollect_RecursionOn_FindsNested(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "top.jpg"), "a")
	mustWriteFile(t, filepath.Join(root, "sub", "nested.jpg"), "b")

	res, err := Collect(Options{Inputs: []string{root}, Recursive: true})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(res.Entries) != 2 {
		t.Fatalf("expected 2 entries with recursion on, got %d", len(res.Entries))
	}
}

func TestCollect_ExtensionFilter_CaseInsensitive(t *testing.T) {
	root := t.TempDir()
	mustWriteFile(t, filepath.Join(root, "Photo.JPG"), "a")
	mustWriteFile(t, filepath.Join(root, "note.txt"), "b")

	res, err := Collect(Options{
		Inputs:     []string{root},
		Recursive:  true,
		Extensions: model.NewExtensionSet("jpg"),
	})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(res.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d: %v", len(res.Entries), res.Entries)
	}
	if filepath.Base(res.Entries[0].Path) != "Photo.JPG" {
		t.Fatalf("expected Photo.JPG, got %s", res.Entries[0].Path)
	}
}

func TestCollect_DedupesRepeatedInputs(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "a.jpg")
	mustWriteFile(t, file, "a")

	res, err := Collect(Options{Inputs: []string{file, file, root}, Recursive: true})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(res.Entries) != 1 {
		t.Fatalf("expected deduped single entry, got %d: %v", len(res.Entries), res.Entries)
	}
}

func TestCollect_UnreadableFileIsDiagnosticNotFailure(t *testing.T) {
	root := t.TempDir()
	missing := filepath.Join(root, "does-not-exist.jpg")

	res, err := Collect(Options{Inputs: []string{missing}, Recursive: true})
	if err != nil {
		t.Fatalf("Collect should not fail for an unreadable input: %v", err)
	}
	if len(res.Diagnostics) != 1 {
		t.Fatalf("expected 1 diagnostic, got %d", len(res.Diagnostics))
	}
}

func TestCollect_NoInputs(t *testing.T) {
	if _, err := Collect(Options{}); err == nil {
		t.Fatalf("expected error for empty input list")
	}
}

func TestCollect_AgainstMemMapFs_NoRealDisk(t *testing.T) {
	fs := afero.NewMemMapFs()
	now := time.Unix(1700000000, 0)
	mustWriteMemFile(t, fs, `/photos/top.jpg`, "a", now)
	mustWriteMemFile(t, fs, `/photos/sub/nested.jpg`, "b", now)
	mustWriteMemFile(t, fs, `/photos/notes.txt`, "c", now)

	res, err := Collect(Options{
		Inputs:     []string{`/photos`},
		Recursive:  true,
		Extensions: model.NewExtensionSet("jpg"),
		Fs:         fs,
	})
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(res.Entries) != 2 {
		t.Fatalf("expected 2 jpg entries, got %d: %v", len(res.Entries), res.Entries)
	}
}

func mustWriteMemFile(t *testing.T, fs afero.Fs, path, content string, modTime time.Time) {
	t.Helper()
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := fs.Chtimes(path, modTime, modTime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
}
