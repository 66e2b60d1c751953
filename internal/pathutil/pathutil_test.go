package pathutil

import (
	"path/filepath"
	"testing"
)

func TestNormalize_Rejects(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{name: "empty", path: ""},
		{name: "whitespace only", path: "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Normalize(tt.path); err == nil {
				t.Fatalf("Normalize(%q): expected error, got nil", tt.path)
			}
		})
	}
}

func TestNormalize_CleansAndAbsolutizes(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "..", "b")

	got, err := Normalize(nested)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := filepath.Join(dir, "b")
	if got != want {
		t.Fatalf("Normalize(%q) = %q, want %q", nested, got, want)
	}
}

func TestRelativize(t *testing.T) {
	base := t.TempDir()
	target := filepath.Join(base, "sub", "file.txt")

	rel, err := Relativize(base, target)
	if err != nil {
		t.Fatalf("Relativize: %v", err)
	}
	want := []string{"sub", "file.txt"}
	if len(rel) != len(want) {
		t.Fatalf("Relativize = %v, want %v", rel, want)
	}
	for i := range want {
		if rel[i] != want[i] {
			t.Fatalf("Relativize = %v, want %v", rel, want)
		}
	}
}

func TestRelativize_NoCommonRoot(t *testing.T) {
	base := t.TempDir()
	other := t.TempDir()

	if _, err := Relativize(filepath.Join(base, "x"), filepath.Join(other, "y")); err == nil {
		t.Fatalf("Relativize across unrelated roots: expected error, got nil")
	}
}

func TestSameFile(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a", "..", "file.txt")
	b := filepath.Join(dir, "file.txt")

	same, err := SameFile(a, b)
	if err != nil {
		t.Fatalf("SameFile: %v", err)
	}
	if !same {
		t.Fatalf("SameFile(%q, %q) = false, want true", a, b)
	}
}

func TestEnsureNoTrailingSeparator(t *testing.T) {
	dir := t.TempDir()
	withSep := dir + string(filepath.Separator)

	got := EnsureNoTrailingSeparator(withSep)
	if got != filepath.Clean(dir) {
		t.Fatalf("EnsureNoTrailingSeparator(%q) = %q, want %q", withSep, got, filepath.Clean(dir))
	}
}
