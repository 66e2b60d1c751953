package settings

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestOpen_MissingFileDefaultsWithoutWritingToDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	doc := s.Get()
	if doc.Theme != ThemeSystem {
		t.Fatalf("Theme = %q, want %q", doc.Theme, ThemeSystem)
	}
	if doc.DeletePatterns == nil || doc.OutputDirectories == nil {
		t.Fatalf("expected defaulted non-nil collections, got %+v", doc)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("expected no file written for a document that needed no defaulting, stat err = %v", err)
	}
}

func TestOpen_PartialDocumentRewritesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	if err := os.WriteFile(path, []byte(`{"theme":"dark"}`), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if s.Get().Theme != ThemeDark {
		t.Fatalf("theme should survive a partial document")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read rewritten file: %v", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("parse rewritten file: %v", err)
	}
	if doc.DeletePatterns == nil || doc.RenameTemplates == nil || doc.OutputDirectories == nil {
		t.Fatalf("rewritten file should carry defaulted collections, got %+v", doc)
	}
}

func TestSave_DebouncesToASingleWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	for i := 0; i < 5; i++ {
		doc := s.Get()
		doc.Theme = ThemeDark
		doc.OutputDirectories["rename"] = "out"
		if err := s.Save(doc); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("debounced write should not have landed yet")
	}

	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read flushed file: %v", err)
	}
	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("parse flushed file: %v", err)
	}
	if doc.Theme != ThemeDark || doc.OutputDirectories["rename"] != "out" {
		t.Fatalf("flushed document = %+v, want theme=dark, rename=out", doc)
	}
}

func TestSave_NaturalDebounceWindowEventuallyWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	doc := s.Get()
	doc.Theme = ThemeLight
	if err := s.Save(doc); err != nil {
		t.Fatalf("Save: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("expected debounced write to land within the deadline")
}

func TestPreviewImport_DetectsNameAndThemeConflicts(t *testing.T) {
	current := Document{
		DeletePatterns:    []DeletePattern{{Name: "temps", Extensions: []string{"tmp"}, Mode: "direct"}},
		RenameTemplates:   []RenameTemplate{{Name: "dateseq", Template: "{seq:3}"}},
		OutputDirectories: map[string]string{"rename": "C:/out"},
		Theme:             ThemeLight,
	}
	imported := Document{
		DeletePatterns:    []DeletePattern{{Name: "temps", Extensions: []string{"bak"}, Mode: "trash"}},
		RenameTemplates:   []RenameTemplate{{Name: "seqonly", Template: "{seq:4}"}},
		OutputDirectories: map[string]string{"rename": "D:/other"},
		Theme:             ThemeDark,
	}

	preview := PreviewImport(current, imported)
	if len(preview.ConflictingDeletePatterns) != 1 || preview.ConflictingDeletePatterns[0] != "temps" {
		t.Fatalf("got %+v", preview.ConflictingDeletePatterns)
	}
	if len(preview.ConflictingRenameTemplates) != 0 {
		t.Fatalf("seqonly should not conflict, got %+v", preview.ConflictingRenameTemplates)
	}
	if len(preview.ConflictingOutputKeys) != 1 || preview.ConflictingOutputKeys[0] != "rename" {
		t.Fatalf("got %+v", preview.ConflictingOutputKeys)
	}
	if !preview.ThemeConflict {
		t.Fatalf("expected a theme conflict")
	}
	if !preview.HasConflicts() {
		t.Fatalf("HasConflicts should be true")
	}
}

func TestMergeImport_ExistingPolicyKeepsCurrentOnConflict(t *testing.T) {
	current := Document{
		DeletePatterns:    []DeletePattern{{Name: "temps", Extensions: []string{"tmp"}, Mode: "direct"}},
		OutputDirectories: map[string]string{"rename": "C:/out"},
		Theme:             ThemeLight,
	}
	imported := Document{
		DeletePatterns:    []DeletePattern{{Name: "temps", Extensions: []string{"bak"}, Mode: "trash"}, {Name: "raws", Extensions: []string{"cr2"}, Mode: "direct"}},
		OutputDirectories: map[string]string{"rename": "D:/other"},
		Theme:             ThemeDark,
	}

	merged := MergeImport(current, imported, PolicyExisting)
	if merged.Theme != ThemeLight {
		t.Fatalf("theme = %q, want existing kept", merged.Theme)
	}
	if merged.OutputDirectories["rename"] != "C:/out" {
		t.Fatalf("output dir conflict should keep existing, got %q", merged.OutputDirectories["rename"])
	}
	if len(merged.DeletePatterns) != 2 {
		t.Fatalf("expected the non-conflicting imported pattern to still be added, got %+v", merged.DeletePatterns)
	}
	for _, p := range merged.DeletePatterns {
		if p.Name == "temps" && p.Mode != "direct" {
			t.Fatalf("conflicting pattern should keep existing's mode, got %+v", p)
		}
	}
}

func TestMergeImport_ImportPolicyOverwritesOnConflict(t *testing.T) {
	current := Document{
		DeletePatterns: []DeletePattern{{Name: "temps", Extensions: []string{"tmp"}, Mode: "direct"}},
		Theme:          ThemeLight,
	}
	imported := Document{
		DeletePatterns: []DeletePattern{{Name: "temps", Extensions: []string{"bak"}, Mode: "trash"}},
		Theme:          ThemeDark,
	}

	merged := MergeImport(current, imported, PolicyImport)
	if merged.Theme != ThemeDark {
		t.Fatalf("theme = %q, want imported to win", merged.Theme)
	}
	if merged.DeletePatterns[0].Mode != "trash" {
		t.Fatalf("expected imported's mode to win, got %+v", merged.DeletePatterns[0])
	}
}

func TestMergeImport_CancelPolicyReturnsCurrentUnchanged(t *testing.T) {
	current := Document{Theme: ThemeLight, DeletePatterns: []DeletePattern{{Name: "temps", Mode: "direct"}}}
	imported := Document{Theme: ThemeDark, DeletePatterns: []DeletePattern{{Name: "raws", Mode: "trash"}}}

	merged := MergeImport(current, imported, PolicyCancel)
	if merged.Theme != ThemeLight || len(merged.DeletePatterns) != 1 {
		t.Fatalf("expected current unchanged, got %+v", merged)
	}
}
