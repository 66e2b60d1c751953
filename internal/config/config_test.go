package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.LogSettings.NoLogs {
		t.Fatalf("expected NoLogs=true default, got false")
	}
	if cfg.Workers != 0 || cfg.ProgressBuffer != 0 {
		t.Fatalf("expected zero-value Workers/ProgressBuffer, got %+v", cfg)
	}
	if cfg.ConfigDir != dir {
		t.Fatalf("ConfigDir = %q, want %q", cfg.ConfigDir, dir)
	}
}

func TestLoad_ReadsProcessSection(t *testing.T) {
	dir := t.TempDir()
	ini := "[process]\nworkers=4\nprogressBuffer=128\nnoLogs=false\nlogDir=" + filepath.Join(dir, "logs") + "\n"
	if err := os.WriteFile(filepath.Join(dir, "config.ini"), []byte(ini), 0o644); err != nil {
		t.Fatalf("write config.ini: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workers != 4 {
		t.Fatalf("Workers = %d, want 4", cfg.Workers)
	}
	if cfg.ProgressBuffer != 128 {
		t.Fatalf("ProgressBuffer = %d, want 128", cfg.ProgressBuffer)
	}
	if cfg.LogSettings.NoLogs {
		t.Fatalf("expected NoLogs=false from config.ini")
	}
	if cfg.LogSettings.LogDir != filepath.Join(dir, "logs") {
		t.Fatalf("LogDir = %q", cfg.LogSettings.LogDir)
	}
}

func TestLoad_IgnoresOtherSections(t *testing.T) {
	dir := t.TempDir()
	ini := "[backup]\npath=Z:\\Backups\n\n[process]\nworkers=2\n"
	if err := os.WriteFile(filepath.Join(dir, "config.ini"), []byte(ini), 0o644); err != nil {
		t.Fatalf("write config.ini: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workers != 2 {
		t.Fatalf("Workers = %d, want 2", cfg.Workers)
	}
}

func TestLoad_MalformedIniReturnsError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.ini"), []byte("workers=4\n"), 0o644); err != nil {
		t.Fatalf("write config.ini: %v", err)
	}

	if _, err := Load(dir); err == nil {
		t.Fatalf("expected an error for a line outside any section")
	}
}

func TestLoad_StripsBOM(t *testing.T) {
	dir := t.TempDir()
	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("[process]\nworkers=7\n")...)
	if err := os.WriteFile(filepath.Join(dir, "config.ini"), content, 0o644); err != nil {
		t.Fatalf("write config.ini: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workers != 7 {
		t.Fatalf("Workers = %d, want 7", cfg.Workers)
	}
}
