package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workers != 4 {
		t.Errorf("expected default 4 workers, got %d", cfg.Workers)
	}
	if cfg.Pairs.MinOverlap != 252 {
		t.Errorf("expected default pairs overlap 252, got %d", cfg.Pairs.MinOverlap)
	}
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("workers: 8\nsqlite_path: /tmp/test.db\nuniverse: [VOLV-B.ST, ERIC-B.ST]\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WORKERS", "2") // env beats file

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workers != 2 {
		t.Errorf("env override lost: workers=%d", cfg.Workers)
	}
	if cfg.SQLitePath != "/tmp/test.db" {
		t.Errorf("file value lost: sqlite_path=%q", cfg.SQLitePath)
	}
	if len(cfg.Universe) != 2 || cfg.Universe[0] != "VOLV-B.ST" {
		t.Errorf("unexpected universe %v", cfg.Universe)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/does/not/exist.yaml"); err == nil {
		t.Fatal("expected an error for an explicit missing config file")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("WORKERS", "0")
	if _, err := Load(""); err == nil {
		t.Fatal("expected validation to reject zero workers")
	}
}
