package announce_test

import (
	"os"
	"path/filepath"
	"testing"

	"parkshare/internal/announce"
)

func TestSaveLoadRoundTrip(t *testing.T) {
	s := announce.NewStore(t.TempDir())

	if err := s.Save("  Bitte beachten  ", "Schranke defekt.\n", "warn", true); err != nil {
		t.Fatal(err)
	}
	a := s.Load()
	if a == nil {
		t.Fatal("enabled announcement not loaded")
	}
	if a.Title != "Bitte beachten" || a.Body != "Schranke defekt." {
		t.Fatalf("fields not trimmed: %+v", a)
	}
	if a.Level != "warn" || a.UpdatedAt == "" {
		t.Fatalf("bad metadata: %+v", a)
	}
}

func TestDisabledAndMissingReturnNil(t *testing.T) {
	dir := t.TempDir()
	s := announce.NewStore(dir)

	if s.Load() != nil {
		t.Fatal("missing file should load as nil")
	}
	if err := s.Save("x", "y", "info", false); err != nil {
		t.Fatal(err)
	}
	if s.Load() != nil {
		t.Fatal("disabled announcement should load as nil")
	}
}

func TestCorruptFileIsAdvisoryOnly(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, announce.FileName), []byte("{broken"), 0o644); err != nil {
		t.Fatal(err)
	}
	if announce.NewStore(dir).Load() != nil {
		t.Fatal("corrupt banner must degrade to no banner")
	}
}

func TestUnknownLevelDefaultsToInfo(t *testing.T) {
	s := announce.NewStore(t.TempDir())
	if err := s.Save("t", "b", "shouting", true); err != nil {
		t.Fatal(err)
	}
	if a := s.Load(); a == nil || a.Level != "info" {
		t.Fatalf("want level info, got %+v", a)
	}
}
