package owners_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"parkshare/internal/owners"
)

func TestEnsureCodesFirstRun(t *testing.T) {
	dir := t.TempDir()

	codes, err := owners.EnsureCodes(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(codes) != 120 {
		t.Fatalf("want 120 spots, got %d", len(codes))
	}

	seen := map[string]string{}
	for spot, code := range codes {
		if len(code) != 4 {
			t.Fatalf("spot %s: code %q not 4 chars", spot, code)
		}
		if prev, dup := seen[code]; dup {
			t.Fatalf("code %q issued to both %s and %s", code, prev, spot)
		}
		seen[code] = spot
	}

	info, err := os.Stat(filepath.Join(dir, owners.FileName))
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("registry perms: want 0600, got %o", perm)
	}
}

func TestEnsureCodesIdempotent(t *testing.T) {
	dir := t.TempDir()

	first, err := owners.EnsureCodes(dir)
	if err != nil {
		t.Fatal(err)
	}
	second, err := owners.EnsureCodes(dir)
	if err != nil {
		t.Fatal(err)
	}
	for spot, code := range first {
		if second[spot] != code {
			t.Fatalf("spot %s: code changed between runs (%s -> %s)", spot, code, second[spot])
		}
	}
}

func TestEnsureCodesBackfillsPostLot(t *testing.T) {
	dir := t.TempDir()

	// Simulate a legacy install that only knew the bank lot.
	legacy := map[string]string{"P01": "AAAA", "P02": "BBBB"}
	b, _ := json.Marshal(legacy)
	if err := os.WriteFile(filepath.Join(dir, owners.FileName), b, 0o600); err != nil {
		t.Fatal(err)
	}

	codes, err := owners.EnsureCodes(dir)
	if err != nil {
		t.Fatal(err)
	}
	if codes["P01"] != "AAAA" || codes["P02"] != "BBBB" {
		t.Fatal("existing codes must never be regenerated")
	}
	if len(codes) != 120 {
		t.Fatalf("want backfill to 120 spots, got %d", len(codes))
	}
	if codes["PP60"] == "" {
		t.Fatal("post lot spots not backfilled")
	}
}

func TestEnsureCodesCorruptFileFatal(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, owners.FileName), []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := owners.EnsureCodes(dir); err == nil {
		t.Fatal("corrupt registry must error, not regenerate")
	}
}

func TestLotFor(t *testing.T) {
	if owners.LotFor("P07") != "bank" || owners.LotFor("PP07") != "post" {
		t.Fatal("lot classification wrong")
	}
}
