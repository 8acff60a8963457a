// Package owners maintains the spot -> owner-code registry. The codes are
// the only owner credential, so the persisted file is a trust anchor: it is
// written 0600 and an unreadable file is a hard startup error, never a
// silent regeneration.
package owners

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"parkshare/internal/domain"
)

const (
	FileName     = "owners.json"
	spotsPerLot  = 60
)

// SpotNames lists every provisioned spot in stable order: P01..P60 for the
// bank lot, then PP01..PP60 for the post lot.
func SpotNames() []string {
	out := make([]string, 0, 2*spotsPerLot)
	for i := 1; i <= spotsPerLot; i++ {
		out = append(out, fmt.Sprintf("P%02d", i))
	}
	for i := 1; i <= spotsPerLot; i++ {
		out = append(out, fmt.Sprintf("PP%02d", i))
	}
	return out
}

// LotFor classifies a spot name by its prefix.
func LotFor(name string) string {
	if strings.HasPrefix(name, "PP") {
		return domain.LotPost
	}
	return domain.LotBank
}

// EnsureCodes loads or creates the registry under secretsDir. Codes for
// spots missing from an older file are generated additively; existing codes
// are never touched.
func EnsureCodes(secretsDir string) (map[string]string, error) {
	if err := os.MkdirAll(secretsDir, 0o700); err != nil {
		return nil, fmt.Errorf("owners: create secrets dir: %w", err)
	}
	path := filepath.Join(secretsDir, FileName)

	mapping := map[string]string{}
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(raw, &mapping); err != nil {
			return nil, fmt.Errorf("owners: registry %s is corrupt: %w", path, err)
		}
	case os.IsNotExist(err):
		// first run, start empty
	default:
		return nil, fmt.Errorf("owners: read registry: %w", err)
	}

	used := make(map[string]bool, len(mapping))
	for _, code := range mapping {
		used[code] = true
	}

	changed := false
	for _, name := range SpotNames() {
		if _, ok := mapping[name]; ok {
			continue
		}
		code, err := newCode(used)
		if err != nil {
			return nil, err
		}
		mapping[name] = code
		changed = true
	}

	if changed {
		if err := write(path, mapping); err != nil {
			return nil, err
		}
	}
	return mapping, nil
}

// newCode draws 4 uppercase hex chars, retrying on the (unlikely) collision
// with an already issued code.
func newCode(used map[string]bool) (string, error) {
	for {
		var b [2]byte
		if _, err := rand.Read(b[:]); err != nil {
			return "", fmt.Errorf("owners: generate code: %w", err)
		}
		code := strings.ToUpper(hex.EncodeToString(b[:]))
		if !used[code] {
			used[code] = true
			return code, nil
		}
	}
}

func write(path string, mapping map[string]string) error {
	b, err := json.MarshalIndent(mapping, "", "  ")
	if err != nil {
		return fmt.Errorf("owners: encode registry: %w", err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o600); err != nil {
		return fmt.Errorf("owners: write registry: %w", err)
	}
	return nil
}
