// Package admin manages the single admin capability guarding the
// announcement editor and the plan labeler. Only a bcrypt hash is kept on
// disk; the plaintext is printed to the log exactly once, when generated.
package admin

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"golang.org/x/crypto/bcrypt"
)

const FileName = "admin_code.hash"

type Guard struct {
	hash []byte
}

// EnsureCode loads the stored hash or generates a fresh admin code. Like
// the owner registry, a present-but-unreadable file is a hard error.
func EnsureCode(secretsDir string) (*Guard, error) {
	if err := os.MkdirAll(secretsDir, 0o700); err != nil {
		return nil, fmt.Errorf("admin: create secrets dir: %w", err)
	}
	path := filepath.Join(secretsDir, FileName)

	raw, err := os.ReadFile(path)
	if err == nil {
		if _, err := bcrypt.Cost(raw); err != nil {
			return nil, fmt.Errorf("admin: stored code hash is corrupt: %w", err)
		}
		return &Guard{hash: raw}, nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("admin: read code hash: %w", err)
	}

	var b [18]byte
	if _, err := rand.Read(b[:]); err != nil {
		return nil, fmt.Errorf("admin: generate code: %w", err)
	}
	code := base64.RawURLEncoding.EncodeToString(b[:])

	hash, err := bcrypt.GenerateFromPassword([]byte(code), 12)
	if err != nil {
		return nil, fmt.Errorf("admin: hash code: %w", err)
	}
	if err := os.WriteFile(path, hash, 0o600); err != nil {
		return nil, fmt.Errorf("admin: write code hash: %w", err)
	}

	// One-time disclosure for the operator; not recoverable later.
	log.Printf("[admin] generated admin code (save it now): %s", code)
	return &Guard{hash: hash}, nil
}

// Verify reports whether the presented code matches the stored hash.
func (g *Guard) Verify(code string) bool {
	if code == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword(g.hash, []byte(code)) == nil
}
