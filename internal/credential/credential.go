// Package credential implements one-way hashing and verification of
// account PINs. It is stateless: the ledger stores only digests, never
// the plaintext secret.
package credential

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/Ayo-tomiwa/Banking-Manging-system/internal/domain"
)

const pinLength = 4

// Hash returns the SHA-256 hex digest of a secret. Deterministic: the
// same input always yields the same digest.
func Hash(secret string) string {
	h := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(h[:])
}

// Verify reports whether secret hashes to digest. The comparison is
// constant-time so timing does not leak how much of the digest matched.
func Verify(secret, digest string) bool {
	attempt := Hash(secret)
	return subtle.ConstantTimeCompare([]byte(attempt), []byte(digest)) == 1
}

// ValidatePIN checks the PIN format contract: exactly four ASCII digits.
// Called before hashing at account creation.
func ValidatePIN(pin string) error {
	if len(pin) != pinLength {
		return &domain.ErrInvalidCredentialFormat{Reason: "must be exactly 4 digits"}
	}
	for _, c := range pin {
		if c < '0' || c > '9' {
			return &domain.ErrInvalidCredentialFormat{Reason: "must contain only digits"}
		}
	}
	return nil
}
