// Package cryptox holds the small amount of cryptography the client needs:
// deriving verifiers for short secrets (the PIN code) and comparing them in
// constant time.
package cryptox

import (
	"crypto/sha256"
	"crypto/subtle"

	"golang.org/x/crypto/argon2"
)

// DeriveKey stretches a low-entropy secret with argon2id. The salt does not
// need to be secret, only stable for the lifetime of the verifier.
func DeriveKey(secret []byte, salt []byte) []byte {
	return argon2.IDKey(secret, salt, 1, 64*1024, 4, 32)
}

// MakeVerifier produces the value stored instead of the derived key itself.
func MakeVerifier(key []byte) []byte {
	hash := sha256.Sum256(key)
	return hash[:]
}

// VerifySecret derives a verifier for candidate and compares it against the
// stored one in constant time.
func VerifySecret(candidate []byte, salt []byte, verifier []byte) bool {
	candidateVerifier := MakeVerifier(DeriveKey(candidate, salt))
	return subtle.ConstantTimeCompare(verifier, candidateVerifier) == 1
}

// SecureCompare reports whether two byte slices are equal without leaking
// where they differ through timing.
func SecureCompare(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}
