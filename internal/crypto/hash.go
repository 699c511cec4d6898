package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

var (
	ErrHashing = errors.New("error hashing password")
)

// ScryptParams configures the scrypt key derivation.
type ScryptParams struct {
	N          int
	R          int
	P          int
	SaltLength int
	KeyLength  int
}

// DefaultScryptParams returns the parameters used for all stored credentials.
// N=16384, r=8, p=1 with a 64-byte key matches hashes written by earlier
// versions of the application.
func DefaultScryptParams() ScryptParams {
	return ScryptParams{
		N:          16384,
		R:          8,
		P:          1,
		SaltLength: 16,
		KeyLength:  64,
	}
}

// Hasher derives and verifies salted scrypt password hashes.
type Hasher struct {
	params ScryptParams
}

// NewHasher creates a Hasher with the given parameters.
func NewHasher(params ScryptParams) *Hasher {
	return &Hasher{params: params}
}

// NewDefaultHasher creates a Hasher with DefaultScryptParams.
func NewDefaultHasher() *Hasher {
	return NewHasher(DefaultScryptParams())
}

// Hash generates a fresh random salt and derives a hash from password and salt.
// Both values are hex encoded. The salt is fed to scrypt as its hex text.
func (h *Hasher) Hash(password string) (hash, salt string, err error) {
	raw := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("%w: generating salt: %w", ErrHashing, err)
	}
	salt = hex.EncodeToString(raw)

	key, err := h.derive(password, salt)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrHashing, err)
	}

	return hex.EncodeToString(key), salt, nil
}

// Verify reports whether password hashes to storedHash under salt.
// Any internal failure is reported as a mismatch.
func (h *Hasher) Verify(password, storedHash, salt string) bool {
	if storedHash == "" || salt == "" {
		return false
	}

	want, err := hex.DecodeString(storedHash)
	if err != nil || len(want) == 0 {
		return false
	}

	got, err := h.derive(password, salt)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(want, got) == 1
}

func (h *Hasher) derive(password, salt string) ([]byte, error) {
	return scrypt.Key([]byte(password), []byte(salt), h.params.N, h.params.R, h.params.P, h.params.KeyLength)
}
