package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const (
	// SessionTokenBytes is the entropy of a session id (64 hex characters).
	SessionTokenBytes = 32
	// VerificationTokenBytes is the entropy of an email verification token.
	VerificationTokenBytes = 16
)

// GenerateToken returns a hex-encoded token of byteLength random bytes read
// from crypto/rand. A non-positive byteLength uses SessionTokenBytes.
func GenerateToken(byteLength int) (string, error) {
	if byteLength <= 0 {
		byteLength = SessionTokenBytes
	}

	buf := make([]byte, byteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating token: %w", err)
	}

	return hex.EncodeToString(buf), nil
}
