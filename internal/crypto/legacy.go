package crypto

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// IsLegacyHash reports whether storedHash was produced by one of the
// pre-scrypt schemes: an unsalted-KDF sha256(password+salt) hex digest or a
// bcrypt hash.
func IsLegacyHash(storedHash string) bool {
	return isBcrypt(storedHash) || isSHA256Hex(storedHash)
}

// VerifyLegacy checks password against a legacy hash. It must only be used to
// migrate an account to scrypt on a successful sign-in.
func VerifyLegacy(password, storedHash, salt string) bool {
	switch {
	case isBcrypt(storedHash):
		return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(password)) == nil
	case isSHA256Hex(storedHash):
		sum := sha256.Sum256([]byte(password + salt))
		want, err := hex.DecodeString(strings.ToLower(storedHash))
		if err != nil {
			return false
		}
		return subtle.ConstantTimeCompare(want, sum[:]) == 1
	default:
		return false
	}
}

func isBcrypt(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}

func isSHA256Hex(s string) bool {
	if len(s) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
