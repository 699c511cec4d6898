package crypto

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	resetIssuer   = "wanderplan"
	resetAudience = "wanderplan-password-reset"
)

var (
	ErrInvalidToken = errors.New("invalid or expired token")
)

// ResetClaims are the claims of a password reset token. Fingerprint binds the
// token to the credentials it was issued against, so it stops validating once
// the password (and with it the salt) changes.
type ResetClaims struct {
	jwt.RegisteredClaims
	UserID      int64  `json:"user_id"`
	Fingerprint string `json:"fp"`
}

// GenerateResetToken creates a signed password reset token for the given user.
func GenerateResetToken(userID int64, fingerprint, secret string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := ResetClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    resetIssuer,
			Audience:  jwt.ClaimStrings{resetAudience},
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		UserID:      userID,
		Fingerprint: fingerprint,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateResetToken parses and validates a reset token, returning its claims.
func ValidateResetToken(tokenString, secret string) (*ResetClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ResetClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(resetIssuer), jwt.WithAudience(resetAudience), jwt.WithExpirationRequired())
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*ResetClaims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// CredentialFingerprint derives a short, non-reversible marker of the stored
// credentials from the salt.
func CredentialFingerprint(salt string) string {
	sum := sha256.Sum256([]byte("wanderplan-reset:" + salt))
	return hex.EncodeToString(sum[:8])
}
