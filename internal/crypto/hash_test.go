package crypto

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHash(t *testing.T) {
	h := NewDefaultHasher()

	hash, salt, err := h.Hash("correct-horse-battery-staple")
	require.NoError(t, err)

	assert.Len(t, salt, 32, "16-byte salt should be 32 hex chars")
	assert.Len(t, hash, 128, "64-byte key should be 128 hex chars")
	_, err = hex.DecodeString(salt)
	assert.NoError(t, err)
	_, err = hex.DecodeString(hash)
	assert.NoError(t, err)
}

func TestHashUsesFreshSaltEveryCall(t *testing.T) {
	h := NewDefaultHasher()

	hash1, salt1, err := h.Hash("same-password")
	require.NoError(t, err)
	hash2, salt2, err := h.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, salt1, salt2)
	assert.NotEqual(t, hash1, hash2)
}

func TestVerifyRoundTrip(t *testing.T) {
	h := NewDefaultHasher()
	passwords := []string{"Secret123!", "", "pässwörd", strings.Repeat("x", 200)}

	for _, pw := range passwords {
		hash, salt, err := h.Hash(pw)
		require.NoError(t, err)

		assert.True(t, h.Verify(pw, hash, salt), "password %q should verify", pw)
		assert.False(t, h.Verify(pw+"x", hash, salt), "password %q+x should not verify", pw)
	}
}

func TestVerifyWrongSalt(t *testing.T) {
	h := NewDefaultHasher()

	hash, _, err := h.Hash("my-secure-password")
	require.NoError(t, err)

	assert.False(t, h.Verify("my-secure-password", hash, "00000000000000000000000000000000"))
}

func TestVerifyMalformedInputReturnsFalse(t *testing.T) {
	h := NewDefaultHasher()

	tests := []struct {
		name string
		hash string
		salt string
	}{
		{name: "empty hash", hash: "", salt: "abcd"},
		{name: "empty salt", hash: "abcd", salt: ""},
		{name: "non-hex hash", hash: "not-hex-at-all", salt: "abcd"},
		{name: "truncated hash", hash: "abcd", salt: "abcd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, h.Verify("password", tt.hash, tt.salt))
		})
	}
}

func TestVerifyInvalidParamsReturnsFalse(t *testing.T) {
	good := NewDefaultHasher()
	hash, salt, err := good.Hash("password")
	require.NoError(t, err)

	// N must be a power of two; scrypt.Key fails and Verify must not panic.
	bad := NewHasher(ScryptParams{N: 3, R: 8, P: 1, SaltLength: 16, KeyLength: 64})
	assert.False(t, bad.Verify("password", hash, salt))

	_, _, err = bad.Hash("hunter2-plaintext")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHashing)
	assert.NotContains(t, err.Error(), "hunter2-plaintext")
}

// Stored hashes are scrypt(password, saltHex, 64) with N=16384, r=8, p=1
// and may have been written upper-cased by older tooling.
func TestVerifyCompatibleWithExistingHashes(t *testing.T) {
	h := NewDefaultHasher()
	salt := "336f9d53aa9c2fb3771564418eece5ae"

	key, err := h.derive("admin123", salt)
	require.NoError(t, err)

	assert.True(t, h.Verify("admin123", hex.EncodeToString(key), salt))
	assert.True(t, h.Verify("admin123", strings.ToUpper(hex.EncodeToString(key)), salt))
}
