package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestUserHasPassword(t *testing.T) {
	tests := []struct {
		name string
		user User
		want bool
	}{
		{name: "hash and salt", user: User{PasswordHash: strPtr("ab"), Salt: strPtr("cd")}, want: true},
		{name: "no hash", user: User{Salt: strPtr("cd")}, want: false},
		{name: "no salt", user: User{PasswordHash: strPtr("ab")}, want: false},
		{name: "empty salt", user: User{PasswordHash: strPtr("ab"), Salt: strPtr("")}, want: false},
		{name: "external account", user: User{}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.HasPassword())
		})
	}
}

func TestIdentityOmitsCredentials(t *testing.T) {
	u := &User{
		ID:           7,
		Email:        "alice@example.com",
		Username:     "alice",
		PasswordHash: strPtr("deadbeef"),
		Salt:         strPtr("cafebabe"),
		Role:         RoleAdmin,
		IsActive:     true,
	}

	data, err := json.Marshal(u.Identity())
	require.NoError(t, err)

	assert.NotContains(t, string(data), "deadbeef")
	assert.NotContains(t, string(data), "cafebabe")
	assert.Contains(t, string(data), `"userName":"alice"`)
	assert.True(t, u.Identity().IsAdmin())
}

func TestSessionExpiredAt(t *testing.T) {
	exp := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &Session{ExpiresAt: exp}

	assert.False(t, s.ExpiredAt(exp.Add(-time.Second)))
	assert.True(t, s.ExpiredAt(exp))
	assert.True(t, s.ExpiredAt(exp.Add(time.Second)))
}

func TestSignInRequestRemember(t *testing.T) {
	var req SignInRequest
	require.NoError(t, json.Unmarshal([]byte(`{"email":"a@b.c","password":"x"}`), &req))
	assert.True(t, req.Remember())

	require.NoError(t, json.Unmarshal([]byte(`{"rememberMe":false}`), &req))
	assert.False(t, req.Remember())
}
