package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wanderplan/wanderplan-go/internal/config"
)

func testPaths() config.PathConfig {
	return config.PathConfig{
		Public:            []string{"/", "/auth/signin", "/auth/signup", "/api/public", "/api/v1/auth/signin"},
		ProtectedPrefixes: []string{"/__protected__"},
		AdminPrefixes:     []string{"/admin", "/api/v1/admin"},
		SignIn:            "/auth/signin",
		SignUp:            "/auth/signup",
		Landing:           "/__protected__/dashboard",
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/", "/"},
		{"", "/"},
		{"/auth/signin/", "/auth/signin"},
		{"/auth/signin?callbackUrl=%2F", "/auth/signin"},
		{"/a//b/../c", "/a/c"},
		{"/page#top", "/page"},
		{"relative", "/relative"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePath(tt.in), tt.in)
	}
}

func TestClassify(t *testing.T) {
	c := NewPathClassifier(testPaths())

	tests := []struct {
		path string
		want PathClass
	}{
		{"/", ClassPublic},
		{"/auth/signin", ClassPublic},
		{"/auth/signup/", ClassPublic},
		{"/api/public", ClassPublic},
		{"/api/public/destinations", ClassPublic},
		{"/api/public/health", ClassAsset},
		{"/health", ClassAsset},
		{"/static/app.css", ClassAsset},
		{"/favicon.ico", ClassAsset},
		{"/logo.png", ClassAsset},
		{"/__protected__/dashboard", ClassProtected},
		{"/__protected__/logo.png", ClassProtected},
		{"/trips", ClassProtected},
		{"/api/v1/trips", ClassProtected},
		{"/administrator", ClassProtected},
		{"/admin", ClassAdmin},
		{"/admin/users", ClassAdmin},
		{"/api/v1/admin/users/3/role", ClassAdmin},
		{"/admin/../auth/signin", ClassPublic},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(tt.path))
		})
	}
}

func TestProtectedPrefixBeatsPublicList(t *testing.T) {
	cfg := testPaths()
	cfg.Public = append(cfg.Public, "/__protected__/dashboard", "/admin")
	c := NewPathClassifier(cfg)

	assert.Equal(t, ClassProtected, c.Classify("/__protected__/dashboard"))
	assert.Equal(t, ClassAdmin, c.Classify("/admin"))
	assert.False(t, c.IsPublic("/__protected__/dashboard"))
	assert.True(t, c.IsAdmin("/admin/users"))
}

func TestRootIsNotAPrefix(t *testing.T) {
	c := NewPathClassifier(testPaths())
	assert.True(t, c.IsPublic("/"))
	assert.False(t, c.IsPublic("/anything"))
}

func TestPathClassString(t *testing.T) {
	assert.Equal(t, "public", ClassPublic.String())
	assert.Equal(t, "protected", ClassProtected.String())
	assert.Equal(t, "admin", ClassAdmin.String())
	assert.Equal(t, "asset", ClassAsset.String())
}
