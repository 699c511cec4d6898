package cookie

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sessionID = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

func TestEncodeDevelopment(t *testing.T) {
	c := NewCodec(Options{Domain: "example.com"})

	ck := c.Encode(sessionID, 0)
	assert.Equal(t, "session", ck.Name)
	assert.Equal(t, sessionID, ck.Value)
	assert.Equal(t, "/", ck.Path)
	assert.True(t, ck.HttpOnly)
	assert.False(t, ck.Secure)
	assert.Empty(t, ck.Domain, "domain is only emitted in production")
	assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)
	assert.Equal(t, 2592000, ck.MaxAge)

	s := c.EncodeString(sessionID, 24*time.Hour)
	assert.Contains(t, s, "Max-Age=86400")
	assert.Contains(t, s, "HttpOnly")
	assert.Contains(t, s, "SameSite=Lax")
	assert.NotContains(t, s, "Secure")
}

func TestEncodeProduction(t *testing.T) {
	c := NewCodec(Options{Name: "wp", Domain: "wanderplan.app", Production: true})

	s := c.EncodeString(sessionID, time.Hour)
	assert.True(t, strings.HasPrefix(s, "wp="+sessionID))
	assert.Contains(t, s, "Domain=wanderplan.app")
	assert.Contains(t, s, "Secure")
	assert.Contains(t, s, "Max-Age=3600")
}

func TestClear(t *testing.T) {
	c := NewCodec(Options{Production: true, Domain: "wanderplan.app"})

	ck := c.Clear()
	assert.Empty(t, ck.Value)
	assert.Equal(t, "/", ck.Path)
	assert.Equal(t, "wanderplan.app", ck.Domain)
	assert.Equal(t, int64(0), ck.Expires.Unix())

	s := c.ClearString()
	assert.Contains(t, s, "Max-Age=0")
	assert.Contains(t, s, "Expires=Thu, 01 Jan 1970 00:00:00 GMT")
}

func TestDecode(t *testing.T) {
	c := NewCodec(Options{})

	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{name: "bare id", raw: sessionID, want: sessionID, wantOK: true},
		{name: "quoted", raw: `"` + sessionID + `"`, want: sessionID, wantOK: true},
		{name: "whitespace", raw: "  " + sessionID + "\t", want: sessionID, wantOK: true},
		{name: "upper hex", raw: strings.ToUpper(sessionID), want: strings.ToUpper(sessionID), wantOK: true},
		{name: "empty", raw: ""},
		{name: "too short", raw: "abcd"},
		{name: "odd length", raw: sessionID[:63]},
		{name: "too long", raw: strings.Repeat("a", 258)},
		{name: "non hex", raw: strings.Repeat("z", 64)},
		{name: "json user blob", raw: `{"id":1,"email":"alice@example.com","role":"admin"}`},
		{name: "lone quote", raw: `"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := c.Decode(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFromRequest(t *testing.T) {
	c := NewCodec(Options{})

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := c.FromRequest(r)
	assert.False(t, ok)
	assert.False(t, c.HasCookie(r))

	r.AddCookie(&http.Cookie{Name: "session", Value: sessionID})
	id, ok := c.FromRequest(r)
	require.True(t, ok)
	assert.Equal(t, sessionID, id)
	assert.True(t, c.HasCookie(r))
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	c := NewCodec(Options{})

	rec := httptest.NewRecorder()
	http.SetCookie(rec, c.Encode(sessionID, 0))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(cookies[0])
	id, ok := c.FromRequest(r)
	require.True(t, ok)
	assert.Equal(t, sessionID, id)
}
