// Package cookie encodes session ids into Set-Cookie headers and reads them
// back from requests.
package cookie

import (
	"net/http"
	"strings"
	"time"
)

const (
	DefaultName   = "session"
	DefaultMaxAge = 30 * 24 * time.Hour

	minIDLength = 32
	maxIDLength = 256
)

// Options configures a Codec.
type Options struct {
	Name       string
	Domain     string
	Production bool
	MaxAge     time.Duration
}

// Codec builds and parses the session cookie. The cookie value is the bare
// session id.
type Codec struct {
	name       string
	domain     string
	production bool
	maxAge     time.Duration
}

// NewCodec creates a Codec, filling unset options with defaults.
func NewCodec(opts Options) *Codec {
	if opts.Name == "" {
		opts.Name = DefaultName
	}
	if opts.MaxAge <= 0 {
		opts.MaxAge = DefaultMaxAge
	}
	return &Codec{
		name:       opts.Name,
		domain:     opts.Domain,
		production: opts.Production,
		maxAge:     opts.MaxAge,
	}
}

// Name returns the cookie name.
func (c *Codec) Name() string { return c.name }

// Encode returns the cookie carrying sessionID. A non-positive maxAge uses the
// codec default.
func (c *Codec) Encode(sessionID string, maxAge time.Duration) *http.Cookie {
	if maxAge <= 0 {
		maxAge = c.maxAge
	}
	ck := c.base()
	ck.Value = sessionID
	ck.MaxAge = int(maxAge / time.Second)
	return ck
}

// EncodeString returns the Set-Cookie header value for sessionID.
func (c *Codec) EncodeString(sessionID string, maxAge time.Duration) string {
	return c.Encode(sessionID, maxAge).String()
}

// Clear returns a cookie that makes the browser drop the session cookie.
func (c *Codec) Clear() *http.Cookie {
	ck := c.base()
	ck.MaxAge = -1
	ck.Expires = time.Unix(0, 0)
	return ck
}

// ClearString returns the Set-Cookie header value that removes the cookie.
func (c *Codec) ClearString() string {
	return c.Clear().String()
}

func (c *Codec) base() *http.Cookie {
	ck := &http.Cookie{
		Name:     c.name,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   c.production,
	}
	if c.production && c.domain != "" {
		ck.Domain = c.domain
	}
	return ck
}

// Decode extracts a session id from a raw cookie value. Anything that is not
// a plausible session id, including JSON blobs written by older clients,
// decodes as no session.
func (c *Codec) Decode(raw string) (string, bool) {
	v := strings.TrimSpace(raw)
	if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
		v = v[1 : len(v)-1]
	}

	if len(v) < minIDLength || len(v) > maxIDLength || len(v)%2 != 0 {
		return "", false
	}
	for i := 0; i < len(v); i++ {
		if !isHex(v[i]) {
			return "", false
		}
	}
	return v, true
}

// FromRequest reads and decodes the session cookie of r.
func (c *Codec) FromRequest(r *http.Request) (string, bool) {
	ck, err := r.Cookie(c.name)
	if err != nil {
		return "", false
	}
	return c.Decode(ck.Value)
}

// HasCookie reports whether r carries the session cookie at all, valid or not.
func (c *Codec) HasCookie(r *http.Request) bool {
	_, err := r.Cookie(c.name)
	return err == nil
}

func isHex(b byte) bool {
	return ('0' <= b && b <= '9') || ('a' <= b && b <= 'f') || ('A' <= b && b <= 'F')
}
