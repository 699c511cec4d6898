package middleware

import (
	"path"
	"strings"

	"github.com/wanderplan/wanderplan-go/internal/config"
)

// PathClass is the access level a request path requires.
type PathClass int

const (
	// ClassProtected requires a valid session.
	ClassProtected PathClass = iota
	// ClassPublic is served to anyone; a valid session still attaches identity.
	ClassPublic
	// ClassAdmin requires a valid session with the admin role.
	ClassAdmin
	// ClassAsset is a static asset or health check, served without any
	// session lookup.
	ClassAsset
)

func (c PathClass) String() string {
	switch c {
	case ClassPublic:
		return "public"
	case ClassAdmin:
		return "admin"
	case ClassAsset:
		return "asset"
	default:
		return "protected"
	}
}

var (
	assetPrefixes   = []string{"/static/", "/assets/", "/_app/"}
	assetFiles      = []string{"/favicon.ico", "/robots.txt", "/manifest.json"}
	assetExtensions = []string{".css", ".js", ".map", ".png", ".jpg", ".jpeg", ".gif", ".svg", ".ico", ".webp", ".woff", ".woff2", ".ttf"}
	healthPaths     = []string{"/health", "/healthz", "/readyz"}
)

// PathClassifier decides which class a request path belongs to.
type PathClassifier struct {
	public    []string
	protected []string
	admin     []string
}

// NewPathClassifier builds a classifier from the configured path lists.
func NewPathClassifier(cfg config.PathConfig) *PathClassifier {
	return &PathClassifier{
		public:    normalizeAll(cfg.Public),
		protected: normalizeAll(cfg.ProtectedPrefixes),
		admin:     normalizeAll(cfg.AdminPrefixes),
	}
}

// NormalizePath drops the query string, cleans the path and strips the
// trailing slash.
func NormalizePath(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" || p[0] != '/' {
		p = "/" + p
	}
	return path.Clean(p)
}

// Classify returns the class of p. Admin and protected prefixes are checked
// before any public rule, so they can never be made public.
func (c *PathClassifier) Classify(p string) PathClass {
	p = NormalizePath(p)

	for _, prefix := range c.admin {
		if underPrefix(p, prefix) {
			return ClassAdmin
		}
	}
	for _, prefix := range c.protected {
		if underPrefix(p, prefix) {
			return ClassProtected
		}
	}

	if isAsset(p) || isHealthCheck(p) {
		return ClassAsset
	}

	for _, pub := range c.public {
		if pub == "/" {
			if p == "/" {
				return ClassPublic
			}
			continue
		}
		if underPrefix(p, pub) {
			return ClassPublic
		}
	}

	return ClassProtected
}

// IsPublic reports whether p can be served without a session.
func (c *PathClassifier) IsPublic(p string) bool {
	class := c.Classify(p)
	return class == ClassPublic || class == ClassAsset
}

// IsAdmin reports whether p requires the admin role.
func (c *PathClassifier) IsAdmin(p string) bool {
	return c.Classify(p) == ClassAdmin
}

// underPrefix matches prefix itself and its descendants, on segment
// boundaries: /admin matches /admin/users but not /administrator.
func underPrefix(p, prefix string) bool {
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

func isAsset(p string) bool {
	for _, prefix := range assetPrefixes {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	for _, f := range assetFiles {
		if p == f {
			return true
		}
	}
	ext := strings.ToLower(path.Ext(p))
	for _, e := range assetExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

func isHealthCheck(p string) bool {
	for _, h := range healthPaths {
		if p == h {
			return true
		}
	}
	return strings.HasSuffix(p, "/health")
}

func isAPIPath(p string) bool {
	return p == "/api" || strings.HasPrefix(p, "/api/")
}

func normalizeAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, p := range in {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, NormalizePath(p))
		}
	}
	return out
}
