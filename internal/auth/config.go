package auth

import (
	"path"
	"strings"
)

// DefaultPublicPaths are reachable without a token in every auth mode
var DefaultPublicPaths = []string{"/health", "/readiness", "/version", "/metrics"}

// IsPublicPath reports whether requestPath falls under one of publicPaths.
// Paths are cleaned before matching and compared per segment, so /health
// covers /health/live but not /healthz. Encoded separators and dots are
// never public.
func IsPublicPath(requestPath string, publicPaths []string) bool {
	// Encoded traversal could clean to a public path on one layer and a private one on another
	lower := strings.ToLower(requestPath)
	if strings.Contains(lower, "%2f") || strings.Contains(lower, "%2e") {
		return false
	}

	clean := rooted(requestPath)
	for _, p := range publicPaths {
		public := rooted(p)
		// A configured "/" makes every path public
		if public == "/" || clean == public || strings.HasPrefix(clean, public+"/") {
			return true
		}
	}
	return false
}

func rooted(p string) string {
	return path.Clean("/" + p)
}

// PublicPaths appends the configured public paths to the defaults
func PublicPaths(configured []string) []string {
	paths := append([]string{}, DefaultPublicPaths...)
	for _, p := range configured {
		if p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}
