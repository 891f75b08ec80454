package pathutil

import (
	"regexp"
	"strings"
)

// PathPattern maps a dynamic route to its metrics label.
type PathPattern struct {
	Pattern  *regexp.Regexp
	Template string
}

// Evaluated in order.
var pathPatterns = []*PathPattern{
	{Pattern: regexp.MustCompile(`^/news/\d+$`), Template: "/news/:id"},
}

// NormalizePath turns dynamic paths into route templates so that metric
// labels stay bounded. Query strings and a trailing slash are ignored;
// static paths such as /news/by-period or /health pass through unchanged.
//
//	NormalizePath("/news/123")       // "/news/:id"
//	NormalizePath("/news/123/?x=1")  // "/news/:id"
//	NormalizePath("/news/external")  // "/news/external"
func NormalizePath(path string) string {
	if idx := strings.IndexByte(path, '?'); idx != -1 {
		path = path[:idx]
	}
	if len(path) > 1 && path[len(path)-1] == '/' {
		path = path[:len(path)-1]
	}

	for _, p := range pathPatterns {
		if p.Pattern.MatchString(path) {
			return p.Template
		}
	}
	return path
}
