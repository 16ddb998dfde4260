package tokenutil

import gitignore "github.com/sabhiram/go-gitignore"

// GlobSet matches paths against a set of gitignore-style patterns —
// protected-file-patterns use the same `**`/`*` glob semantics as a
// `.gitignore` file.
type GlobSet struct {
	matcher gitignore.IgnoreParser
}

// NewGlobSet compiles a set of gitignore-style patterns. An empty
// pattern list produces a matcher that never matches.
func NewGlobSet(patterns []string) *GlobSet {
	if len(patterns) == 0 {
		return &GlobSet{}
	}
	return &GlobSet{matcher: gitignore.CompileIgnoreLines(patterns...)}
}

// Matches reports whether path matches any configured pattern.
func (g *GlobSet) Matches(path string) bool {
	if g == nil || g.matcher == nil || path == "" {
		return false
	}
	return g.matcher.MatchesPath(path)
}
