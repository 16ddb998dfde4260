// Package tokenutil provides the small estimation and text utilities
// shared across the pruning pipeline: a token-count heuristic, glob
// matching for protected file patterns, and the per-tool parameter
// label used in notifications and the prunable-tools manifest.
package tokenutil

import (
	"fmt"
	"strings"
)

// Tokenizer estimates token counts for text. A real per-model
// tokenizer can implement this without touching callers.
type Tokenizer interface {
	CountTokens(text string) int
}

// EstimateTokens is a rough ~4-characters-per-token heuristic.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	charCount := len([]rune(text))
	whitespace := strings.Count(text, " ") + strings.Count(text, "\n") + strings.Count(text, "\t")
	estimated := (charCount / 4) + (whitespace / 6)
	if estimated < 1 {
		return 1
	}
	return estimated
}

// DefaultTokenizer implements Tokenizer via EstimateTokens.
type DefaultTokenizer struct{}

func (DefaultTokenizer) CountTokens(text string) int { return EstimateTokens(text) }

// ShortenPath trims a file path to its last n path segments, prefixed
// with an ellipsis when truncated, for compact display in manifests
// and notifications.
func ShortenPath(path string, segments int) string {
	if segments <= 0 {
		return path
	}
	parts := strings.Split(strings.TrimPrefix(path, "/"), "/")
	if len(parts) <= segments {
		return path
	}
	return ".../" + strings.Join(parts[len(parts)-segments:], "/")
}

// ParamKey derives the compact human label shown for a tool call in
// the <prunable-tools> manifest and in strategy notifications: a file
// path for read/write/edit, description or truncated command for
// bash, pattern+path for grep/glob, etc.
func ParamKey(tool string, params map[string]any) string {
	get := func(key string) string {
		v, ok := params[key]
		if !ok || v == nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	switch tool {
	case "read", "write", "edit", "multiedit":
		if p := get("filePath"); p != "" {
			return p
		}
	case "bash":
		if d := get("description"); d != "" {
			return d
		}
		if c := get("command"); c != "" {
			return truncate(c, 60)
		}
	case "grep":
		pattern, path := get("pattern"), get("path")
		switch {
		case pattern != "" && path != "":
			return fmt.Sprintf("%s in %s", pattern, path)
		case pattern != "":
			return pattern
		}
	case "glob":
		if p := get("pattern"); p != "" {
			return p
		}
	case "webfetch", "fetch":
		if u := get("url"); u != "" {
			return u
		}
	case "websearch", "search":
		if q := get("query"); q != "" {
			return q
		}
	case "apply_patch":
		if p := get("patchText"); p != "" {
			return truncate(p, 60)
		}
	}

	if p := get("filePath"); p != "" {
		return p
	}
	return ""
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
