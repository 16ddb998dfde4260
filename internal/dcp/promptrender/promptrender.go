// Package promptrender expands the small templating language the
// tool-manifest and nudge prompts are authored in:
// <toolName>...</toolName> conditional blocks kept or stripped by
// which tools are enabled, "// comment //" markers removed, and runs
// of blank lines collapsed.
package promptrender

import (
	"regexp"
	"strings"
)

var (
	toolBlockPattern = regexp.MustCompile(`(?s)<(\w+)>(.*?)</(\w+)>`)
	commentPattern   = regexp.MustCompile(`//[^\n]*//`)
	blankRunPattern  = regexp.MustCompile(`\n{3,}`)
)

// Render expands a template against the set of currently enabled tool
// names: a <toolName>...</toolName> block survives verbatim (tags
// stripped) when toolName is enabled, and is removed entirely
// otherwise. Mismatched open/close tag names are left untouched — the
// template author made a mistake a silent transform shouldn't hide.
func Render(template string, enabledTools map[string]struct{}) string {
	expanded := toolBlockPattern.ReplaceAllStringFunc(template, func(match string) string {
		groups := toolBlockPattern.FindStringSubmatch(match)
		open, body, close := groups[1], groups[2], groups[3]
		if open != close {
			return match
		}
		if _, enabled := enabledTools[open]; enabled {
			return body
		}
		return ""
	})

	expanded = commentPattern.ReplaceAllString(expanded, "")
	expanded = blankRunPattern.ReplaceAllString(expanded, "\n\n")
	return strings.TrimSpace(expanded)
}

// Builder composes a prompt from fragments plus a final Render pass.
type Builder struct {
	fragments    []string
	enabledTools map[string]struct{}
}

// NewBuilder starts a builder seeded with the given base template.
func NewBuilder(base string, enabledTools map[string]struct{}) *Builder {
	return &Builder{fragments: []string{base}, enabledTools: enabledTools}
}

// AddFragment appends a template fragment, returning the builder for chaining.
func (b *Builder) AddFragment(text string) *Builder {
	if text != "" {
		b.fragments = append(b.fragments, text)
	}
	return b
}

// Build joins the fragments and runs the conditional/comment/blank-line expansion.
func (b *Builder) Build() string {
	return Render(strings.Join(b.fragments, "\n\n"), b.enabledTools)
}
