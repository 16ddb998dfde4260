// Package format holds a small registry of message-format
// descriptors: per-provider knowledge of how a transcript's messages
// map onto the shared model.Message/model.Part shape, kept separate
// from the strategy pipeline and content rewriter so a second host
// wire format could be added here without touching either.
package format

import "github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/model"

// Descriptor describes one host message-format's conventions: how to
// tell a synthetic (engine- or host-injected) message from a genuine
// turn, and what role a provider family expects synthetic content to
// carry.
type Descriptor struct {
	Name string

	// IsSynthetic reports whether msg was injected rather than
	// produced by a genuine user/assistant turn.
	IsSynthetic func(msg model.Message) bool

	// PreferredSyntheticRole is the role the context injector should
	// use for its appended block under this format.
	PreferredSyntheticRole model.Role
}

var registry = map[string]*Descriptor{}

func init() {
	Register(genericHostFormat())
}

// Register adds or replaces a descriptor under its Name.
func Register(d *Descriptor) {
	registry[d.Name] = d
}

// Get looks up a descriptor by name, returning the generic host
// format's descriptor when name is unknown or empty — there is always
// a usable default.
func Get(name string) *Descriptor {
	if d, ok := registry[name]; ok {
		return d
	}
	return registry["generic"]
}

// genericHostFormat is the one descriptor this engine ships: a
// message is synthetic when the host flagged it Ignored, and the
// preferred synthetic role is the assistant. inject.Run does not read
// descriptors; it takes its role from the last non-ignored message.
func genericHostFormat() *Descriptor {
	return &Descriptor{
		Name: "generic",
		IsSynthetic: func(msg model.Message) bool {
			return msg.Info.Ignored
		},
		PreferredSyntheticRole: model.RoleAssistant,
	}
}
