package dcp

import (
	"sort"

	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/hostproto"
)

// ApplyConfig implements the config hook: it registers /dcp as a host
// command and appends every enabled DCP tool's name to the host's
// experimental primary-tools list, returning the mutated document. The
// input map is never mutated in place — every nested map visited is
// shallow-copied before being changed.
func (e *Engine) ApplyConfig(in hostproto.ConfigInput) hostproto.ConfigOutput {
	cfg := cloneMap(in.OpencodeConfig)
	registerDcpCommand(cfg)
	addPrimaryTools(cfg, e.enabledToolNames())
	return hostproto.ConfigOutput{OpencodeConfig: cfg}
}

func registerDcpCommand(cfg map[string]any) {
	commands := cloneMap(asMap(cfg["command"]))
	commands["dcp"] = map[string]any{
		"description": "Dynamic Context Pruning controls: context, stats, sweep, manual, prune, distill, compress.",
	}
	cfg["command"] = commands
}

func addPrimaryTools(cfg map[string]any, enabled map[string]struct{}) {
	if len(enabled) == 0 {
		return
	}
	experimental := cloneMap(asMap(cfg["experimental"]))

	existing, _ := experimental["primaryTools"].([]any)
	seen := make(map[string]struct{}, len(existing))
	merged := make([]any, 0, len(existing)+len(enabled))
	for _, t := range existing {
		merged = append(merged, t)
		if s, ok := t.(string); ok {
			seen[s] = struct{}{}
		}
	}

	names := make([]string, 0, len(enabled))
	for name := range enabled {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		merged = append(merged, name)
	}

	experimental["primaryTools"] = merged
	cfg["experimental"] = experimental
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}
