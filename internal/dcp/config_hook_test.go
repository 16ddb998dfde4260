package dcp

import (
	"testing"

	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/config"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/hostproto"
)

func TestApplyConfigRegistersCommandAndPrimaryTools(t *testing.T) {
	cfg := config.Default()
	cfg.Tools.Prune.Enabled = true
	cfg.Tools.Compress.Enabled = true
	cfg.Tools.Distill.Enabled = false
	e := New(cfg, nil)

	in := hostproto.ConfigInput{OpencodeConfig: map[string]any{
		"experimental": map[string]any{"primaryTools": []any{"bash"}},
	}}
	out := e.ApplyConfig(in)

	commands, ok := out.OpencodeConfig["command"].(map[string]any)
	if !ok || commands["dcp"] == nil {
		t.Fatalf("expected /dcp registered under \"command\", got %+v", out.OpencodeConfig["command"])
	}

	experimental, ok := out.OpencodeConfig["experimental"].(map[string]any)
	if !ok {
		t.Fatalf("expected an \"experimental\" section, got %+v", out.OpencodeConfig)
	}
	tools, ok := experimental["primaryTools"].([]any)
	if !ok {
		t.Fatalf("expected a primaryTools list, got %+v", experimental["primaryTools"])
	}
	got := map[string]bool{}
	for _, v := range tools {
		if s, ok := v.(string); ok {
			got[s] = true
		}
	}
	if !got["bash"] {
		t.Fatalf("expected the existing entry preserved, got %v", tools)
	}
	if !got["prune"] || !got["compress"] {
		t.Fatalf("expected enabled tools appended, got %v", tools)
	}
	if got["distill"] {
		t.Fatalf("expected the disabled distill tool omitted, got %v", tools)
	}
}

func TestApplyConfigDoesNotMutateInput(t *testing.T) {
	e := New(config.Default(), nil)
	original := map[string]any{"experimental": map[string]any{"primaryTools": []any{"bash"}}}
	in := hostproto.ConfigInput{OpencodeConfig: original}

	e.ApplyConfig(in)

	if _, ok := original["command"]; ok {
		t.Fatalf("expected the caller's config map left untouched, got %+v", original)
	}
}
