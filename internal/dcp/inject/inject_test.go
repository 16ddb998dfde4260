package inject

import (
	"strings"
	"testing"

	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/config"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/model"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/session"
)

func userMessage(id string) model.Message {
	return model.Message{Info: model.Info{ID: id, Role: model.RoleUser}}
}

func assistantMessage(id, modelName string) model.Message {
	return model.Message{Info: model.Info{ID: id, Role: model.RoleAssistant, Model: modelName}}
}

func lastTextPart(t *testing.T, msg model.Message) string {
	t.Helper()
	for _, p := range msg.Parts {
		if tp, ok := p.(*model.TextPart); ok {
			return tp.Text
		}
	}
	t.Fatalf("no text part found in synthetic message")
	return ""
}

func TestRunNoBlocksLeavesMessagesUnchanged(t *testing.T) {
	st := session.New("s1", false)
	cfg := config.Default()
	cfg.Tools.Prune.Enabled = false
	cfg.Tools.Distill.Enabled = false
	cfg.Tools.Compress.Enabled = false
	cfg.Tools.Settings.NudgeEnabled = false

	messages := []model.Message{userMessage("u1")}
	out := Run(st, messages, cfg, nil)

	if len(out) != 1 {
		t.Fatalf("expected no synthetic message appended, got %d messages", len(out))
	}
}

func TestRunCooldownSuppressesManifest(t *testing.T) {
	st := session.New("s1", false)
	st.LastToolPrune = true
	cfg := config.Default()
	cfg.Tools.Compress.Enabled = false
	cfg.Tools.Settings.NudgeEnabled = false

	messages := []model.Message{userMessage("u1")}
	out := Run(st, messages, cfg, nil)

	if len(out) != 2 {
		t.Fatalf("expected a synthetic message appended, got %d", len(out))
	}
	text := lastTextPart(t, out[1])
	if !strings.Contains(text, "Context management was just performed") {
		t.Fatalf("expected cooldown block, got %q", text)
	}
	if strings.Contains(text, "<prunable-tools>") {
		t.Fatalf("cooldown must suppress the manifest, got %q", text)
	}
}

func TestRunManifestListsNonPrunedTools(t *testing.T) {
	st := session.New("s1", false)
	st.PutToolEntry("call1", &session.ToolEntry{Tool: "read", Parameters: map[string]any{"filePath": "/x"}})
	st.PutToolEntry("call2", &session.ToolEntry{Tool: "bash", Parameters: map[string]any{"command": "ls"}})
	st.ToolIDList = []string{"call1", "call2"}
	st.MarkPruned("call2")

	cfg := config.Default()
	cfg.Tools.Compress.Enabled = false
	cfg.Tools.Settings.NudgeEnabled = false

	out := Run(st, []model.Message{userMessage("u1")}, cfg, nil)

	text := lastTextPart(t, out[1])
	if !strings.Contains(text, "0: read, /x") {
		t.Fatalf("expected call1 listed in manifest, got %q", text)
	}
	if strings.Contains(text, "bash") {
		t.Fatalf("pruned call2 must not appear in manifest, got %q", text)
	}
}

func TestRunManifestOmittedWhenEmpty(t *testing.T) {
	st := session.New("s1", false)
	cfg := config.Default()
	cfg.Tools.Compress.Enabled = false
	cfg.Tools.Settings.NudgeEnabled = false

	out := Run(st, []model.Message{userMessage("u1")}, cfg, nil)
	if len(out) != 1 {
		t.Fatalf("expected no blocks (empty manifest, no other blocks) -> no synthetic message, got %d", len(out))
	}
}

func TestRunAppendsSyntheticUserMessageWhenLastIsUser(t *testing.T) {
	st := session.New("s1", false)
	cfg := config.Default()
	cfg.Tools.Settings.NudgeEnabled = true
	cfg.Tools.Settings.NudgeFrequency = 1
	st.NudgeCounter = 1

	out := Run(st, []model.Message{userMessage("u1")}, cfg, nil)

	if len(out) != 2 || out[1].Info.Role != model.RoleUser {
		t.Fatalf("expected a synthetic user message appended")
	}
}

func TestRunAppendsSyntheticAssistantMessageForOrdinaryProvider(t *testing.T) {
	st := session.New("s1", false)
	cfg := config.Default()
	cfg.Tools.Settings.NudgeEnabled = true
	cfg.Tools.Settings.NudgeFrequency = 1
	st.NudgeCounter = 1

	out := Run(st, []model.Message{assistantMessage("a1", "gpt-4")}, cfg, nil)

	if len(out) != 2 || out[1].Info.Role != model.RoleAssistant {
		t.Fatalf("expected a synthetic assistant message appended")
	}
}

func TestRunAppendsToolPartForDeepSeekKimiFamily(t *testing.T) {
	st := session.New("s1", false)
	cfg := config.Default()
	cfg.Tools.Settings.NudgeEnabled = true
	cfg.Tools.Settings.NudgeFrequency = 1
	st.NudgeCounter = 1

	messages := []model.Message{assistantMessage("a1", "deepseek-chat")}
	out := Run(st, messages, cfg, nil)

	if len(out) != 1 {
		t.Fatalf("expected in-place tool part append, not a new message, got %d messages", len(out))
	}
	found := false
	for _, p := range out[0].Parts {
		if tp, ok := p.(*model.ToolPart); ok && tp.Tool == "context-info" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a synthetic tool part on the last assistant message")
	}
}

func TestIsDeepSeekOrKimi(t *testing.T) {
	cases := map[string]bool{
		"deepseek-chat":  true,
		"kimi-k2-250711": true,
		"gpt-4":          false,
		"claude-3-5":     false,
		"":               false,
	}
	for in, want := range cases {
		if got := IsDeepSeekOrKimi(in); got != want {
			t.Errorf("IsDeepSeekOrKimi(%q) = %v, want %v", in, got, want)
		}
	}
}
