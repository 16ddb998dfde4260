package strategy

import (
	"testing"

	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/model"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/session"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/tokenutil"
)

func toolMessage(msgID, callID, tool string, status model.ToolStatus, params map[string]any) model.Message {
	return model.Message{
		Info: model.Info{ID: msgID, Role: model.RoleAssistant},
		Parts: []model.Part{&model.ToolPart{
			ID: msgID + "-part", CallID: callID, Tool: tool,
			State: model.ToolState{Status: status, Input: params},
		}},
	}
}

func seedEntry(st *session.State, callID, tool string, status model.ToolStatus, params map[string]any, turn int) {
	st.PutToolEntry(callID, &session.ToolEntry{Tool: tool, Parameters: params, Status: status, Turn: turn})
}

// S1: two identical read calls -> dedup marks the older one pruned,
// keeps the newer, reports a group with DuplicateCount 2 (both
// occurrences), which the notification renders as "1 duplicate".
func TestDeduplicateScenarioS1(t *testing.T) {
	st := session.New("sess-1", false)
	seedEntry(st, "A", "read", model.ToolStatusCompleted, map[string]any{"filePath": "/x"}, 0)
	seedEntry(st, "B", "read", model.ToolStatusCompleted, map[string]any{"filePath": "/x"}, 0)

	messages := []model.Message{
		toolMessage("m1", "A", "read", model.ToolStatusCompleted, map[string]any{"filePath": "/x"}),
		toolMessage("m2", "B", "read", model.ToolStatusCompleted, map[string]any{"filePath": "/x"}),
	}

	groups := Deduplicate(st, messages, nil)

	if len(groups) != 1 {
		t.Fatalf("expected 1 duplicate group, got %d", len(groups))
	}
	g := groups[0]
	if g.DuplicateCount != 2 || g.KeptID != "B" || len(g.PrunedIDs) != 1 || g.PrunedIDs[0] != "A" {
		t.Fatalf("unexpected group: %+v", g)
	}
	if !st.IsPruned("A") {
		t.Fatalf("expected A marked pruned")
	}
	if st.IsPruned("B") {
		t.Fatalf("expected B (kept, newest) not pruned")
	}
}

func TestDeduplicateIsIdempotent(t *testing.T) {
	st := session.New("sess-1", false)
	seedEntry(st, "A", "read", model.ToolStatusCompleted, map[string]any{"filePath": "/x"}, 0)
	seedEntry(st, "B", "read", model.ToolStatusCompleted, map[string]any{"filePath": "/x"}, 0)

	messages := []model.Message{
		toolMessage("m1", "A", "read", model.ToolStatusCompleted, map[string]any{"filePath": "/x"}),
		toolMessage("m2", "B", "read", model.ToolStatusCompleted, map[string]any{"filePath": "/x"}),
	}

	first := Deduplicate(st, messages, nil)
	second := Deduplicate(st, messages, nil)

	if len(first) != 1 {
		t.Fatalf("expected first run to find 1 group, got %d", len(first))
	}
	if len(second) != 0 {
		t.Fatalf("expected second run to find nothing new (idempotent), got %d groups", len(second))
	}
	if !st.IsPruned("A") {
		t.Fatalf("A must remain pruned after the second run")
	}
}

func TestSignatureStableAcrossKeyOrderAndNulls(t *testing.T) {
	a := map[string]any{"filePath": "/x", "extra": nil}
	b := map[string]any{"extra": nil, "filePath": "/x"}

	if signature("read", a) != signature("read", b) {
		t.Fatalf("expected signatures to match regardless of key order / null fields")
	}

	c := map[string]any{"filePath": "/x", "limit": 10}
	if signature("read", a) == signature("read", c) {
		t.Fatalf("expected signatures to differ when a non-null field differs")
	}
}

func TestSignatureRetainsArrayOrder(t *testing.T) {
	a := map[string]any{"tags": []any{"a", "b"}}
	b := map[string]any{"tags": []any{"b", "a"}}

	if signature("t", a) == signature("t", b) {
		t.Fatalf("expected array order to matter in signature")
	}
}

// S2: write at index 3, read of same path at index 7 -> supersede
// marks the write pruned.
func TestSupersedeWritesScenarioS2(t *testing.T) {
	st := session.New("sess-1", false)
	seedEntry(st, "W", "write", model.ToolStatusCompleted, map[string]any{"filePath": "/x", "content": "hi"}, 0)
	seedEntry(st, "R", "read", model.ToolStatusCompleted, map[string]any{"filePath": "/x"}, 1)

	messages := []model.Message{
		toolMessage("m1", "W", "write", model.ToolStatusCompleted, map[string]any{"filePath": "/x", "content": "hi"}),
		toolMessage("m2", "R", "read", model.ToolStatusCompleted, map[string]any{"filePath": "/x"}),
	}

	SupersedeWrites(st, messages, tokenutil.NewGlobSet(nil))

	if !st.IsPruned("W") {
		t.Fatalf("expected write superseded by later read of same path")
	}
	if st.IsPruned("R") {
		t.Fatalf("read itself should not be pruned")
	}
}

func TestSupersedeWritesRespectsProtectedGlobs(t *testing.T) {
	st := session.New("sess-1", false)
	seedEntry(st, "W", "write", model.ToolStatusCompleted, map[string]any{"filePath": "secrets/prod.env", "content": "hi"}, 0)
	seedEntry(st, "R", "read", model.ToolStatusCompleted, map[string]any{"filePath": "secrets/prod.env"}, 1)

	messages := []model.Message{
		toolMessage("m1", "W", "write", model.ToolStatusCompleted, map[string]any{"filePath": "secrets/prod.env"}),
		toolMessage("m2", "R", "read", model.ToolStatusCompleted, map[string]any{"filePath": "secrets/prod.env"}),
	}

	SupersedeWrites(st, messages, tokenutil.NewGlobSet([]string{"secrets/**"}))

	if st.IsPruned("W") {
		t.Fatalf("expected protected path to short-circuit supersede")
	}
}

// S3: bash{command, status:error} at turn 5, current turn 12,
// purgeErrors.turns=3 -> marked pruned (input redaction only).
func TestPurgeErrorsScenarioS3(t *testing.T) {
	st := session.New("sess-1", false)
	seedEntry(st, "C", "bash", model.ToolStatusError, map[string]any{"command": "npm test"}, 5)

	messages := []model.Message{
		toolMessage("m1", "C", "bash", model.ToolStatusError, map[string]any{"command": "npm test"}),
	}

	PurgeErrors(st, messages, 12, 3)

	if !st.IsPruned("C") {
		t.Fatalf("expected error call older than threshold to be pruned")
	}
}

func TestPurgeErrorsSkipsRecentFailures(t *testing.T) {
	st := session.New("sess-1", false)
	seedEntry(st, "C", "bash", model.ToolStatusError, map[string]any{"command": "npm test"}, 11)

	messages := []model.Message{
		toolMessage("m1", "C", "bash", model.ToolStatusError, map[string]any{"command": "npm test"}),
	}

	PurgeErrors(st, messages, 12, 3)

	if st.IsPruned("C") {
		t.Fatalf("expected a recent failure (below threshold) to survive")
	}
}

func TestPurgeErrorsIgnoresSuccessfulCalls(t *testing.T) {
	st := session.New("sess-1", false)
	seedEntry(st, "C", "bash", model.ToolStatusCompleted, map[string]any{"command": "npm test"}, 0)

	messages := []model.Message{
		toolMessage("m1", "C", "bash", model.ToolStatusCompleted, map[string]any{"command": "npm test"}),
	}

	PurgeErrors(st, messages, 100, 3)

	if st.IsPruned("C") {
		t.Fatalf("a successful call must never be purged by this strategy")
	}
}
