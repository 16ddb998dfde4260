package session

import (
	"testing"
	"time"

	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/model"
)

func userMsg(id, sessionID string, created time.Time) model.Message {
	return model.Message{Info: model.Info{
		ID: id, Role: model.RoleUser, SessionID: sessionID, Created: created,
	}}
}

func assistantSummary(id string, created time.Time) model.Message {
	return model.Message{Info: model.Info{
		ID: id, Role: model.RoleAssistant, Created: created, Summary: true,
	}}
}

func assistantStep(id string, created time.Time) model.Message {
	return model.Message{
		Info:  model.Info{ID: id, Role: model.RoleAssistant, Created: created},
		Parts: []model.Part{&model.StepStartPart{ID: id + "-step"}},
	}
}

func toolMsg(msgID, callID, tool string, status model.ToolStatus) model.Message {
	return model.Message{
		Info: model.Info{ID: msgID, Role: model.RoleAssistant},
		Parts: []model.Part{&model.ToolPart{
			ID: msgID + "-part", CallID: callID, Tool: tool,
			State: model.ToolState{Status: status},
		}},
	}
}

func TestCheckSessionSwitchesOnNewSessionID(t *testing.T) {
	m := NewManager(nil, nil)
	current := m.EnsureInitialized("sess-a", false)

	messages := []model.Message{userMsg("u1", "sess-b", time.Now())}
	got := m.CheckSession(current, messages)

	if got.SessionID != "sess-b" {
		t.Fatalf("expected session switch to sess-b, got %s", got.SessionID)
	}
}

func TestCheckSessionDetectsAndClearsCompaction(t *testing.T) {
	m := NewManager(nil, nil)
	st := m.EnsureInitialized("sess-a", false)
	st.PutToolEntry("call1", &ToolEntry{Tool: "read"})
	st.MarkPruned("call1")

	now := time.Now()
	messages := []model.Message{
		userMsg("u1", "sess-a", now.Add(-time.Minute)),
		assistantSummary("s1", now),
	}

	got := m.CheckSession(st, messages)

	if _, ok := got.ToolEntry("call1"); ok {
		t.Fatalf("expected tool cache cleared after compaction detected")
	}
	if got.LastCompaction.IsZero() {
		t.Fatalf("expected LastCompaction to be updated")
	}
}

func TestSyncToolCacheBumpsNudgeCounterExceptProtected(t *testing.T) {
	m := NewManager(nil, []string{"read"})
	st := m.EnsureInitialized("sess-a", false)

	messages := []model.Message{
		toolMsg("m1", "call1", "read", model.ToolStatusCompleted),
		toolMsg("m2", "call2", "write", model.ToolStatusCompleted),
	}

	m.SyncToolCache(st, messages)

	if st.NudgeCounter != 1 {
		t.Fatalf("expected NudgeCounter=1 (protected tool excluded), got %d", st.NudgeCounter)
	}
	if _, ok := st.ToolEntry("call1"); !ok {
		t.Fatalf("expected call1 cached")
	}
	if _, ok := st.ToolEntry("call2"); !ok {
		t.Fatalf("expected call2 cached")
	}
}

func TestSyncToolCacheTracksLastToolPrune(t *testing.T) {
	m := NewManager(nil, nil)
	st := m.EnsureInitialized("sess-a", false)

	m.SyncToolCache(st, []model.Message{
		toolMsg("m1", "call1", "prune", model.ToolStatusCompleted),
	})
	if !st.LastToolPrune {
		t.Fatalf("expected LastToolPrune=true after a completed prune call")
	}

	m.SyncToolCache(st, []model.Message{
		toolMsg("m1", "call1", "prune", model.ToolStatusCompleted),
		toolMsg("m2", "call2", "read", model.ToolStatusCompleted),
	})
	if st.LastToolPrune {
		t.Fatalf("LastToolPrune should clear: the newly observed call2 is not a pruning tool")
	}
}

func TestRebuildToolIDListOrdersFirstSeen(t *testing.T) {
	m := NewManager(nil, nil)
	st := m.EnsureInitialized("sess-a", false)

	messages := []model.Message{
		toolMsg("m1", "call1", "read", model.ToolStatusCompleted),
		toolMsg("m2", "call2", "write", model.ToolStatusCompleted),
		toolMsg("m3", "call1", "read", model.ToolStatusCompleted),
	}
	m.RebuildToolIDList(st, messages)

	want := []string{"call1", "call2"}
	if len(st.ToolIDList) != len(want) {
		t.Fatalf("got %v, want %v", st.ToolIDList, want)
	}
	for i := range want {
		if st.ToolIDList[i] != want[i] {
			t.Fatalf("got %v, want %v", st.ToolIDList, want)
		}
	}
}

func TestUpdateTurnCountsStepStarts(t *testing.T) {
	m := NewManager(nil, nil)
	st := m.EnsureInitialized("sess-a", false)

	now := time.Now()
	messages := []model.Message{
		assistantStep("a1", now),
		assistantStep("a2", now),
		userMsg("u1", "sess-a", now),
	}
	m.UpdateTurn(st, messages)

	if st.CurrentTurn != 2 {
		t.Fatalf("expected CurrentTurn=2, got %d", st.CurrentTurn)
	}
}
