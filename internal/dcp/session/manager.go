package session

import (
	"log"
	"sync"
	"time"

	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/model"
)

// Manager owns the per-session state map, detects session boundaries
// and compaction, and keeps the tool-call cache in sync with the
// transcript. State is loaded from its sidecar lazily, on first touch.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*State
	store    *Store

	// ProtectedTools never increment the nudge counter and are excluded
	// from the prunable-tools manifest (config: tools.settings.protectedTools).
	ProtectedTools map[string]struct{}

	Logger *log.Logger
}

// NewManager creates a session manager backed by a sidecar store.
func NewManager(store *Store, protectedTools []string) *Manager {
	protected := make(map[string]struct{}, len(protectedTools))
	for _, t := range protectedTools {
		protected[t] = struct{}{}
	}
	return &Manager{
		sessions:       make(map[string]*State),
		store:          store,
		ProtectedTools: protected,
		Logger:         log.Default(),
	}
}

var pruningToolNames = map[string]struct{}{
	"prune":    {},
	"distill":  {},
	"compress": {},
}

// EnsureInitialized returns the session's state, creating and loading
// it from the sidecar on first touch.
func (m *Manager) EnsureInitialized(sessionID string, isSubAgent bool) *State {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, ok := m.sessions[sessionID]
	if ok {
		return st
	}

	st = New(sessionID, isSubAgent)
	if m.store != nil {
		if err := m.store.Load(st); err != nil {
			m.logf("sidecar load failed for session %s: %v", sessionID, err)
		}
	}
	m.sessions[sessionID] = st
	return st
}

// CheckSession determines the authoritative session id for this turn
// from the last non-ignored user message, resets state on a session
// change, and detects+clears compaction. It returns the live state for
// the turn.
func (m *Manager) CheckSession(current *State, messages []model.Message) *State {
	lastUser, ok := model.LastNonIgnored(messages, func(msg model.Message) bool {
		return msg.Info.Ignored || msg.Info.Role != model.RoleUser
	})
	if !ok {
		return current
	}

	st := current
	if lastUser.Info.SessionID != "" && lastUser.Info.SessionID != current.SessionID {
		st = m.EnsureInitialized(lastUser.Info.SessionID, current.IsSubAgent)
	}

	if anchor, found := detectCompaction(messages, st.LastCompaction); found {
		st.ClearAfterCompaction()
		st.LastCompaction = anchor
	}

	return st
}

// detectCompaction scans newest to oldest for an assistant message
// flagged summary=true newer than the last seen compaction.
func detectCompaction(messages []model.Message, since time.Time) (time.Time, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		if msg.Info.Role == model.RoleAssistant && msg.Info.Summary && msg.Info.Created.After(since) {
			return msg.Info.Created, true
		}
	}
	return time.Time{}, false
}

// SyncToolCache walks the transcript in order, caching every tool part
// not already known, bumping NudgeCounter for non-protected tools, and
// updating LastToolPrune.
func (m *Manager) SyncToolCache(st *State, messages []model.Message) {
	for _, msg := range messages {
		for _, tp := range msg.ToolParts() {
			if _, known := st.ToolEntry(tp.CallID); known {
				continue
			}

			params := tp.State.Input
			if params == nil {
				params = map[string]any{}
			}

			entry := &ToolEntry{
				Tool:       tp.Tool,
				Parameters: params,
				Status:     tp.State.Status,
				Error:      tp.State.Error,
				Turn:       st.CurrentTurn,
			}
			st.PutToolEntry(tp.CallID, entry)

			if _, protected := m.ProtectedTools[tp.Tool]; !protected {
				st.NudgeCounter++
			}

			if tp.State.Status == model.ToolStatusCompleted || tp.State.Status == model.ToolStatusError {
				if _, isPruneTool := pruningToolNames[tp.Tool]; isPruneTool {
					st.LastToolPrune = true
				} else {
					st.LastToolPrune = false
				}
			}
		}
	}
}

// RebuildToolIDList rebuilds the numeric-index dictionary the model
// addresses tools by, in first-seen transcript order.
func (m *Manager) RebuildToolIDList(st *State, messages []model.Message) {
	seen := make(map[string]struct{})
	var ids []string
	for _, msg := range messages {
		for _, tp := range msg.ToolParts() {
			if _, dup := seen[tp.CallID]; dup {
				continue
			}
			seen[tp.CallID] = struct{}{}
			ids = append(ids, tp.CallID)
		}
	}
	st.ToolIDList = ids
}

// UpdateTurn recomputes CurrentTurn as the count of assistant
// step-start markers seen in the transcript so far.
func (m *Manager) UpdateTurn(st *State, messages []model.Message) {
	count := 0
	for _, msg := range messages {
		if msg.Info.Role != model.RoleAssistant {
			continue
		}
		for _, p := range msg.Parts {
			if _, ok := p.(*model.StepStartPart); ok {
				count++
			}
		}
	}
	st.CurrentTurn = count
}

// Persist writes the session's sidecar, logging (never returning) any
// failure.
func (m *Manager) Persist(st *State) {
	if m.store == nil {
		return
	}
	if err := m.store.Save(st); err != nil {
		m.logf("sidecar save failed for session %s: %v", st.SessionID, err)
	}
}

func (m *Manager) logf(format string, args ...any) {
	if m.Logger != nil {
		m.Logger.Printf(format, args...)
	}
}

// forgetBySidecarPath drops the in-memory state for whichever session
// maps to the given sidecar file path, if any, so a future
// EnsureInitialized call re-loads from disk instead of serving a stale
// cached State. Called by SidecarWatcher on an external deletion.
func (m *Manager) forgetBySidecarPath(path string) {
	if m.store == nil {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for sessionID := range m.sessions {
		if m.store.path(sessionID) == path {
			delete(m.sessions, sessionID)
			return
		}
	}
}
