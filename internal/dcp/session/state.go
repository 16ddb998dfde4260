// Package session owns per-session DCP state: the tool-call cache, the
// prune sets, compress summaries, and the bookkeeping that drives
// nudges and cooldowns. It also persists a JSON sidecar per session so
// state survives process restarts on a best-effort basis.
package session

import (
	"time"

	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/model"
)

// maxToolParameters bounds the FIFO cache to 500 entries.
const maxToolParameters = 500

// ToolEntry is the cached record of one observed tool invocation.
type ToolEntry struct {
	Tool       string         `json:"tool"`
	Parameters map[string]any `json:"parameters"`
	Status     model.ToolStatus `json:"status"`
	Error      string         `json:"error,omitempty"`
	Turn       int            `json:"turn"`
	Compacted  bool           `json:"compacted,omitempty"`
}

// CompressSummary is a model-authored replacement for a contiguous
// range of messages, anchored at the first message of the range.
type CompressSummary struct {
	AnchorMessageID string `json:"anchorMessageId"`
	Summary         string `json:"summary"`
}

// Stats accumulates token savings since session start.
type Stats struct {
	PruneTokenCounter int `json:"pruneTokenCounter"`
	TotalPruneTokens  int `json:"totalPruneTokens"`
}

// PendingManualTrigger records the focus text of the last
// `/dcp prune|distill|compress` command. Nothing in the engine reads it
// back: the injector does not splice it into a later turn.
type PendingManualTrigger struct {
	SessionID string `json:"sessionId"`
	Prompt    string `json:"prompt"`
}

// Activity records what the most recently completed prune/distill/
// compress call did, so the caller driving the tool dispatch can build
// the matching user notification without re-deriving it from the
// mutated prune sets afterward.
type Activity struct {
	Kind        string // "prune", "distill", "compress"
	Count       int
	TokensSaved int
	Skipped     []string
	Preserved   []string
	Topic       string
	MsgCount    int
	ToolCount   int
}

// State is the full per-session record the engine tracks.
type State struct {
	SessionID   string
	IsSubAgent  bool

	toolParameters map[string]*ToolEntry // keyed by lowercased call id
	toolOrder      []string              // FIFO insertion order, mirrors toolParameters keys

	ToolIDList []string // ordered, index is what the model sees in <prunable-tools>

	PruneToolIDs    map[string]struct{} // lowercased call ids
	PruneMessageIDs map[string]struct{}

	CompressSummaries []CompressSummary

	Stats Stats

	NudgeCounter   int
	LastToolPrune  bool
	LastCompaction time.Time
	CurrentTurn    int

	Variant           string
	ModelContextLimit int

	// CachedProviderID/CachedModelID are observed from the last
	// chat.message hook for this session, the tier-2 candidate the
	// model selector tries when no config override is set.
	CachedProviderID string
	CachedModelID    string

	ManualMode bool

	PendingManualTrigger *PendingManualTrigger

	LastActivity *Activity
}

// New returns a freshly initialized, empty State for a session id.
func New(sessionID string, isSubAgent bool) *State {
	return &State{
		SessionID:       sessionID,
		IsSubAgent:      isSubAgent,
		toolParameters:  make(map[string]*ToolEntry),
		PruneToolIDs:    make(map[string]struct{}),
		PruneMessageIDs: make(map[string]struct{}),
	}
}

// Reset clears every mutable cache but keeps SessionID/IsSubAgent,
// used both on session change and after a detected compaction.
func (s *State) Reset() {
	s.toolParameters = make(map[string]*ToolEntry)
	s.toolOrder = nil
	s.ToolIDList = nil
	s.PruneToolIDs = make(map[string]struct{})
	s.PruneMessageIDs = make(map[string]struct{})
	s.CompressSummaries = nil
	s.Stats = Stats{}
	s.NudgeCounter = 0
	s.LastToolPrune = false
	s.CurrentTurn = 0
	s.LastActivity = nil
}

// ClearAfterCompaction clears the caches a compaction invalidates
// (toolParameters, both prune sets, compressSummaries, nudgeCounter,
// lastToolPrune) without touching CurrentTurn/LastCompaction/variant.
func (s *State) ClearAfterCompaction() {
	s.toolParameters = make(map[string]*ToolEntry)
	s.toolOrder = nil
	s.PruneToolIDs = make(map[string]struct{})
	s.PruneMessageIDs = make(map[string]struct{})
	s.CompressSummaries = nil
	s.NudgeCounter = 0
	s.LastToolPrune = false
}

// ToolEntry returns the cached entry for a call id, case-insensitively.
func (s *State) ToolEntry(callID string) (*ToolEntry, bool) {
	e, ok := s.toolParameters[normalizeID(callID)]
	return e, ok
}

// PutToolEntry inserts or overwrites a cached entry, applying FIFO
// eviction when the cache grows past maxToolParameters — an id
// referenced by PruneToolIDs is never evicted, only rotated.
func (s *State) PutToolEntry(callID string, entry *ToolEntry) {
	id := normalizeID(callID)
	if _, exists := s.toolParameters[id]; !exists {
		s.toolOrder = append(s.toolOrder, id)
	}
	s.toolParameters[id] = entry
	s.evictIfNeeded()
}

func (s *State) evictIfNeeded() {
	for len(s.toolOrder) > maxToolParameters {
		victim := s.toolOrder[0]
		if _, pruned := s.PruneToolIDs[victim]; pruned {
			// Keep pruned ids alive per the size-floor invariant: rotate
			// the victim to the back instead of evicting it.
			s.toolOrder = append(s.toolOrder[1:], victim)
			continue
		}
		s.toolOrder = s.toolOrder[1:]
		delete(s.toolParameters, victim)
	}
}

// MarkPruned adds a call id to the prune set, case-insensitively.
func (s *State) MarkPruned(callID string) {
	s.PruneToolIDs[normalizeID(callID)] = struct{}{}
}

// IsPruned reports whether a call id is already marked for redaction.
func (s *State) IsPruned(callID string) bool {
	_, ok := s.PruneToolIDs[normalizeID(callID)]
	return ok
}

// SetActivity records the outcome of a just-completed prune/distill/
// compress call.
func (s *State) SetActivity(a Activity) {
	s.LastActivity = &a
}

// TakeActivity returns and clears the last recorded activity.
func (s *State) TakeActivity() *Activity {
	a := s.LastActivity
	s.LastActivity = nil
	return a
}

// MarkMessageCompacted adds a message id to the compacted set.
func (s *State) MarkMessageCompacted(messageID string) {
	s.PruneMessageIDs[messageID] = struct{}{}
}

// IsMessageCompacted reports whether a message id was folded into a
// compress summary.
func (s *State) IsMessageCompacted(messageID string) bool {
	_, ok := s.PruneMessageIDs[messageID]
	return ok
}

// DropSummariesAnchoredIn removes every CompressSummary whose anchor
// message id satisfies contains. The caller decides which ids are in
// range (it knows message ordering; this package does not).
func (s *State) DropSummariesAnchoredIn(contains func(anchorID string) bool) {
	kept := make([]CompressSummary, 0, len(s.CompressSummaries))
	for _, cs := range s.CompressSummaries {
		if contains(cs.AnchorMessageID) {
			continue
		}
		kept = append(kept, cs)
	}
	s.CompressSummaries = kept
}

// AddCompressSummary appends a new summary, having already dropped any
// subsumed ones via DropSummariesAnchoredIn.
func (s *State) AddCompressSummary(cs CompressSummary) {
	s.CompressSummaries = append(s.CompressSummaries, cs)
}

// SummaryForAnchor returns the live summary anchored at messageID, if any.
func (s *State) SummaryForAnchor(messageID string) (string, bool) {
	for _, cs := range s.CompressSummaries {
		if cs.AnchorMessageID == messageID {
			return cs.Summary, true
		}
	}
	return "", false
}

func normalizeID(id string) string {
	out := make([]byte, len(id))
	for i := 0; i < len(id); i++ {
		c := id[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
