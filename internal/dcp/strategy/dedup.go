package strategy

import (
	"sort"

	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/model"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/session"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/tokenutil"
)

// DuplicateGroup reports one signature class with 2+ live occurrences,
// for the dedup notification.
type DuplicateGroup struct {
	ToolName       string
	ParameterKey   string
	DuplicateCount int
	PrunedIDs      []string
	KeptID         string
}

type liveCall struct {
	callID string
	tool   string
	params map[string]any
}

// Deduplicate groups live (non-protected, not-yet-pruned) tool calls by
// signature and marks every occurrence but the newest as pruned. It is
// idempotent: a second run over the same state sees only one survivor
// per signature and produces no new groups.
func Deduplicate(st *session.State, messages []model.Message, protectedTools map[string]struct{}) []DuplicateGroup {
	seen := make(map[string]struct{})
	var calls []liveCall

	for _, msg := range messages {
		for _, tp := range msg.ToolParts() {
			if _, dup := seen[tp.CallID]; dup {
				continue
			}
			seen[tp.CallID] = struct{}{}

			if _, protected := protectedTools[tp.Tool]; protected {
				continue
			}
			if st.IsPruned(tp.CallID) {
				continue
			}
			entry, ok := st.ToolEntry(tp.CallID)
			if !ok {
				continue
			}
			calls = append(calls, liveCall{callID: tp.CallID, tool: tp.Tool, params: entry.Parameters})
		}
	}

	groups := make(map[string][]liveCall)
	for _, c := range calls {
		sig := signature(c.tool, c.params)
		groups[sig] = append(groups[sig], c)
	}

	sigs := make([]string, 0, len(groups))
	for sig := range groups {
		sigs = append(sigs, sig)
	}
	sort.Strings(sigs)

	var out []DuplicateGroup
	for _, sig := range sigs {
		group := groups[sig]
		if len(group) < 2 {
			continue
		}

		newest := group[len(group)-1]
		pruned := make([]string, 0, len(group)-1)
		for _, c := range group[:len(group)-1] {
			st.MarkPruned(c.callID)
			pruned = append(pruned, c.callID)
		}

		out = append(out, DuplicateGroup{
			ToolName:       newest.tool,
			ParameterKey:   tokenutil.ParamKey(newest.tool, newest.params),
			DuplicateCount: len(group),
			PrunedIDs:      pruned,
			KeptID:         newest.callID,
		})
	}
	return out
}
