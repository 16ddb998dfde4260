package strategy

import (
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/model"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/session"
)

// PurgeErrors marks the input (not the error message) of any tool call
// that failed turnThreshold or more turns ago for redaction. The error
// field itself survives; only the often-large input is ever removed
// by this strategy.
func PurgeErrors(st *session.State, messages []model.Message, currentTurn, turnThreshold int) {
	seen := make(map[string]struct{})
	for _, msg := range messages {
		for _, tp := range msg.ToolParts() {
			if _, dup := seen[tp.CallID]; dup {
				continue
			}
			seen[tp.CallID] = struct{}{}

			if tp.State.Status != model.ToolStatusError {
				continue
			}

			entry, ok := st.ToolEntry(tp.CallID)
			if !ok {
				continue
			}
			if currentTurn-entry.Turn >= turnThreshold {
				st.MarkPruned(tp.CallID)
			}
		}
	}
}
