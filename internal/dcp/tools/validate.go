package tools

import (
	"strconv"

	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/session"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/strategy"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/tokenutil"
)

// resolveIDs implements the common validation shared by prune and
// distill: parse each raw id as an integer index into
// state.toolIdList, rejecting out-of-range or hallucinated/protected
// targets. A mix of valid and invalid entries reports the invalid ones
// back in skipped rather than failing the whole call; an empty id list,
// or a call where every id turns out invalid, is a hard error.
func resolveIDs(
	st *session.State,
	toolName string,
	rawIDs []string,
	protectedTools map[string]struct{},
	protectedPaths *tokenutil.GlobSet,
) (valid []string, skipped []string, err error) {
	if len(rawIDs) == 0 {
		return nil, nil, newFailureError(toolName, "Invalid IDs provided", "ids must be a non-empty array of strings")
	}

	for _, raw := range rawIDs {
		idx, convErr := strconv.Atoi(raw)
		if convErr != nil {
			skipped = append(skipped, raw+": not a valid index")
			continue
		}
		if idx < 0 || idx >= len(st.ToolIDList) {
			skipped = append(skipped, raw+": index out of range")
			continue
		}

		callID := st.ToolIDList[idx]
		entry, ok := st.ToolEntry(callID)
		if !ok {
			skipped = append(skipped, raw+": unknown tool call (hallucinated or turn-protected)")
			continue
		}
		if _, protected := protectedTools[entry.Tool]; protected {
			skipped = append(skipped, raw+": tool is protected")
			continue
		}

		blocked := false
		for _, p := range strategy.ExtractPaths(entry.Tool, entry.Parameters) {
			if protectedPaths.Matches(p) {
				skipped = append(skipped, raw+": file path is protected")
				blocked = true
				break
			}
		}
		if blocked {
			continue
		}

		valid = append(valid, callID)
	}

	if len(valid) == 0 {
		return nil, skipped, newFailureError(toolName, "No prunable tool outputs", skipped...)
	}

	return valid, skipped, nil
}
