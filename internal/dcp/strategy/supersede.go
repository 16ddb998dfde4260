package strategy

import (
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/model"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/session"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/tokenutil"
)

// writeLikeTools are the tools whose output becomes redundant once the
// file they touched is re-read.
var writeLikeTools = map[string]struct{}{
	"write":      {},
	"edit":       {},
	"multiedit":  {},
	"apply_patch": {},
}

// SupersedeWrites marks a write (or edit) as pruned once a later read
// observes the same file path, since the read's output captures the
// file's current state more faithfully than the stale write record.
// Protected-file-pattern globs short-circuit before either side is
// considered.
func SupersedeWrites(st *session.State, messages []model.Message, protectedPaths *tokenutil.GlobSet) {
	pending := make(map[string]string) // path -> pending write/edit callID

	seen := make(map[string]struct{})
	for _, msg := range messages {
		for _, tp := range msg.ToolParts() {
			if _, dup := seen[tp.CallID]; dup {
				continue
			}
			seen[tp.CallID] = struct{}{}

			entry, ok := st.ToolEntry(tp.CallID)
			if !ok {
				continue
			}

			paths := ExtractPaths(tp.Tool, entry.Parameters)
			if len(paths) == 0 {
				continue
			}

			if _, isWrite := writeLikeTools[tp.Tool]; isWrite {
				for _, p := range paths {
					if protectedPaths.Matches(p) {
						continue
					}
					pending[p] = tp.CallID
				}
				continue
			}

			if tp.Tool == "read" {
				for _, p := range paths {
					if protectedPaths.Matches(p) {
						continue
					}
					if writeID, ok := pending[p]; ok {
						st.MarkPruned(writeID)
						delete(pending, p)
					}
				}
			}
		}
	}
}
