// Package strategy implements the three pruning strategies run each
// transform: deduplication, superseded-write detection, and
// error-input purging. Each strategy is a pure function over (state,
// transcript) that only ever adds ids to the prune set, so running
// the pipeline twice over unchanged input is a no-op.
package strategy

import (
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/config"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/model"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/session"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/tokenutil"
)

// Result carries the per-stage detail strategies report for
// notifications; stages that found nothing report a zero value.
type Result struct {
	Duplicates       []DuplicateGroup
	SupersededCount  int
	PurgedErrorCount int
}

// Run executes deduplicate, supersedeWrites, purgeErrors in that fixed
// order. Each stage only calls st.MarkPruned, so the output across
// stages is strictly additive.
func Run(st *session.State, messages []model.Message, cfg config.Config, protectedPaths *tokenutil.GlobSet) Result {
	protectedTools := make(map[string]struct{})
	for _, t := range cfg.Tools.Settings.ProtectedTools {
		protectedTools[t] = struct{}{}
	}

	var res Result

	if cfg.Strategies.Deduplication.Enabled {
		res.Duplicates = Deduplicate(st, messages, protectedTools)
	}
	if cfg.Strategies.SupersedeWrites.Enabled {
		before := len(st.PruneToolIDs)
		SupersedeWrites(st, messages, protectedPaths)
		res.SupersededCount = len(st.PruneToolIDs) - before
	}
	if cfg.Strategies.PurgeErrors.Enabled {
		before := len(st.PruneToolIDs)
		PurgeErrors(st, messages, st.CurrentTurn, cfg.Strategies.PurgeErrors.Turns)
		res.PurgedErrorCount = len(st.PruneToolIDs) - before
	}

	return res
}
