package tools

import (
	"context"
	"fmt"

	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/model"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/session"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/tokenutil"
)

const pruneSchema = `{
	"type": "object",
	"properties": {
		"ids": {"type": "array", "items": {"type": "string"}, "minItems": 1}
	},
	"required": ["ids"]
}`

// PruneTool drops the given tool calls' output entirely (reason=noise),
// incrementing the tokens-saved counter over each redacted output.
func (d *Dispatcher) PruneTool() Tool {
	return Tool{
		Name:        "prune",
		Description: "Remove noisy, no-longer-useful tool output from context by index.",
		SchemaJSON:  pruneSchema,
		Retryable:   true,
		Metadata:    Metadata{Version: "1.0.0", Category: "context-management", Tags: []string{"idempotent"}},
		Fn:          d.guarded(d.runPrune),
	}
}

func (d *Dispatcher) runPrune(_ context.Context, st *session.State, messages []model.Message, args map[string]any) (string, error) {
	rawIDs, err := extractStringArray(args, "ids")
	if err != nil {
		return "", newValidationError("prune", err.Error())
	}

	valid, skipped, err := resolveIDs(st, "prune", rawIDs, d.ProtectedTools, d.ProtectedPaths)
	if err != nil {
		return "", err
	}

	tokensSaved := 0
	for _, callID := range valid {
		st.MarkPruned(callID)
		if output, ok := findToolOutput(messages, callID); ok {
			tokensSaved += tokenutil.EstimateTokens(output)
		}
	}
	st.Stats.PruneTokenCounter += tokensSaved
	st.Stats.TotalPruneTokens += tokensSaved
	st.SetActivity(session.Activity{Kind: "prune", Count: len(valid), TokensSaved: tokensSaved, Skipped: skipped})

	result := fmt.Sprintf("pruned %d tool call(s), ~%d tokens saved.", len(valid), tokensSaved)
	if s := formatSkipped(skipped); s != "" {
		result += " " + s
	}
	return result, nil
}

// extractStringArray pulls a []string out of a decoded JSON args map,
// used by prune for its "ids" and by distill's legacy parallel-arrays
// form.
func extractStringArray(args map[string]any, key string) ([]string, error) {
	raw, ok := args[key]
	if !ok {
		return nil, fmt.Errorf("%q is required", key)
	}
	items, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%q must be an array", key)
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("%q must contain only strings", key)
		}
		out = append(out, s)
	}
	return out, nil
}
