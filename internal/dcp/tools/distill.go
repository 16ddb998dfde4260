package tools

import (
	"context"
	"fmt"
	"strconv"

	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/model"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/session"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/tokenutil"
)

const distillSchema = `{
	"type": "object",
	"properties": {
		"targets": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"properties": {
					"id": {"type": "string"},
					"distillation": {"type": "string"}
				},
				"required": ["id", "distillation"]
			}
		}
	},
	"required": ["targets"]
}`

// distillTarget is one model-authored {id, distillation} pair.
type distillTarget struct {
	ID           string
	Distillation string
}

// DistillTool behaves like prune but keeps a short model-authored
// summary of each redacted call visible in the notification, so the
// user can see what knowledge was preserved.
func (d *Dispatcher) DistillTool() Tool {
	return Tool{
		Name:        "distill",
		Description: "Replace noisy tool output with a short distillation of what it showed, by index.",
		SchemaJSON:  distillSchema,
		Retryable:   true,
		Metadata:    Metadata{Version: "1.0.0", Category: "context-management", Tags: []string{"idempotent"}},
		Fn:          d.guarded(d.runDistill),
	}
}

func (d *Dispatcher) runDistill(_ context.Context, st *session.State, messages []model.Message, args map[string]any) (string, error) {
	targets, err := parseDistillArgs(args)
	if err != nil {
		return "", newValidationError("distill", err.Error())
	}

	rawIDs := make([]string, len(targets))
	for i, t := range targets {
		rawIDs[i] = t.ID
	}

	valid, skipped, err := resolveIDs(st, "distill", rawIDs, d.ProtectedTools, d.ProtectedPaths)
	if err != nil {
		return "", err
	}

	tokensSaved := 0
	var preserved []string
	for _, callID := range valid {
		st.MarkPruned(callID)
		if output, ok := findToolOutput(messages, callID); ok {
			tokensSaved += tokenutil.EstimateTokens(output)
		}
		// valid is not index-aligned with targets once skips happen, so
		// recover the distillation by re-walking the original targets.
		if dist, ok := distillationFor(targets, st, callID); ok {
			preserved = append(preserved, fmt.Sprintf("%s: %s", callID, dist))
		}
	}
	st.Stats.PruneTokenCounter += tokensSaved
	st.Stats.TotalPruneTokens += tokensSaved
	st.SetActivity(session.Activity{Kind: "distill", Count: len(valid), TokensSaved: tokensSaved, Preserved: preserved, Skipped: skipped})

	result := fmt.Sprintf("distilled %d tool call(s), ~%d tokens saved.", len(valid), tokensSaved)
	for _, p := range preserved {
		result += "\n- " + p
	}
	if s := formatSkipped(skipped); s != "" {
		result += "\n" + s
	}
	return result, nil
}

// distillationFor recovers the distillation text the model supplied
// for the raw index that resolved to callID.
func distillationFor(targets []distillTarget, st *session.State, callID string) (string, bool) {
	for _, t := range targets {
		idx, err := strconv.Atoi(t.ID)
		if err != nil || idx < 0 || idx >= len(st.ToolIDList) {
			continue
		}
		if st.ToolIDList[idx] == callID {
			return t.Distillation, true
		}
	}
	return "", false
}

// parseDistillArgs accepts the canonical object-array form
// {targets:[{id,distillation}]} and also a legacy parallel-arrays
// form {ids:[...], distillations:[...]}, normalizing to the canonical
// form before resolution.
func parseDistillArgs(args map[string]any) ([]distillTarget, error) {
	if raw, ok := args["targets"]; ok {
		items, ok := raw.([]any)
		if !ok {
			return nil, fmt.Errorf("\"targets\" must be an array")
		}
		targets := make([]distillTarget, 0, len(items))
		for _, item := range items {
			obj, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("each target must be an object")
			}
			id, _ := obj["id"].(string)
			dist, _ := obj["distillation"].(string)
			if id == "" {
				return nil, fmt.Errorf("target missing \"id\"")
			}
			targets = append(targets, distillTarget{ID: id, Distillation: dist})
		}
		return targets, nil
	}

	ids, idsErr := extractStringArray(args, "ids")
	dists, distsErr := extractStringArray(args, "distillations")
	if idsErr != nil || distsErr != nil {
		return nil, fmt.Errorf("\"targets\" is required (or the legacy \"ids\"+\"distillations\" pair)")
	}
	if len(ids) != len(dists) {
		return nil, fmt.Errorf("\"ids\" and \"distillations\" must have the same length")
	}
	targets := make([]distillTarget, len(ids))
	for i := range ids {
		targets[i] = distillTarget{ID: ids[i], Distillation: dists[i]}
	}
	return targets, nil
}
