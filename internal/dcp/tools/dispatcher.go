// Package tools implements the three model-callable tools —
// prune, distill, compress — that mutate SessionState. Each is built
// as a Name/Description/SchemaJSON/Fn/Retryable/Metadata value,
// validated via gojsonschema. None of the three touch disk or the
// network directly — persistence is a side effect triggered after a
// successful mutation.
package tools

import (
	"context"
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/model"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/session"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/tokenutil"
)

// ToolFunc is the executor signature shared by prune/distill/compress.
// It carries the session state and the live transcript, since every
// DCP tool's entire job is to mutate state from the transcript it's
// given.
type ToolFunc func(ctx context.Context, st *session.State, messages []model.Message, args map[string]any) (string, error)

// Tool is a single model-callable tool definition.
type Tool struct {
	Name        string
	Description string
	SchemaJSON  string
	Fn          ToolFunc
	Retryable   bool
	Metadata    Metadata
}

// Metadata carries the descriptive fields DCP's three tools populate.
type Metadata struct {
	Version  string
	Category string
	Tags     []string
}

// ValidateArgs validates args against the tool's JSON schema.
func (t Tool) ValidateArgs(args map[string]any) error {
	if _, ok := args["targets"]; !ok && t.Name == "distill" {
		// The legacy {ids, distillations} form is checked in its
		// canonical {targets} shape.
		if targets, err := parseDistillArgs(args); err == nil {
			items := make([]any, len(targets))
			for i, tg := range targets {
				items[i] = map[string]any{"id": tg.ID, "distillation": tg.Distillation}
			}
			args = map[string]any{"targets": items}
		}
	}
	schemaLoader := gojsonschema.NewStringLoader(t.SchemaJSON)
	documentLoader := gojsonschema.NewGoLoader(args)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if !result.Valid() {
		var errs []string
		invalidIDs := false
		for _, e := range result.Errors() {
			errs = append(errs, e.String())
			if f := e.Field(); f == "ids" || f == "targets" {
				invalidIDs = true
			}
		}
		if invalidIDs {
			return newFailureError(t.Name, "Invalid IDs provided", errs...)
		}
		return newValidationError(t.Name, errs...)
	}
	return nil
}

// subAgentMessage is returned verbatim to a sub-agent session instead
// of running any mutation.
const subAgentMessage = "Context management tools are unavailable in a sub-agent session. Provide your final answer directly; do not call this tool again."

// Dispatcher wires the three tools to a shared configuration (the
// protected-tool set and protected-file globs that prune and distill
// enforce via resolveIDs; compress does not consult them).
type Dispatcher struct {
	ProtectedTools map[string]struct{}
	ProtectedPaths *tokenutil.GlobSet
}

// NewDispatcher builds a dispatcher with the given protected-tool
// names and protected-file-pattern globs.
func NewDispatcher(protectedTools []string, protectedPathGlobs []string) *Dispatcher {
	set := make(map[string]struct{}, len(protectedTools))
	for _, t := range protectedTools {
		set[t] = struct{}{}
	}
	return &Dispatcher{
		ProtectedTools: set,
		ProtectedPaths: tokenutil.NewGlobSet(protectedPathGlobs),
	}
}

// Tools returns the three tool definitions, ready for registration
// with the host's tool-calling surface.
func (d *Dispatcher) Tools() []Tool {
	return []Tool{d.PruneTool(), d.DistillTool(), d.CompressTool()}
}

// guarded wraps a tool's Fn with the sub-agent short-circuit, so every
// constructor gets it for free instead of repeating the check.
func (d *Dispatcher) guarded(fn ToolFunc) ToolFunc {
	return func(ctx context.Context, st *session.State, messages []model.Message, args map[string]any) (string, error) {
		if st.IsSubAgent {
			return subAgentMessage, nil
		}
		result, err := fn(ctx, st, messages, args)
		if err == nil {
			st.LastToolPrune = true
			st.NudgeCounter = 0
		}
		return result, err
	}
}

func findToolOutput(messages []model.Message, callID string) (string, bool) {
	for _, msg := range messages {
		for _, tp := range msg.ToolParts() {
			if tp.CallID == callID {
				return tp.State.Output, true
			}
		}
	}
	return "", false
}

func formatSkipped(skipped []string) string {
	if len(skipped) == 0 {
		return ""
	}
	out := "skipped: "
	for i, s := range skipped {
		if i > 0 {
			out += "; "
		}
		out += s
	}
	return out
}
