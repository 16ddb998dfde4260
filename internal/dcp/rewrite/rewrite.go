// Package rewrite implements the content rewriter: the stage that
// turns pruned tool-call ids into literal placeholder text in the
// outgoing transcript. A Step is a pure function over (session,
// messages) and the rewriter runs an ordered slice of them.
package rewrite

import (
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/model"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/session"
)

const (
	outputPlaceholder       = "[Output removed to save context - information superseded or no longer needed]"
	writeContentPlaceholder = "[content removed to save context, this is not what was written to the file, but a placeholder]"
	inputPlaceholder        = "[input removed to save context - information superseded or no longer needed]"
)

var outputExemptTools = map[string]struct{}{
	"write": {},
	"edit":  {},
}

// Step is one pure rewrite stage: it returns a new message slice,
// never mutating the messages the host handed in.
type Step func(st *session.State, messages []model.Message) []model.Message

// Run applies every step in order, skipping compacted messages inside
// each step (they remain as prefix for cache stability until a later
// compaction discards them outright).
func Run(st *session.State, messages []model.Message, steps ...Step) []model.Message {
	for _, step := range steps {
		messages = step(st, messages)
	}
	return messages
}

// DefaultSteps is the fixed rewrite order: output redaction first,
// then input redaction. Both only ever touch tool parts in
// st.PruneToolIDs, so order between them doesn't change the result,
// but naming the pipeline explicitly avoids leaving call sites to
// guess an order.
func DefaultSteps() []Step {
	return []Step{RedactOutputs, RedactInputs}
}

// RedactOutputs replaces the output of any pruned, completed tool call
// outside {write, edit} with the fixed placeholder string.
func RedactOutputs(st *session.State, messages []model.Message) []model.Message {
	out := make([]model.Message, len(messages))
	for i, msg := range messages {
		if st.IsMessageCompacted(msg.Info.ID) {
			out[i] = msg
			continue
		}
		out[i] = rewriteMessage(msg, func(tp model.ToolPart) (model.ToolPart, bool) {
			if !st.IsPruned(tp.CallID) {
				return tp, false
			}
			if _, exempt := outputExemptTools[tp.Tool]; exempt {
				return tp, false
			}
			if tp.State.Status != model.ToolStatusCompleted {
				return tp, false
			}
			tp.State.Output = outputPlaceholder
			return tp, true
		})
	}
	return out
}

// RedactInputs replaces the (often large) input of a pruned call with
// a placeholder, leaving pending/running calls untouched. write/edit
// get field-specific placeholders so the rest of their input (e.g. a
// write's filePath) stays readable; every other tool gets every
// string-valued input field blanked outright, since a purged bash/
// apply_patch/etc. call's input should be redacted the moment the
// call itself is marked pruned, same as its output.
func RedactInputs(st *session.State, messages []model.Message) []model.Message {
	out := make([]model.Message, len(messages))
	for i, msg := range messages {
		if st.IsMessageCompacted(msg.Info.ID) {
			out[i] = msg
			continue
		}
		out[i] = rewriteMessage(msg, func(tp model.ToolPart) (model.ToolPart, bool) {
			if !st.IsPruned(tp.CallID) {
				return tp, false
			}
			if tp.State.Status == model.ToolStatusPending || tp.State.Status == model.ToolStatusRunning {
				return tp, false
			}
			switch tp.Tool {
			case "write":
				tp.State.Input = setPlaceholder(tp.State.Input, "content", writeContentPlaceholder)
			case "edit":
				tp.State.Input = setPlaceholder(tp.State.Input, "oldString", writeContentPlaceholder)
				tp.State.Input = setPlaceholder(tp.State.Input, "newString", writeContentPlaceholder)
			default:
				redacted, touched := redactAllStrings(tp.State.Input)
				if !touched {
					return tp, false
				}
				tp.State.Input = redacted
			}
			return tp, true
		})
	}
	return out
}

// redactAllStrings returns a copy of input with every string-valued
// field replaced by inputPlaceholder. Non-string fields (flags,
// counts, nested objects) pass through untouched.
func redactAllStrings(input map[string]any) (map[string]any, bool) {
	if len(input) == 0 {
		return input, false
	}
	out := make(map[string]any, len(input))
	touched := false
	for k, v := range input {
		if _, ok := v.(string); ok {
			out[k] = inputPlaceholder
			touched = true
			continue
		}
		out[k] = v
	}
	return out, touched
}

func setPlaceholder(input map[string]any, key, placeholder string) map[string]any {
	if input == nil {
		return input
	}
	if _, ok := input[key]; !ok {
		return input
	}
	out := make(map[string]any, len(input))
	for k, v := range input {
		out[k] = v
	}
	out[key] = placeholder
	return out
}

// rewriteMessage returns a copy of msg with every tool part passed
// through f; non-tool parts, and tool parts f declines to touch, pass
// through unchanged (original pointer kept, not copied).
func rewriteMessage(msg model.Message, f func(model.ToolPart) (model.ToolPart, bool)) model.Message {
	parts := make([]model.Part, len(msg.Parts))
	changed := false
	for i, p := range msg.Parts {
		tp, ok := p.(*model.ToolPart)
		if !ok {
			parts[i] = p
			continue
		}
		rewritten, touched := f(*tp)
		if !touched {
			parts[i] = p
			continue
		}
		changed = true
		parts[i] = &rewritten
	}
	if !changed {
		return msg
	}
	msg.Parts = parts
	return msg
}
