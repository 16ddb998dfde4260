package rewrite

import (
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/model"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/session"
)

// ApplySummaries overwrites the text of each compress-summary anchor
// message with its model-authored summary, and blanks the text of
// every other message inside a compacted range. Anchor identification
// only; this never touches tool parts, so compacted messages are still
// skipped by the redactors for tool-call content.
func ApplySummaries(st *session.State, messages []model.Message) []model.Message {
	out := make([]model.Message, len(messages))
	for i, msg := range messages {
		summary, isAnchor := st.SummaryForAnchor(msg.Info.ID)
		switch {
		case isAnchor:
			out[i] = withTextReplaced(msg, summary)
		case st.IsMessageCompacted(msg.Info.ID):
			out[i] = withTextReplaced(msg, "")
		default:
			out[i] = msg
		}
	}
	return out
}

func withTextReplaced(msg model.Message, text string) model.Message {
	parts := make([]model.Part, 0, len(msg.Parts))
	wrote := false
	for _, p := range msg.Parts {
		if _, ok := p.(*model.TextPart); ok {
			if wrote {
				continue // collapse multiple text parts into the one summary/blank
			}
			wrote = true
			parts = append(parts, &model.TextPart{ID: p.PartID(), Text: text})
			continue
		}
		parts = append(parts, p)
	}
	if !wrote {
		parts = append(parts, &model.TextPart{ID: msg.Info.ID + "-summary", Text: text})
	}
	msg.Parts = parts
	return msg
}
