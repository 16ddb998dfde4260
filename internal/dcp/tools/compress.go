package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/model"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/session"
)

var (
	errNoMatch        = errors.New("no match found")
	errAmbiguousMatch = errors.New("ambiguous match")
)

const compressSchema = `{
	"type": "object",
	"properties": {
		"topic": {"type": "string"},
		"content": {
			"type": "object",
			"properties": {
				"startString": {"type": "string"},
				"endString": {"type": "string"},
				"summary": {"type": "string"}
			},
			"required": ["startString", "endString", "summary"]
		}
	},
	"required": ["topic", "content"]
}`

// CompressTool folds a contiguous message range into a single
// model-authored summary, anchored at the range's first message.
func (d *Dispatcher) CompressTool() Tool {
	return Tool{
		Name:        "compress",
		Description: "Replace a contiguous stretch of the conversation with a short summary, located by unique boundary strings.",
		SchemaJSON:  compressSchema,
		Retryable:   false,
		Metadata:    Metadata{Version: "1.0.0", Category: "context-management"},
		Fn:          d.guarded(d.runCompress),
	}
}

func (d *Dispatcher) runCompress(_ context.Context, st *session.State, messages []model.Message, args map[string]any) (string, error) {
	topic, _ := args["topic"].(string)
	content, ok := args["content"].(map[string]any)
	if !ok {
		return "", newValidationError("compress", "\"content\" is required")
	}
	startString, _ := content["startString"].(string)
	endString, _ := content["endString"].(string)
	summary, _ := content["summary"].(string)
	if startString == "" || endString == "" || summary == "" {
		return "", newValidationError("compress", "content.startString, content.endString, and content.summary are all required")
	}

	startIdx, err := locateBoundary(st, messages, startString)
	if err != nil {
		if errors.Is(err, errNoMatch) {
			return "", newFailureError("compress", "startString not found in conversation", "startString: "+err.Error())
		}
		return "", newValidationError("compress", "startString: "+err.Error())
	}
	endIdx, err := locateBoundary(st, messages, endString)
	if err != nil {
		if errors.Is(err, errAmbiguousMatch) {
			return "", newFailureError("compress", "Found multiple matches for endString", "endString: "+err.Error())
		}
		return "", newValidationError("compress", "endString: "+err.Error())
	}
	if startIdx > endIdx {
		return "", newValidationError("compress", "startString occurs after endString")
	}

	rangeMessages := messages[startIdx : endIdx+1]
	messageIDs := make(map[string]struct{}, len(rangeMessages))
	toolCount, msgCount := 0, 0
	for _, msg := range rangeMessages {
		messageIDs[msg.Info.ID] = struct{}{}
		st.MarkMessageCompacted(msg.Info.ID)
		msgCount++
		for _, tp := range msg.ToolParts() {
			st.MarkPruned(tp.CallID)
			toolCount++
		}
	}

	st.DropSummariesAnchoredIn(func(anchorID string) bool {
		_, inRange := messageIDs[anchorID]
		return inRange
	})
	st.AddCompressSummary(session.CompressSummary{
		AnchorMessageID: messages[startIdx].Info.ID,
		Summary:         summary,
	})
	st.SetActivity(session.Activity{Kind: "compress", Topic: topic, MsgCount: msgCount, ToolCount: toolCount})

	return fmt.Sprintf("compressed %d message(s), %d tool call(s) into summary anchored at %s.",
		msgCount, toolCount, messages[startIdx].Info.ID), nil
}

// locateBoundary searches (a) existing compress summaries' text and
// (b) every message part's text/tool-input/tool-output for exactly
// one occurrence of needle, returning the index of the message that
// occurrence belongs to. Zero or multiple matches across the combined
// corpus are both errors.
func locateBoundary(st *session.State, messages []model.Message, needle string) (int, error) {
	matches := 0
	locationIdx := -1

	record := func(idx int, haystack string) {
		n := strings.Count(haystack, needle)
		if n == 0 {
			return
		}
		matches += n
		locationIdx = idx
	}

	for i, msg := range messages {
		if summary, ok := st.SummaryForAnchor(msg.Info.ID); ok {
			record(i, summary)
		}
		for _, p := range msg.Parts {
			switch part := p.(type) {
			case *model.TextPart:
				record(i, part.Text)
			case *model.ToolPart:
				record(i, fmt.Sprintf("%v", part.State.Input))
				record(i, part.State.Output)
			}
		}
	}

	switch {
	case matches == 0:
		return 0, errNoMatch
	case matches > 1:
		return 0, fmt.Errorf("%w: %d matches found", errAmbiguousMatch, matches)
	default:
		return locationIdx, nil
	}
}
