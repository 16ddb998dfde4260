package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/model"
)

// fixturePart is the on-disk shape of one message part in a recorded
// transcript fixture: a plain struct decoded then converted to the
// engine's internal types rather than decoded straight into them.
type fixturePart struct {
	Type   string         `json:"type"` // "text" | "tool" | "step_start" | "step_finish"
	ID     string         `json:"id,omitempty"`
	Text   string         `json:"text,omitempty"`
	CallID string         `json:"callId,omitempty"`
	Tool   string         `json:"tool,omitempty"`
	Status string         `json:"status,omitempty"`
	Input  map[string]any `json:"input,omitempty"`
	Output string         `json:"output,omitempty"`
	Error  string         `json:"error,omitempty"`
}

type fixtureMessage struct {
	ID        string        `json:"id"`
	Role      string        `json:"role"`
	SessionID string        `json:"sessionId,omitempty"`
	Created   string        `json:"created,omitempty"`
	Agent     string        `json:"agent,omitempty"`
	Model     string        `json:"model,omitempty"`
	Variant   string        `json:"variant,omitempty"`
	Summary   bool          `json:"summary,omitempty"`
	Ignored   bool          `json:"ignored,omitempty"`
	Parts     []fixturePart `json:"parts"`
}

type fixtureDocument struct {
	SessionID  string           `json:"sessionId"`
	IsSubAgent bool             `json:"isSubAgent,omitempty"`
	Messages   []fixtureMessage `json:"messages"`
}

func loadFixture(path string) (fixtureDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return fixtureDocument{}, fmt.Errorf("read fixture: %w", err)
	}
	var doc fixtureDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return fixtureDocument{}, fmt.Errorf("decode fixture: %w", err)
	}
	return doc, nil
}

func toMessages(doc fixtureDocument) []model.Message {
	out := make([]model.Message, 0, len(doc.Messages))
	for _, fm := range doc.Messages {
		created := time.Now()
		if fm.Created != "" {
			if t, err := time.Parse(time.RFC3339, fm.Created); err == nil {
				created = t
			}
		}
		msg := model.Message{
			Info: model.Info{
				ID: fm.ID, Role: model.Role(fm.Role), SessionID: fm.SessionID,
				Created: created, Agent: fm.Agent, Model: fm.Model, Variant: fm.Variant,
				Summary: fm.Summary, Ignored: fm.Ignored,
			},
		}
		for _, fp := range fm.Parts {
			msg.Parts = append(msg.Parts, toPart(fp))
		}
		out = append(out, msg)
	}
	return out
}

func toPart(fp fixturePart) model.Part {
	switch fp.Type {
	case "tool":
		return &model.ToolPart{
			ID: fp.ID, CallID: fp.CallID, Tool: fp.Tool,
			State: model.ToolState{
				Status: model.ToolStatus(fp.Status), Input: fp.Input, Output: fp.Output, Error: fp.Error,
			},
		}
	case "step_start":
		return &model.StepStartPart{ID: fp.ID}
	case "step_finish":
		return &model.StepFinishPart{ID: fp.ID}
	default:
		return &model.TextPart{ID: fp.ID, Text: fp.Text}
	}
}
