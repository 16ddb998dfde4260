// Package model defines the provider-agnostic transcript shape the
// engine reads and rewrites: messages made of parts, where a part is
// text, a tool invocation, or a step marker.
package model

import "time"

// Role mirrors the role of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolStatus is the lifecycle state of a tool invocation.
type ToolStatus string

const (
	ToolStatusPending   ToolStatus = "pending"
	ToolStatusRunning   ToolStatus = "running"
	ToolStatusCompleted ToolStatus = "completed"
	ToolStatusError     ToolStatus = "error"
)

// Info is the message envelope: identity, ownership, and provider metadata.
type Info struct {
	ID        string
	Role      Role
	SessionID string
	Created   time.Time
	Agent     string
	Model     string
	Variant   string
	Summary   bool // true when the host flagged this as a compaction summary
	Ignored   bool // true for host- or engine-injected messages excluded from turn accounting
}

// Message is one turn's worth of parts. Messages are read-only input
// from the host; rewriters replace parts in place rather than
// reconstructing messages wholesale, so unrelated parts keep identity.
type Message struct {
	Info  Info
	Parts []Part
}

// Part is implemented by every part kind the engine understands.
type Part interface {
	PartID() string
	isPart()
}

// TextPart carries plain assistant/user text.
type TextPart struct {
	ID   string
	Text string
}

func (p *TextPart) PartID() string { return p.ID }
func (*TextPart) isPart()          {}

// ToolState is the mutable state of a tool invocation as observed by
// the host: input/output/error plus a lifecycle status.
type ToolState struct {
	Status ToolStatus
	Input  map[string]any
	Output string
	Error  string
}

// ToolPart represents one tool call and its current state.
type ToolPart struct {
	ID     string
	CallID string
	Tool   string
	State  ToolState
}

func (p *ToolPart) PartID() string { return p.ID }
func (*ToolPart) isPart()          {}

// StepStartPart marks the beginning of an assistant turn (used to
// increment SessionState.currentTurn).
type StepStartPart struct {
	ID string
}

func (p *StepStartPart) PartID() string { return p.ID }
func (*StepStartPart) isPart()          {}

// StepFinishPart marks the end of an assistant turn.
type StepFinishPart struct {
	ID string
}

func (p *StepFinishPart) PartID() string { return p.ID }
func (*StepFinishPart) isPart()          {}

// ToolParts returns every ToolPart across the message in order.
func (m Message) ToolParts() []*ToolPart {
	var out []*ToolPart
	for _, p := range m.Parts {
		if tp, ok := p.(*ToolPart); ok {
			out = append(out, tp)
		}
	}
	return out
}

// LastNonIgnored returns the last message whose role is not ignored by
// the caller-supplied predicate, or false if none match.
func LastNonIgnored(messages []Message, ignored func(Message) bool) (Message, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if ignored == nil || !ignored(messages[i]) {
			return messages[i], true
		}
	}
	return Message{}, false
}
