// Package hostproto types the host hook points the engine attaches to
// as a closed, typed sum of payload shapes rather than a bag of
// interface{} — a HookType marks which one any given Input is and
// drives the dispatch switch at the host boundary.
package hostproto

import (
	"errors"

	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/model"
)

// HookType enumerates the host hook points the engine consumes.
type HookType string

const (
	HookChatMessage           HookType = "chat.message"
	HookChatSystemTransform   HookType = "experimental.chat.system.transform"
	HookChatMessagesTransform HookType = "experimental.chat.messages.transform"
	HookCommandExecuteBefore  HookType = "command.execute.before"
	HookConfig                HookType = "config"
	HookEvent                 HookType = "event"
)

// Input is implemented by every incoming hook payload.
type Input interface {
	GetHook() HookType
}

type inputBase struct {
	Hook HookType `json:"hook"`
}

func (b inputBase) GetHook() HookType { return b.Hook }

// ChatMessageInput observes an outgoing chat request; this hook
// produces no output, it only lets the engine learn the active
// variant/model for the session.
type ChatMessageInput struct {
	inputBase
	SessionID string `json:"sessionId"`
	Variant   string `json:"variant,omitempty"`
	Model     string `json:"model,omitempty"`
	Provider  string `json:"provider,omitempty"`
}

// NewChatMessageInput constructs a chat.message hook input.
func NewChatMessageInput(sessionID, variant, provider, modelID string) ChatMessageInput {
	return ChatMessageInput{
		inputBase: inputBase{Hook: HookChatMessage},
		SessionID: sessionID, Variant: variant, Provider: provider, Model: modelID,
	}
}

// ChatSystemTransformInput carries the system-prompt fragments the
// host is about to send; the engine appends its own rendered prompt
// when at least one tool is enabled and the session isn't an internal
// agent.
type ChatSystemTransformInput struct {
	inputBase
	SessionID  string   `json:"sessionId"`
	IsSubAgent bool     `json:"isSubAgent"`
	System     []string `json:"system"`
}

// ChatSystemTransformOutput is the appended system-prompt fragment list.
type ChatSystemTransformOutput struct {
	System []string `json:"system"`
}

// ChatMessagesTransformInput is the main entry point: the full
// transcript for a session, mutated in place by the pipeline.
type ChatMessagesTransformInput struct {
	inputBase
	SessionID string          `json:"sessionId"`
	Messages  []model.Message `json:"messages"`
}

// ChatMessagesTransformOutput carries the rewritten transcript back.
type ChatMessagesTransformOutput struct {
	Messages []model.Message `json:"messages"`
}

// CommandExecuteBeforeInput carries a /dcp command invocation.
type CommandExecuteBeforeInput struct {
	inputBase
	Command   string   `json:"command"`
	SessionID string   `json:"sessionId"`
	Arguments []string `json:"arguments"`
}

// CommandExecuteBeforeOutput carries the rendered command response,
// already written through session.prompt by the caller — Parts is
// only populated when the command produced host-renderable output
// that isn't delivered via the sentinel-error signaling path.
type CommandExecuteBeforeOutput struct {
	Parts []model.Part `json:"parts,omitempty"`
}

// ConfigInput carries the host's mutable configuration document for
// the engine to register /dcp against and add enabled tools to the
// experimental primary tools list.
type ConfigInput struct {
	inputBase
	OpencodeConfig map[string]any `json:"opencodeConfig"`
}

// ConfigOutput carries the host's configuration document back after
// the engine has registered its command and tools against it.
type ConfigOutput struct {
	OpencodeConfig map[string]any `json:"opencodeConfig"`
}

// EventSessionIdle is the only EventInput.EventType the engine acts
// on: it triggers a fresh model-(re)selection pass for the session.
const EventSessionIdle = "session.idle"

// EventInput carries a host lifecycle event. Every EventType other
// than EventSessionIdle is a no-op for the engine.
type EventInput struct {
	inputBase
	SessionID string `json:"sessionId"`
	EventType string `json:"eventType"`
}

// NewEventInput constructs an event hook input.
func NewEventInput(sessionID, eventType string) EventInput {
	return EventInput{inputBase: inputBase{Hook: HookEvent}, SessionID: sessionID, EventType: eventType}
}

// HandledSentinelPrefix is the fixed prefix of the sentinel error a /dcp
// command throws to signal the host that it produced no user text to
// render beyond what it already wrote via session.prompt — the only
// exception allowed to cross the hook boundary.
const HandledSentinelPrefix = "__DCP_"

// HandledSentinel formats the sentinel for a specific sub-command.
func HandledSentinel(subCommand string) string {
	return HandledSentinelPrefix + subCommand + "_HANDLED__"
}

// HandledSentinelErr wraps HandledSentinel as an error, the shape a
// /dcp command handler actually throws to signal the host.
func HandledSentinelErr(subCommand string) error {
	return errors.New(HandledSentinel(subCommand))
}

// IsHandledSentinel reports whether err's message is one of the
// sentinel strings a /dcp command uses to short-circuit normal error
// propagation.
func IsHandledSentinel(msg string) bool {
	return len(msg) > len(HandledSentinelPrefix) && msg[:len(HandledSentinelPrefix)] == HandledSentinelPrefix
}
