// Package dcp wires the five subsystems — session state, strategy
// pipeline, content rewriter, context injector, tool dispatcher —
// into the single entry point a host hook handler calls per turn.
// Engine owns the long-lived managers and exposes one method per
// host entry point, leaving transport to the caller.
package dcp

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/config"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/format"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/hostproto"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/inject"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/model"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/notify"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/promptrender"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/rewrite"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/selector"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/session"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/strategy"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/tokenutil"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/tools"
)

// Engine owns the long-lived pieces the host attaches its hooks to:
// the session manager (and its sidecar store), the live config, the
// tool dispatcher, and the derived protected-path glob set.
type Engine struct {
	Sessions       *session.Manager
	Config         config.Config
	Dispatcher     *tools.Dispatcher
	ProtectedPaths *tokenutil.GlobSet
}

// New builds an Engine from a loaded config document and a session
// store (nil disables sidecar persistence, useful for the cmd/dcpctl
// harness and tests).
func New(cfg config.Config, store *session.Store) *Engine {
	return &Engine{
		Sessions:       session.NewManager(store, cfg.Tools.Settings.ProtectedTools),
		Config:         cfg,
		Dispatcher:     tools.NewDispatcher(cfg.Tools.Settings.ProtectedTools, cfg.ProtectedFilePatterns),
		ProtectedPaths: tokenutil.NewGlobSet(cfg.ProtectedFilePatterns),
	}
}

// TransformResult bundles the rewritten transcript with the
// notifications produced along the way, so a caller can deliver both
// without re-deriving the latter from state.
type TransformResult struct {
	Messages      []model.Message
	Notifications []*notify.Notification
}

// TransformMessages implements experimental.chat.messages.transform:
// session-check, tool-cache sync, the strategy pipeline, the content
// rewriter, then the context injector, in that fixed order. Sub-agent
// sessions are inert: no tool-cache sync, no strategies, no rewriter,
// no injection — the transcript passes through untouched.
func (e *Engine) TransformMessages(sessionID string, isSubAgent bool, messages []model.Message) TransformResult {
	st := e.Sessions.EnsureInitialized(sessionID, isSubAgent)
	st = e.Sessions.CheckSession(st, messages)
	if st.IsSubAgent {
		return TransformResult{Messages: messages}
	}
	e.Sessions.SyncToolCache(st, messages)
	e.Sessions.RebuildToolIDList(st, messages)
	e.Sessions.UpdateTurn(st, messages)

	var notifications []*notify.Notification

	automaticStrategiesEnabled := e.Config.Enabled && !st.ManualMode &&
		(!e.Config.ManualModeConfig.Enabled || e.Config.ManualModeConfig.AutomaticStrategies)
	if automaticStrategiesEnabled {
		result := strategy.Run(st, messages, e.Config, e.ProtectedPaths)
		if n := notify.Dedup(e.Config, result.Duplicates); n != nil {
			notifications = append(notifications, n)
		}
		if n := notify.SupersedeWrites(e.Config, result.SupersededCount); n != nil {
			notifications = append(notifications, n)
		}
		if n := notify.PurgeErrors(e.Config, result.PurgedErrorCount); n != nil {
			notifications = append(notifications, n)
		}
	}

	rewritten := rewrite.Run(st, messages, rewrite.RedactOutputs, rewrite.RedactInputs, rewrite.ApplySummaries)
	injected := inject.Run(st, rewritten, e.Config, e.Dispatcher.ProtectedTools)

	e.Sessions.Persist(st)

	return TransformResult{Messages: injected, Notifications: notifications}
}

// SystemPromptFragment implements experimental.chat.system.transform:
// renders the tool-manifest system prompt when at least one tool is
// enabled and the session isn't an internal agent, skipping known
// internal-agent signature strings.
func (e *Engine) SystemPromptFragment(st *session.State, basePrompt string) (string, bool) {
	if st.IsSubAgent || isInternalAgentPrompt(basePrompt) {
		return "", false
	}
	enabled := e.enabledToolNames()
	if len(enabled) == 0 {
		return "", false
	}
	rendered := promptrender.NewBuilder(basePrompt, enabled).Build()
	return rendered, rendered != ""
}

var internalAgentSignatures = []string{
	"You are a title generator",
	"You are a commit message generator",
}

func isInternalAgentPrompt(prompt string) bool {
	for _, sig := range internalAgentSignatures {
		if strings.Contains(prompt, sig) {
			return true
		}
	}
	return false
}

func (e *Engine) enabledToolNames() map[string]struct{} {
	enabled := make(map[string]struct{}, 3)
	if e.Config.Tools.Prune.Enabled {
		enabled["prune"] = struct{}{}
	}
	if e.Config.Tools.Distill.Enabled {
		enabled["distill"] = struct{}{}
	}
	if e.Config.Tools.Compress.Enabled {
		enabled["compress"] = struct{}{}
	}
	return enabled
}

// DispatchTool runs the named tool against the live transcript,
// returning the rendered result text for the model plus a
// notification for the human user: on failure, the fixed-wording
// notification built by notify.Failure when the error carries one; on
// success, the matching notify.Prune/Distill/Compress notification
// built from the activity the call recorded (nil for a sub-agent's
// short-circuited call, which records none). Callers feed this the
// chosen tool's Fn through the engine so the dispatcher's sub-agent
// guard and nudge-reset bookkeeping apply uniformly.
func (e *Engine) DispatchTool(ctx context.Context, st *session.State, messages []model.Message, name string, args map[string]any) (string, *notify.Notification, error) {
	for _, t := range e.Dispatcher.Tools() {
		if t.Name != name {
			continue
		}
		if err := t.ValidateArgs(args); err != nil {
			return "", e.failureNotification(err), err
		}
		result, err := t.Fn(ctx, st, messages, args)
		if err != nil {
			return "", e.failureNotification(err), err
		}
		return result, e.successNotification(st), nil
	}
	return "", nil, fmt.Errorf("unknown tool: %s", name)
}

// failureNotification builds the fixed-wording notification for a
// tool error, when that error carries one. A *tools.ValidationError
// without a UserMessage is model-facing detail with no canonical
// human-facing wording, so it surfaces no notification.
func (e *Engine) failureNotification(err error) *notify.Notification {
	ve, ok := err.(*tools.ValidationError)
	if !ok || ve.UserMessage == "" {
		return nil
	}
	return notify.Failure(e.Config, ve.UserMessage, strings.Join(ve.Errors, "; "))
}

// successNotification builds the notification matching the activity a
// just-completed tool call recorded on st, or nil when it recorded
// none (the sub-agent short-circuit never calls SetActivity).
func (e *Engine) successNotification(st *session.State) *notify.Notification {
	a := st.TakeActivity()
	if a == nil {
		return nil
	}
	switch a.Kind {
	case "prune":
		return notify.Prune(e.Config, a.Count, a.TokensSaved, a.Skipped)
	case "distill":
		return notify.Distill(e.Config, a.Count, a.TokensSaved, a.Preserved)
	case "compress":
		return notify.Compress(e.Config, a.Topic, a.MsgCount, a.ToolCount)
	default:
		return nil
	}
}

// ObserveChatMessage implements the chat.message hook: it only
// records the provider/model pair for tier-2 model selection,
// producing no output.
func (e *Engine) ObserveChatMessage(st *session.State, providerID, modelID string) {
	st.CachedProviderID = providerID
	st.CachedModelID = modelID
}

// ResolveModel picks the endpoint for an on-idle model-assisted
// pruning call by three-tier priority: config override, the session's
// cached chat.params endpoint, then sessionInfo (supplied by the
// caller, since only the host knows the session's declared model
// when no chat.message has been observed yet).
func (e *Engine) ResolveModel(ctx context.Context, st *session.State, sessionInfo *selector.Endpoint, cap_ selector.Capability, toast selector.ToastFunc) (selector.Endpoint, error) {
	ms := e.Config.ModelSelection
	var override *selector.Endpoint
	if ms.OverrideProvider != "" || ms.OverrideModel != "" {
		override = &selector.Endpoint{ProviderID: ms.OverrideProvider, ModelID: ms.OverrideModel}
	}
	var cached *selector.Endpoint
	if st.CachedProviderID != "" || st.CachedModelID != "" {
		cached = &selector.Endpoint{ProviderID: st.CachedProviderID, ModelID: st.CachedModelID}
	}

	var toastFn selector.ToastFunc
	if ms.ShowModelErrorToasts {
		toastFn = toast
	}
	retrying := selector.WithRetry(cap_, selector.DefaultRetryPolicy(), nil)
	return selector.Resolve(ctx, override, cached, sessionInfo, retrying, ms.StrictModelSelection, toastFn)
}

// HandleEvent implements the event hook: a session-idle event
// triggers the same model (re)selection pass ResolveModel performs for
// an on-idle pruning call. Every other event type is a no-op.
func (e *Engine) HandleEvent(ctx context.Context, st *session.State, in hostproto.EventInput, sessionInfo *selector.Endpoint, cap_ selector.Capability, toast selector.ToastFunc) (selector.Endpoint, error) {
	if in.EventType != hostproto.EventSessionIdle {
		return selector.Endpoint{}, nil
	}
	return e.ResolveModel(ctx, st, sessionInfo, cap_, toast)
}

// FormatDescriptor resolves the message-format descriptor for a
// provider/model string (internal/dcp/format), falling back to the
// generic descriptor when unrecognized.
func (e *Engine) FormatDescriptor(providerOrModel string) *format.Descriptor {
	return format.Get(strings.ToLower(providerOrModel))
}

// HandleCommand implements the command.execute.before hook's /dcp
// command family. It returns the rendered text to write through
// session.prompt and the sentinel error the host expects in place of
// normal completion.
func (e *Engine) HandleCommand(st *session.State, messages []model.Message, arguments []string) (string, error) {
	sub := "help"
	rest := arguments
	if len(arguments) > 0 {
		sub = arguments[0]
		rest = arguments[1:]
	}

	switch sub {
	case "context":
		return e.renderContext(st), hostproto.HandledSentinelErr("CONTEXT")
	case "stats":
		return e.renderStats(st), hostproto.HandledSentinelErr("STATS")
	case "sweep":
		n := 10
		if len(rest) > 0 {
			if v, err := strconv.Atoi(rest[0]); err == nil && v > 0 {
				n = v
			}
		}
		result := e.Sweep(st, messages, n)
		return fmt.Sprintf("swept the last %d turn(s): %d duplicate(s), %d superseded write(s) pruned.",
			n, len(result.Duplicates), result.SupersededCount), hostproto.HandledSentinelErr("SWEEP")
	case "manual":
		if len(rest) > 0 && rest[0] == "off" {
			st.ManualMode = false
			return "automatic pruning re-enabled.", hostproto.HandledSentinelErr("MANUAL")
		}
		st.ManualMode = true
		return "manual mode enabled: automatic strategies paused, drive pruning via /dcp prune|distill|compress.", hostproto.HandledSentinelErr("MANUAL")
	case "prune", "distill", "compress":
		focus := strings.Join(rest, " ")
		st.PendingManualTrigger = &session.PendingManualTrigger{SessionID: st.SessionID, Prompt: focus}
		return fmt.Sprintf("queued a manual %s pass%s for the next model turn.", sub, focusSuffix(focus)), hostproto.HandledSentinelErr(strings.ToUpper(sub))
	default:
		return helpText, hostproto.HandledSentinelErr("HELP")
	}
}

func focusSuffix(focus string) string {
	if focus == "" {
		return ""
	}
	return fmt.Sprintf(" (focus: %q)", focus)
}

const helpText = `/dcp commands:
  context            show the live prunable-tools manifest
  stats              show token-saving stats for this session
  sweep [n]          re-run dedup+supersede over the last n turns (default 10)
  manual [on|off]    toggle manual mode (automatic strategies paused when on)
  prune [focus]      queue a manual prune pass
  distill [focus]    queue a manual distill pass
  compress [focus]   queue a manual compress pass`

// Sweep re-runs deduplicate+supersedeWrites over the last n turns'
// worth of messages without waiting for the next messages.transform.
// It lives here rather than on session.Manager to avoid an import
// cycle between session and strategy.
func (e *Engine) Sweep(st *session.State, messages []model.Message, n int) strategy.Result {
	window := lastNTurns(messages, n)
	var res strategy.Result
	res.Duplicates = strategy.Deduplicate(st, window, protectedToolSet(e.Config))
	before := len(st.PruneToolIDs)
	strategy.SupersedeWrites(st, window, e.ProtectedPaths)
	res.SupersededCount = len(st.PruneToolIDs) - before
	return res
}

func protectedToolSet(cfg config.Config) map[string]struct{} {
	set := make(map[string]struct{}, len(cfg.Tools.Settings.ProtectedTools))
	for _, t := range cfg.Tools.Settings.ProtectedTools {
		set[t] = struct{}{}
	}
	return set
}

func lastNTurns(messages []model.Message, n int) []model.Message {
	turns := 0
	for i := len(messages) - 1; i >= 0; i-- {
		for _, p := range messages[i].Parts {
			if _, ok := p.(*model.StepStartPart); ok {
				turns++
			}
		}
		if turns >= n {
			return messages[i:]
		}
	}
	return messages
}

func (e *Engine) renderContext(st *session.State) string {
	var lines []string
	lines = append(lines, "prunable tools:")
	idx := 0
	for _, id := range st.ToolIDList {
		entry, ok := st.ToolEntry(id)
		if !ok || st.IsPruned(id) {
			idx++
			continue
		}
		if _, protected := e.Dispatcher.ProtectedTools[entry.Tool]; protected {
			idx++
			continue
		}
		lines = append(lines, fmt.Sprintf("  %d: %s, %s", idx, entry.Tool, tokenutil.ParamKey(entry.Tool, entry.Parameters)))
		idx++
	}
	if len(lines) == 1 {
		return "no prunable tool outputs in the current context."
	}
	return strings.Join(lines, "\n")
}

func (e *Engine) renderStats(st *session.State) string {
	lines := []string{
		"pruning stats for this session:",
		fmt.Sprintf("  tokens saved this cycle: %d", st.Stats.PruneTokenCounter),
		fmt.Sprintf("  total tokens saved:      %d", st.Stats.TotalPruneTokens),
		fmt.Sprintf("  tool calls pruned:       %d", len(st.PruneToolIDs)),
		fmt.Sprintf("  messages compacted:      %d", len(st.PruneMessageIDs)),
		fmt.Sprintf("  compress summaries:      %d", len(st.CompressSummaries)),
	}
	return strings.Join(lines, "\n")
}
