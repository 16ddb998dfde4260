// Package inject implements the context injector: the stage that
// appends cooldown/manifest/squash/nudge text as a single synthetic
// message once per outgoing transform, choosing its role by the
// provider-sensitive placement rules.
package inject

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/config"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/model"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/session"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/tokenutil"
)

// deepSeekKimiFamily selects the alternate role-placement rule because
// these providers drop reasoning if an assistant text injection
// follows without encrypted reasoning parts.
var deepSeekKimiFamily = map[string]struct{}{
	"kimi":     {},
	"deepseek": {},
}

// IsDeepSeekOrKimi reports whether a provider/model string belongs to
// the family needing the tool-part placement rule.
func IsDeepSeekOrKimi(providerOrModel string) bool {
	p := strings.ToLower(providerOrModel)
	for family := range deepSeekKimiFamily {
		if strings.Contains(p, family) {
			return true
		}
	}
	return false
}

func newMessageID() string { return "msg_" + uuid.NewString() }
func newPartID() string    { return "prt_" + uuid.NewString() }

// Run builds the injector's text blocks and appends them to messages
// as a single synthetic message, choosing role per the placement
// rules. No blocks selected → messages returned unchanged.
func Run(st *session.State, messages []model.Message, cfg config.Config, protected map[string]struct{}) []model.Message {
	blocks := buildBlocks(st, messages, cfg, protected)
	if len(blocks) == 0 {
		return messages
	}
	text := strings.Join(blocks, "\n\n")

	lastNonIgnored, ok := model.LastNonIgnored(messages, func(m model.Message) bool { return m.Info.Ignored })
	if !ok {
		return messages
	}

	var synthetic model.Message
	switch {
	case lastNonIgnored.Info.Role == model.RoleUser:
		synthetic = syntheticUserMessage(lastNonIgnored, text)
	case IsDeepSeekOrKimi(lastNonIgnored.Info.Model) || IsDeepSeekOrKimi(lastNonIgnored.Info.Variant):
		return appendSyntheticToolPart(messages, text)
	default:
		synthetic = syntheticAssistantMessage(lastNonIgnored, text)
	}

	return append(append([]model.Message{}, messages...), synthetic)
}

func buildBlocks(st *session.State, messages []model.Message, cfg config.Config, protected map[string]struct{}) []string {
	var blocks []string

	if st.LastToolPrune {
		blocks = append(blocks, cooldownBlock())
		// Cooldown suppresses the manifest for this turn.
		if squash := squashBlock(st, messages, cfg); squash != "" {
			blocks = append(blocks, squash)
		}
		if nudge := nudgeBlock(st, cfg); nudge != "" {
			blocks = append(blocks, nudge)
		}
		return blocks
	}

	if cfg.Tools.Prune.Enabled || cfg.Tools.Distill.Enabled {
		if manifest := manifestBlock(st, messages, protected); manifest != "" {
			blocks = append(blocks, manifest)
		}
	}
	if squash := squashBlock(st, messages, cfg); squash != "" {
		blocks = append(blocks, squash)
	}
	if nudge := nudgeBlock(st, cfg); nudge != "" {
		blocks = append(blocks, nudge)
	}
	return blocks
}

func cooldownBlock() string {
	return "<context-info>Context management was just performed. Do NOT use the <enabled-tools> again. " +
		"A fresh list will be available after your next tool use.</context-info>"
}

// manifestBlock lists every non-protected, non-pruned tool by its
// numeric index into st.ToolIDList, which is what the model addresses
// tools by.
func manifestBlock(st *session.State, messages []model.Message, protected map[string]struct{}) string {
	var lines []string
	for idx, callID := range st.ToolIDList {
		if st.IsPruned(callID) {
			continue
		}
		entry, ok := st.ToolEntry(callID)
		if !ok {
			continue
		}
		if _, isProtected := protected[entry.Tool]; isProtected {
			continue
		}
		key := tokenutil.ParamKey(entry.Tool, entry.Parameters)
		lines = append(lines, fmt.Sprintf("%d: %s, %s", idx, entry.Tool, key))
	}
	if len(lines) == 0 {
		return ""
	}
	return "<prunable-tools>\n" + strings.Join(lines, "\n") + "\n</prunable-tools>"
}

func squashBlock(st *session.State, messages []model.Message, cfg config.Config) string {
	if !cfg.Tools.Compress.Enabled {
		return ""
	}
	live := 0
	for _, msg := range messages {
		if !st.IsMessageCompacted(msg.Info.ID) {
			live++
		}
	}
	return fmt.Sprintf("<squash-context>%d live messages in context.</squash-context>", live)
}

func nudgeBlock(st *session.State, cfg config.Config) string {
	freq := cfg.Tools.Settings.NudgeFrequency
	if !cfg.Tools.Settings.NudgeEnabled || freq <= 0 || st.NudgeCounter < freq {
		return ""
	}

	var tools []string
	if cfg.Tools.Prune.Enabled {
		tools = append(tools, "prune")
	}
	if cfg.Tools.Distill.Enabled {
		tools = append(tools, "distill")
	}
	if cfg.Tools.Compress.Enabled {
		tools = append(tools, "compress")
	}
	sort.Strings(tools)
	if len(tools) == 0 {
		return ""
	}
	return fmt.Sprintf(
		"<context-info>The conversation has accumulated significant tool output. "+
			"Consider calling %s to keep the context window manageable.</context-info>",
		strings.Join(tools, "/"),
	)
}

func syntheticUserMessage(base model.Message, text string) model.Message {
	return model.Message{
		Info: model.Info{
			ID:        newMessageID(),
			Role:      model.RoleUser,
			SessionID: base.Info.SessionID,
			Agent:     base.Info.Agent,
			Model:     base.Info.Model,
			Variant:   base.Info.Variant,
			Ignored:   true,
		},
		Parts: []model.Part{&model.TextPart{ID: newPartID(), Text: text}},
	}
}

func syntheticAssistantMessage(base model.Message, text string) model.Message {
	return model.Message{
		Info: model.Info{
			ID:        newMessageID(),
			Role:      model.RoleAssistant,
			SessionID: base.Info.SessionID,
			Agent:     base.Info.Agent,
			Model:     base.Info.Model,
			Variant:   base.Info.Variant,
			Ignored:   true,
		},
		Parts: []model.Part{&model.TextPart{ID: newPartID(), Text: text}},
	}
}

// appendSyntheticToolPart appends a synthetic tool part to the last
// assistant message in place, rather than a new message, for the
// DeepSeek/Kimi placement rule.
func appendSyntheticToolPart(messages []model.Message, text string) []model.Message {
	out := make([]model.Message, len(messages))
	copy(out, messages)

	for i := len(out) - 1; i >= 0; i-- {
		if out[i].Info.Role != model.RoleAssistant {
			continue
		}
		parts := make([]model.Part, len(out[i].Parts), len(out[i].Parts)+1)
		copy(parts, out[i].Parts)
		parts = append(parts, &model.ToolPart{
			ID:     newPartID(),
			CallID: newPartID(),
			Tool:   "context-info",
			State: model.ToolState{
				Status: model.ToolStatusCompleted,
				Output: text,
			},
		})
		out[i].Parts = parts
		return out
	}
	return out
}
