// Package notify formats user-visible notices for pruning activity
// and picks their delivery channel. A Notification is a small
// serializable value; the host-facing layer decides how to deliver it.
package notify

import (
	"fmt"
	"strings"

	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/config"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/strategy"
)

// Channel is the UI surface a Notification should render on.
type Channel string

const (
	ChannelNone    Channel = "none"
	ChannelToast   Channel = "toast"
	ChannelMessage Channel = "message"
)

// Reason classifies why content was pruned, echoed in the notification
// body so the user can tell noise-reduction apart from an error purge.
type Reason string

const (
	ReasonNoise       Reason = "noise"
	ReasonDuplicate   Reason = "duplicate"
	ReasonSuperseded  Reason = "superseded"
	ReasonErrorPurge  Reason = "error-purge"
	ReasonCompression Reason = "compression"
	ReasonFailure     Reason = "failure"
)

// Notification is one pruning-activity notice, ready for delivery.
type Notification struct {
	Channel Channel
	Reason  Reason
	Title   string
	Body    string
}

// channelFor maps the config's notification-type toggle to a Channel,
// suppressing delivery entirely when notifications are switched off.
func channelFor(cfg config.Config) Channel {
	if cfg.PruningSummary == config.SummaryOff {
		return ChannelNone
	}
	if cfg.PruneNotificationType == config.NotifyToast {
		return ChannelToast
	}
	return ChannelMessage
}

// Dedup formats the notification for a run of the deduplication
// strategy, e.g. "read (1 duplicate): /x (1x duplicate)".
func Dedup(cfg config.Config, groups []strategy.DuplicateGroup) *Notification {
	if len(groups) == 0 {
		return nil
	}
	ch := channelFor(cfg)
	if ch == ChannelNone {
		return nil
	}

	var lines []string
	for _, g := range groups {
		switch cfg.PruningSummary {
		case config.SummaryDetailed:
			lines = append(lines, fmt.Sprintf("%s (%d duplicate): %s (%dx duplicate) -> kept %s",
				g.ToolName, g.DuplicateCount-1, g.ParameterKey, g.DuplicateCount-1, g.KeptID))
		default:
			lines = append(lines, fmt.Sprintf("%s (%d duplicate): %s (%dx duplicate)",
				g.ToolName, g.DuplicateCount-1, g.ParameterKey, g.DuplicateCount-1))
		}
	}
	return &Notification{
		Channel: ch,
		Reason:  ReasonDuplicate,
		Title:   "Pruned duplicate tool calls",
		Body:    strings.Join(lines, "\n"),
	}
}

// Prune formats the notification for an explicit prune() tool call.
func Prune(cfg config.Config, count, tokensSaved int, skipped []string) *Notification {
	ch := channelFor(cfg)
	if ch == ChannelNone {
		return nil
	}
	body := fmt.Sprintf("pruned %d tool call(s), ~%d tokens saved.", count, tokensSaved)
	if cfg.PruningSummary == config.SummaryDetailed && len(skipped) > 0 {
		body += "\nskipped: " + strings.Join(skipped, "; ")
	}
	return &Notification{Channel: ch, Reason: ReasonNoise, Title: "Pruned tool output", Body: body}
}

// Distill formats the notification for a distill() tool call, keeping
// each preserved distillation visible at detailed verbosity.
func Distill(cfg config.Config, count, tokensSaved int, preserved []string) *Notification {
	ch := channelFor(cfg)
	if ch == ChannelNone {
		return nil
	}
	body := fmt.Sprintf("distilled %d tool call(s), ~%d tokens saved.", count, tokensSaved)
	if cfg.PruningSummary == config.SummaryDetailed {
		for _, p := range preserved {
			body += "\n- " + p
		}
	}
	return &Notification{Channel: ch, Reason: ReasonNoise, Title: "Distilled tool output", Body: body}
}

// Compress formats the notification for a compress() tool call.
func Compress(cfg config.Config, topic string, msgCount, toolCount int) *Notification {
	ch := channelFor(cfg)
	if ch == ChannelNone {
		return nil
	}
	body := fmt.Sprintf("compressed %d message(s), %d tool call(s) into a summary.", msgCount, toolCount)
	if cfg.PruningSummary == config.SummaryDetailed && topic != "" {
		body = fmt.Sprintf("%q: %s", topic, body)
	}
	return &Notification{Channel: ch, Reason: ReasonCompression, Title: "Compressed conversation range", Body: body}
}

// SupersedeWrites formats the notification for the supersede-writes
// strategy (a stale write discarded because the file was re-read).
func SupersedeWrites(cfg config.Config, count int) *Notification {
	if count == 0 {
		return nil
	}
	ch := channelFor(cfg)
	if ch == ChannelNone {
		return nil
	}
	return &Notification{
		Channel: ch,
		Reason:  ReasonSuperseded,
		Title:   "Pruned superseded writes",
		Body:    fmt.Sprintf("pruned %d stale write/edit call(s) superseded by a later read.", count),
	}
}

// PurgeErrors formats the notification for the purge-errors strategy.
func PurgeErrors(cfg config.Config, count int) *Notification {
	if count == 0 {
		return nil
	}
	ch := channelFor(cfg)
	if ch == ChannelNone {
		return nil
	}
	return &Notification{
		Channel: ch,
		Reason:  ReasonErrorPurge,
		Title:   "Purged stale tool errors",
		Body:    fmt.Sprintf("purged %d failed tool call(s) older than the configured turn threshold.", count),
	}
}

// Failure formats one of the fixed user-visible failure strings —
// "No prunable tool outputs", "startString not found in conversation",
// "Found multiple matches for endString", "Invalid IDs provided" —
// each with remediation guidance appended.
func Failure(cfg config.Config, message, remediation string) *Notification {
	ch := channelFor(cfg)
	if ch == ChannelNone {
		ch = ChannelMessage // failures always surface even with summaries off
	}
	body := message
	if remediation != "" {
		body += ". " + remediation
	}
	return &Notification{Channel: ch, Reason: ReasonFailure, Title: "Pruning failed", Body: body}
}

// TransientHostFailure logs-and-swallows a host RPC failure:
// notifications are best-effort, never surfaced to the user, so this
// always returns nil — callers pass the error to their logger and
// move on.
func TransientHostFailure(_ error) *Notification { return nil }
