package hostproto

import "testing"

func TestHandledSentinelRoundTrip(t *testing.T) {
	s := HandledSentinel("PRUNE")
	if s != "__DCP_PRUNE_HANDLED__" {
		t.Fatalf("unexpected sentinel: %q", s)
	}
	if !IsHandledSentinel(s) {
		t.Fatalf("expected IsHandledSentinel to recognize its own output")
	}
}

func TestIsHandledSentinelRejectsOrdinaryErrors(t *testing.T) {
	if IsHandledSentinel("some ordinary error message") {
		t.Fatalf("ordinary error text must not be mistaken for the sentinel")
	}
}

func TestChatMessageInputCarriesHook(t *testing.T) {
	in := NewChatMessageInput("sess-1", "default", "anthropic", "claude-3-sonnet-20240229")
	if in.GetHook() != HookChatMessage {
		t.Fatalf("unexpected hook: %v", in.GetHook())
	}
	if in.SessionID != "sess-1" || in.Provider != "anthropic" {
		t.Fatalf("unexpected input: %+v", in)
	}
}

func TestChatMessagesTransformInputHook(t *testing.T) {
	in := ChatMessagesTransformInput{inputBase: inputBase{Hook: HookChatMessagesTransform}, SessionID: "sess-1"}
	if in.GetHook() != HookChatMessagesTransform {
		t.Fatalf("unexpected hook: %v", in.GetHook())
	}
}
