package notify

import (
	"strings"
	"testing"

	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/config"
	"github.com/syntax-syndicate/opencode-dynamic-context-pruning/internal/dcp/strategy"
)

func baseConfig() config.Config {
	cfg := config.Default()
	cfg.PruningSummary = config.SummaryMinimal
	cfg.PruneNotificationType = config.NotifyMessage
	return cfg
}

func TestDedupScenarioS1Wording(t *testing.T) {
	groups := []strategy.DuplicateGroup{
		{ToolName: "read", ParameterKey: "/x", DuplicateCount: 2, PrunedIDs: []string{"A"}, KeptID: "B"},
	}
	n := Dedup(baseConfig(), groups)
	if n == nil {
		t.Fatalf("expected a notification")
	}
	if !strings.Contains(n.Body, "read (1 duplicate): /x (1x duplicate)") {
		t.Fatalf("unexpected body: %q", n.Body)
	}
}

func TestDedupNoGroupsReturnsNil(t *testing.T) {
	if Dedup(baseConfig(), nil) != nil {
		t.Fatalf("expected nil notification for zero groups")
	}
}

func TestDedupSuppressedWhenSummaryOff(t *testing.T) {
	cfg := baseConfig()
	cfg.PruningSummary = config.SummaryOff
	groups := []strategy.DuplicateGroup{{ToolName: "read", ParameterKey: "/x", DuplicateCount: 2, KeptID: "B"}}
	if Dedup(cfg, groups) != nil {
		t.Fatalf("expected nil notification when summaries are off")
	}
}

func TestDedupDetailedIncludesKeptID(t *testing.T) {
	cfg := baseConfig()
	cfg.PruningSummary = config.SummaryDetailed
	groups := []strategy.DuplicateGroup{{ToolName: "read", ParameterKey: "/x", DuplicateCount: 2, KeptID: "B"}}
	n := Dedup(cfg, groups)
	if !strings.Contains(n.Body, "kept B") {
		t.Fatalf("expected detailed body to name the kept id, got %q", n.Body)
	}
}

func TestChannelSelectionRespectsToastSetting(t *testing.T) {
	cfg := baseConfig()
	cfg.PruneNotificationType = config.NotifyToast
	n := Prune(cfg, 1, 40, nil)
	if n.Channel != ChannelToast {
		t.Fatalf("expected toast channel, got %v", n.Channel)
	}
}

func TestPruneNotificationBody(t *testing.T) {
	n := Prune(baseConfig(), 3, 120, []string{"tool-5: out of range"})
	if !strings.Contains(n.Body, "pruned 3 tool call(s), ~120 tokens saved") {
		t.Fatalf("unexpected body: %q", n.Body)
	}
	if strings.Contains(n.Body, "skipped") {
		t.Fatalf("minimal verbosity should not list skipped entries, got %q", n.Body)
	}
}

func TestPruneDetailedListsSkipped(t *testing.T) {
	cfg := baseConfig()
	cfg.PruningSummary = config.SummaryDetailed
	n := Prune(cfg, 3, 120, []string{"tool-5: out of range"})
	if !strings.Contains(n.Body, "skipped: tool-5: out of range") {
		t.Fatalf("expected detailed body to list skips, got %q", n.Body)
	}
}

func TestFailureAlwaysSurfacesEvenWhenSummaryOff(t *testing.T) {
	cfg := baseConfig()
	cfg.PruningSummary = config.SummaryOff
	n := Failure(cfg, "Invalid IDs provided", "ids must be non-negative integers within range")
	if n == nil || n.Channel == ChannelNone {
		t.Fatalf("expected a failure notification to surface regardless of summary setting")
	}
	if !strings.Contains(n.Body, "Invalid IDs provided") || !strings.Contains(n.Body, "must be non-negative") {
		t.Fatalf("unexpected body: %q", n.Body)
	}
}

func TestTransientHostFailureIsAlwaysSwallowed(t *testing.T) {
	if TransientHostFailure(errTransient) != nil {
		t.Fatalf("transient host failures must never surface a notification")
	}
}

var errTransient = &testError{"rpc timeout"}

type testError struct{ msg string }

func (e *testError) Error() string { return e.msg }

func TestSupersedeWritesZeroCountReturnsNil(t *testing.T) {
	if SupersedeWrites(baseConfig(), 0) != nil {
		t.Fatalf("expected nil notification for zero superseded writes")
	}
}

func TestCompressDetailedIncludesTopic(t *testing.T) {
	cfg := baseConfig()
	cfg.PruningSummary = config.SummaryDetailed
	n := Compress(cfg, "Phase A", 3, 1)
	if !strings.Contains(n.Body, `"Phase A"`) {
		t.Fatalf("expected topic in detailed body, got %q", n.Body)
	}
}
