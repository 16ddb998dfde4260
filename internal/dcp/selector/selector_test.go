package selector

import (
	"context"
	"errors"
	"testing"
)

type stubCapability struct {
	fails map[Endpoint]error
}

func (s stubCapability) CheckCapability(_ context.Context, e Endpoint) error {
	return s.fails[e]
}

func TestResolvePrefersConfigOverride(t *testing.T) {
	override := &Endpoint{ProviderID: "anthropic", ModelID: "claude-3-sonnet-20240229"}
	cached := &Endpoint{ProviderID: "openai", ModelID: "gpt-4o-mini"}

	got, err := Resolve(context.Background(), override, cached, nil, stubCapability{}, false, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != *override {
		t.Fatalf("expected override endpoint, got %v", got)
	}
}

func TestResolveFallsBackToCachedWhenOverrideFails(t *testing.T) {
	override := Endpoint{ProviderID: "anthropic", ModelID: "claude-3-sonnet-20240229"}
	cached := Endpoint{ProviderID: "openai", ModelID: "gpt-4o-mini"}
	cap_ := stubCapability{fails: map[Endpoint]error{override: errors.New("overloaded")}}

	var toasted []string
	got, err := Resolve(context.Background(), &override, &cached, nil, cap_, false, func(m string) { toasted = append(toasted, m) })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != cached {
		t.Fatalf("expected fallback to cached endpoint, got %v", got)
	}
	if len(toasted) != 2 {
		t.Fatalf("expected a skip toast and a fallback toast, got %v", toasted)
	}
}

func TestResolveFallsBackToSessionInfoAsLastResort(t *testing.T) {
	override := Endpoint{ProviderID: "anthropic", ModelID: "claude-3-sonnet-20240229"}
	cached := Endpoint{ProviderID: "openai", ModelID: "gpt-4o-mini"}
	sessionInfo := Endpoint{ProviderID: "kimi", ModelID: "kimi-k2"}
	cap_ := stubCapability{fails: map[Endpoint]error{
		override: errors.New("down"),
		cached:   errors.New("down"),
	}}

	got, err := Resolve(context.Background(), &override, &cached, &sessionInfo, cap_, false, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != sessionInfo {
		t.Fatalf("expected fallback to sessionInfo endpoint, got %v", got)
	}
}

func TestResolveStrictModeDoesNotFallBack(t *testing.T) {
	override := Endpoint{ProviderID: "anthropic", ModelID: "claude-3-sonnet-20240229"}
	cached := Endpoint{ProviderID: "openai", ModelID: "gpt-4o-mini"}
	cap_ := stubCapability{fails: map[Endpoint]error{override: errors.New("down")}}

	_, err := Resolve(context.Background(), &override, &cached, nil, cap_, true, nil)
	var fbErr *FallbackError
	if !errors.As(err, &fbErr) {
		t.Fatalf("expected a FallbackError in strict mode, got %v", err)
	}
}

func TestResolveAllCandidatesFail(t *testing.T) {
	override := Endpoint{ProviderID: "anthropic", ModelID: "claude-3-sonnet-20240229"}
	cap_ := stubCapability{fails: map[Endpoint]error{override: errors.New("down")}}

	_, err := Resolve(context.Background(), &override, nil, nil, cap_, false, nil)
	if err == nil {
		t.Fatalf("expected an error when every candidate fails")
	}
}

func TestResolveNoCandidatesConfigured(t *testing.T) {
	_, err := Resolve(context.Background(), nil, nil, nil, stubCapability{}, false, nil)
	if err == nil {
		t.Fatalf("expected an error when no candidate endpoint is configured")
	}
}

func TestEndpointString(t *testing.T) {
	e := Endpoint{ProviderID: "openai", ModelID: "gpt-4o-mini"}
	if e.String() != "openai/gpt-4o-mini" {
		t.Fatalf("unexpected String(): %q", e.String())
	}
	bare := Endpoint{ModelID: "local-model"}
	if bare.String() != "local-model" {
		t.Fatalf("unexpected String() for providerless endpoint: %q", bare.String())
	}
}
