// Package selector implements the background-analyser model picker:
// a three-tier priority resolution with capability-check fallback
// across candidate provider/model endpoints.
package selector

import (
	"context"
	"fmt"
)

// Endpoint identifies a provider/model pair, the unit the selector
// resolves and falls back across.
type Endpoint struct {
	ProviderID string
	ModelID    string
}

func (e Endpoint) String() string {
	if e.ProviderID == "" {
		return e.ModelID
	}
	return e.ProviderID + "/" + e.ModelID
}

func (e Endpoint) isZero() bool { return e.ProviderID == "" && e.ModelID == "" }

// Capability checks whether an endpoint can serve a background
// analysis call right now. Implementations wrap a concrete provider
// client behind this one method so the selector's own fallback logic
// never needs to know which SDK is behind any given endpoint.
type Capability interface {
	CheckCapability(ctx context.Context, e Endpoint) error
}

// FallbackError is returned when every candidate endpoint fails its
// capability check — a provider-side condition the caller may
// reasonably retry later rather than treat as a hard failure.
type FallbackError struct {
	Tried []Endpoint
	Last  error
}

func (e *FallbackError) Error() string {
	return fmt.Sprintf("model selector: all %d candidate(s) failed capability check: %v", len(e.Tried), e.Last)
}
func (e *FallbackError) Unwrap() error { return e.Last }

// ToastFunc surfaces a fallback notice to the user, the same
// fire-and-forget shape as the host's tui.showToast RPC.
type ToastFunc func(message string)

// Resolve picks an endpoint in priority order — config override,
// cached per-session endpoint, session-info-derived endpoint — falling
// back through the list on a failed capability check unless strict is
// set, in which case the first candidate's failure is terminal.
func Resolve(ctx context.Context, override, cached, sessionInfo *Endpoint, cap_ Capability, strict bool, toast ToastFunc) (Endpoint, error) {
	var candidates []Endpoint
	for _, c := range []*Endpoint{override, cached, sessionInfo} {
		if c != nil && !c.isZero() {
			candidates = append(candidates, *c)
		}
	}
	if len(candidates) == 0 {
		return Endpoint{}, &FallbackError{Last: fmt.Errorf("no candidate endpoint configured")}
	}

	var lastErr error
	for i, cand := range candidates {
		if err := cap_.CheckCapability(ctx, cand); err != nil {
			lastErr = err
			if strict {
				break
			}
			if toast != nil {
				toast(fmt.Sprintf("model %s unavailable, trying next candidate", cand))
			}
			continue
		}
		if i > 0 && toast != nil {
			toast(fmt.Sprintf("fell back to model %s", cand))
		}
		return cand, nil
	}

	return Endpoint{}, &FallbackError{Tried: candidates, Last: lastErr}
}
