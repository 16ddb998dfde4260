package selector

import (
	"context"
	"fmt"
)

// ProviderCapability dispatches a capability check to whichever
// concrete checker is registered for an endpoint's ProviderID. The
// registry is populated by the host's config rather than read from
// the process environment directly — API keys are the host's
// concern, not the selector's.
type ProviderCapability struct {
	byProvider map[string]Capability
}

// NewProviderCapability builds an empty registry; register concrete
// checkers with Register before first use.
func NewProviderCapability() *ProviderCapability {
	return &ProviderCapability{byProvider: make(map[string]Capability)}
}

// Register associates a provider id (e.g. "anthropic", "openai",
// "kimi", "deepseek") with the Capability that can check it.
func (p *ProviderCapability) Register(providerID string, c Capability) {
	p.byProvider[providerID] = c
}

func (p *ProviderCapability) CheckCapability(ctx context.Context, e Endpoint) error {
	c, ok := p.byProvider[e.ProviderID]
	if !ok {
		return fmt.Errorf("no capability checker registered for provider %q", e.ProviderID)
	}
	return c.CheckCapability(ctx, e)
}
