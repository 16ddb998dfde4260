package selector

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryClass distinguishes capability-check failures worth retrying
// (a 429, a transient network error) from ones that never are (a bad
// API key, an unknown model).
type RetryClass string

const (
	RetryClassRetryable    RetryClass = "retryable"
	RetryClassMaybe        RetryClass = "maybe"
	RetryClassNonRetryable RetryClass = "non_retryable"
)

// RetryPolicy configures exponential backoff with optional jitter.
type RetryPolicy struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
}

// DefaultRetryPolicy is a conservative policy for a background
// capability probe: a couple of quick retries, not the longer backoff
// a foreground chat completion would warrant.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:   2,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     2 * time.Second,
		Multiplier:   2.0,
		Jitter:       true,
	}
}

// ClassifyFunc decides whether a capability-check error warrants a
// retry. A nil ClassifyFunc passed to WithRetry treats every error as
// retryable, since selector.Capability's contract gives no structured
// error taxonomy to inspect by default.
type ClassifyFunc func(error) RetryClass

type retryingCapability struct {
	inner    Capability
	policy   RetryPolicy
	classify ClassifyFunc
}

// WithRetry wraps a Capability so each CheckCapability call retries
// through the given policy before giving up.
func WithRetry(inner Capability, policy RetryPolicy, classify ClassifyFunc) Capability {
	if classify == nil {
		classify = func(error) RetryClass { return RetryClassRetryable }
	}
	return &retryingCapability{inner: inner, policy: policy, classify: classify}
}

func (r *retryingCapability) CheckCapability(ctx context.Context, e Endpoint) error {
	for attempt := 0; ; attempt++ {
		err := r.inner.CheckCapability(ctx, e)
		if err == nil {
			return nil
		}

		if r.classify(err) == RetryClassNonRetryable {
			return err
		}
		if attempt >= r.policy.MaxRetries {
			return err
		}

		delay := backoffDelay(r.policy, attempt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}

func backoffDelay(policy RetryPolicy, attempt int) time.Duration {
	delay := float64(policy.InitialDelay) * math.Pow(policy.Multiplier, float64(attempt))
	if delay > float64(policy.MaxDelay) {
		delay = float64(policy.MaxDelay)
	}
	if policy.Jitter {
		delay += rand.Float64() * 0.2 * delay
	}
	return time.Duration(delay)
}
