package fetch

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestShouldRetry_RetryableClassWithinBudget(t *testing.T) {
	t.Parallel()

	policy := NewRetryPolicy()
	err := classify("u", 503, nil, false)

	require.True(t, policy.ShouldRetry(err, 1))
	require.True(t, policy.ShouldRetry(err, 2))
	require.False(t, policy.ShouldRetry(err, 3))
}

func TestShouldRetry_TerminalClass(t *testing.T) {
	t.Parallel()

	policy := NewRetryPolicy()
	require.False(t, policy.ShouldRetry(classify("u", 404, nil, false), 1))
	require.False(t, policy.ShouldRetry(classify("u", 403, nil, false), 1))
}

func TestShouldRetry_AttemptTimeoutIsTransient(t *testing.T) {
	t.Parallel()

	// A timed-out attempt classifies as transient; the deadline error in
	// its cause chain must not veto the retry.
	policy := NewRetryPolicy()
	err := classify("u", 0, fmt.Errorf("dispatch request: %w", context.DeadlineExceeded), false)
	require.Equal(t, ClassTransientNetwork, err.Class)
	require.True(t, policy.ShouldRetry(err, 1))
	require.True(t, policy.ShouldRetry(err, 2))
	require.False(t, policy.ShouldRetry(err, 3))
}

func TestShouldRetry_ContextAndUnknownErrors(t *testing.T) {
	t.Parallel()

	policy := NewRetryPolicy()
	require.False(t, policy.ShouldRetry(nil, 1))
	require.False(t, policy.ShouldRetry(context.Canceled, 1))
	require.False(t, policy.ShouldRetry(context.DeadlineExceeded, 1))
	require.False(t, policy.ShouldRetry(errors.New("unclassified"), 1))
}

func TestBackoff_GrowsAndStaysBounded(t *testing.T) {
	t.Parallel()

	policy := NewRetryPolicy()
	for attempt := 0; attempt < 10; attempt++ {
		delay := policy.Backoff(attempt)
		require.Greater(t, delay, time.Duration(0))
		require.LessOrEqual(t, delay, policy.maxDelay)
	}
	// The deterministic half of the delay doubles until the cap.
	require.GreaterOrEqual(t, policy.Backoff(2), policy.Backoff(0)/2)
}
