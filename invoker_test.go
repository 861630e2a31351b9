package xfeed

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// newTestClient builds a client with an in-memory registry and no transport;
// invoker tests drive it through injected attempt functions.
func newTestClient(ids ...string) *Client {
	reg := &OperationRegistry{ids: map[string][]string{"TestOp": ids}}
	return &Client{
		ops:              reg,
		flags:            newFeatureFlags(flagOverrides{}),
		cfg:              ClientConfig{PageSize: 20, QuoteDepth: 1, ResolveConcurrency: 4},
		unknownErrShapes: make(map[string]bool),
	}
}

const okBody = `{"data":{"result":{"ok":true}}}`

func TestInvokeFallbackCount(t *testing.T) {
	c := newTestClient("id1", "id2", "id3")
	refreshes := 0
	c.ops.fetchCatalog = func(ctx context.Context) ([]byte, error) {
		refreshes++
		return nil, fmt.Errorf("should not be called")
	}

	attempts := 0
	body, err := c.invoke(context.Background(), "TestOp", func(_ context.Context, opID string) ([]byte, error) {
		attempts++
		if opID == "id3" {
			return []byte(okBody), nil
		}
		return nil, &staleIDError{status: 404}
	})

	require.NoError(t, err)
	require.Equal(t, okBody, string(body))
	require.Equal(t, 3, attempts, "only the Nth ID succeeds: exactly N attempts")
	require.Equal(t, 0, refreshes, "success within the first pass triggers no refresh")
	require.Equal(t, "id3", c.ops.IDs("TestOp")[0], "working ID gains affinity")
}

func TestInvokeRefreshOncePolicy(t *testing.T) {
	c := newTestClient("id1", "id2")
	refreshes := 0
	c.ops.fetchCatalog = func(ctx context.Context) ([]byte, error) {
		refreshes++
		return []byte(`queryId:"FreshCatalogId12345678",operationName:"TestOp"`), nil
	}

	attempts := 0
	_, err := c.invoke(context.Background(), "TestOp", func(_ context.Context, opID string) ([]byte, error) {
		attempts++
		return nil, &staleIDError{status: 404}
	})

	require.Equal(t, 1, refreshes, "exactly one refresh on stale exhaustion")
	// First pass: 2 IDs. Second pass: the refreshed ID plus the original 2.
	require.Equal(t, 5, attempts)

	var stale *StaleOperationError
	require.ErrorAs(t, err, &stale)
	require.True(t, stale.Refreshed)
	tried := make([]string, len(stale.Attempts))
	for i, a := range stale.Attempts {
		tried[i] = a.ID
	}
	require.Contains(t, tried, "id1")
	require.Contains(t, tried, "id2")
	require.Contains(t, tried, "FreshCatalogId12345678")
}

func TestInvokeStaleGraphQLMessage(t *testing.T) {
	c := newTestClient("old", "new")

	attempts := 0
	body, err := c.invoke(context.Background(), "TestOp", func(_ context.Context, opID string) ([]byte, error) {
		attempts++
		if opID == "old" {
			return []byte(`{"data":null,"errors":[{"message":"PersistedQueryNotFound: unknown queryId"}]}`), nil
		}
		return []byte(okBody), nil
	})

	require.NoError(t, err)
	require.NotNil(t, body)
	require.Equal(t, 2, attempts, "a pattern-matched GraphQL error counts as stale and advances")
}

func TestInvokeRateLimitShortCircuit(t *testing.T) {
	c := newTestClient("id1", "id2", "id3")
	reset := time.Now().Add(30 * time.Second)

	attempts := 0
	_, err := c.invoke(context.Background(), "TestOp", func(_ context.Context, _ string) ([]byte, error) {
		attempts++
		return nil, &RateLimitError{ResetAt: reset}
	})

	require.Equal(t, 1, attempts, "429 must not burn the remaining candidates")
	var rl *RateLimitError
	require.ErrorAs(t, err, &rl)
	wait := time.Until(rl.ResetAt)
	require.InDelta(t, 30*time.Second, wait, float64(2*time.Second))
}

func TestInvokeAuthShortCircuit(t *testing.T) {
	c := newTestClient("id1", "id2")

	attempts := 0
	_, err := c.invoke(context.Background(), "TestOp", func(_ context.Context, _ string) ([]byte, error) {
		attempts++
		return nil, &AuthenticationError{Status: 401, Detail: "bad cookie"}
	})

	require.Equal(t, 1, attempts)
	var auth *AuthenticationError
	require.ErrorAs(t, err, &auth)
}

func TestInvokeTransientNoRefresh(t *testing.T) {
	c := newTestClient("id1", "id2")
	refreshes := 0
	c.ops.fetchCatalog = func(ctx context.Context) ([]byte, error) {
		refreshes++
		return nil, fmt.Errorf("should not be called")
	}

	attempts := 0
	_, err := c.invoke(context.Background(), "TestOp", func(_ context.Context, _ string) ([]byte, error) {
		attempts++
		return nil, &TransientError{Operation: "TestOp", Err: errors.New("request timed out after 30s")}
	})

	require.Error(t, err)
	require.Equal(t, 2, attempts, "timeouts retry across remaining IDs")
	require.Equal(t, 0, refreshes, "a refresh cannot fix network faults")
	var stale *StaleOperationError
	require.False(t, errors.As(err, &stale), "all-transient exhaustion is not a stale-ID failure")
}

func TestInvokeUnmatchedErrorWithData(t *testing.T) {
	c := newTestClient("id1")

	body, err := c.invoke(context.Background(), "TestOp", func(_ context.Context, _ string) ([]byte, error) {
		return []byte(`{"data":{"user":{"id":"1"}},"errors":[{"message":"Some brand new upstream wording"}]}`), nil
	})

	require.NoError(t, err, "unmatched error shapes with usable data are not failures")
	require.NotNil(t, body)
	require.True(t, c.unknownErrShapes["Some brand new upstream wording"], "unmatched shapes are recorded for the log")
}

func TestInvokeCancellation(t *testing.T) {
	c := newTestClient("id1", "id2", "id3")
	ctx, cancel := context.WithCancel(context.Background())

	attempts := 0
	_, err := c.invoke(ctx, "TestOp", func(_ context.Context, _ string) ([]byte, error) {
		attempts++
		cancel()
		return nil, &staleIDError{status: 404}
	})

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, attempts, "cancellation stops the walk")
}
