package xfeed

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistryBundledNeverEmpty(t *testing.T) {
	r := newOperationRegistry("")
	for name := range bundledOperations {
		if len(r.IDs(name)) == 0 {
			t.Fatalf("operation %s has no candidate IDs", name)
		}
	}
}

func TestRegistryMarkWorking(t *testing.T) {
	r := newOperationRegistry("")
	ids := r.IDs("UserTweets")
	require.GreaterOrEqual(t, len(ids), 2)

	last := ids[len(ids)-1]
	r.MarkWorking("UserTweets", last)

	got := r.IDs("UserTweets")
	require.Equal(t, last, got[0], "working ID should move to front")
	require.Len(t, got, len(ids), "promotion must not duplicate")
}

func TestRegistryMarkWorkingUnknownID(t *testing.T) {
	r := newOperationRegistry("")
	before := len(r.IDs("UserTweets"))
	r.MarkWorking("UserTweets", "freshly-learned-id")
	got := r.IDs("UserTweets")
	require.Equal(t, "freshly-learned-id", got[0])
	require.Len(t, got, before+1)
}

func TestRegistryRefreshMergesUnion(t *testing.T) {
	r := newOperationRegistry("")
	before := r.IDs("UserTweets")

	catalog := `e.exports={queryId:"AbCdEfGhIjKlMnOpQrStUv",operationName:"UserTweets",operationType:"query"},` +
		`e.exports={queryId:"ZzZzZzZzZzZzZzZzZzZzZz",operationName:"SomethingThisClientNeverCalls"}`
	r.fetchCatalog = func(ctx context.Context) ([]byte, error) {
		return []byte(catalog), nil
	}

	require.NoError(t, r.Refresh(context.Background()))

	after := r.IDs("UserTweets")
	require.Equal(t, "AbCdEfGhIjKlMnOpQrStUv", after[0], "catalog ID should be tried first")
	require.Len(t, after, len(before)+1, "merge must be union, not replace")
	require.False(t, r.Known("SomethingThisClientNeverCalls"), "unknown names are not adopted")
	require.False(t, r.LastRefreshed().IsZero())
}

func TestRegistryRefreshFailureKeepsIDs(t *testing.T) {
	r := newOperationRegistry("")
	before := r.IDs("SearchTimeline")

	r.fetchCatalog = func(ctx context.Context) ([]byte, error) {
		return nil, fmt.Errorf("cdn unreachable")
	}
	require.Error(t, r.Refresh(context.Background()))
	require.Equal(t, before, r.IDs("SearchTimeline"))

	// A catalog with no recognizable entries is also a failed refresh.
	r.fetchCatalog = func(ctx context.Context) ([]byte, error) {
		return []byte("<html>rate limited</html>"), nil
	}
	require.Error(t, r.Refresh(context.Background()))
	require.Equal(t, before, r.IDs("SearchTimeline"))
}

func TestRegistryPersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "operations.json")

	r := newOperationRegistry(path)
	r.MarkWorking("TweetDetail", "learned-on-disk-id")

	reloaded := newOperationRegistry(path)
	require.Contains(t, reloaded.IDs("TweetDetail"), "learned-on-disk-id")
}
