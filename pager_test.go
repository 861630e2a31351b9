package xfeed

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func makePosts(start, n int) []*Post {
	posts := make([]*Post, n)
	for i := range posts {
		posts[i] = &Post{ID: fmt.Sprintf("%d", start+i), Text: "post"}
	}
	return posts
}

func TestPaginatePageSizing(t *testing.T) {
	c := newTestClient()

	var requested []int
	next := 0
	fetch := func(_ context.Context, count int, cursor string) (*Page, error) {
		requested = append(requested, count)
		posts := makePosts(next, count)
		next += count
		return &Page{Posts: posts, NextCursor: fmt.Sprintf("c%d", next)}, nil
	}

	res, err := c.paginate(context.Background(), fetch, 45, nil)
	require.NoError(t, err)
	require.Equal(t, []int{20, 20, 5}, requested, "final page requests exactly the remainder")
	require.Len(t, res.Posts, 45)
	require.Equal(t, 3, res.PagesFetched)
}

func TestPaginateDedup(t *testing.T) {
	c := newTestClient()

	calls := 0
	fetch := func(_ context.Context, count int, cursor string) (*Page, error) {
		calls++
		// Every page overlaps the previous one by half.
		return &Page{Posts: makePosts(calls*10, 20), NextCursor: fmt.Sprintf("c%d", calls)}, nil
	}

	res, err := c.paginate(context.Background(), fetch, 50, nil)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, p := range res.Posts {
		require.False(t, seen[p.ID], "duplicate id %s emitted", p.ID)
		seen[p.ID] = true
	}
	require.GreaterOrEqual(t, len(res.Posts), 50)
}

func TestPaginateRepeatedCursorTerminates(t *testing.T) {
	c := newTestClient()

	calls := 0
	fetch := func(_ context.Context, count int, cursor string) (*Page, error) {
		calls++
		// Same tail cursor forever, fresh duplicate-free posts each time.
		return &Page{Posts: makePosts(calls*100, 5), NextCursor: "tail"}, nil
	}

	res, err := c.paginate(context.Background(), fetch, 1000, nil)
	require.NoError(t, err)
	require.Equal(t, 2, calls, "a repeated cursor must end the walk within one extra call")
	require.Equal(t, "tail", res.LastCursor)
}

func TestPaginateEmptyPageTerminates(t *testing.T) {
	c := newTestClient()

	fetch := func(_ context.Context, count int, cursor string) (*Page, error) {
		if cursor == "" {
			return &Page{Posts: makePosts(0, 7), NextCursor: "c1"}, nil
		}
		return &Page{NextCursor: "c2"}, nil
	}

	res, err := c.paginate(context.Background(), fetch, 100, nil)
	require.NoError(t, err)
	require.Len(t, res.Posts, 7)
	require.Equal(t, 2, res.PagesFetched)
}

func TestPaginatePartialOnFailure(t *testing.T) {
	c := newTestClient()

	fetch := func(_ context.Context, count int, cursor string) (*Page, error) {
		switch cursor {
		case "":
			return &Page{Posts: makePosts(0, 20), NextCursor: "good"}, nil
		case "good":
			return nil, &TransientError{Operation: "TestOp", Err: errors.New("boom")}
		}
		return nil, errors.New("unexpected cursor")
	}

	res, err := c.paginate(context.Background(), fetch, 60, nil)
	require.Error(t, err)
	require.Len(t, res.Posts, 20, "partial results survive the failure")
	require.Equal(t, "good", res.LastCursor, "last good cursor is preserved for resume")
}

func TestPaginateResume(t *testing.T) {
	c := newTestClient()

	fetch := func(_ context.Context, count int, cursor string) (*Page, error) {
		switch cursor {
		case "good":
			// Overlaps the first run's posts entirely, then fresh ones.
			posts := append(makePosts(0, 5), makePosts(100, 15)...)
			return &Page{Posts: posts, NextCursor: "end"}, nil
		case "end":
			return &Page{}, nil
		}
		return nil, errors.New("resume should start at the saved cursor")
	}

	state := &PaginationState{Cursor: "good", SeenIDs: map[string]bool{}}
	for _, p := range makePosts(0, 20) {
		state.SeenIDs[p.ID] = true
	}

	res, err := c.paginate(context.Background(), fetch, 60, state)
	require.NoError(t, err)
	require.Len(t, res.Posts, 15, "posts seen in the previous run are not re-emitted")
}

func TestPaginateRejectsBadCount(t *testing.T) {
	c := newTestClient()
	_, err := c.paginate(context.Background(), func(context.Context, int, string) (*Page, error) {
		t.Fatal("fetch must not run for invalid input")
		return nil, nil
	}, 0, nil)

	var val *ValidationError
	require.ErrorAs(t, err, &val)
}
