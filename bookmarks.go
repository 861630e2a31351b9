package xfeed

import "context"

// Bookmarks fetches the authenticated user's bookmarks, newest first.
// state may be nil; pass a previous run's state to resume.
func (c *Client) Bookmarks(ctx context.Context, count int, state *PaginationState) (*FeedResult, error) {
	fetch := func(ctx context.Context, n int, cursor string) (*Page, error) {
		variables := map[string]any{
			"count":                  n,
			"includePromotedContent": false,
		}
		if cursor != "" {
			variables["cursor"] = cursor
		}
		return c.fetchFeedPage(ctx, "Bookmarks", "bookmarks", variables, nil,
			"data.bookmark_timeline_v2.timeline.instructions",
			"data.bookmark_timeline.timeline.instructions",
		)
	}
	return c.paginate(ctx, fetch, count, state)
}
