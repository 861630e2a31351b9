package xfeed

import "context"

// ListTimeline fetches the latest posts of a list by its numeric ID.
func (c *Client) ListTimeline(ctx context.Context, listID string, count int, state *PaginationState) (*FeedResult, error) {
	if listID == "" {
		return nil, &ValidationError{Field: "listID", Reason: "must not be empty"}
	}

	fetch := func(ctx context.Context, n int, cursor string) (*Page, error) {
		variables := map[string]any{
			"listId": listID,
			"count":  n,
		}
		if cursor != "" {
			variables["cursor"] = cursor
		}
		return c.fetchFeedPage(ctx, "ListLatestTweetsTimeline", "lists", variables, nil,
			"data.list.tweets_timeline.timeline.instructions",
			"data.list.timeline_response.timeline.instructions",
		)
	}
	return c.paginate(ctx, fetch, count, state)
}
