package xfeed

import "context"

// UserTimeline fetches a user's recent posts. handle may be an @handle or a
// numeric user ID; handles are resolved through a non-paginated lookup
// before the cursor walk starts.
func (c *Client) UserTimeline(ctx context.Context, handle string, count int, state *PaginationState) (*FeedResult, error) {
	return c.userTimeline(ctx, "UserTweets", handle, count, state)
}

// UserTimelineWithReplies is UserTimeline including the user's replies.
func (c *Client) UserTimelineWithReplies(ctx context.Context, handle string, count int, state *PaginationState) (*FeedResult, error) {
	return c.userTimeline(ctx, "UserTweetsAndReplies", handle, count, state)
}

func (c *Client) userTimeline(ctx context.Context, operation, handle string, count int, state *PaginationState) (*FeedResult, error) {
	userID, err := c.ResolveHandle(ctx, handle)
	if err != nil {
		return nil, err
	}

	fetch := func(ctx context.Context, n int, cursor string) (*Page, error) {
		variables := map[string]any{
			"userId":                                 userID,
			"count":                                  n,
			"includePromotedContent":                 false,
			"withQuickPromoteEligibilityTweetFields": true,
			"withVoice":                              true,
			"withV2Timeline":                         true,
		}
		if cursor != "" {
			variables["cursor"] = cursor
		}
		return c.fetchFeedPage(ctx, operation, "timeline", variables, nil,
			"data.user.result.timeline_v2.timeline.instructions",
			"data.user.result.timeline.timeline.instructions",
		)
	}
	return c.paginate(ctx, fetch, count, state)
}
