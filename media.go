package xfeed

import "context"

// UserMedia fetches a user's media posts (photos, videos, gifs). handle may
// be an @handle or a numeric user ID.
func (c *Client) UserMedia(ctx context.Context, handle string, count int, state *PaginationState) (*FeedResult, error) {
	userID, err := c.ResolveHandle(ctx, handle)
	if err != nil {
		return nil, err
	}

	fetch := func(ctx context.Context, n int, cursor string) (*Page, error) {
		variables := map[string]any{
			"userId":                 userID,
			"count":                  n,
			"includePromotedContent": false,
			"withClientEventToken":   false,
			"withVoice":              true,
			"withV2Timeline":         true,
		}
		if cursor != "" {
			variables["cursor"] = cursor
		}
		return c.fetchFeedPage(ctx, "UserMedia", "media", variables, nil,
			"data.user.result.timeline_v2.timeline.instructions",
			"data.user.result.timeline.timeline.instructions",
		)
	}
	return c.paginate(ctx, fetch, count, state)
}
