package xfeed

import "context"

// Conversation fetches a post and its reply tree in one request and
// flattens it to server order: focal post first, then replies as the
// conversation-thread modules list them. Duplicate IDs (the focal post can
// appear both standalone and inside a thread module) are dropped,
// first-seen wins.
func (c *Client) Conversation(ctx context.Context, postID string) ([]*Post, error) {
	if postID == "" {
		return nil, &ValidationError{Field: "postID", Reason: "must not be empty"}
	}

	variables := map[string]any{
		"focalTweetId":                           postID,
		"with_rux_injections":                    false,
		"includePromotedContent":                 false,
		"withCommunity":                          true,
		"withQuickPromoteEligibilityTweetFields": true,
		"withBirdwatchNotes":                     true,
		"withVoice":                              true,
		"withV2Timeline":                         true,
	}

	page, err := c.fetchFeedPage(ctx, "TweetDetail", "detail", variables, nil,
		"data.threaded_conversation_with_injections_v2.instructions",
		"data.threaded_conversation_with_injections.instructions",
	)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(page.Posts))
	posts := page.Posts[:0]
	for _, p := range page.Posts {
		if seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		posts = append(posts, p)
	}
	return posts, nil
}
