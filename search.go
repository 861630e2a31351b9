package xfeed

import "context"

// SearchProduct selects the search ranking tab.
type SearchProduct string

const (
	SearchLatest SearchProduct = "Latest"
	SearchTop    SearchProduct = "Top"
	SearchMedia  SearchProduct = "Media"
)

// Search fetches posts matching a raw query. An empty product defaults to
// Latest.
func (c *Client) Search(ctx context.Context, query string, product SearchProduct, count int, state *PaginationState) (*FeedResult, error) {
	if query == "" {
		return nil, &ValidationError{Field: "query", Reason: "must not be empty"}
	}
	if product == "" {
		product = SearchLatest
	}

	fetch := func(ctx context.Context, n int, cursor string) (*Page, error) {
		variables := map[string]any{
			"rawQuery":    query,
			"count":       n,
			"querySource": "typed_query",
			"product":     string(product),
		}
		if cursor != "" {
			variables["cursor"] = cursor
		}
		toggles := map[string]any{
			"withArticleRichContentState": false,
		}
		return c.fetchFeedPage(ctx, "SearchTimeline", "search", variables, toggles,
			"data.search_by_raw_query.search_timeline.timeline.instructions",
		)
	}
	return c.paginate(ctx, fetch, count, state)
}
