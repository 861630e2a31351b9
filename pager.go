package xfeed

import (
	"context"
)

// paginate walks a cursored feed until desired posts were emitted, the feed
// is exhausted, or a page fails. It is the single cursor loop every feed
// family reuses; only the bound fetch function differs.
//
// On failure the partial results and the last good cursor are returned
// alongside the error, so the caller can persist state and resume later.
// Duplicate post IDs are dropped (first-seen wins), and a page whose next
// cursor equals the current one ends the walk: some feeds emit the same
// tail cursor forever.
func (c *Client) paginate(ctx context.Context, fetch PageFetcher, desired int, state *PaginationState) (*FeedResult, error) {
	if desired <= 0 {
		return nil, &ValidationError{Field: "count", Reason: "must be positive"}
	}

	if state == nil {
		state = &PaginationState{}
	}
	if state.SeenIDs == nil {
		state.SeenIDs = make(map[string]bool)
	}

	pageSize := c.cfg.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	res := &FeedResult{LastCursor: state.Cursor}
	cursor := state.Cursor

	for len(res.Posts) < desired {
		count := desired - len(res.Posts)
		if count > pageSize {
			count = pageSize
		}

		page, err := fetch(ctx, count, cursor)
		if err != nil {
			return res, err
		}
		state.PagesFetched++
		res.PagesFetched++

		for _, p := range page.Posts {
			if p == nil || p.ID == "" || state.SeenIDs[p.ID] {
				continue
			}
			state.SeenIDs[p.ID] = true
			res.Posts = append(res.Posts, p)
		}

		if page.NextCursor == "" || len(page.Posts) == 0 {
			break
		}
		if page.NextCursor == cursor {
			break
		}
		cursor = page.NextCursor
		state.Cursor = cursor
		res.LastCursor = cursor
	}

	return res, nil
}
