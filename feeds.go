package xfeed

import "context"

// fetchFeedPage binds one feed family to the shared invoker and normalizer:
// build the URL for a candidate operation ID, execute, locate the
// instructions array, normalize. Every paginated endpoint module is this
// call plus its own variables and envelope paths.
func (c *Client) fetchFeedPage(ctx context.Context, operation, family string, variables map[string]any, toggles map[string]any, paths ...string) (*Page, error) {
	body, err := c.invoke(ctx, operation, func(ctx context.Context, opID string) ([]byte, error) {
		u := endpointURL(opID, operation)
		if toggles != nil {
			u = addGraphQLParams(u, variables, c.flags.Build(family), toggles)
		} else {
			u = addGraphQLParams(u, variables, c.flags.Build(family))
		}
		return c.doGET(ctx, operation, u)
	})
	if err != nil {
		return nil, err
	}
	return normalizeInstructions(instructionsAt(body, paths...), c.normalizeOpts()), nil
}
