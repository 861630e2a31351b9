package xfeed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"
)

// Profile fetches an account profile by handle.
func (c *Client) Profile(ctx context.Context, handle string) (*Profile, error) {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if handle == "" {
		return nil, &ValidationError{Field: "handle", Reason: "must not be empty"}
	}

	variables := map[string]any{
		"screen_name":              handle,
		"withSafetyModeUserFields": true,
	}
	body, err := c.fetchUserResult(ctx, "UserByScreenName", variables)
	if err != nil {
		return nil, err
	}
	return profileFromBody(body, handle)
}

// ProfileByID fetches an account profile by numeric user ID.
func (c *Client) ProfileByID(ctx context.Context, userID string) (*Profile, error) {
	if userID == "" {
		return nil, &ValidationError{Field: "userID", Reason: "must not be empty"}
	}
	variables := map[string]any{
		"userId": userID,
	}
	body, err := c.fetchUserResult(ctx, "UserByRestId", variables)
	if err != nil {
		return nil, err
	}
	return profileFromBody(body, userID)
}

func (c *Client) fetchUserResult(ctx context.Context, operation string, variables map[string]any) ([]byte, error) {
	return c.invoke(ctx, operation, func(ctx context.Context, opID string) ([]byte, error) {
		u := addGraphQLParams(endpointURL(opID, operation), variables, c.flags.Build("users"))
		return c.doGET(ctx, operation, u)
	})
}

func profileFromBody(body []byte, subject string) (*Profile, error) {
	u := gjson.GetBytes(body, "data.user.result")
	if u.Get("__typename").String() == "UserUnavailable" {
		return nil, fmt.Errorf("user %s unavailable (suspended or restricted)", subject)
	}
	id := firstString(u, "rest_id", "id")
	if id == "" {
		return nil, fmt.Errorf("user %s: empty rest_id in response", subject)
	}

	p := &Profile{
		ID:        id,
		Username:  firstString(u, "legacy.screen_name", "core.screen_name"),
		Name:      firstString(u, "legacy.name", "core.name"),
		Bio:       strings.TrimSpace(firstString(u, "legacy.description", "profile_bio.description")),
		Followers: int(u.Get("legacy.followers_count").Int()),
		Following: int(u.Get("legacy.friends_count").Int()),
		PostCount: int(u.Get("legacy.statuses_count").Int()),
		Verified:  u.Get("legacy.verified").Bool() || u.Get("is_blue_verified").Bool(),
	}
	if created := firstString(u, "legacy.created_at", "core.created_at"); created != "" {
		if t, err := time.Parse(createdAtLayout, created); err == nil {
			p.CreatedAt = t
		}
	}
	return p, nil
}

// ResolveHandle resolves an @handle to a numeric user ID. A value that is
// already numeric passes through without a request.
func (c *Client) ResolveHandle(ctx context.Context, handle string) (string, error) {
	handle = strings.TrimPrefix(strings.TrimSpace(handle), "@")
	if handle == "" {
		return "", &ValidationError{Field: "handle", Reason: "must not be empty"}
	}
	if isNumeric(handle) {
		return handle, nil
	}
	p, err := c.Profile(ctx, handle)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", handle, err)
	}
	return p.ID, nil
}

// ResolveHandles resolves many handles with bounded concurrency. It returns
// every successful mapping; failures are joined into the returned error so
// one bad handle does not lose the rest.
func (c *Client) ResolveHandles(ctx context.Context, handles []string) (map[string]string, error) {
	resolved := make(map[string]string, len(handles))
	var mu sync.Mutex
	var failures []error

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.ResolveConcurrency)

	for _, handle := range handles {
		g.Go(func() error {
			id, err := c.ResolveHandle(ctx, handle)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failures = append(failures, err)
				// Rate limits and auth failures apply to every remaining
				// lookup; stop the group instead of hammering.
				if isTerminal(err) {
					return err
				}
				return nil
			}
			resolved[handle] = id
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return resolved, err
	}
	return resolved, errors.Join(failures...)
}

func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
