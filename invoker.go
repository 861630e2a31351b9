package xfeed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// attemptFunc executes one request with a specific candidate operation ID
// and returns the raw response envelope.
type attemptFunc func(ctx context.Context, opID string) ([]byte, error)

// invoke runs attempt across the candidate ID list for operation. Operation
// IDs are invisible implementation details whose only failure signal is an
// ambiguous error, so the walk is two-tier: iterate every candidate, then
// refresh the registry exactly once and iterate again, then give up with
// the per-ID failure list.
//
// A 429 or an auth rejection short-circuits immediately: every candidate
// shares the same rate-limit window and the same session.
func (c *Client) invoke(ctx context.Context, operation string, attempt attemptFunc) ([]byte, error) {
	ids := c.ops.IDs(operation)
	if len(ids) == 0 {
		return nil, &ValidationError{Field: "operation", Reason: fmt.Sprintf("no candidate IDs for %q", operation)}
	}

	var attempts []IDAttempt
	body, sawStale, err := c.walkCandidates(ctx, operation, ids, attempt, &attempts)
	if err == nil {
		return body, nil
	}
	if isTerminal(err) {
		return nil, err
	}
	if !sawStale {
		// Every candidate failed on network/timeout grounds. A registry
		// refresh cannot fix that, so keep the one refresh in reserve.
		return nil, fmt.Errorf("%s: all %d candidate IDs failed: %w", operation, len(ids), err)
	}

	if rerr := c.ops.Refresh(ctx); rerr != nil {
		slog.Warn("operation registry refresh failed, retrying with existing IDs",
			slog.String("operation", operation), slog.Any("error", rerr))
	}

	body, _, err = c.walkCandidates(ctx, operation, c.ops.IDs(operation), attempt, &attempts)
	if err == nil {
		return body, nil
	}
	if isTerminal(err) {
		return nil, err
	}
	return nil, &StaleOperationError{Operation: operation, Attempts: attempts, Refreshed: true}
}

// walkCandidates tries each ID in order. It returns on the first success or
// the first terminal error; otherwise it records every failure into attempts
// and returns the last error.
func (c *Client) walkCandidates(ctx context.Context, operation string, ids []string, attempt attemptFunc, attempts *[]IDAttempt) (body []byte, sawStale bool, lastErr error) {
	transient := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, sawStale, err
		}

		body, err := attempt(ctx, id)
		if err == nil {
			ok, stale, reason := c.inspectEnvelope(operation, body)
			if ok {
				c.ops.MarkWorking(operation, id)
				return body, sawStale, nil
			}
			if stale {
				sawStale = true
			}
			*attempts = append(*attempts, IDAttempt{ID: id, Reason: reason})
			lastErr = &staleIDError{message: reason}
			continue
		}

		if isTerminal(err) {
			return nil, sawStale, err
		}

		*attempts = append(*attempts, IDAttempt{ID: id, Reason: err.Error()})
		lastErr = err

		var stale *staleIDError
		if errors.As(err, &stale) {
			sawStale = true
			continue
		}

		// Transient fault: back off before the next candidate so a flaky
		// network does not turn the fallback walk into a burst.
		transient++
		if c.backoff != nil {
			if berr := c.backoff(ctx, transient); berr != nil {
				return nil, sawStale, berr
			}
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("%s: no candidate IDs to try", operation)
	}
	return nil, sawStale, lastErr
}

// inspectEnvelope classifies a 200 response. ok means usable data; stale
// means the errors envelope matched the retired-ID pattern set.
func (c *Client) inspectEnvelope(operation string, body []byte) (ok, stale bool, reason string) {
	msgs := graphQLErrors(body)
	if len(msgs) == 0 {
		return true, false, ""
	}
	for _, msg := range msgs {
		if isStaleSignal(msg) {
			return false, true, "graphql error: " + msg
		}
	}
	// Unmatched error shapes: log them for future pattern additions. If the
	// envelope still carries data, the response is usable anyway.
	for _, msg := range msgs {
		c.noteUnknownErrShape(operation, msg)
	}
	if hasResponseData(body) {
		return true, false, ""
	}
	return false, false, "graphql error: " + msgs[0]
}

// isTerminal reports whether err must be surfaced immediately instead of
// trying the next candidate ID.
func isTerminal(err error) bool {
	var rl *RateLimitError
	var auth *AuthenticationError
	var val *ValidationError
	var mut *MutationError
	return errors.As(err, &rl) ||
		errors.As(err, &auth) ||
		errors.As(err, &val) ||
		errors.As(err, &mut) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
