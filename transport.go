package xfeed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	stealth "github.com/anatolykoptev/go-stealth"
)

// maxPageSize is the largest per-request item count the timeline endpoints
// accept.
const maxPageSize = 100

type httpResult struct {
	body    []byte
	headers map[string]string
	status  int
	err     error
}

// do executes one HTTP request under the configured timeout. The underlying
// client blocks, so the call runs in a goroutine and the context decides who
// wins; a late response for an abandoned request is dropped.
func (c *Client) do(parent context.Context, method, url string, headers map[string]string, payload io.Reader) ([]byte, map[string]string, int, error) {
	ctx := parent
	if c.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, c.cfg.RequestTimeout)
		defer cancel()
	}

	ch := make(chan httpResult, 1)
	go func() {
		body, hdrs, status, err := c.http.DoWithHeaderOrder(method, url, headers, payload, feedHeaderOrder)
		ch <- httpResult{body, hdrs, status, err}
	}()

	select {
	case <-ctx.Done():
		// Caller cancellation propagates as-is; a per-request timeout is a
		// transient fault, not a stale-ID signal and not a terminal stop.
		if parent.Err() != nil {
			return nil, nil, 0, parent.Err()
		}
		return nil, nil, 0, fmt.Errorf("request timed out after %s", c.cfg.RequestTimeout)
	case r := <-ch:
		return r.body, r.headers, r.status, r.err
	}
}

// doGET executes an authenticated GET and maps the HTTP outcome onto the
// error taxonomy. A nil error means HTTP 200; the body may still carry a
// GraphQL errors envelope, which the invoker inspects.
func (c *Client) doGET(ctx context.Context, operation, url string) ([]byte, error) {
	return c.doAPI(ctx, "GET", operation, url, nil)
}

// doPOST executes an authenticated JSON mutation.
func (c *Client) doPOST(ctx context.Context, operation, url string, payload []byte) ([]byte, error) {
	return c.doAPI(ctx, "POST", operation, url, payload)
}

func (c *Client) doAPI(ctx context.Context, method, operation, url string, payload []byte) ([]byte, error) {
	// Anti-fingerprint jitter
	if err := stealth.DefaultJitter.Sleep(ctx); err != nil {
		return nil, err
	}

	// Proactive throttle: if a previous 429 marked this operation, fail
	// fast with the known reset instead of burning a request.
	if !c.limiter.Allow(operation) {
		return nil, &RateLimitError{ResetAt: c.limiter.AvailableAt(operation)}
	}

	creds := c.session.snapshot()
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	respBody, respHdrs, status, err := c.do(ctx, method, url, apiHeaders(creds), body)
	if err != nil {
		return nil, &TransientError{Operation: operation, Err: err}
	}

	c.session.absorbCookies(respHdrs)

	switch {
	case status == 200 || status == 201:
		return respBody, nil
	case status == 401 || status == 403:
		return nil, &AuthenticationError{Status: status, Detail: truncateBytes(respBody, 200)}
	case status == 404:
		return nil, &staleIDError{status: status}
	case status == 429:
		reset := parseRateLimitReset(respHdrs["x-rate-limit-reset"])
		c.limiter.MarkRateLimited(operation, reset)
		return nil, &RateLimitError{ResetAt: reset}
	default:
		return nil, &TransientError{
			Operation: operation,
			Err:       fmt.Errorf("HTTP %d: %s", status, truncateBytes(respBody, 200)),
		}
	}
}

// addGraphQLParams builds the full URL with variables, features, and
// optional fieldToggles as URL-encoded JSON.
func addGraphQLParams(url string, variables, features map[string]any, fieldToggles ...map[string]any) string {
	v, _ := json.Marshal(variables)
	f, _ := json.Marshal(features)
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	result := url + sep + "variables=" + jsonEscape(v) + "&features=" + jsonEscape(f)
	if len(fieldToggles) > 0 && fieldToggles[0] != nil {
		ft, _ := json.Marshal(fieldToggles[0])
		result += "&fieldToggles=" + jsonEscape(ft)
	}
	return result
}

// jsonEscape percent-encodes a JSON blob the way the web client does:
// structural characters only, leaving the rest readable in logs.
func jsonEscape(b []byte) string {
	var result strings.Builder
	for _, ch := range string(b) {
		switch ch {
		case ' ':
			result.WriteString("%20")
		case '"':
			result.WriteString("%22")
		case '{':
			result.WriteString("%7B")
		case '}':
			result.WriteString("%7D")
		case '[':
			result.WriteString("%5B")
		case ']':
			result.WriteString("%5D")
		case ':':
			result.WriteString("%3A")
		case ',':
			result.WriteString("%2C")
		case '\'':
			result.WriteString("%27")
		case '|':
			result.WriteString("%7C")
		default:
			result.WriteRune(ch)
		}
	}
	return result.String()
}
