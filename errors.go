package xfeed

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// AuthenticationError means the session cookies were rejected (401/403).
// Fatal: fresh credentials are required, retrying cannot help.
type AuthenticationError struct {
	Status int
	Detail string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("authentication rejected (HTTP %d): %s", e.Status, e.Detail)
}

// RateLimitError means the platform returned 429. The client does not retry
// internally; ResetAt tells the caller when the window reopens.
type RateLimitError struct {
	ResetAt time.Time
}

func (e *RateLimitError) Error() string {
	wait := time.Until(e.ResetAt).Round(time.Second)
	if wait < 0 {
		wait = 0
	}
	return fmt.Sprintf("rate limited, retry in ~%s", wait)
}

// TransientError wraps a network fault, timeout, or unexpected HTTP status
// that is worth retrying on another candidate operation ID.
type TransientError struct {
	Operation string
	Err       error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("%s: transient: %v", e.Operation, e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IDAttempt records the failure of one candidate operation ID.
type IDAttempt struct {
	ID     string
	Reason string
}

// StaleOperationError means every candidate operation ID was rejected, even
// after a registry refresh. Attempts lists each ID tried and why it failed.
type StaleOperationError struct {
	Operation string
	Attempts  []IDAttempt
	Refreshed bool
}

func (e *StaleOperationError) Error() string {
	ids := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		ids[i] = a.ID
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: all operation IDs exhausted (tried %s", e.Operation, strings.Join(ids, ", "))
	if e.Refreshed {
		b.WriteString("; registry refreshed")
	}
	b.WriteString(")")
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, "\n  %s: %s", a.ID, a.Reason)
	}
	return b.String()
}

// ValidationError reports malformed caller input. It is returned
// synchronously before any network activity.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// MutationError is a posting failure reported by the platform itself
// (duplicate status, restricted reply target, deleted tweet).
type MutationError struct {
	Code    int
	Message string
}

func (e *MutationError) Error() string {
	return fmt.Sprintf("mutation rejected (code %d): %s", e.Code, e.Message)
}

// staleIDError is the internal signal that a specific operation ID was
// rejected. The invoker converts a run of these into a StaleOperationError.
type staleIDError struct {
	status  int
	message string
}

func (e *staleIDError) Error() string {
	if e.message != "" {
		return fmt.Sprintf("operation id rejected: %s", e.message)
	}
	return fmt.Sprintf("operation id rejected (HTTP %d)", e.status)
}

// staleSignals are case-insensitive substrings of GraphQL error messages
// that indicate a retired operation ID. The upstream wording is not a
// contract; unmatched shapes are logged for future additions rather than
// assumed permanent.
var staleSignals = []string{
	"operation",
	"not found",
	"unknown",
	"malformed",
	"queryid",
}

// isStaleSignal reports whether a GraphQL error message looks like a
// retired-operation-ID rejection.
func isStaleSignal(msg string) bool {
	lower := strings.ToLower(msg)
	for _, sig := range staleSignals {
		if strings.Contains(lower, sig) {
			return true
		}
	}
	return false
}

// graphQLErrors extracts error messages from a {data, errors} envelope.
func graphQLErrors(body []byte) []string {
	errs := gjson.GetBytes(body, "errors")
	if !errs.IsArray() {
		return nil
	}
	var msgs []string
	errs.ForEach(func(_, e gjson.Result) bool {
		if m := e.Get("message").String(); m != "" {
			msgs = append(msgs, m)
		}
		return true
	})
	return msgs
}

// graphQLErrorCodes extracts numeric error codes from the envelope, for the
// mutation error taxonomy.
func graphQLErrorCodes(body []byte) []int {
	errs := gjson.GetBytes(body, "errors")
	if !errs.IsArray() {
		return nil
	}
	var codes []int
	errs.ForEach(func(_, e gjson.Result) bool {
		if c := e.Get("code"); c.Exists() {
			codes = append(codes, int(c.Int()))
		}
		return true
	})
	return codes
}

// hasResponseData returns true if the envelope carries a non-null,
// non-empty "data" field.
func hasResponseData(body []byte) bool {
	data := gjson.GetBytes(body, "data")
	switch data.Type {
	case gjson.Null:
		return false
	case gjson.JSON:
		return data.Raw != "{}" && data.Raw != "[]"
	}
	return data.Exists()
}

// parseRateLimitReset parses the x-rate-limit-reset unix timestamp header.
// Falls back to 15 minutes from now if missing or invalid.
func parseRateLimitReset(v string) time.Time {
	if ts, err := strconv.ParseInt(v, 10, 64); err == nil {
		return time.Unix(ts, 0)
	}
	return time.Now().Add(15 * time.Minute)
}

func truncateBytes(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
