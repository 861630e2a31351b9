package xfeed

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-stealth/ratelimit"
)

// Client is the feed client. One Client holds one credential bundle; all
// endpoint families hang off it and share the transport, the feature-flag
// builder, and the operation-ID registry.
type Client struct {
	http    *stealth.BrowserClient
	session *session
	ops     *OperationRegistry
	flags   *FeatureFlags
	limiter *ratelimit.Limiter
	cfg     ClientConfig

	// backoff sleeps between transient retries; swapped out in tests.
	backoff func(ctx context.Context, attempt int) error

	mu               sync.Mutex
	unknownErrShapes map[string]bool
}

// NewClient creates a fully-wired client. Missing credentials are a
// ValidationError; nothing touches the network here.
func NewClient(cfg ClientConfig) (*Client, error) {
	cfg.defaults()

	if cfg.Credentials.SessionToken == "" {
		return nil, &ValidationError{Field: "Credentials.SessionToken", Reason: "required"}
	}
	if cfg.Credentials.CSRFToken == "" {
		return nil, &ValidationError{Field: "Credentials.CSRFToken", Reason: "required"}
	}

	opts := []stealth.ClientOption{
		stealth.WithHeaderOrder(feedHeaderOrder),
	}
	if cfg.Proxy != "" {
		opts = append(opts, stealth.WithProxy(cfg.Proxy))
	}
	bc, err := stealth.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("stealth client: %w", err)
	}

	if cfg.Proxy != "" {
		slog.Debug("using proxy", slog.String("proxy", stealth.MaskProxy(cfg.Proxy)))
	}

	c := &Client{
		http:             bc,
		session:          newSession(cfg.Credentials),
		ops:              newOperationRegistry(filepath.Join(cfg.StateDir, "operations.json")),
		flags:            newFeatureFlags(loadFlagOverrides(filepath.Join(cfg.StateDir, "features.json"))),
		limiter:          ratelimit.NewLimiter(cfg.RateLimit),
		cfg:              cfg,
		backoff:          sleepBackoff,
		unknownErrShapes: make(map[string]bool),
	}
	c.ops.fetchCatalog = c.downloadCatalog
	return c, nil
}

// sleepBackoff waits out the default exponential backoff, honoring ctx.
func sleepBackoff(ctx context.Context, attempt int) error {
	select {
	case <-time.After(stealth.DefaultBackoff.Duration(attempt)):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Operations exposes the registry so callers can trigger a refresh on their
// own schedule or inspect the learned IDs.
func (c *Client) Operations() *OperationRegistry {
	return c.ops
}

// downloadCatalog fetches the published web-client bundle for the registry.
func (c *Client) downloadCatalog(ctx context.Context) ([]byte, error) {
	creds := c.session.snapshot()
	body, _, status, err := c.do(ctx, "GET", c.cfg.CatalogURL, catalogHeaders(creds.UserAgent), nil)
	if err != nil {
		return nil, err
	}
	if status != 200 {
		return nil, fmt.Errorf("catalog HTTP %d", status)
	}
	return body, nil
}

// noteUnknownErrShape logs an unmatched GraphQL error message once per
// distinct message, so pattern-list gaps surface without flooding the log.
func (c *Client) noteUnknownErrShape(operation, msg string) {
	c.mu.Lock()
	seen := c.unknownErrShapes[msg]
	if !seen {
		c.unknownErrShapes[msg] = true
	}
	c.mu.Unlock()
	if !seen {
		slog.Warn("unmatched GraphQL error shape",
			slog.String("operation", operation),
			slog.String("message", msg))
	}
}

func (c *Client) normalizeOpts() normalizeOptions {
	return normalizeOptions{
		quoteDepth: c.cfg.quoteDepth(),
		includeRaw: c.cfg.IncludeRaw,
	}
}
