package xfeed

import (
	"os"
	"path/filepath"
	"time"

	"github.com/anatolykoptev/go-stealth/ratelimit"
)

// Credentials is the session-cookie bundle the client authenticates with.
// Acquisition (browser stores, login flows) is the caller's problem; the
// client only places these values into request headers.
type Credentials struct {
	// SessionToken is the auth_token cookie value.
	SessionToken string

	// CSRFToken is the ct0 cookie value. The platform rotates it via
	// set-cookie; the client tracks rotations internally.
	CSRFToken string

	// UserAgent is sent verbatim. Empty falls back to a desktop Chrome UA.
	UserAgent string
}

// ClientConfig holds all configuration for the feed client.
type ClientConfig struct {
	// Credentials is the session bundle. Both tokens are required.
	Credentials Credentials

	// Proxy is an optional proxy URL for all requests.
	Proxy string

	// StateDir holds the learned operation-ID cache (operations.json) and
	// the feature-flag overrides file (features.json).
	// Default: ~/.go-xfeed
	StateDir string

	// PageSize is the per-request item count hint. Default 20, capped at
	// the platform maximum of 100.
	PageSize int

	// QuoteDepth bounds quoted-post recursion during normalization.
	// Default 1. Set DisableQuotes to turn quote resolution off entirely.
	QuoteDepth    int
	DisableQuotes bool

	// IncludeRaw attaches the original result entry to each Post.
	IncludeRaw bool

	// RequestTimeout bounds every network call. Default 30s.
	RequestTimeout time.Duration

	// RateLimit configures proactive per-operation throttling.
	RateLimit ratelimit.Config

	// CatalogURL is the published web-client bundle the operation-ID
	// registry refreshes from.
	CatalogURL string

	// ResolveConcurrency bounds parallel cursor-less lookups (handle
	// resolution, explore tabs). Default 4.
	ResolveConcurrency int
}

// defaults fills in zero-value config fields with sensible defaults.
func (cfg *ClientConfig) defaults() {
	if cfg.StateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			home = "."
		}
		cfg.StateDir = filepath.Join(home, ".go-xfeed")
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = 20
	}
	if cfg.PageSize > maxPageSize {
		cfg.PageSize = maxPageSize
	}
	if cfg.QuoteDepth == 0 {
		cfg.QuoteDepth = 1
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.RateLimit.RequestsPerWindow == 0 {
		cfg.RateLimit = ratelimit.DefaultConfig
	}
	if cfg.CatalogURL == "" {
		cfg.CatalogURL = defaultCatalogURL
	}
	if cfg.ResolveConcurrency == 0 {
		cfg.ResolveConcurrency = 4
	}
}

// quoteDepth resolves the effective recursion bound.
func (cfg *ClientConfig) quoteDepth() int {
	if cfg.DisableQuotes {
		return 0
	}
	return cfg.QuoteDepth
}
