package xfeed

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"
)

const (
	apiBase = "https://x.com/i/api/graphql"

	// defaultCatalogURL is the published web-client bundle the registry
	// refreshes operation IDs from.
	defaultCatalogURL = "https://abs.twimg.com/responsive-web/client-web/main.js"
)

// bundledOperations is the snapshot of known operation IDs shipped with the
// library, ordered most-likely-current first. Every logical operation name
// the client uses must appear here.
var bundledOperations = map[string][]string{
	"Bookmarks":                {"QUjXply7fA7fk05FRyajEg", "j5KExFXtSWj8HjRui17ydA"},
	"UserByScreenName":         {"1VOOyvKkiI3FMmkeDNxM9A", "G3KGOASz96M-Qu0nwmGXNg"},
	"UserByRestId":             {"WJ7rCtezBVT6nk6VM5R8Bw", "tD8zKvQzwY3kdx5yz6YmOw"},
	"UserTweets":               {"HeWHY26ItCfUmm1e6ITjeA", "E3opETHurmVJflFsUBVuUQ"},
	"UserTweetsAndReplies":     {"bt4TKuFz4T7Ckk-VvQVSow", "pZXwh96YGRqmBbbxu7Vk2Q"},
	"UserMedia":                {"dexO_2tohK86JDudXXG3Yw", "aQQLnkexAl5z9ec_UgbEIA"},
	"SearchTimeline":           {"AIdc203rPpK_k_2KWSdm7g", "UN1i3zUiCWa-6r-Uaho4fw"},
	"TweetDetail":              {"_8aYOgEDz35BrBcBal1-_w", "xOhkmRac04YFZmOzU9PJHg"},
	"ListLatestTweetsTimeline": {"2TemLyqrMpTeAmysdbnVqw", "HjsWc-nwwHKYwHenbHm-tw"},
	"CreateTweet":              {"a1p9RWpkYKBjWv_I3WzS-A", "znq7jUAqRjmPj7IszLem5Q"},
	"DeleteTweet":              {"VaenaVgh5q5ih7kvyVjgtg"},
	"ExplorePage":              {"fkypGKlR9Xz9kLvUZDLoXw", "U7pb0d8GBtSb9OcdHXHpkQ"},
}

// lastResortOperations are stale-but-sometimes-accepted IDs appended after
// everything else, so a list is never exhausted by a bad refresh alone.
var lastResortOperations = map[string][]string{
	"UserTweets":       {"V1ze5q3ijDS1VeLwLY0m7g"},
	"SearchTimeline":   {"gkjsKepM6gl_HmFWoWKfgg"},
	"TweetDetail":      {"VWFGPVAGkZMGRKGe3GFFnA"},
	"UserByScreenName": {"sLVLhk0bGj3MVFEKTdax1w"},
}

// catalogEntryRe matches queryId/operationName pairs inside the published
// web-client bundle.
var catalogEntryRe = regexp.MustCompile(`queryId:\s*"([A-Za-z0-9_-]{16,})"\s*,\s*operationName:\s*"([A-Za-z0-9_]+)"`)

// OperationRegistry maps logical operation names to ordered candidate-ID
// lists. IDs learned from the catalog or observed working are persisted to a
// JSON file (name -> []id) between runs. Concurrent processes may race on
// that file; last-writer-wins is fine since a stale list only costs an extra
// fallback attempt.
type OperationRegistry struct {
	mu            sync.Mutex
	ids           map[string][]string
	path          string
	lastRefreshed time.Time

	// fetchCatalog retrieves the published bundle; injected by the client.
	fetchCatalog func(ctx context.Context) ([]byte, error)
}

// newOperationRegistry builds the registry from the bundled snapshot, the
// persisted cache at path (if any), and the last-resort fallbacks, in that
// precedence order. An empty path disables persistence.
func newOperationRegistry(path string) *OperationRegistry {
	r := &OperationRegistry{
		ids:  make(map[string][]string, len(bundledOperations)),
		path: path,
	}
	for name, ids := range bundledOperations {
		r.ids[name] = append([]string(nil), ids...)
	}
	if path != "" {
		if learned, err := loadOperationCache(path); err == nil {
			for name, ids := range learned {
				for _, id := range ids {
					r.appendLocked(name, id)
				}
			}
		} else if !os.IsNotExist(err) {
			slog.Warn("operation cache unreadable, using bundled IDs", slog.String("path", path), slog.Any("error", err))
		}
	}
	for name, ids := range lastResortOperations {
		for _, id := range ids {
			r.appendLocked(name, id)
		}
	}
	return r
}

// IDs returns the ordered candidate list for a logical operation name.
// The returned slice is a copy.
func (r *OperationRegistry) IDs(name string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids[name]...)
}

// Known reports whether the registry has any candidates for name.
func (r *OperationRegistry) Known(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.ids[name]) > 0
}

// MarkWorking moves id to the front of its list so the next call tries the
// known-good ID first.
func (r *OperationRegistry) MarkWorking(name, id string) {
	r.mu.Lock()
	list := r.ids[name]
	for i, existing := range list {
		if existing == id {
			if i > 0 {
				copy(list[1:i+1], list[:i])
				list[0] = id
			}
			r.persistLocked()
			r.mu.Unlock()
			return
		}
	}
	r.ids[name] = append([]string{id}, list...)
	r.persistLocked()
	r.mu.Unlock()
}

// Refresh fetches the published catalog, extracts per-name IDs, and merges
// them (union, newly published IDs first). Failure is non-fatal: the
// existing lists are kept untouched, and no list is ever emptied.
func (r *OperationRegistry) Refresh(ctx context.Context) error {
	if r.fetchCatalog == nil {
		return fmt.Errorf("operation registry: no catalog fetcher configured")
	}
	body, err := r.fetchCatalog(ctx)
	if err != nil {
		return fmt.Errorf("fetch operation catalog: %w", err)
	}

	matches := catalogEntryRe.FindAllSubmatch(body, -1)
	if len(matches) == 0 {
		return fmt.Errorf("operation catalog: no queryId entries found (%d bytes)", len(body))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	merged := 0
	for _, m := range matches {
		id, name := string(m[1]), string(m[2])
		if _, known := r.ids[name]; !known {
			continue
		}
		if r.prependLocked(name, id) {
			merged++
		}
	}
	r.lastRefreshed = time.Now()
	r.persistLocked()
	slog.Info("operation registry refreshed", slog.Int("catalog_entries", len(matches)), slog.Int("new_ids", merged))
	return nil
}

// LastRefreshed returns when the catalog was last merged successfully.
func (r *OperationRegistry) LastRefreshed() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastRefreshed
}

// prependLocked inserts id at the front unless already present.
// Returns true if the list changed.
func (r *OperationRegistry) prependLocked(name, id string) bool {
	for _, existing := range r.ids[name] {
		if existing == id {
			return false
		}
	}
	r.ids[name] = append([]string{id}, r.ids[name]...)
	return true
}

// appendLocked adds id at the back unless already present.
func (r *OperationRegistry) appendLocked(name, id string) {
	for _, existing := range r.ids[name] {
		if existing == id {
			return
		}
	}
	r.ids[name] = append(r.ids[name], id)
}

// persistLocked writes the current lists to the cache file. Best effort.
func (r *OperationRegistry) persistLocked() {
	if r.path == "" {
		return
	}
	data, err := json.MarshalIndent(r.ids, "", "  ")
	if err != nil {
		return
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		slog.Warn("operation cache dir", slog.Any("error", err))
		return
	}
	if err := os.WriteFile(r.path, data, 0o644); err != nil {
		slog.Warn("operation cache write failed", slog.String("path", r.path), slog.Any("error", err))
	}
}

// loadOperationCache reads the persisted name -> []id map.
func loadOperationCache(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var out map[string][]string
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return out, nil
}

// endpointURL builds the GraphQL URL for an operation ID + name pair.
func endpointURL(id, name string) string {
	return fmt.Sprintf("%s/%s/%s", apiBase, id, name)
}
