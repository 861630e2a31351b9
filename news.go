package xfeed

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"
)

// defaultNewsTabs are the explore tabs fetched when the caller names none.
var defaultNewsTabs = []string{"news_unified", "sports_unified", "entertainment_unified"}

// News fetches the named explore tabs with bounded concurrency and returns
// their headlines, deduplicated across tabs by case-folded text: the tabs
// overlap heavily, and the same story often differs only in casing.
// A tab that fails is logged and skipped; the call errors only when every
// tab failed or a terminal error (rate limit, auth) occurred.
func (c *Client) News(ctx context.Context, tabs ...string) ([]NewsItem, error) {
	if len(tabs) == 0 {
		tabs = defaultNewsTabs
	}

	perTab := make([][]NewsItem, len(tabs))
	var mu sync.Mutex
	var lastErr error
	failed := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.ResolveConcurrency)

	for i, tab := range tabs {
		g.Go(func() error {
			items, err := c.fetchNewsTab(gctx, tab)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if isTerminal(err) {
					return err
				}
				slog.Warn("explore tab failed, skipping", slog.String("tab", tab), slog.Any("error", err))
				failed++
				lastErr = err
				return nil
			}
			perTab[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if failed == len(tabs) {
		return nil, lastErr
	}

	var all []NewsItem
	for _, items := range perTab {
		all = append(all, items...)
	}
	return dedupHeadlines(all), nil
}

func (c *Client) fetchNewsTab(ctx context.Context, tab string) ([]NewsItem, error) {
	variables := map[string]any{
		"tabId": tab,
	}
	body, err := c.invoke(ctx, "ExplorePage", func(ctx context.Context, opID string) ([]byte, error) {
		u := addGraphQLParams(endpointURL(opID, "ExplorePage"), variables, c.flags.Build("news"))
		return c.doGET(ctx, "ExplorePage", u)
	})
	if err != nil {
		return nil, err
	}

	instrs := instructionsAt(body,
		"data.explore_page.body.initialTimeline.timeline.timeline.instructions",
		"data.explore_page.timeline.timeline.instructions",
	)
	return newsFromInstructions(instrs, tab), nil
}

// newsFromInstructions extracts trend/news entries from an explore timeline.
// Trends ride the same instructions format as posts but with a different
// item content shape.
func newsFromInstructions(instrs gjson.Result, tab string) []NewsItem {
	var items []NewsItem
	instrs.ForEach(func(_, instr gjson.Result) bool {
		instr.Get("entries").ForEach(func(_, entry gjson.Result) bool {
			ic := entry.Get("content.itemContent")
			if !ic.Exists() {
				return true
			}
			switch firstString(ic, "itemType", "__typename") {
			case "TimelineTrend":
				items = append(items, NewsItem{
					Headline: ic.Get("name").String(),
					Category: firstString(ic, "trend_metadata.domain_context", "trendMetadata.domainContext"),
					URL:      ic.Get("trend_url.url").String(),
					Tab:      tab,
				})
			case "TimelineNews":
				items = append(items, NewsItem{
					Headline: firstString(ic, "title", "headline"),
					Category: ic.Get("category").String(),
					URL:      ic.Get("url.url").String(),
					Tab:      tab,
				})
			}
			return true
		})
		return true
	})
	return items
}

// dedupHeadlines drops repeated headlines across tabs, comparing
// case-folded trimmed text. First-seen wins, order preserved.
func dedupHeadlines(items []NewsItem) []NewsItem {
	seen := make(map[string]bool, len(items))
	out := items[:0]
	for _, item := range items {
		key := strings.ToLower(strings.TrimSpace(item.Headline))
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, item)
	}
	return out
}
