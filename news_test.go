package xfeed

import (
	"testing"

	"github.com/tidwall/gjson"
)

func TestDedupHeadlinesCaseFolded(t *testing.T) {
	items := []NewsItem{
		{Headline: "Market rallies", Tab: "news_unified"},
		{Headline: "Cup final tonight", Tab: "sports_unified"},
		{Headline: "MARKET RALLIES", Tab: "sports_unified"},
		{Headline: "  market rallies ", Tab: "entertainment_unified"},
		{Headline: "", Tab: "news_unified"},
	}

	out := dedupHeadlines(items)
	if len(out) != 2 {
		t.Fatalf("expected 2 unique headlines, got %d: %+v", len(out), out)
	}
	if out[0].Headline != "Market rallies" || out[0].Tab != "news_unified" {
		t.Fatalf("first-seen instance should win: %+v", out[0])
	}
	if out[1].Headline != "Cup final tonight" {
		t.Fatalf("order not preserved: %+v", out[1])
	}
}

func TestNewsFromInstructions(t *testing.T) {
	body := `{"instructions": [{
		"type": "TimelineAddEntries",
		"entries": [
			{"entryId": "trend-1", "content": {"itemContent": {
				"itemType": "TimelineTrend",
				"name": "Market rallies",
				"trend_metadata": {"domain_context": "Business & finance"},
				"trend_url": {"url": "twitter://search/?query=markets"}
			}}},
			{"entryId": "who-to-follow-1", "content": {"itemContent": {
				"itemType": "TimelineUser"
			}}},
			{"entryId": "news-1", "content": {"itemContent": {
				"itemType": "TimelineNews",
				"title": "Cup final tonight",
				"category": "Sports",
				"url": {"url": "https://example.com/final"}
			}}}
		]
	}]}`

	items := newsFromInstructions(gjson.Get(body, "instructions"), "news_unified")
	if len(items) != 2 {
		t.Fatalf("expected 2 news items, got %d: %+v", len(items), items)
	}
	if items[0].Headline != "Market rallies" || items[0].Category != "Business & finance" {
		t.Fatalf("trend mapping: %+v", items[0])
	}
	if items[1].Headline != "Cup final tonight" || items[1].Tab != "news_unified" {
		t.Fatalf("news mapping: %+v", items[1])
	}
}
