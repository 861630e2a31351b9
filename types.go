package xfeed

import (
	"context"
	"encoding/json"
	"time"
)

// Author identifies the account that wrote a post.
type Author struct {
	ID       string
	Username string
	Name     string
}

// Media is a normalized media attachment (photo, video, or animated_gif).
// For videos, URL points at the highest-bitrate mp4 variant.
type Media struct {
	Type       string
	URL        string
	PreviewURL string
	Width      int
	Height     int
	DurationMS int
	Bitrate    int
}

// Post is the normalized representation of a single tweet.
type Post struct {
	ID             string
	Text           string
	Author         Author
	CreatedAt      time.Time
	ReplyCount     int
	RetweetCount   int
	LikeCount      int
	ConversationID string
	InReplyToID    string
	Quoted         *Post
	Media          []Media

	// Raw is the original tweet result entry, populated only when
	// ClientConfig.IncludeRaw is set.
	Raw json.RawMessage
}

// Page is one fetched page of a feed.
type Page struct {
	Posts      []*Post
	NextCursor string
}

// PageFetcher fetches a single page of at most count posts at the given
// cursor. An empty cursor means the first page.
type PageFetcher func(ctx context.Context, count int, cursor string) (*Page, error)

// PaginationState is the resumable position of a cursor walk. A caller can
// persist it after a partial run and pass it back in to continue without
// re-emitting posts already seen.
type PaginationState struct {
	Cursor       string          `json:"cursor,omitempty"`
	SeenIDs      map[string]bool `json:"seen_ids,omitempty"`
	PagesFetched int             `json:"pages_fetched"`
}

// FeedResult is the outcome of a pagination run. On error the run stops
// early; Posts then holds the partial results and LastCursor the last cursor
// that produced a good page.
type FeedResult struct {
	Posts        []*Post
	LastCursor   string
	PagesFetched int
}

// Profile is a normalized account profile.
type Profile struct {
	ID        string
	Username  string
	Name      string
	Bio       string
	Followers int
	Following int
	PostCount int
	CreatedAt time.Time
	Verified  bool
}

// NewsItem is one explore/news headline.
type NewsItem struct {
	Headline string
	Category string
	URL      string
	Tab      string
}
