package xfeed

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// createdAtLayout is the platform's legacy timestamp format.
const createdAtLayout = "Mon Jan 02 15:04:05 +0000 2006"

type normalizeOptions struct {
	quoteDepth int
	includeRaw bool
}

// instructionsAt locates the timeline "instructions" array in a response
// body, trying each envelope path in order. The platform has shipped the
// same timeline under different roots (timeline vs timeline_v2), so every
// endpoint family passes its known alternatives.
func instructionsAt(body []byte, paths ...string) gjson.Result {
	root := gjson.ParseBytes(body)
	for _, p := range paths {
		if r := root.Get(p); r.Exists() && r.IsArray() {
			return r
		}
	}
	return gjson.Result{}
}

// normalizeInstructions walks a feed-update instructions array into a flat
// page of posts plus the bottom cursor. Add, replace, and pin instructions
// all contribute entries; grouped modules recurse one level through their
// items array.
func normalizeInstructions(instrs gjson.Result, opts normalizeOptions) *Page {
	page := &Page{}
	instrs.ForEach(func(_, instr gjson.Result) bool {
		if entries := instr.Get("entries"); entries.IsArray() {
			entries.ForEach(func(_, entry gjson.Result) bool {
				collectEntry(entry, page, opts)
				return true
			})
		}
		if entry := instr.Get("entry"); entry.Exists() {
			collectEntry(entry, page, opts)
		}
		return true
	})
	return page
}

func collectEntry(entry gjson.Result, page *Page, opts normalizeOptions) {
	content := entry.Get("content")
	if !content.Exists() {
		return
	}

	entryType := firstString(content, "entryType", "__typename")
	if entryType == "TimelineTimelineCursor" {
		captureCursor(entry.Get("entryId").String(), content, page)
		return
	}

	if ic := content.Get("itemContent"); ic.Exists() {
		collectItemContent(entry.Get("entryId").String(), ic, page, opts)
		return
	}

	// Grouped module (conversation threads, carousels): one nested items
	// array, each wrapping its own itemContent.
	if items := content.Get("items"); items.IsArray() {
		items.ForEach(func(_, it gjson.Result) bool {
			ic := firstResult(it, "item.itemContent", "item.content.itemContent")
			if ic.Exists() {
				collectItemContent(it.Get("entryId").String(), ic, page, opts)
			}
			return true
		})
	}
}

func collectItemContent(entryID string, ic gjson.Result, page *Page, opts normalizeOptions) {
	if firstString(ic, "itemType", "__typename") == "TimelineTimelineCursor" {
		captureCursor(entryID, ic, page)
		return
	}
	tr := firstResult(ic, "tweet_results.result", "tweetResult.result")
	if !tr.Exists() {
		return
	}
	if p := postFromResult(tr, opts, opts.quoteDepth); p != nil {
		page.Posts = append(page.Posts, p)
	}
}

func captureCursor(entryID string, content gjson.Result, page *Page) {
	cursorType := content.Get("cursorType").String()
	if cursorType == "Bottom" || strings.Contains(entryID, "cursor-bottom") {
		page.NextCursor = content.Get("value").String()
	}
}

// postFromResult normalizes one tweet result node. depth bounds quoted-post
// recursion; the upstream data is never assumed acyclic.
func postFromResult(r gjson.Result, opts normalizeOptions, depth int) *Post {
	if r.Get("__typename").String() == "TweetWithVisibilityResults" {
		r = r.Get("tweet")
	}
	id := firstString(r, "rest_id", "legacy.id_str")
	if id == "" {
		return nil
	}

	legacy := r.Get("legacy")
	p := &Post{
		ID:             id,
		Text:           postText(r),
		Author:         authorOf(r),
		ReplyCount:     int(legacy.Get("reply_count").Int()),
		RetweetCount:   int(legacy.Get("retweet_count").Int()),
		LikeCount:      int(legacy.Get("favorite_count").Int()),
		ConversationID: legacy.Get("conversation_id_str").String(),
		InReplyToID:    legacy.Get("in_reply_to_status_id_str").String(),
		Media:          mediaOf(legacy),
	}

	if created := legacy.Get("created_at").String(); created != "" {
		if t, err := time.Parse(createdAtLayout, created); err == nil {
			p.CreatedAt = t
		}
	}

	if depth > 0 {
		quoted := firstResult(r, "quoted_status_result.result", "legacy.quoted_status_result.result")
		if quoted.Exists() {
			p.Quoted = postFromResult(quoted, opts, depth-1)
		}
	}

	if opts.includeRaw {
		p.Raw = json.RawMessage(r.Raw)
	}
	return p
}

// authorOf resolves the post author, trying the user-results layout first
// and the newer flattened core layout second. Each field falls back
// independently: the platform migrated legacy profile fields to "core" one
// at a time.
func authorOf(r gjson.Result) Author {
	u := firstResult(r, "core.user_results.result", "core.user_result.result")
	if !u.Exists() {
		return Author{ID: r.Get("legacy.user_id_str").String()}
	}
	return Author{
		ID:       firstString(u, "rest_id", "id"),
		Username: firstString(u, "legacy.screen_name", "core.screen_name"),
		Name:     firstString(u, "legacy.name", "core.name"),
	}
}

// postText resolves the full text of a post. Long-form sources win over the
// legacy field, which the platform truncates once a note or article exists:
// note rich-text wrapper, then article body, then plain legacy text. First
// non-empty result wins.
func postText(r gjson.Result) string {
	if t := r.Get("note_tweet.note_tweet_results.result.text").String(); t != "" {
		return t
	}
	if t := articleText(r.Get("article.article_results.result")); t != "" {
		return t
	}
	return r.Get("legacy.full_text").String()
}

// articleText resolves an article body: direct text, then the single
// rich-text field, then sectioned blocks joined in order.
func articleText(ar gjson.Result) string {
	if !ar.Exists() {
		return ""
	}
	if t := ar.Get("text").String(); t != "" {
		return t
	}
	if t := ar.Get("content_state.text").String(); t != "" {
		return t
	}
	var sections []string
	ar.Get("content_state.blocks").ForEach(func(_, block gjson.Result) bool {
		if t := block.Get("text").String(); t != "" {
			sections = append(sections, t)
		}
		return true
	})
	return strings.Join(sections, "\n")
}

// mediaOf maps media entities to the uniform shape. extended_entities
// carries the full video info when present; entities is the older location.
func mediaOf(legacy gjson.Result) []Media {
	ents := firstResult(legacy, "extended_entities.media", "entities.media")
	if !ents.IsArray() {
		return nil
	}
	var out []Media
	ents.ForEach(func(_, m gjson.Result) bool {
		media := Media{
			Type:       m.Get("type").String(),
			PreviewURL: m.Get("media_url_https").String(),
			Width:      int(m.Get("original_info.width").Int()),
			Height:     int(m.Get("original_info.height").Int()),
		}
		switch media.Type {
		case "photo":
			media.URL = media.PreviewURL
		case "video", "animated_gif":
			media.DurationMS = int(m.Get("video_info.duration_millis").Int())
			media.URL, media.Bitrate = bestVariant(m.Get("video_info.variants"))
		default:
			return true
		}
		if media.URL != "" {
			out = append(out, media)
		}
		return true
	})
	return out
}

// bestVariant picks the highest-bitrate mp4 variant; animated gifs carry a
// single zero-bitrate variant, which still wins by default.
func bestVariant(variants gjson.Result) (url string, bitrate int) {
	best := -1
	variants.ForEach(func(_, v gjson.Result) bool {
		if ct := v.Get("content_type").String(); ct != "" && ct != "video/mp4" {
			return true
		}
		br := int(v.Get("bitrate").Int())
		if br > best {
			best = br
			url = v.Get("url").String()
			bitrate = br
		}
		return true
	})
	return url, bitrate
}

// firstString returns the first non-empty string among paths.
func firstString(r gjson.Result, paths ...string) string {
	for _, p := range paths {
		if v := r.Get(p).String(); v != "" {
			return v
		}
	}
	return ""
}

// firstResult returns the first existing node among paths.
func firstResult(r gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if v := r.Get(p); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}
