package xfeed

import (
	"encoding/json"
	"log/slog"
	"os"
)

// The GraphQL endpoints refuse requests whose feature blob is missing flags
// they have started requiring. Compiled defaults cover the current set; the
// overrides file (features.json: {"global": {...}, "sets": {"<family>":
// {...}}}) lets a deployment add or flip flags without a code change.
// Precedence: compiled core < compiled family template < global overrides <
// per-family overrides.

// coreFeatureFlags is the shared capability blob every endpoint family sends.
func coreFeatureFlags() map[string]any {
	return map[string]any{
		"articles_preview_enabled":                                                true,
		"c9s_tweet_anatomy_moderator_badge_enabled":                               true,
		"communities_web_enable_tweet_community_results_fetch":                    true,
		"creator_subscriptions_quote_tweet_preview_enabled":                       false,
		"creator_subscriptions_tweet_preview_api_enabled":                         true,
		"freedom_of_speech_not_reach_fetch_enabled":                               true,
		"graphql_is_translatable_rweb_tweet_is_translatable_enabled":              true,
		"longform_notetweets_consumption_enabled":                                 true,
		"longform_notetweets_inline_media_enabled":                                true,
		"longform_notetweets_rich_text_read_enabled":                              true,
		"premium_content_api_read_enabled":                                        false,
		"profile_label_improvements_pcf_label_in_post_enabled":                    false,
		"responsive_web_edit_tweet_api_enabled":                                   true,
		"responsive_web_enhance_cards_enabled":                                    false,
		"responsive_web_graphql_exclude_directive_enabled":                        true,
		"responsive_web_graphql_skip_user_profile_image_extensions_enabled":       false,
		"responsive_web_graphql_timeline_navigation_enabled":                      true,
		"responsive_web_grok_analyze_button_fetch_trends_enabled":                 false,
		"responsive_web_grok_analyze_post_followups_enabled":                      false,
		"responsive_web_grok_image_annotation_enabled":                            false,
		"responsive_web_grok_share_attachment_enabled":                            false,
		"responsive_web_media_download_video_enabled":                             false,
		"responsive_web_twitter_article_tweet_consumption_enabled":                true,
		"rweb_tipjar_consumption_enabled":                                         true,
		"rweb_video_timestamps_enabled":                                           true,
		"standardized_nudges_misinfo":                                             true,
		"tweet_awards_web_tipping_enabled":                                        false,
		"tweet_with_visibility_results_prefer_gql_limited_actions_policy_enabled": true,
		"tweet_with_visibility_results_prefer_gql_media_interstitial_enabled":     false,
		"tweetypie_unmention_optimization_enabled":                                true,
		"verified_phone_label_enabled":                                            false,
		"view_counts_everywhere_api_enabled":                                      true,
	}
}

// familyFeatureFlags are per-endpoint-family additions on top of the core blob.
var familyFeatureFlags = map[string]map[string]any{
	"bookmarks": {
		"graphql_timeline_v2_bookmark_timeline": true,
	},
	"timeline": {
		"responsive_web_home_pinned_timelines_enabled": true,
	},
	"search": {
		"responsive_web_enhance_cards_enabled": false,
	},
	"detail": {
		"vibe_api_enabled":         true,
		"interactive_text_enabled": true,
		"responsive_web_text_conversations_enabled": false,
	},
	"lists": {},
	"media": {},
	"posting": {
		"responsive_web_jetfuel_frame": false,
	},
	"news": {
		"responsive_web_grok_analyze_button_fetch_trends_enabled": true,
	},
	"users": {
		"hidden_profile_subscriptions_enabled":                         true,
		"subscriptions_verification_info_is_identity_verified_enabled": true,
		"subscriptions_verification_info_verified_since_enabled":       true,
		"highlights_tweets_tab_ui_enabled":                             true,
		"responsive_web_twitter_article_notes_tab_enabled":             true,
		"subscriptions_feature_can_gift_premium":                       true,
	},
}

// flagOverrides is the on-disk schema of the features.json overrides file.
type flagOverrides struct {
	Global map[string]any            `json:"global"`
	Sets   map[string]map[string]any `json:"sets"`
}

// FeatureFlags assembles the capability blob each endpoint family sends.
type FeatureFlags struct {
	overrides flagOverrides
}

// newFeatureFlags builds the assembler with the given overrides.
func newFeatureFlags(ov flagOverrides) *FeatureFlags {
	return &FeatureFlags{overrides: ov}
}

// loadFlagOverrides reads the overrides file. A missing file is not an
// error; a malformed one is logged and ignored so a bad edit cannot take
// the client down.
func loadFlagOverrides(path string) flagOverrides {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("feature overrides unreadable", slog.String("path", path), slog.Any("error", err))
		}
		return flagOverrides{}
	}
	var ov flagOverrides
	if err := json.Unmarshal(data, &ov); err != nil {
		slog.Warn("feature overrides malformed, ignoring", slog.String("path", path), slog.Any("error", err))
		return flagOverrides{}
	}
	return ov
}

// Build returns the merged feature blob for an endpoint family.
func (f *FeatureFlags) Build(family string) map[string]any {
	out := coreFeatureFlags()
	for k, v := range familyFeatureFlags[family] {
		out[k] = v
	}
	for k, v := range f.overrides.Global {
		out[k] = v
	}
	for k, v := range f.overrides.Sets[family] {
		out[k] = v
	}
	return out
}
