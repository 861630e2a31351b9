package xfeed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
)

// PostOptions configures a CreatePost mutation.
type PostOptions struct {
	// ReplyToID makes the new post a reply to an existing post.
	ReplyToID string

	// QuoteOfID makes the new post a quote of an existing post.
	QuoteOfID string
}

// Mutation error codes with a specific meaning for posting.
const (
	mutationCodeDuplicate       = 187
	mutationCodeStatusNotFound  = 144
	mutationCodeReplyRestricted = 385
)

// CreatePost publishes a new post and returns its ID. Expected platform
// rejections (duplicate status, deleted or restricted reply target) come
// back as a *MutationError.
func (c *Client) CreatePost(ctx context.Context, text string, opts *PostOptions) (string, error) {
	if text == "" {
		return "", &ValidationError{Field: "text", Reason: "must not be empty"}
	}

	variables := map[string]any{
		"tweet_text":   text,
		"dark_request": false,
		"media": map[string]any{
			"media_entities":     []any{},
			"possibly_sensitive": false,
		},
		"semantic_annotation_ids": []any{},
	}
	if opts != nil {
		if opts.ReplyToID != "" {
			variables["reply"] = map[string]any{
				"in_reply_to_tweet_id":   opts.ReplyToID,
				"exclude_reply_user_ids": []any{},
			}
		}
		if opts.QuoteOfID != "" {
			variables["attachment_url"] = "https://x.com/i/web/status/" + opts.QuoteOfID
		}
	}

	body, err := c.mutate(ctx, "CreateTweet", "posting", variables)
	if err != nil {
		return "", err
	}

	id := gjson.GetBytes(body, "data.create_tweet.tweet_results.result.rest_id").String()
	if id == "" {
		return "", fmt.Errorf("CreateTweet returned no post ID: %s", truncateBytes(body, 300))
	}
	return id, nil
}

// DeletePost removes a post owned by the authenticated user. Deleting an
// already-deleted post is not an error: the mutation is idempotent upstream.
func (c *Client) DeletePost(ctx context.Context, postID string) error {
	if postID == "" {
		return &ValidationError{Field: "postID", Reason: "must not be empty"}
	}

	variables := map[string]any{
		"tweet_id":     postID,
		"dark_request": false,
	}
	_, err := c.mutate(ctx, "DeleteTweet", "posting", variables)
	return err
}

// mutate executes a POST mutation through the resilient invoker. Mutations
// carry the operation ID both in the URL and as queryId in the body.
func (c *Client) mutate(ctx context.Context, operation, family string, variables map[string]any) ([]byte, error) {
	return c.invoke(ctx, operation, func(ctx context.Context, opID string) ([]byte, error) {
		payload, err := json.Marshal(map[string]any{
			"queryId":   opID,
			"variables": variables,
			"features":  c.flags.Build(family),
		})
		if err != nil {
			return nil, err
		}
		body, err := c.doPOST(ctx, operation, endpointURL(opID, operation), payload)
		if err != nil {
			return nil, err
		}
		if merr := mutationError(body); merr != nil {
			return nil, merr
		}
		return body, nil
	})
}

// mutationError maps posting error codes to MutationError. Codes outside
// the posting taxonomy fall through to the invoker's generic envelope
// inspection.
func mutationError(body []byte) error {
	msgs := graphQLErrors(body)
	for i, code := range graphQLErrorCodes(body) {
		switch code {
		case mutationCodeDuplicate, mutationCodeStatusNotFound, mutationCodeReplyRestricted:
			msg := ""
			if i < len(msgs) {
				msg = msgs[i]
			}
			return &MutationError{Code: code, Message: msg}
		}
	}
	return nil
}
