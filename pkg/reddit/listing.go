// SPDX-FileCopyrightText: Copyright 2025 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package reddit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/tidwall/gjson"

	"github.com/datastudies/coursekit/pkg/networking"
)

// MaxListingLimit is the largest page size Reddit accepts.
const MaxListingLimit = 100

// a full page with raw_json can exceed the 1MB fetch default
const maxListingResponseSize = 8 << 20

// Hot implements API.
func (c *Client) Hot(ctx context.Context, subreddit string, limit int) ([]Post, error) {
	if subreddit == "" {
		return nil, errors.New("subreddit cannot be empty")
	}
	if limit < 1 || limit > MaxListingLimit {
		return nil, fmt.Errorf("limit must be between 1 and %d, got %d", MaxListingLimit, limit)
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("raw_json", "1")

	result, err := fetch[json.RawMessage](ctx, c, "/r/"+url.PathEscape(subreddit)+"/hot", query,
		networking.WithMaxResponseSize(maxListingResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to list r/%s: %w", subreddit, err)
	}

	posts, err := parseListing(result.Raw)
	if err != nil {
		return nil, fmt.Errorf("failed to list r/%s: %w", subreddit, err)
	}
	if len(posts) > limit {
		posts = posts[:limit]
	}
	return posts, nil
}

func parseListing(body []byte) ([]Post, error) {
	if kind := gjson.GetBytes(body, "kind").String(); kind != "Listing" {
		return nil, fmt.Errorf("unexpected response kind %q", kind)
	}

	children := gjson.GetBytes(body, "data.children.#.data").Array()
	posts := make([]Post, 0, len(children))
	for _, child := range children {
		var p Post
		if err := json.Unmarshal([]byte(child.Raw), &p); err != nil {
			return nil, fmt.Errorf("failed to parse post: %w", err)
		}
		posts = append(posts, p)
	}
	return posts, nil
}

// fetch waits on the limiter and GETs path relative to the client's base URL.
func fetch[T any](
	ctx context.Context,
	c *Client,
	path string,
	query url.Values,
	opts ...networking.FetchOption,
) (*networking.FetchResult[T], error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	requestURL := c.baseURL + path
	if c.public {
		requestURL += ".json"
	}
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	opts = append(opts, networking.WithHeader("User-Agent", c.userAgent))
	return networking.FetchJSON[T](ctx, c.httpClient, requestURL, opts...)
}
