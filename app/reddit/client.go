package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

const (
	DefaultBaseURL = "https://www.reddit.com"

	minLimit     = 1
	maxLimit     = 100
	defaultLimit = 25
)

// Client fetches subreddit listings from the public JSON endpoints. One
// request per call, no retries; the caller owns rate limiting and timeouts
// through the context.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

func NewClient(httpClient *http.Client, baseURL string, userAgent string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		userAgent:  userAgent,
	}
}

// Fetch returns up to opts.Limit raw posts for the subreddit listing, in the
// order the upstream returned them.
func (c *Client) Fetch(ctx context.Context, subreddit string, mode Mode, opts FetchOptions) ([]RawPost, error) {
	requestURL, err := c.buildURL(subreddit, mode, opts)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "GET", requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch listing: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	var envelope listingEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode listing: %w", err)
	}

	posts := make([]RawPost, 0, len(envelope.Data.Children))
	for _, child := range envelope.Data.Children {
		posts = append(posts, child.Data)
	}

	return posts, nil
}

func (c *Client) buildURL(subreddit string, mode Mode, opts FetchOptions) (string, error) {
	if subreddit == "" {
		return "", fmt.Errorf("subreddit is required")
	}
	if !mode.Valid() {
		return "", fmt.Errorf("invalid listing mode: %q", mode)
	}
	if opts.Timeframe != "" && !opts.Timeframe.Valid() {
		return "", fmt.Errorf("invalid timeframe: %q", opts.Timeframe)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit < minLimit {
		limit = minLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("raw_json", "1")

	var path string
	switch mode {
	case ModeSearch:
		if opts.Query == "" {
			return "", fmt.Errorf("search mode requires a query")
		}
		path = fmt.Sprintf("/r/%s/search.json", url.PathEscape(subreddit))
		params.Set("q", opts.Query)
		params.Set("restrict_sr", "1")
		params.Set("sort", "relevance")
		if opts.Timeframe != "" {
			params.Set("t", string(opts.Timeframe))
		}
	case ModeTop:
		path = fmt.Sprintf("/r/%s/top.json", url.PathEscape(subreddit))
		if opts.Timeframe != "" {
			params.Set("t", string(opts.Timeframe))
		}
	default:
		path = fmt.Sprintf("/r/%s/%s.json", url.PathEscape(subreddit), mode)
	}

	return c.baseURL + path + "?" + params.Encode(), nil
}
