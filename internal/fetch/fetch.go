// Package fetch downloads landing pages over HTTP.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/patrickmn/go-cache"
	"golang.org/x/net/html/charset"
)

// DefaultUserAgent identifies the analyzer to the sites it fetches.
const DefaultUserAgent = "Mozilla/5.0 (compatible; CRO-LP-Agent/1.0; +https://example.com)"

// maxBodyBytes caps how much of a page is read.
const maxBodyBytes = 10 << 20

// Options configures a Client.
type Options struct {
	Timeout   time.Duration
	Retries   int
	UserAgent string
	CacheTTL  time.Duration // 0 disables caching
}

// Client fetches pages with retries and an optional per-URL body cache.
type Client struct {
	http      *retryablehttp.Client
	userAgent string
	cache     *cache.Cache
	ttl       time.Duration
}

// New creates a Client.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 20 * time.Second
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = opts.Retries
	rc.RetryWaitMin = 200 * time.Millisecond
	rc.RetryWaitMax = 2 * time.Second
	rc.HTTPClient.Timeout = opts.Timeout
	rc.Logger = nil

	c := &Client{http: rc, userAgent: opts.UserAgent, ttl: opts.CacheTTL}
	if opts.CacheTTL > 0 {
		c.cache = cache.New(opts.CacheTTL, 2*opts.CacheTTL)
	}
	return c
}

// Fetch returns the decoded HTML of url. Non-2xx responses are errors.
func (c *Client) Fetch(ctx context.Context, url string) (string, error) {
	if c.cache != nil {
		if v, ok := c.cache.Get(url); ok {
			return v.(string), nil
		}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("fetch %s: unexpected status %s", url, resp.Status)
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, maxBodyBytes), resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", url, err)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", url, err)
	}

	html := string(data)
	if c.cache != nil {
		c.cache.Set(url, html, cache.DefaultExpiration)
	}
	return html, nil
}

// Forget drops url from the cache.
func (c *Client) Forget(url string) {
	if c.cache != nil {
		c.cache.Delete(url)
	}
}
