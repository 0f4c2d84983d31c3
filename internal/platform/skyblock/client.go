// Package skyblock is the REST adapter for the Hypixel Skyblock market
// endpoints: the paginated auction house feed and the bazaar order book.
// It classifies transport and payload failures into the domain error
// taxonomy; retry policy lives one layer up, in the fetcher.
package skyblock

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/skyblocktools/flipfinder/internal/domain"
)

// maxTotalPages bounds the page count accepted from the auctions feed. The
// real auction house hovers around 60-80 pages; a count wildly above that is
// a corrupted or hostile payload, not a bigger market, and must not drive
// allocation downstream.
const maxTotalPages = 10_000

// Client is the low-level HTTP client for the Hypixel API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a Client for the given API root and credential.
//
// baseURL is the API root, e.g. "https://api.hypixel.net".
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetAuctionsPage returns one page of the auction house feed. An empty page
// is a valid result; failures are always reported as errors so callers can
// distinguish "no listings" from "fetch failed".
func (c *Client) GetAuctionsPage(ctx context.Context, page int) (domain.RawPage, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))

	body, err := c.doGet(ctx, "/skyblock/auctions?"+params.Encode())
	if err != nil {
		return domain.RawPage{}, fmt.Errorf("skyblock: get auctions page %d: %w", page, err)
	}

	var resp auctionsPage
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.RawPage{}, fmt.Errorf("skyblock: decode auctions page %d: %w", page, domain.ErrMalformed)
	}
	if !resp.Success {
		return domain.RawPage{}, fmt.Errorf("skyblock: auctions page %d rejected (%s): %w", page, resp.Cause, domain.ErrMalformed)
	}
	if resp.TotalPages < 1 || resp.TotalPages > maxTotalPages {
		return domain.RawPage{}, fmt.Errorf("skyblock: auctions page %d reports %d total pages: %w", page, resp.TotalPages, domain.ErrMalformed)
	}

	return toRawPage(resp), nil
}

// GetBazaar returns the complete bazaar order book.
func (c *Client) GetBazaar(ctx context.Context) (domain.OrderBook, error) {
	body, err := c.doGet(ctx, "/skyblock/bazaar")
	if err != nil {
		return nil, fmt.Errorf("skyblock: get bazaar: %w", err)
	}

	var resp bazaarResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("skyblock: decode bazaar: %w", domain.ErrMalformed)
	}
	if !resp.Success {
		return nil, fmt.Errorf("skyblock: bazaar rejected (%s): %w", resp.Cause, domain.ErrMalformed)
	}

	return toOrderBook(resp), nil
}

// doGet performs an authenticated GET and classifies the response status into
// the domain error taxonomy. The response body is returned on 2xx only.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("API-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeouts and connection errors are transient.
		return nil, fmt.Errorf("do request: %v: %w", err, domain.ErrUnavailable)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		if after := parseRetryAfter(resp.Header.Get("Retry-After")); after > 0 {
			return nil, &domain.RetryAfterError{After: after}
		}
		return nil, domain.ErrRateLimited
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("status %d: %w", resp.StatusCode, domain.ErrUnavailable)
	case resp.StatusCode != http.StatusOK:
		// 403 (bad key) and friends are not retryable.
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(b))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %v: %w", err, domain.ErrUnavailable)
	}
	return body, nil
}

// parseRetryAfter handles the delta-seconds form of the Retry-After header.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
