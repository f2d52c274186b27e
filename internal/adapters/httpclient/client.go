package httpclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"fxconverter/internal/domain"

	"golang.org/x/sync/semaphore"
)

// Client is the network access helper of the converter. Every failure is
// reported as domain.ErrWrongRequest (non-2xx) or domain.ErrServiceUnavailable
// (transport or decoding), with the underlying cause wrapped alongside.
type Client struct {
	http  *http.Client
	slots *semaphore.Weighted
}

type latestResponse struct {
	Rates domain.Rates `json:"rates"`
}

// NewClient returns a client using httpClient. maxConcurrent caps requests in
// flight across all callers; zero or less means no cap.
func NewClient(httpClient *http.Client, maxConcurrent int64) *Client {
	c := &Client{http: httpClient}
	if maxConcurrent > 0 {
		c.slots = semaphore.NewWeighted(maxConcurrent)
	}
	return c
}

func (c *Client) GetCurrencies(ctx context.Context, baseURL string) (domain.Catalog, error) {
	endpoint, err := buildURL(baseURL, "currencies", nil)
	if err != nil {
		return nil, err
	}

	var catalog domain.Catalog
	if err = c.getJSON(ctx, endpoint, &catalog); err != nil {
		return nil, err
	}
	return catalog, nil
}

// GetLatest returns the rates map of the latest endpoint. A body without rates
// yields an empty map.
func (c *Client) GetLatest(ctx context.Context, baseURL string, req domain.ConversionRequest) (domain.Rates, error) {
	endpoint, err := buildURL(baseURL, "latest", req.Query())
	if err != nil {
		return nil, err
	}

	var body latestResponse
	if err = c.getJSON(ctx, endpoint, &body); err != nil {
		return nil, err
	}
	if body.Rates == nil {
		body.Rates = domain.Rates{}
	}
	return body.Rates, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	if c.slots != nil {
		if err := c.slots.Acquire(ctx, 1); err != nil {
			return fmt.Errorf("%w: waiting for request slot: %w", domain.ErrServiceUnavailable, err)
		}
		defer c.slots.Release(1)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request for %s: %w", domain.ErrServiceUnavailable, endpoint, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: failed to execute request for %s: %w", domain.ErrServiceUnavailable, endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: unexpected status code %d for %s", domain.ErrWrongRequest, resp.StatusCode, endpoint)
	}

	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: failed to decode response for %s: %w", domain.ErrServiceUnavailable, endpoint, err)
	}
	return nil
}

func buildURL(baseURL, path string, query url.Values) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("%w: failed to parse base URL: %w", domain.ErrServiceUnavailable, err)
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + path
	if query != nil {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}
