// Package fetch is the HTTP boundary of the catalog pipeline. It knows how
// to retrieve a URL as decoded JSON or as a queryable HTML document and
// carries no business logic.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const userAgent = "WikiPagesBot/1.0"

// Client fetches remote resources. The underlying http.Client carries no
// cookie jar, so cookies are never persisted across calls.
type Client struct {
	http *http.Client
}

// NewClient wires an HTTP client; a 20 second timeout is applied by default.
func NewClient(client *http.Client) *Client {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &Client{http: client}
}

// JSON issues a GET and decodes the body as a JSON value (object, array,
// string, number, bool or null). The body is decoded regardless of the
// response status: upstream APIs report errors as JSON envelopes that
// callers inspect themselves.
func (c *Client) JSON(ctx context.Context, url string) (any, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}

	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		return nil, &ParseError{URL: url, Err: err}
	}
	return value, nil
}

// Document issues a GET and parses the body as an HTML document supporting
// CSS selector queries. Non-2xx responses are transport failures here.
func (c *Client) Document(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &NetworkError{URL: url, Err: fmt.Errorf("unexpected status %s", resp.Status)}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, &ParseError{URL: url, Err: err}
	}
	return doc, nil
}
