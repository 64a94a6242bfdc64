// Package wiki talks to the Wikimedia APIs: the query API for title
// canonicalization and the pageviews API for popularity scores.
package wiki

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"WikiPagesBot/internal/fetch"
	"WikiPagesBot/internal/ports"
)

// notFoundKey is the query API sentinel for a missing page: the pages map
// is keyed by page id and "-1" marks a title that does not exist.
const notFoundKey = "-1"

// Canonicalizer resolves raw link titles into their authoritative,
// de-redirected form via the wiki query API.
type Canonicalizer struct {
	fetcher *fetch.Client
	logger  *slog.Logger
}

var _ ports.TitleResolver = (*Canonicalizer)(nil)

// NewCanonicalizer wires the fetch client and a logger.
func NewCanonicalizer(fetcher *fetch.Client, logger *slog.Logger) *Canonicalizer {
	return &Canonicalizer{fetcher: fetcher, logger: logger}
}

// Canonical resolves rawTitle through the project's query API, following at
// most one redirect hop. Missing titles, malformed responses and transport
// failures all come back as not found; a single bad link must never abort a
// whole catalog build.
func (c *Canonicalizer) Canonical(ctx context.Context, rawTitle, project string) (string, bool) {
	queryURL := queryAPIURL(project, rawTitle)

	raw, err := c.fetcher.JSON(ctx, queryURL)
	if err != nil {
		c.logger.Debug("canonicalization request failed", "title", rawTitle, "project", project, "error", err)
		return "", false
	}

	root, ok := raw.(map[string]any)
	if !ok {
		c.logger.Debug("query response is not an object", "title", rawTitle, "project", project)
		return "", false
	}
	query, ok := root["query"].(map[string]any)
	if !ok {
		c.logger.Debug("query response has no query object", "title", rawTitle, "project", project)
		return "", false
	}

	if pages, ok := query["pages"].(map[string]any); ok {
		if _, missing := pages[notFoundKey]; missing {
			c.logger.Debug("title not found", "title", rawTitle, "project", project)
			return "", false
		}
	}

	if redirects, ok := query["redirects"].([]any); ok && len(redirects) > 0 {
		first, ok := redirects[0].(map[string]any)
		if !ok {
			c.logger.Warn("redirect entry is not an object", "title", rawTitle, "project", project)
			return "", false
		}
		to, ok := first["to"].(string)
		if !ok {
			c.logger.Warn("redirect target is not a string", "title", rawTitle, "project", project)
			return "", false
		}
		return to, true
	}

	return rawTitle, true
}

func queryAPIURL(project, title string) string {
	return fmt.Sprintf("https://%s/w/api.php?action=query&titles=%s&redirects&format=json",
		project, url.QueryEscape(title))
}
