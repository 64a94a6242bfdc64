package wiki

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"WikiPagesBot/internal/fetch"
	"WikiPagesBot/internal/ports"
)

// maxErrorResolutionAttempts bounds re-fetches of an error-shaped stats
// response before a zero sum is accepted as the final answer.
const maxErrorResolutionAttempts = 3

const retryBackoff = 1 * time.Second

// StatsError wraps a genuine stats retrieval failure with the page id, so a
// catalog build can report exactly which page lost its score.
type StatsError struct {
	PageID string
	Err    error
}

func (e *StatsError) Error() string {
	return fmt.Sprintf("retrieve stats for page %s: %v", e.PageID, e.Err)
}

func (e *StatsError) Unwrap() error { return e.Err }

// AggregatorConfig fixes the stats endpoint parameters: the pageviews
// project identifier and the yyyymmdd date window.
type AggregatorConfig struct {
	Project  string
	FromDate string
	ToDate   string
}

// Aggregator sums the per-day view series of a page over the configured
// window. The upstream envelope shape is not contractually fixed, so the
// sum walks the whole JSON value instead of assuming a nesting depth.
type Aggregator struct {
	fetcher *fetch.Client
	cfg     AggregatorConfig
	logger  *slog.Logger
	sleep   func(time.Duration)
}

var _ ports.ViewCounter = (*Aggregator)(nil)

// NewAggregator wires the fetch client with the stats window configuration.
func NewAggregator(fetcher *fetch.Client, cfg AggregatorConfig, logger *slog.Logger) *Aggregator {
	return &Aggregator{fetcher: fetcher, cfg: cfg, logger: logger, sleep: time.Sleep}
}

// TotalViews fetches the daily series for pageID and sums its views fields.
// An error-shaped response (a top-level object carrying a "type" field) with
// a zero sum is re-fetched up to the attempt cap with a fixed backoff; a zero
// that survives the retries is a valid result, not a failure.
func (a *Aggregator) TotalViews(ctx context.Context, pageID string) (int, error) {
	raw, err := a.fetcher.JSON(ctx, a.statsURL(pageID))
	if err != nil {
		return 0, &StatsError{PageID: pageID, Err: err}
	}

	views, err := sumViews(raw)
	if err != nil {
		return 0, &StatsError{PageID: pageID, Err: err}
	}

	if views == 0 {
		attempts := 0
		for isErrorEnvelope(raw) && attempts < maxErrorResolutionAttempts {
			a.sleep(retryBackoff) // give the server a break
			a.logger.Debug("re-executing stats request after error response", "page", pageID, "attempt", attempts+1)

			raw, err = a.fetcher.JSON(ctx, a.statsURL(pageID))
			if err != nil {
				return 0, &StatsError{PageID: pageID, Err: err}
			}
			views, err = sumViews(raw)
			if err != nil {
				return 0, &StatsError{PageID: pageID, Err: err}
			}
			attempts++
		}
		if views == 0 {
			a.logger.Warn("zero views according to the response", "page", pageID)
		}
	}

	a.logger.Info("number of views", "page", pageID, "from", a.cfg.FromDate, "to", a.cfg.ToDate, "views", views)
	return views, nil
}

func (a *Aggregator) statsURL(pageID string) string {
	return fmt.Sprintf("https://wikimedia.org/api/rest_v1/metrics/pageviews/per-article/%s/all-access/user/%s/daily/%s00/%s00",
		a.cfg.Project, pageID, a.cfg.FromDate, a.cfg.ToDate)
}

// sumViews adds up the views field of every object found anywhere in the
// decoded JSON value.
func sumViews(value any) (int, error) {
	total := 0
	err := walkObjects(value, func(obj map[string]any) error {
		raw, ok := obj["views"]
		if !ok {
			return nil
		}
		views, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("views field: %w", err)
		}
		total += views
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

func walkObjects(value any, visit func(map[string]any) error) error {
	switch node := value.(type) {
	case map[string]any:
		if err := visit(node); err != nil {
			return err
		}
		for _, child := range node {
			if err := walkObjects(child, visit); err != nil {
				return err
			}
		}
	case []any:
		for _, child := range node {
			if err := walkObjects(child, visit); err != nil {
				return err
			}
		}
	}
	return nil
}

func asInt(value any) (int, error) {
	switch v := value.(type) {
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", v)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unexpected type %T", value)
	}
}

// isErrorEnvelope reports whether the response looks like an API error
// rather than real zero-view data.
func isErrorEnvelope(value any) bool {
	obj, ok := value.(map[string]any)
	if !ok {
		return false
	}
	_, hasType := obj["type"]
	return hasType
}
