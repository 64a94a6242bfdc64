package ports

import (
	"context"
)

// TitleResolver canonicalizes a raw link title through the wiki query API.
// The second result reports whether the title exists; lookup failures are
// logged by the implementation and reported as not found, never as an error,
// so a single bad link cannot abort a catalog build.
type TitleResolver interface {
	Canonical(ctx context.Context, rawTitle, project string) (string, bool)
}

// ViewCounter sums the daily view series of a page over a fixed date window.
type ViewCounter interface {
	TotalViews(ctx context.Context, pageID string) (int, error)
}

// Notifier delivers the selected page URL to every configured recipient.
type Notifier interface {
	Announce(ctx context.Context, text string) error
}
